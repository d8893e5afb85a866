package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/transsahel/colis-tracker/internal/auth"
	"github.com/transsahel/colis-tracker/internal/domain"
	"github.com/transsahel/colis-tracker/internal/mailer"
	"github.com/transsahel/colis-tracker/internal/pkg/logger"
	"github.com/transsahel/colis-tracker/internal/pkg/strutil"
	"github.com/transsahel/colis-tracker/internal/quota"
	"github.com/transsahel/colis-tracker/internal/service/shipment"
)

// QuotaLimiter throttles outbound sends. Allow reserves n sends; when the
// minute window is full it returns allowed=false with the time to wait,
// and when the daily ceiling is exhausted it returns an error.
type QuotaLimiter interface {
	Allow(ctx context.Context, n int) (allowed bool, wait time.Duration, err error)
}

// Options tunes the notifier. Zero values fall back to the documented
// defaults.
type Options struct {
	FromEmail string
	FromName  string

	MaxAttempts    int           // per-recipient send attempts (default 5)
	RetryBaseDelay time.Duration // linear backoff step (default 2s)
	PacingDelay    time.Duration // delay between distinct recipients (default 600ms)
	SendTimeout    time.Duration // per-attempt timeout (default 15s)

	// DelayNote is the static transit-time disclaimer shown in the
	// en-route email.
	DelayNote string
}

func (o *Options) applyDefaults() {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.RetryBaseDelay <= 0 {
		o.RetryBaseDelay = 2 * time.Second
	}
	if o.PacingDelay <= 0 {
		o.PacingDelay = 600 * time.Millisecond
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 15 * time.Second
	}
}

// Notifier sends convoy-wide notification batches and the per-shipment
// side-channel emails.
type Notifier struct {
	repo      Repository
	transport mailer.Transport
	composer  *Composer
	quota     QuotaLimiter // may be nil when redis is not configured
	authz     *auth.Authorizer
	opts      Options

	// sleep is swapped out in tests.
	sleep func(time.Duration)
}

// NewNotifier creates a notifier. quota may be nil to disable throttling.
func NewNotifier(repo Repository, transport mailer.Transport, quota QuotaLimiter, authz *auth.Authorizer, opts Options) *Notifier {
	opts.applyDefaults()
	return &Notifier{
		repo:      repo,
		transport: transport,
		composer:  NewComposer(),
		quota:     quota,
		authz:     authz,
		opts:      opts,
		sleep:     time.Sleep,
	}
}

// RecipientResult is the per-recipient entry of a batch report.
type RecipientResult struct {
	Email    string `json:"email"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	Attempts int    `json:"attempts"`
}

// Report aggregates a convoy notification run. A partially failed batch is
// still a successful call: failures live in Results, never as a Go error.
type Report struct {
	ConvoyID        string            `json:"convoy_id"`
	Template        Template          `json:"template"`
	TotalRecipients int               `json:"total_recipients"`
	Sent            int               `json:"sent"`
	Failed          int               `json:"failed"`
	Results         []RecipientResult `json:"results"`
}

// recipient is one deduplicated receiver with the union of their codes.
type recipient struct {
	email string // normalized
	name  string
	city  string
	codes []string
}

// NotifyConvoy emails every distinct receiver of the convoy's shipments.
//
// Recipients are deduplicated by normalized email: a receiver with three
// parcels on the convoy gets one email listing all three tracking codes.
// Shipments without a receiver email are skipped. Each recipient is
// attempted independently with retry; one bad address never aborts the
// rest of the batch.
func (n *Notifier) NotifyConvoy(ctx context.Context, p *auth.Principal, convoyID string, templateLabel, customMessage string) (*Report, error) {
	tpl, ok := ParseTemplate(templateLabel)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, templateLabel)
	}

	convoy, err := n.repo.GetConvoy(ctx, convoyID)
	if err != nil {
		return nil, err
	}
	if err := n.authz.Require(p, auth.OpNotifyConvoy, convoy.Direction); err != nil {
		return nil, err
	}

	shipments, err := n.repo.FindShipmentsByConvoy(ctx, convoyID)
	if err != nil {
		return nil, err
	}
	recipients := groupRecipients(shipments)

	report := &Report{
		ConvoyID:        convoyID,
		Template:        tpl,
		TotalRecipients: len(recipients),
		Results:         make([]RecipientResult, 0, len(recipients)),
	}

	for i, rcpt := range recipients {
		if i > 0 {
			n.sleep(n.opts.PacingDelay)
		}

		res := RecipientResult{Email: rcpt.email}
		if err := n.reserveQuota(ctx); err != nil {
			res.Error = err.Error()
			report.Results = append(report.Results, res)
			report.Failed++
			continue
		}

		content, err := n.composer.Compose(ComposeInput{
			Template:        tpl,
			Direction:       convoy.Direction,
			ReceiverName:    rcpt.name,
			ReceiverCity:    rcpt.city,
			TrackingCodes:   rcpt.codes,
			ConvoyDateLabel: convoy.DateLabel(),
			CustomMessage:   customMessage,
			DelayNote:       n.opts.DelayNote,
		})
		if err != nil {
			res.Error = err.Error()
			report.Results = append(report.Results, res)
			report.Failed++
			continue
		}

		outcome, attempts := n.sendWithRetry(ctx, n.message(rcpt.email, content))
		res.Attempts = attempts
		res.OK = outcome.OK
		res.Error = outcome.Error
		report.Results = append(report.Results, res)
		if outcome.OK {
			report.Sent++
		} else {
			report.Failed++
		}
	}

	logger.Info("convoy notification finished",
		"convoy_id", convoyID, "template", string(tpl),
		"recipients", report.TotalRecipients, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

// SendThankYou sends the one-shot post-delivery thank-you email for one
// shipment. The one-shot flag is checked up front (no transport call when
// already sent) and flipped only after a successful send.
func (n *Notifier) SendThankYou(ctx context.Context, p *auth.Principal, shipmentID string) (*RecipientResult, error) {
	sh, err := n.repo.GetShipment(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	direction, _ := sh.Direction()
	if err := n.authz.Require(p, auth.OpNotifyConvoy, direction); err != nil {
		return nil, err
	}
	if sh.ThankYouEmailSent {
		return nil, ErrAlreadyNotified
	}
	if sh.ReceiverEmail == "" {
		return nil, ErrNoRecipientEmail
	}

	content, err := n.composer.Compose(ComposeInput{
		Template:      templateThankYou,
		Direction:     direction,
		ReceiverName:  sh.ReceiverName,
		ReceiverCity:  sh.ReceiverCity,
		TrackingCodes: []string{sh.TrackingCode},
	})
	if err != nil {
		return nil, err
	}

	outcome, attempts := n.sendWithRetry(ctx, n.message(sh.ReceiverEmail, content))
	res := &RecipientResult{
		Email:    sh.ReceiverEmail,
		OK:       outcome.OK,
		Error:    outcome.Error,
		Attempts: attempts,
	}
	if !outcome.OK {
		return res, nil
	}

	flipped, err := n.repo.MarkThankYouSent(ctx, sh.ID)
	if err != nil {
		return res, err
	}
	if !flipped {
		// Lost a race with a concurrent send. The duplicate email is
		// already out; all we can do is record it.
		logger.Warn("duplicate thank-you email sent",
			"shipment_id", sh.ID, "receiver_email", sh.ReceiverEmail)
	}
	return res, nil
}

// NotifyTransition implements shipment.TransitionNotifier: one bounded
// send attempt informing the receiver of a new history event. No retries;
// the transition has already committed and must not wait on mail.
func (n *Notifier) NotifyTransition(ctx context.Context, sh *domain.Shipment, ev *domain.ShipmentEvent) shipment.NotifyAttempt {
	if sh.ReceiverEmail == "" {
		return shipment.NotifyAttempt{Attempted: false}
	}
	direction, _ := sh.Direction()
	content, err := n.composer.Compose(ComposeInput{
		Template:         templateEventUpdate,
		Direction:        direction,
		ReceiverName:     sh.ReceiverName,
		ReceiverCity:     sh.ReceiverCity,
		TrackingCodes:    []string{sh.TrackingCode},
		EventDescription: ev.Description,
		EventLocation:    ev.Location,
	})
	if err != nil {
		return shipment.NotifyAttempt{Attempted: true, Error: err.Error()}
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.opts.SendTimeout)
	defer cancel()
	outcome := n.transport.Send(sendCtx, n.message(sh.ReceiverEmail, content))
	return shipment.NotifyAttempt{Attempted: true, OK: outcome.OK, Error: outcome.Error}
}

// sendWithRetry attempts the send up to MaxAttempts times. Only failures
// classified as transient are retried; backoff is linear (base × attempt).
func (n *Notifier) sendWithRetry(ctx context.Context, msg *mailer.Message) (*mailer.SendOutcome, int) {
	var outcome *mailer.SendOutcome
	for attempt := 1; attempt <= n.opts.MaxAttempts; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, n.opts.SendTimeout)
		outcome = n.transport.Send(sendCtx, msg)
		cancel()

		if outcome.OK || !mailer.IsTransient(outcome.Error) {
			return outcome, attempt
		}
		if attempt == n.opts.MaxAttempts || ctx.Err() != nil {
			return outcome, attempt
		}
		logger.Debug("transient send failure, retrying",
			"recipient", msg.To, "attempt", attempt, "error", outcome.Error)
		n.sleep(n.opts.RetryBaseDelay * time.Duration(attempt))
	}
	return outcome, n.opts.MaxAttempts
}

// reserveQuota blocks until the limiter admits one send. A minute-window
// denial waits out the window once; a second denial or daily exhaustion
// fails the recipient. A limiter infrastructure error (redis down) allows
// the send: a broken counter must not silence the whole batch.
func (n *Notifier) reserveQuota(ctx context.Context) error {
	if n.quota == nil {
		return nil
	}
	for try := 0; try < 2; try++ {
		allowed, wait, err := n.quota.Allow(ctx, 1)
		if err != nil {
			if errors.Is(err, quota.ErrDailyQuotaExceeded) {
				return err
			}
			logger.Warn("quota check failed, allowing send", "error", err.Error())
			return nil
		}
		if allowed {
			return nil
		}
		if try == 0 && wait > 0 {
			n.sleep(wait)
		}
	}
	return fmt.Errorf("send quota exceeded")
}

func (n *Notifier) message(to string, content *Content) *mailer.Message {
	return &mailer.Message{
		FromEmail: n.opts.FromEmail,
		FromName:  n.opts.FromName,
		To:        to,
		Subject:   content.Subject,
		Text:      content.Text,
		HTML:      content.HTML,
	}
}

// groupRecipients deduplicates shipments by normalized receiver email and
// unions their tracking codes. Shipments without an email are dropped.
// Output order is deterministic (sorted by email, codes sorted).
func groupRecipients(shipments []domain.Shipment) []recipient {
	byEmail := make(map[string]*recipient)
	for i := range shipments {
		sh := &shipments[i]
		email := strutil.NormalizeEmail(sh.ReceiverEmail)
		if email == "" {
			continue
		}
		r, ok := byEmail[email]
		if !ok {
			r = &recipient{email: email, name: sh.ReceiverName, city: sh.ReceiverCity}
			byEmail[email] = r
		}
		if r.name == "" {
			r.name = sh.ReceiverName
		}
		if r.city == "" {
			r.city = sh.ReceiverCity
		}
		r.codes = append(r.codes, sh.TrackingCode)
	}

	out := make([]recipient, 0, len(byEmail))
	for _, r := range byEmail {
		sort.Strings(r.codes)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].email < out[j].email })
	return out
}
