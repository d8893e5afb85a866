package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/osteele/liquid"

	"github.com/transsahel/colis-tracker/internal/domain"
)

// ComposeInput carries everything the templates can reference. The
// composer is pure: it never touches storage or the network.
type ComposeInput struct {
	Template        Template
	Direction       domain.Direction
	ReceiverName    string
	ReceiverCity    string
	TrackingCodes   []string
	ConvoyDateLabel string
	CustomMessage   string

	// EventDescription and EventLocation are only used by the
	// transition update email.
	EventDescription string
	EventLocation    string

	// DelayNote is an operator-configured disclaimer appended to the
	// en-route email, e.g. expected transit times.
	DelayNote string
}

// Content is a rendered email ready to hand to a mailer.Transport.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

// Composer renders notification emails from liquid templates.
type Composer struct {
	engine *liquid.Engine
}

func NewComposer() *Composer {
	return &Composer{engine: liquid.NewEngine()}
}

// Compose renders the subject and body for in. Unknown templates return
// ErrUnknownTemplate. Pickup point resolution never fails: cities
// without a known counter fall back to generic contact copy.
func (c *Composer) Compose(in ComposeInput) (*Content, error) {
	src, ok := templateSources[in.Template]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, in.Template)
	}

	bindings := map[string]interface{}{
		"receiver_name":  strings.TrimSpace(in.ReceiverName),
		"route_label":    routeLabel(in.Direction),
		"convoy_date":    in.ConvoyDateLabel,
		"tracking_codes": in.TrackingCodes,
		"custom_message": strings.TrimSpace(in.CustomMessage),
		"delay_note":     strings.TrimSpace(in.DelayNote),

		"event_description": strings.TrimSpace(in.EventDescription),
		"event_location":    strings.TrimSpace(in.EventLocation),

		"has_pickup":     false,
		"pickup_city":    "",
		"pickup_address": "",
		"pickup_hours":   "",
	}
	if pp, found := LookupPickupPoint(in.ReceiverCity); found {
		bindings["has_pickup"] = true
		bindings["pickup_city"] = pp.City
		bindings["pickup_address"] = pp.Address
		bindings["pickup_hours"] = pp.Hours
	}

	subject, err := c.engine.ParseAndRenderString(src.subject, bindings)
	if err != nil {
		return nil, fmt.Errorf("render subject for %s: %w", in.Template, err)
	}
	text, err := c.engine.ParseAndRenderString(src.text, bindings)
	if err != nil {
		return nil, fmt.Errorf("render body for %s: %w", in.Template, err)
	}

	text = collapseBlankLines(text)
	return &Content{
		Subject: strings.TrimSpace(subject),
		Text:    text,
		HTML:    textToHTML(text),
	}, nil
}

// routeLabel phrases the leg of the journey for the reader, e.g.
// "du Niger vers le Canada".
func routeLabel(d domain.Direction) string {
	switch d {
	case domain.DirectionNigerToCanada:
		return "du Niger vers le Canada"
	case domain.DirectionCanadaToNiger:
		return "du Canada vers le Niger"
	case domain.DirectionCanadaToGuinea:
		return "du Canada vers la Guinée"
	case domain.DirectionGuineaToCanada:
		return "de la Guinée vers le Canada"
	}
	return ""
}

// collapseBlankLines squashes runs of blank lines that liquid control
// tags leave behind so the plain-text body reads cleanly.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, ln := range lines {
		if strings.TrimSpace(ln) == "" {
			if blank {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, ln)
	}
	return strings.TrimSpace(strings.Join(out, "\n")) + "\n"
}

// textToHTML wraps the plain-text body in a minimal HTML shell for
// clients that prefer the HTML part.
func textToHTML(text string) string {
	var b strings.Builder
	b.WriteString(`<html><body style="font-family: Arial, sans-serif; font-size: 14px; color: #222;">`)
	for _, para := range strings.Split(strings.TrimSpace(text), "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
