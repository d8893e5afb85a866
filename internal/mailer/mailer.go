// Package mailer abstracts the outbound email transport. Implementations
// never return a Go error from Send: every failure surfaces in the
// SendOutcome so callers can inspect the error text and decide whether the
// failure is worth retrying.
package mailer

import "context"

// Message is one outbound email.
type Message struct {
	FromEmail string
	FromName  string
	To        string
	Subject   string
	Text      string
	HTML      string
}

// SendOutcome is the result of one delivery attempt.
type SendOutcome struct {
	OK        bool
	MessageID string
	Error     string
}

// Transport delivers a single message. Implementations must be safe for
// concurrent use and must never panic on malformed input.
type Transport interface {
	Send(ctx context.Context, msg *Message) *SendOutcome
}

// Failure builds a failed outcome from an error.
func Failure(err error) *SendOutcome {
	if err == nil {
		return &SendOutcome{OK: false, Error: "send failed"}
	}
	return &SendOutcome{OK: false, Error: err.Error()}
}
