package mailer

import "testing"

func TestIsTransient(t *testing.T) {
	transient := []string{
		"429 Too Many Requests",
		"rate limit exceeded",
		"Throttling: Maximum sending rate exceeded",
		"context deadline exceeded",
		"dial tcp: connection refused",
		"503 Service Unavailable",
		"temporary failure in name resolution",
	}
	for _, s := range transient {
		if !IsTransient(s) {
			t.Errorf("IsTransient(%q) = false, want true", s)
		}
	}

	permanent := []string{
		"550 mailbox does not exist",
		"invalid recipient address",
		"MessageRejected: Email address is not verified",
		"401 unauthorized",
		"",
	}
	for _, s := range permanent {
		if IsTransient(s) {
			t.Errorf("IsTransient(%q) = true, want false", s)
		}
	}
}

func TestFailure(t *testing.T) {
	out := Failure(nil)
	if out.OK || out.Error == "" {
		t.Errorf("Failure(nil) = %+v", out)
	}
}
