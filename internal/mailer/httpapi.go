package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/transsahel/colis-tracker/internal/pkg/httpretry"
	"github.com/transsahel/colis-tracker/internal/pkg/logger"
)

// HTTPTransport delivers mail through a JSON transactional-email API
// (SparkPost-style transmissions endpoint). Network-level retries are
// handled by the injected HTTPDoer; the notifier's own retry loop handles
// provider-level transient rejections.
type HTTPTransport struct {
	baseURL string
	apiKey  string
	client  httpretry.HTTPDoer
}

// NewHTTPTransport creates the transport. A nil client gets a retrying
// default.
func NewHTTPTransport(baseURL, apiKey string, client httpretry.HTTPDoer) *HTTPTransport {
	if client == nil {
		client = httpretry.NewRetryClient(nil, 2)
	}
	return &HTTPTransport{baseURL: baseURL, apiKey: apiKey, client: client}
}

type apiSendRequest struct {
	From    apiAddress `json:"from"`
	To      string     `json:"to"`
	Subject string     `json:"subject"`
	Text    string     `json:"text"`
	HTML    string     `json:"html,omitempty"`
}

type apiAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type apiSendResponse struct {
	ID     string `json:"id"`
	Errors []struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"errors"`
}

// Send posts one message to the provider's send endpoint.
func (t *HTTPTransport) Send(ctx context.Context, msg *Message) *SendOutcome {
	payload := apiSendRequest{
		From:    apiAddress{Email: msg.FromEmail, Name: msg.FromName},
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Failure(fmt.Errorf("encode send request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/send", bytes.NewReader(body))
	if err != nil {
		return Failure(err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		logger.Warn("mail API request failed", "recipient", msg.To, "error", err.Error())
		return Failure(err)
	}
	defer resp.Body.Close()

	var parsed apiSendResponse
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &parsed)

	if resp.StatusCode != http.StatusOK || len(parsed.Errors) > 0 {
		errMsg := fmt.Sprintf("mail API status %d", resp.StatusCode)
		if len(parsed.Errors) > 0 {
			errMsg = fmt.Sprintf("%s: %s", errMsg, parsed.Errors[0].Message)
		}
		logger.Warn("mail API rejected message", "recipient", msg.To, "error", errMsg)
		return &SendOutcome{OK: false, Error: errMsg}
	}

	return &SendOutcome{OK: true, MessageID: parsed.ID}
}
