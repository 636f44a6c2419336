package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MohammedGhazal09/portfolio/internal/contact"
)

const (
	defaultTimeout  = 15 * time.Second
	emailJSSendPath = "/api/v1.0/email/send"
	maxErrorBody    = 1 << 10
)

// EmailJS sends dispatches through the EmailJS REST API.
type EmailJS struct {
	endpoint    string
	accessToken string
	client      *http.Client
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
	AccessToken    string            `json:"accessToken,omitempty"`
}

// NewEmailJS creates an EmailJS client. accessToken is the optional private
// key; the public key travels with each dispatch.
func NewEmailJS(endpoint, accessToken string, timeout time.Duration) *EmailJS {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &EmailJS{
		endpoint:    strings.TrimRight(endpoint, "/"),
		accessToken: accessToken,
		client:      &http.Client{Timeout: timeout},
	}
}

// Send posts the dispatch. Any non-2xx response is an *Error.
func (e *EmailJS) Send(ctx context.Context, d contact.Dispatch) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      d.ServiceID,
		TemplateID:     d.TemplateID,
		UserID:         d.Token,
		TemplateParams: d.Params,
		AccessToken:    e.accessToken,
	})
	if err != nil {
		return fmt.Errorf("encode emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint+emailJSSendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("emailjs request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &Error{
			Provider:   ProviderEmailJS,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
