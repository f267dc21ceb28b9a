package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cabin-order-services/internal/config"
)

// Sender wraps the three outbound providers. Every call is one-way: the
// response body is ignored beyond the status code, and callers treat
// failures as log-and-continue.
type Sender struct {
	cfg    config.Config
	client *http.Client
}

func NewSender(cfg config.Config) *Sender {
	return &Sender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Sender) SendSMS(ctx context.Context, phone, firstName, template string) error {
	if s.cfg.SMSProviderURL == "" {
		return errors.New("sms provider not configured")
	}
	return s.post(ctx, s.cfg.SMSProviderURL, s.cfg.SMSAPIKey, map[string]any{
		"to":       phone,
		"template": template,
		"vars":     map[string]string{"firstName": firstName},
	})
}

func (s *Sender) SendEmail(ctx context.Context, subject, body string) error {
	if s.cfg.EmailProviderURL == "" {
		return errors.New("email provider not configured")
	}
	return s.post(ctx, s.cfg.EmailProviderURL, s.cfg.EmailAPIKey, map[string]any{
		"from":    s.cfg.EmailFrom,
		"subject": subject,
		"body":    body,
	})
}

func (s *Sender) TriggerCall(ctx context.Context, callee string) error {
	if s.cfg.CallProviderURL == "" {
		return errors.New("call provider not configured")
	}
	return s.post(ctx, s.cfg.CallProviderURL, s.cfg.CallAPIKey, map[string]any{
		"callee": callee,
	})
}

func (s *Sender) post(ctx context.Context, url, apiKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned %d", resp.StatusCode)
	}
	return nil
}
