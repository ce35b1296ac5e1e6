// Package notify sends best-effort transactional email through an HTTP
// mail API. Callers treat failures as log-only; nothing here retries.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Mailer struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

func NewMailer(endpoint, apiKey string, logger *zap.Logger) *Mailer {
	return &Mailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// Notify posts one message to the mail API. An unconfigured endpoint
// logs and reports success so callers never branch on deployment shape.
func (m *Mailer) Notify(ctx context.Context, email, subject, body string) error {
	if m.endpoint == "" {
		m.logger.Info("mail endpoint not configured, skipping notification",
			zap.String("subject", subject))
		return nil
	}

	payload, err := json.Marshal(message{To: email, Subject: subject, Body: body})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned %d", resp.StatusCode)
	}
	return nil
}
