package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/your-org/facewatch/internal/config"
)

// Alert is the payload delivered for the first detection of an identity.
type Alert struct {
	Name       string
	IdentityID string
	Branch     string
	Timestamp  string
	PhotoURL   string
	Image      []byte // annotated frame, JPEG
}

// AlertSender delivers alerts to the external transport.
type AlertSender interface {
	Send(ctx context.Context, alert Alert) error
}

// HTTPSender posts alerts as multipart form data to the configured
// transport endpoint. Delivery succeeds only on HTTP 200; everything else,
// including transport errors, counts as a failure the controller rolls
// back on. The client timeout bounds task lifetime.
type HTTPSender struct {
	url       string
	recipient string
	client    *http.Client
}

func NewHTTPSender(cfg config.AlertConfig) *HTTPSender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSender{
		url:       cfg.URL,
		recipient: cfg.Recipient,
		client:    &http.Client{Timeout: timeout},
	}
}

func (s *HTTPSender) Send(ctx context.Context, alert Alert) error {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := map[string]string{
		"name":        alert.Name,
		"identity_id": alert.IdentityID,
		"branch":      alert.Branch,
		"timestamp":   alert.Timestamp,
		"photo_url":   alert.PhotoURL,
		"to_email":    s.recipient,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}

	if len(alert.Image) > 0 {
		part, err := w.CreateFormFile("live_image", "capture.jpg")
		if err != nil {
			return fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(alert.Image); err != nil {
			return fmt.Errorf("write image part: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, &body)
	if err != nil {
		return fmt.Errorf("build alert request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alert transport returned status %d", resp.StatusCode)
	}
	return nil
}
