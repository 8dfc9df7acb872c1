package sender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Webhook delivers messages by POSTing them to a configured HTTP endpoint,
// which is expected to answer 202 Accepted.
type Webhook struct {
	url    string
	client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type sendRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
	DeviceID    string `json:"deviceId,omitempty"`
}

func (w *Webhook) Send(ctx context.Context, content, phone string, deviceID *uuid.UUID) error {
	body := sendRequest{
		PhoneNumber: phone,
		Message:     content,
	}
	if deviceID != nil {
		body.DeviceID = deviceID.String()
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(respBody))
	}

	return nil
}

var _ Sender = (*Webhook)(nil)
