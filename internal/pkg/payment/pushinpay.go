package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ManuelReschke/PixCheckout/internal/pkg/env"
)

const (
	defaultPushinPayAPIBaseURL = "https://api.pushinpay.com.br"
	defaultPushinPayTimeout    = 15 * time.Second
	pushinPayCashInPath        = "/api/pix/cashIn"
	genericGatewayMessage      = "pix charge could not be created"
)

// PushinPayClient issues PIX charges. It performs exactly one attempt per
// call; callers own any retry policy.
type PushinPayClient struct {
	Token      string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewPushinPayClientFromEnv() *PushinPayClient {
	return &PushinPayClient{
		Token:      strings.TrimSpace(env.GetEnv("PUSHINPAY_TOKEN", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("PUSHINPAY_API_BASE_URL", defaultPushinPayAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: env.GetDuration("PUSHINPAY_TIMEOUT", defaultPushinPayTimeout),
		},
	}
}

type cashInRequest struct {
	Value      int64  `json:"value"`
	WebhookURL string `json:"webhook_url"`
}

func (c *PushinPayClient) CreateCharge(ctx context.Context, amountCents int64, callbackURL string) (*Charge, error) {
	if strings.TrimSpace(c.Token) == "" {
		return nil, &GatewayError{Message: "PUSHINPAY_TOKEN is not configured"}
	}
	if amountCents <= 0 {
		return nil, &GatewayError{Message: "charge amount must be positive"}
	}

	payload, err := json.Marshal(cashInRequest{Value: amountCents, WebhookURL: callbackURL})
	if err != nil {
		return nil, &GatewayError{Message: genericGatewayMessage, Err: err}
	}

	endpoint := strings.TrimRight(c.APIBaseURL, "/") + pushinPayCashInPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &GatewayError{Message: genericGatewayMessage, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, &GatewayError{Message: "pix gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "pix gateway response could not be read", Err: err}
	}
	decoded, decodeErr := decodeObject(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := genericGatewayMessage
		if decodeErr == nil {
			if m := firstString(decoded, []string{"message", "error"}); m != "" {
				msg = m
			}
		}
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, &GatewayError{StatusCode: resp.StatusCode, Message: "invalid pix gateway response", Err: decodeErr}
	}

	return &Charge{
		TransactionID: stringValue(decoded["id"]),
		Payload:       decoded,
	}, nil
}

func (c *PushinPayClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultPushinPayTimeout}
}

func decodeObject(body []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errors.New("response is not a JSON object")
	}
	return out, nil
}
