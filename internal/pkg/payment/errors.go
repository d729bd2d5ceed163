package payment

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPayload     = errors.New("empty webhook payload")
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrWebhookInFlight is returned for a re-delivery while an earlier copy
	// is still being processed. The gateway is asked to retry later.
	ErrWebhookInFlight = errors.New("webhook event is still being processed")
)

// ValidationError reports a checkout request that can never succeed as sent.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// GatewayError reports a failed or rejected call to the payment gateway.
// Message is safe to show to the buyer.
type GatewayError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("gateway status %d: %s: %v", e.StatusCode, e.Message, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("gateway status %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// StoreError wraps a persistence failure. On the webhook path it is the only
// error that is answered with a non-success status.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsGateway(err error) bool {
	var target *GatewayError
	return errors.As(err, &target)
}

func IsStore(err error) bool {
	var target *StoreError
	return errors.As(err, &target)
}
