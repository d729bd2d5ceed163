package payment

import (
	"context"
	"strings"
	"time"
)

// StatusUnknown is answered to status polls for orders that do not exist.
const StatusUnknown = "erro"

// Outcome describes what a webhook delivery did to the order store.
type Outcome string

const (
	OutcomeTransitioned Outcome = "transitioned"
	OutcomeRescued      Outcome = "rescued"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeUnmatched    Outcome = "unmatched"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeMissingID    Outcome = "missing_id"
)

// Paid reports whether the outcome moved an order to paid.
func (o Outcome) Paid() bool {
	return o == OutcomeTransitioned || o == OutcomeRescued
}

// Customer is the buyer identity captured at checkout.
type Customer struct {
	Name  string `json:"name" validate:"required,max=150"`
	Phone string `json:"phone" validate:"required,max=32"`
	Email string `json:"email" validate:"omitempty,email,max=200"`
}

// CreateOrderInput is the checkout request body.
type CreateOrderInput struct {
	Customer     *Customer `json:"customer" validate:"required"`
	ValueInCents int64     `json:"valueInCents" validate:"required,gt=0"`
}

func (in *CreateOrderInput) normalize() {
	if in.Customer == nil {
		return
	}
	in.Customer.Name = strings.TrimSpace(in.Customer.Name)
	in.Customer.Phone = strings.TrimSpace(in.Customer.Phone)
	in.Customer.Email = strings.TrimSpace(in.Customer.Email)
}

// Charge is a gateway charge descriptor. Payload is the gateway response
// object passed through untouched (QR code, copy-paste code, expiry...).
type Charge struct {
	TransactionID string
	Payload       map[string]any
}

// CreateOrderResult is returned after a charge was issued for a new order.
type CreateOrderResult struct {
	LocalID       uint
	TransactionID string
	Charge        map[string]any
}

// Body renders the gateway descriptor augmented with the local order id.
func (r *CreateOrderResult) Body() map[string]any {
	out := make(map[string]any, len(r.Charge)+1)
	for k, v := range r.Charge {
		out[k] = v
	}
	out["local_id"] = r.LocalID
	return out
}

// ReconcileResult is the effect of one approved notification.
type ReconcileResult struct {
	Outcome Outcome
	OrderID *uint
}

// WebhookResult is what the webhook handler acknowledges.
type WebhookResult struct {
	Outcome Outcome
	OrderID *uint
	EventID uint
}

// Gateway issues charges on the external payment provider.
type Gateway interface {
	CreateCharge(ctx context.Context, amountCents int64, callbackURL string) (*Charge, error)
}

// StatusCache holds terminal order states for the status poll endpoint.
type StatusCache interface {
	GetStatus(ctx context.Context, orderID uint) (string, bool, error)
	SetStatus(ctx context.Context, orderID uint, status string) error
}

// PayloadArchiver keeps a copy of raw webhook payloads outside the database.
type PayloadArchiver interface {
	ArchiveWebhookPayload(ctx context.Context, eventKey string, receivedAt time.Time, payload []byte) error
}

// OutcomeRecorder counts webhook outcomes for the back office.
type OutcomeRecorder interface {
	Add(ctx context.Context, outcome string) error
}
