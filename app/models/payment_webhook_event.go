package models

import "time"

const PaymentProviderPushinPay = "pushinpay"

// PaymentWebhookEvent stores every gateway notification with deduplication
// metadata so that re-deliveries can be recognised and audited.
type PaymentWebhookEvent struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_payment_webhook_events_provider_key,unique,priority:1" json:"provider"`
	EventKey        string     `gorm:"type:varchar(191);not null;index:ux_payment_webhook_events_provider_key,unique,priority:2" json:"event_key"`
	TransactionID   string     `gorm:"type:varchar(191);index" json:"transaction_id"`
	Status          string     `gorm:"type:varchar(50)" json:"status"`
	PayloadJSON     string     `gorm:"type:longtext;not null" json:"payload_json"`
	Outcome         string     `gorm:"type:varchar(32);index" json:"outcome"`
	OrderID         *uint      `gorm:"index" json:"order_id,omitempty"`
	ProcessedAt     *time.Time `gorm:"type:timestamp;default:null" json:"processed_at,omitempty"`
	ProcessingError string     `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Succeeded reports whether the event was processed without error.
func (e *PaymentWebhookEvent) Succeeded() bool {
	return e.ProcessedAt != nil && e.ProcessingError == ""
}
