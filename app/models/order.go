package models

import (
	"strings"
	"time"
)

const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// Order is one checkout attempt. The table keeps its historical name
// "customers" because the storefront and the admin reports were built on it.
type Order struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CustomerName  string     `gorm:"column:name;type:varchar(150);not null" json:"name"`
	CustomerPhone string     `gorm:"column:phone;type:varchar(32);not null" json:"phone"`
	CustomerEmail string     `gorm:"column:email;type:varchar(200);default:null" json:"email,omitempty"`
	AmountCents   int64      `gorm:"column:amount_cents;not null;index:idx_customers_status_amount,priority:2" json:"amount_cents"`
	Status        string     `gorm:"type:varchar(16);not null;default:'pending';index:idx_customers_status_amount,priority:1" json:"status"`
	CorrelationID *string    `gorm:"column:txid;type:varchar(191);default:null;index" json:"txid"`
	PaidAt        *time.Time `gorm:"type:timestamp;default:null" json:"paid_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string {
	return "customers"
}

// IsPaid reports whether the order already reached its terminal state.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// HasCorrelationID reports whether the gateway transaction id was recorded.
func (o *Order) HasCorrelationID() bool {
	return o.CorrelationID != nil && strings.TrimSpace(*o.CorrelationID) != ""
}
