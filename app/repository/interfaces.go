package repository

import (
	"time"

	"github.com/ManuelReschke/PixCheckout/app/models"
	"gorm.io/gorm"
)

// ProductRepository defines the interface for catalog operations
type ProductRepository interface {
	Create(product *models.Product) error
	GetByID(id uint) (*models.Product, error)
	GetAll() ([]models.Product, error)
	GetActive() ([]models.Product, error)
	Update(product *models.Product) error
	Delete(id uint) error
}

// OrderRepository defines the read side of orders used by the admin dashboard.
// Writes go through the payment service.
type OrderRepository interface {
	GetPaidTotals() (*OrderTotals, error)
	GetOpenTotals() (*OrderTotals, error)
	GetRecent(limit int, from, to *time.Time) ([]models.Order, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// OrderTotals sums the amounts of a group of orders.
type OrderTotals struct {
	TotalCents int64 `json:"total_cents"`
	Count      int64 `json:"count"`
}

// Repositories struct holds all repository instances
type Repositories struct {
	Product ProductRepository
	Order   OrderRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Product: NewProductRepository(db),
		Order:   NewOrderRepository(db),
	}
}
