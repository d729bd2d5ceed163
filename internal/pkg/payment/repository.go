package payment

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/PixCheckout/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrCorrelationTaken is returned by RescuePending when an order already
	// owns the transaction id by the time the rescue runs.
	ErrCorrelationTaken = errors.New("transaction id already owned by an order")
)

// Repository provides the order store and webhook event log used by the
// payment service.
type Repository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	SetCorrelationID(ctx context.Context, orderID uint, transactionID string) (bool, error)
	GetOrder(ctx context.Context, id uint) (*models.Order, error)
	FindByCorrelationID(ctx context.Context, transactionID string) (*models.Order, error)
	MarkPaid(ctx context.Context, id uint, paidAt time.Time) (bool, error)
	RescuePending(ctx context.Context, transactionID string, amountCents int64, createdAfter *time.Time, paidAt time.Time) (*models.Order, error)
	CreateWebhookEventIfNotExists(ctx context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error)
	ReclaimWebhookEvent(ctx context.Context, id uint, staleBefore time.Time) (bool, error)
	MarkWebhookProcessed(ctx context.Context, id uint, outcome string, orderID *uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a payment repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// SetCorrelationID records the gateway transaction id once. It reports false
// when the order is gone or was already correlated, e.g. by a rescue that
// raced the checkout.
func (r *gormRepository) SetCorrelationID(ctx context.Context, orderID uint, transactionID string) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND (txid IS NULL OR txid = '')", orderID).
		Update("txid", transactionID)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByCorrelationID matches the transaction id case-insensitively. When
// more than one row carries the id, a pending one wins.
func (r *gormRepository) FindByCorrelationID(ctx context.Context, transactionID string) (*models.Order, error) {
	var order models.Order
	err := byCorrelationID(r.db.WithContext(ctx), transactionID).
		Order("CASE WHEN status = 'pending' THEN 0 ELSE 1 END").
		Order("id DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkPaid moves a pending order to paid. It reports false when the order
// was not pending anymore.
func (r *gormRepository) MarkPaid(ctx context.Context, id uint, paidAt time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":  models.OrderStatusPaid,
			"paid_at": paidAt,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

// RescuePending pays the most recent pending order with the given amount and
// stamps the transaction id on it.
func (r *gormRepository) RescuePending(ctx context.Context, transactionID string, amountCents int64, createdAfter *time.Time, paidAt time.Time) (*models.Order, error) {
	var rescued models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners int64
		if err := byCorrelationID(tx.Model(&models.Order{}), transactionID).Count(&owners).Error; err != nil {
			return err
		}
		if owners > 0 {
			return ErrCorrelationTaken
		}

		q := tx.Where("status = ? AND amount_cents = ?", models.OrderStatusPending, amountCents)
		if createdAfter != nil {
			q = q.Where("created_at >= ?", *createdAfter)
		}
		if err := q.Order("created_at DESC").Order("id DESC").First(&rescued).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", rescued.ID, models.OrderStatusPending).
			Updates(map[string]interface{}{
				"status":  models.OrderStatusPaid,
				"txid":    transactionID,
				"paid_at": paidAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// paid concurrently through its own transaction id
			return ErrOrderNotFound
		}

		rescued.Status = models.OrderStatusPaid
		rescued.CorrelationID = &transactionID
		rescued.PaidAt = &paidAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rescued, nil
}

func (r *gormRepository) CreateWebhookEventIfNotExists(ctx context.Context, event *models.PaymentWebhookEvent) (bool, *models.PaymentWebhookEvent, error) {
	db := r.db.WithContext(ctx)
	tx := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "event_key"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.PaymentWebhookEvent
	if err := db.Where("provider = ? AND event_key = ?", event.Provider, event.EventKey).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

// retryableOutcomes did not settle an order. A re-delivery may match now, for
// example once the checkout stored the transaction id.
var retryableOutcomes = []string{
	string(OutcomeUnmatched),
	string(OutcomeIgnored),
	string(OutcomeMissingID),
}

// ReclaimWebhookEvent hands a re-delivered event back for processing when its
// earlier processing failed, settled nothing, or stalled before staleBefore.
func (r *gormRepository) ReclaimWebhookEvent(ctx context.Context, id uint, staleBefore time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).Model(&models.PaymentWebhookEvent{}).
		Where("id = ?", id).
		Where("processing_error <> '' OR (processed_at IS NOT NULL AND outcome IN ?) OR (processed_at IS NULL AND updated_at < ?)",
			retryableOutcomes, staleBefore).
		Updates(map[string]interface{}{
			"processed_at":     nil,
			"processing_error": "",
			"outcome":          "",
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, id uint, outcome string, orderID *uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
		"outcome":          outcome,
		"order_id":         orderID,
	}
	return r.db.WithContext(ctx).Model(&models.PaymentWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}

func byCorrelationID(db *gorm.DB, transactionID string) *gorm.DB {
	return db.Where("LOWER(txid) = LOWER(?)", transactionID)
}
