package repository

import (
	"fmt"
	"time"

	"github.com/ManuelReschke/PixCheckout/app/models"
	"gorm.io/gorm"
)

// orderRepository implements the OrderRepository interface
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository instance
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// GetPaidTotals sums all paid orders
func (r *orderRepository) GetPaidTotals() (*OrderTotals, error) {
	return r.totals(r.db.Where("status = ?", models.OrderStatusPaid))
}

// GetOpenTotals sums every order that is not paid yet
func (r *orderRepository) GetOpenTotals() (*OrderTotals, error) {
	return r.totals(r.db.Where("status <> ?", models.OrderStatusPaid))
}

func (r *orderRepository) totals(q *gorm.DB) (*OrderTotals, error) {
	var totals OrderTotals
	err := q.Model(&models.Order{}).
		Select("COALESCE(SUM(amount_cents), 0) AS total_cents, COUNT(*) AS count").
		Scan(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum orders: %w", err)
	}
	return &totals, nil
}

// GetRecent returns the latest orders, newest first, optionally restricted to
// a creation date range
func (r *orderRepository) GetRecent(limit int, from, to *time.Time) ([]models.Order, error) {
	q := r.db.Model(&models.Order{})
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at < ?", *to)
	}
	var orders []models.Order
	err := q.Order("id DESC").Limit(limit).Find(&orders).Error
	return orders, err
}

// GetDailyStats returns paid order counts and amounts per payment day for a
// date range. Days are YYYY-MM-DD in the location of startDate.
func (r *orderRepository) GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error) {
	var rows []struct {
		PaidAt      time.Time
		AmountCents int64
	}

	// bucketing happens here so the day format does not depend on the SQL dialect
	err := r.db.Model(&models.Order{}).
		Select("paid_at, amount_cents").
		Where("status = ? AND paid_at IS NOT NULL AND paid_at BETWEEN ? AND ?", models.OrderStatusPaid, startDate, endDate).
		Order("paid_at").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get daily order stats: %w", err)
	}

	loc := startDate.Location()
	dailyStats := []models.DailyStats{}
	for _, row := range rows {
		day := row.PaidAt.In(loc).Format(time.DateOnly)
		if n := len(dailyStats); n > 0 && dailyStats[n-1].Date == day {
			dailyStats[n-1].Count++
			dailyStats[n-1].TotalCents += row.AmountCents
			continue
		}
		dailyStats = append(dailyStats, models.DailyStats{Date: day, Count: 1, TotalCents: row.AmountCents})
	}

	return dailyStats, nil
}
