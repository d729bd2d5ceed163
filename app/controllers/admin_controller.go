package controllers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PixCheckout/app/models"
	"github.com/ManuelReschke/PixCheckout/app/repository"
)

const (
	recentOrdersLimit = 20
	defaultStatsDays  = 30
)

// OutcomeReader exposes the webhook outcome counters
type OutcomeReader interface {
	All(ctx context.Context) (map[string]int64, error)
}

// AdminController serves the back-office dashboard data
type AdminController struct {
	repos    *repository.Repositories
	outcomes OutcomeReader
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(repos *repository.Repositories) *AdminController {
	return &AdminController{
		repos: repos,
	}
}

// WithOutcomes attaches the webhook outcome counters to the dashboard
func (ac *AdminController) WithOutcomes(outcomes OutcomeReader) *AdminController {
	ac.outcomes = outcomes
	return ac
}

// DashboardResponse is the admin dashboard payload
type DashboardResponse struct {
	Paid         *repository.OrderTotals `json:"paid"`
	Pending      *repository.OrderTotals `json:"pending"`
	RecentOrders []models.Order          `json:"recent_orders"`
	Products     []models.Product        `json:"products"`
	Daily        []models.DailyStats     `json:"daily"`
	Webhooks     map[string]int64        `json:"webhook_outcomes"`
}

// HandleDashboard returns sales totals, the latest orders and the full
// product list. Optional from/to (YYYY-MM-DD) restrict the order list and the
// daily series.
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "dates must use the YYYY-MM-DD format")
	}

	paid, err := ac.repos.Order.GetPaidTotals()
	if err != nil {
		return ac.handleError(c, "Failed to get paid totals", err)
	}
	pending, err := ac.repos.Order.GetOpenTotals()
	if err != nil {
		return ac.handleError(c, "Failed to get pending totals", err)
	}
	recent, err := ac.repos.Order.GetRecent(recentOrdersLimit, from, to)
	if err != nil {
		return ac.handleError(c, "Failed to get recent orders", err)
	}
	products, err := ac.repos.Product.GetAll()
	if err != nil {
		return ac.handleError(c, "Failed to get products", err)
	}

	statsEnd := time.Now()
	if to != nil {
		statsEnd = *to
	}
	statsStart := statsEnd.AddDate(0, 0, -defaultStatsDays)
	if from != nil {
		statsStart = *from
	}
	daily, err := ac.repos.Order.GetDailyStats(statsStart, statsEnd)
	if err != nil {
		return ac.handleError(c, "Failed to get daily stats", err)
	}

	resp := DashboardResponse{
		Paid:         paid,
		Pending:      pending,
		RecentOrders: recent,
		Products:     products,
		Daily:        daily,
		Webhooks:     ac.webhookOutcomes(c),
	}
	if resp.RecentOrders == nil {
		resp.RecentOrders = []models.Order{}
	}
	if resp.Products == nil {
		resp.Products = []models.Product{}
	}
	if resp.Daily == nil {
		resp.Daily = []models.DailyStats{}
	}
	return c.JSON(resp)
}

// webhookOutcomes is best effort: a Redis outage must not break the dashboard.
func (ac *AdminController) webhookOutcomes(c *fiber.Ctx) map[string]int64 {
	out := map[string]int64{}
	if ac.outcomes == nil {
		return out
	}
	counts, err := ac.outcomes.All(c.UserContext())
	if err != nil {
		log.Warnf("[Admin] Failed to read webhook counters: %v", err)
		return out
	}
	for k, v := range counts {
		out[k] = v
	}
	return out
}

func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Admin] %s: %v", message, err)
	return jsonError(c, fiber.StatusInternalServerError, message)
}
