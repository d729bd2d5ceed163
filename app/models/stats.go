package models

// DailyStats aggregates the paid orders of one calendar day.
type DailyStats struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	TotalCents int64  `json:"total_cents"`
}
