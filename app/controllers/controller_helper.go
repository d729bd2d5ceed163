package controllers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

// GetClientIP determines the client address behind Cloudflare or a reverse
// proxy, falling back to the connection address.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := strings.TrimSpace(c.Get("CF-Connecting-IP")); cfIP != "" {
		return cfIP
	}

	// X-Forwarded-For can contain a list of IPs - the first one is the original client IP
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		if first := strings.TrimSpace(strings.Split(xff, ",")[0]); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(c.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	// IPv4-mapped IPv6 (::ffff:192.168.1.1)
	return strings.TrimPrefix(c.IP(), "::ffff:")
}

// parseIDParam reads a positive numeric id from the query string.
func parseIDParam(c *fiber.Ctx, key string) (uint, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// parseDateRange reads optional from/to query dates (YYYY-MM-DD). The
// returned upper bound is exclusive, so "to" covers the whole day.
func parseDateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		t, perr := time.ParseInLocation(dateLayout, raw, time.Local)
		if perr != nil {
			return nil, nil, perr
		}
		from = &t
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		t, perr := time.ParseInLocation(dateLayout, raw, time.Local)
		if perr != nil {
			return nil, nil, perr
		}
		t = t.AddDate(0, 0, 1)
		to = &t
	}
	return from, to, nil
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
