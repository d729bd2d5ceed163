package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/PixCheckout/internal/pkg/env"
)

func TestDSN(t *testing.T) {
	prev := env.Env
	t.Cleanup(func() { env.Env = prev })

	env.Env = map[string]string{
		"DB_USER":     "shop",
		"DB_PASSWORD": "secret",
		"DB_HOST":     "tidb.local",
		"DB_PORT":     "4000",
		"DB_NAME":     "checkout",
	}
	dsn := DSN()
	assert.Equal(t, "shop:secret@tcp(tidb.local:4000)/checkout?charset=utf8mb4&parseTime=True&loc=Local", dsn)

	env.Env["DB_TLS"] = "true"
	assert.True(t, strings.HasSuffix(DSN(), "&tls=true"))
}
