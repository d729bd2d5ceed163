package payment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPushinPay(t *testing.T, handler http.HandlerFunc) *PushinPayClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &PushinPayClient{
		Token:      "test-token",
		APIBaseURL: srv.URL + "/",
		HTTPClient: srv.Client(),
	}
}

func TestPushinPayCreateCharge_Success(t *testing.T) {
	client := newTestPushinPay(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/pix/cashIn", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(1000), body["value"])
		assert.Equal(t, "https://shop.example/webhook", body["webhook_url"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"9c29870c-9f69-4bb6-90d3-2dce9453bb45","qr_code":"000201...","status":"created","value":1000}`))
	})

	charge, err := client.CreateCharge(context.Background(), 1000, "https://shop.example/webhook")
	require.NoError(t, err)
	assert.Equal(t, "9c29870c-9f69-4bb6-90d3-2dce9453bb45", charge.TransactionID)
	assert.Equal(t, "000201...", charge.Payload["qr_code"])
	assert.Equal(t, json.Number("1000"), charge.Payload["value"])
}

func TestPushinPayCreateCharge_NumericID(t *testing.T) {
	client := newTestPushinPay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":987654}`))
	})

	charge, err := client.CreateCharge(context.Background(), 500, "cb")
	require.NoError(t, err)
	assert.Equal(t, "987654", charge.TransactionID)
}

func TestPushinPayCreateCharge_MissingIDIsNotAnError(t *testing.T) {
	client := newTestPushinPay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"qr_code":"000201"}`))
	})

	charge, err := client.CreateCharge(context.Background(), 500, "cb")
	require.NoError(t, err)
	assert.Empty(t, charge.TransactionID)
}

func TestPushinPayCreateCharge_ErrorMessageFromBody(t *testing.T) {
	client := newTestPushinPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"O valor minimo e 50 centavos"}`))
	})

	_, err := client.CreateCharge(context.Background(), 10, "cb")
	require.Error(t, err)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.StatusCode)
	assert.Equal(t, "O valor minimo e 50 centavos", gwErr.Message)
}

func TestPushinPayCreateCharge_GenericMessage(t *testing.T) {
	client := newTestPushinPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	})

	_, err := client.CreateCharge(context.Background(), 1000, "cb")
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, genericGatewayMessage, gwErr.Message)
}

func TestPushinPayCreateCharge_InvalidSuccessBody(t *testing.T) {
	client := newTestPushinPay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	_, err := client.CreateCharge(context.Background(), 1000, "cb")
	assert.True(t, IsGateway(err))
}

func TestPushinPayCreateCharge_Timeout(t *testing.T) {
	client := newTestPushinPay(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"id":"late"}`))
	})
	client.HTTPClient = &http.Client{Timeout: 20 * time.Millisecond}

	_, err := client.CreateCharge(context.Background(), 1000, "cb")
	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, "pix gateway unreachable", gwErr.Message)
}

func TestPushinPayCreateCharge_MissingToken(t *testing.T) {
	client := &PushinPayClient{APIBaseURL: "http://127.0.0.1:1"}

	_, err := client.CreateCharge(context.Background(), 1000, "cb")
	assert.True(t, IsGateway(err))
}

func TestPushinPayCreateCharge_TruncatedBody(t *testing.T) {
	client := newTestPushinPay(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "128")
		_, _ = w.Write([]byte(`{"id":"tx_`))
	})

	_, err := client.CreateCharge(context.Background(), 1000, "cb")
	require.Error(t, err)
	var gwErr *GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusOK, gwErr.StatusCode)
	assert.Equal(t, "pix gateway response could not be read", gwErr.Message)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
