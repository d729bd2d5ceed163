package payment

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"net/url"
	"strconv"
	"strings"
)

// The gateway renamed the transaction id field between integration versions,
// so lookups go through these lists in priority order.
var (
	transactionIDFields = []string{"id", "transaction_id"}
	amountFields        = []string{"value", "amount", "value_in_cents", "valueInCents"}
)

// Notification is the normalized view of a gateway webhook body.
type Notification struct {
	TransactionID string
	Status        string
	AmountCents   *int64
	Fields        map[string]any
}

// Approved reports whether the notification signals a successful payment.
func (n *Notification) Approved() bool {
	switch n.Status {
	case "paid", "approved":
		return true
	default:
		return false
	}
}

// ParseNotification decodes a webhook body of unknown shape. JSON objects and
// form-encoded bodies are accepted.
func ParseNotification(contentType string, body []byte) (*Notification, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, ErrEmptyPayload
	}

	fields, err := decodeFields(contentType, trimmed)
	if err != nil {
		return nil, err
	}

	n := &Notification{
		TransactionID: firstString(fields, transactionIDFields),
		Status:        strings.ToLower(stringValue(fields["status"])),
		Fields:        fields,
	}
	for _, key := range amountFields {
		if cents, ok := centsValue(fields[key]); ok {
			n.AmountCents = &cents
			break
		}
	}
	return n, nil
}

// EventKey identifies a delivery by its content so re-deliveries collapse.
func EventKey(body []byte) string {
	sum := sha256.Sum256(bytes.TrimSpace(body))
	return "sha256:" + hex.EncodeToString(sum[:])
}

func decodeFields(contentType string, body []byte) (map[string]any, error) {
	mediaType, _, _ := mime.ParseMediaType(contentType)
	mediaType = strings.ToLower(mediaType)

	isJSON := mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") ||
		body[0] == '{' || body[0] == '['
	if !isJSON {
		values, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		fields := make(map[string]any, len(values))
		for k, v := range values {
			if len(v) > 0 {
				fields[k] = v[0]
			}
		}
		return fields, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if fields == nil {
		return nil, ErrMalformedPayload
	}
	return fields, nil
}

func firstString(fields map[string]any, keys []string) string {
	for _, key := range keys {
		if v := stringValue(fields[key]); v != "" {
			return v
		}
	}
	return ""
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// centsValue accepts integral amounts only; the gateway reports minor units.
func centsValue(v any) (int64, bool) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return positive(i)
		}
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return positive(i)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = t
	default:
		return 0, false
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	// float64(MaxInt64) rounds up to 2^63, which int64 cannot hold
	if f <= 0 || f >= float64(math.MaxInt64) {
		return 0, false
	}
	return int64(f), true
}

func positive(i int64) (int64, bool) {
	if i <= 0 {
		return 0, false
	}
	return i, true
}
