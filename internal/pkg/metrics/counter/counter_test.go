package counter

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHash struct {
	data map[string]map[string]string
	err  error
}

func newFakeHash() *fakeHash {
	return &fakeHash{data: map[string]map[string]string{}}
}

func (f *fakeHash) HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	h, ok := f.data[key]
	if !ok {
		h = map[string]string{}
		f.data[key] = h
	}
	n, _ := strconv.ParseInt(h[field], 10, 64)
	n += incr
	h[field] = strconv.FormatInt(n, 10)
	return redis.NewIntResult(n, nil)
}

func (f *fakeHash) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	if f.err != nil {
		return redis.NewMapStringStringResult(nil, f.err)
	}
	out := map[string]string{}
	for k, v := range f.data[key] {
		out[k] = v
	}
	return redis.NewMapStringStringResult(out, nil)
}

func TestWebhookOutcomes(t *testing.T) {
	store := newFakeHash()
	w := NewWebhookOutcomes(store)
	ctx := context.Background()

	require.NoError(t, w.Add(ctx, "transitioned"))
	require.NoError(t, w.Add(ctx, "transitioned"))
	require.NoError(t, w.Add(ctx, "duplicate"))
	store.data[webhookOutcomesKey]["garbage"] = "x"

	all, err := w.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"transitioned": 2, "duplicate": 1}, all)
}

func TestWebhookOutcomesErrors(t *testing.T) {
	store := newFakeHash()
	store.err = errors.New("connection refused")
	w := NewWebhookOutcomes(store)

	assert.Error(t, w.Add(context.Background(), "rescued"))
	_, err := w.All(context.Background())
	assert.Error(t, err)
}
