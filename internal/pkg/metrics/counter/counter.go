package counter

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const webhookOutcomesKey = "webhook:counters:outcomes"

// hashStore is the subset of the Redis client the counters need.
type hashStore interface {
	HIncrBy(ctx context.Context, key, field string, incr int64) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// WebhookOutcomes counts processed webhook deliveries per outcome in a Redis
// hash. Counters survive restarts and are shared between instances.
type WebhookOutcomes struct {
	store hashStore
}

func NewWebhookOutcomes(store hashStore) *WebhookOutcomes {
	return &WebhookOutcomes{store: store}
}

// Add increments the counter of one outcome
func (w *WebhookOutcomes) Add(ctx context.Context, outcome string) error {
	return w.store.HIncrBy(ctx, webhookOutcomesKey, outcome, 1).Err()
}

// All returns every outcome counter. Fields that are not integers are skipped.
func (w *WebhookOutcomes) All(ctx context.Context) (map[string]int64, error) {
	data, err := w.store.HGetAll(ctx, webhookOutcomesKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for k, v := range data {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}
