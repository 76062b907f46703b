package counter

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const webhookOutcomesKey = "webhook:counters"

// WebhookCounters keeps per-provider webhook outcome counts in a Redis hash
// whose fields are "<provider>:<outcome>".
type WebhookCounters struct {
	client *redis.Client
}

func NewWebhookCounters(client *redis.Client) *WebhookCounters {
	return &WebhookCounters{client: client}
}

// IncrWebhookOutcome increments the counter for provider and outcome.
func (c *WebhookCounters) IncrWebhookOutcome(ctx context.Context, provider, outcome string) error {
	return c.client.HIncrBy(ctx, webhookOutcomesKey, provider+":"+outcome, 1).Err()
}

// Snapshot returns all counters.
func (c *WebhookCounters) Snapshot(ctx context.Context) (map[string]int64, error) {
	data, err := c.client.HGetAll(ctx, webhookOutcomesKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(data))
	for field, raw := range data {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}
