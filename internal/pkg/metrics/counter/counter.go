package counter

import (
	"context"
	"strconv"

	"github.com/payfox/PayFox/internal/pkg/cache"
)

const webhookOutcomesKey = "webhook:counters:outcomes"

// AddWebhookOutcome increments the operational counter for one delivery
// disposition (applied, duplicate, missing_entity, unknown_type, stale,
// rejected_signature, rejected_malformed, failed). Callers treat errors as
// non-fatal; a cache outage must never fail a webhook request.
func AddWebhookOutcome(outcome string) error {
	if outcome == "" {
		return nil
	}
	ctx := context.Background()
	return cache.GetClient().HIncrBy(ctx, webhookOutcomesKey, outcome, 1).Err()
}

// WebhookOutcomeTotals returns the accumulated per-outcome counters.
func WebhookOutcomeTotals() (map[string]int64, error) {
	ctx := context.Background()
	raw, err := cache.GetClient().HGetAll(ctx, webhookOutcomesKey).Result()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]int64, len(raw))
	for outcome, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		totals[outcome] = n
	}
	return totals, nil
}
