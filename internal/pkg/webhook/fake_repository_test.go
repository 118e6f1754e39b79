package webhook

import (
	"context"
	"fmt"

	"github.com/payfox/PayFox/app/models"
)

// fakeRepository is an in-memory Repository with snapshot-based rollback so
// tests can observe the same commit-or-nothing behavior the real store gives
// the pipeline.
type fakeRepository struct {
	transactions  map[string]models.PaymentTransaction // keyed by provider intent id
	subscriptions map[string]models.Subscription       // keyed by provider subscription id
	events        map[string]models.WebhookEvent       // keyed by provider event id

	saveTransactionCalls int

	failSaveTransaction bool
	failHasProcessed    bool
	recordEventErr      error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		transactions:  make(map[string]models.PaymentTransaction),
		subscriptions: make(map[string]models.Subscription),
		events:        make(map[string]models.WebhookEvent),
	}
}

func (f *fakeRepository) HasProcessedEvent(ctx context.Context, provider, providerEventID string) (bool, error) {
	if f.failHasProcessed {
		return false, fmt.Errorf("connection refused")
	}
	_, ok := f.events[providerEventID]
	return ok, nil
}

func (f *fakeRepository) RecordProcessedEvent(ctx context.Context, event *models.WebhookEvent) error {
	if f.recordEventErr != nil {
		return f.recordEventErr
	}
	if _, ok := f.events[event.ProviderEventID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, event.ProviderEventID)
	}
	f.events[event.ProviderEventID] = *event
	return nil
}

func (f *fakeRepository) GetTransactionByIntentID(ctx context.Context, provider, providerIntentID string) (*models.PaymentTransaction, error) {
	txn, ok := f.transactions[providerIntentID]
	if !ok {
		return nil, fmt.Errorf("%w: payment transaction %s", ErrEntityNotFound, providerIntentID)
	}
	copied := txn
	return &copied, nil
}

func (f *fakeRepository) SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	f.saveTransactionCalls++
	if f.failSaveTransaction {
		return fmt.Errorf("deadlock found when trying to get lock")
	}
	f.transactions[txn.ProviderIntentID] = *txn
	return nil
}

func (f *fakeRepository) GetSubscriptionByProviderID(ctx context.Context, provider, providerSubscriptionID string) (*models.Subscription, error) {
	sub, ok := f.subscriptions[providerSubscriptionID]
	if !ok {
		return nil, fmt.Errorf("%w: subscription %s", ErrEntityNotFound, providerSubscriptionID)
	}
	copied := sub
	return &copied, nil
}

func (f *fakeRepository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	if existing, ok := f.subscriptions[sub.ProviderSubscriptionID]; ok {
		sub.ID = existing.ID
	} else {
		sub.ID = uint(len(f.subscriptions) + 1)
	}
	f.subscriptions[sub.ProviderSubscriptionID] = *sub
	return nil
}

func (f *fakeRepository) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	f.subscriptions[sub.ProviderSubscriptionID] = *sub
	return nil
}

func (f *fakeRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	snapTxns := cloneMap(f.transactions)
	snapSubs := cloneMap(f.subscriptions)
	snapEvents := cloneMap(f.events)

	if err := fn(f); err != nil {
		f.transactions = snapTxns
		f.subscriptions = snapSubs
		f.events = snapEvents
		return err
	}
	return nil
}

func cloneMap[V any](in map[string]V) map[string]V {
	out := make(map[string]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
