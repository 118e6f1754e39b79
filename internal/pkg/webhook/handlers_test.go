package webhook

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payfox/PayFox/app/models"
)

func paymentEnvelope(t *testing.T, eventType string, payload PaymentPayload) *Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &Envelope{Type: eventType, ID: "evt_test", Data: data}
}

func subscriptionEnvelope(t *testing.T, eventType string, created int64, payload SubscriptionPayload) *Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &Envelope{Type: eventType, ID: "evt_test", Created: created, Data: data}
}

func TestHandlePaymentSucceeded(t *testing.T) {
	repo := newFakeRepository()
	repo.transactions["pi_1"] = pendingTransaction("pi_1")

	env := paymentEnvelope(t, EventPaymentSucceeded, PaymentPayload{
		IntentID:   "pi_1",
		ChargeID:   "ch_9",
		ReceiptURL: "https://pay.example/r/9",
	})
	require.NoError(t, HandlePaymentSucceeded(context.Background(), repo, env))

	txn := repo.transactions["pi_1"]
	assert.Equal(t, models.TransactionStatusSucceeded, txn.Status)
	assert.Equal(t, "ch_9", txn.ProviderChargeID)
	assert.Equal(t, "https://pay.example/r/9", txn.ReceiptURL)
	assert.Empty(t, txn.FailureCode)
}

func TestHandlePaymentSucceededMissingTransaction(t *testing.T) {
	repo := newFakeRepository()
	env := paymentEnvelope(t, EventPaymentSucceeded, PaymentPayload{IntentID: "pi_missing"})

	err := HandlePaymentSucceeded(context.Background(), repo, env)
	require.ErrorIs(t, err, ErrEntityNotFound)
	assert.Empty(t, repo.transactions)
}

func TestHandlePaymentFailed(t *testing.T) {
	repo := newFakeRepository()
	repo.transactions["pi_1"] = pendingTransaction("pi_1")

	env := paymentEnvelope(t, EventPaymentFailed, PaymentPayload{
		IntentID:       "pi_1",
		FailureCode:    "card_declined",
		FailureMessage: "Your card was declined.",
	})
	require.NoError(t, HandlePaymentFailed(context.Background(), repo, env))

	txn := repo.transactions["pi_1"]
	assert.Equal(t, models.TransactionStatusFailed, txn.Status)
	assert.Equal(t, "card_declined", txn.FailureCode)
	assert.Equal(t, "Your card was declined.", txn.FailureMessage)
}

func TestHandlePaymentRefunded(t *testing.T) {
	tests := []struct {
		name           string
		amountRefunded int64
		wantStatus     string
	}{
		{name: "full refund", amountRefunded: 4900, wantStatus: models.TransactionStatusRefunded},
		{name: "partial refund", amountRefunded: 1000, wantStatus: models.TransactionStatusPartiallyRefunded},
		{name: "unspecified amount treated as full", amountRefunded: 0, wantStatus: models.TransactionStatusRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepository()
			txn := pendingTransaction("pi_1")
			txn.Status = models.TransactionStatusSucceeded
			repo.transactions["pi_1"] = txn

			env := paymentEnvelope(t, EventPaymentRefunded, PaymentPayload{
				IntentID:            "pi_1",
				AmountRefundedCents: tt.amountRefunded,
			})
			require.NoError(t, HandlePaymentRefunded(context.Background(), repo, env))
			assert.Equal(t, tt.wantStatus, repo.transactions["pi_1"].Status)
			assert.Equal(t, tt.amountRefunded, repo.transactions["pi_1"].AmountRefundedCents)
		})
	}
}

func TestHandlePaymentDisputed(t *testing.T) {
	repo := newFakeRepository()
	txn := pendingTransaction("pi_1")
	txn.Status = models.TransactionStatusSucceeded
	repo.transactions["pi_1"] = txn

	env := paymentEnvelope(t, EventPaymentDisputed, PaymentPayload{IntentID: "pi_1"})
	require.NoError(t, HandlePaymentDisputed(context.Background(), repo, env))
	assert.Equal(t, models.TransactionStatusDisputed, repo.transactions["pi_1"].Status)
}

func TestHandleSubscriptionCreated(t *testing.T) {
	repo := newFakeRepository()

	env := subscriptionEnvelope(t, EventSubscriptionCreated, 1700000000, SubscriptionPayload{
		SubscriptionID:     "sub_1",
		Status:             "trialing",
		CurrentPeriodStart: 1700000000,
		CurrentPeriodEnd:   1702592000,
		TrialStart:         1700000000,
		TrialEnd:           1700864000,
	})
	require.NoError(t, HandleSubscriptionCreated(context.Background(), repo, env))

	sub, ok := repo.subscriptions["sub_1"]
	require.True(t, ok)
	assert.Equal(t, models.SubscriptionStatusTrialing, sub.Status)
	assert.Equal(t, models.PaymentProviderFlowPay, sub.Provider)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, time.Unix(1702592000, 0).UTC(), *sub.CurrentPeriodEnd)
	require.NotNil(t, sub.TrialEnd)
	require.NotNil(t, sub.LastEventAt)
	assert.Nil(t, sub.CanceledAt)
}

func TestHandleSubscriptionCreatedIsUpsert(t *testing.T) {
	repo := newFakeRepository()
	repo.subscriptions["sub_1"] = models.Subscription{
		ID:                     7,
		Provider:               models.PaymentProviderFlowPay,
		ProviderSubscriptionID: "sub_1",
		Status:                 models.SubscriptionStatusIncomplete,
	}

	env := subscriptionEnvelope(t, EventSubscriptionCreated, 1700000000, SubscriptionPayload{
		SubscriptionID: "sub_1",
		Status:         "active",
	})
	require.NoError(t, HandleSubscriptionCreated(context.Background(), repo, env))

	sub := repo.subscriptions["sub_1"]
	assert.Equal(t, uint(7), sub.ID)
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.Len(t, repo.subscriptions, 1)
}

func TestHandleSubscriptionCreatedUnknownStatus(t *testing.T) {
	repo := newFakeRepository()

	env := subscriptionEnvelope(t, EventSubscriptionCreated, 0, SubscriptionPayload{
		SubscriptionID: "sub_1",
		Status:         "some_new_provider_status",
	})
	require.NoError(t, HandleSubscriptionCreated(context.Background(), repo, env))
	assert.Equal(t, models.SubscriptionStatusIncomplete, repo.subscriptions["sub_1"].Status)
}

func TestHandleSubscriptionUpdated(t *testing.T) {
	repo := newFakeRepository()
	old := time.Unix(1690000000, 0).UTC()
	repo.subscriptions["sub_1"] = models.Subscription{
		ID:                     1,
		Provider:               models.PaymentProviderFlowPay,
		ProviderSubscriptionID: "sub_1",
		Status:                 models.SubscriptionStatusTrialing,
		LastEventAt:            &old,
	}

	env := subscriptionEnvelope(t, EventSubscriptionUpdated, 1700000000, SubscriptionPayload{
		SubscriptionID:     "sub_1",
		Status:             "active",
		CurrentPeriodStart: 1700000000,
		CurrentPeriodEnd:   1702592000,
		CancelAtPeriodEnd:  true,
	})
	require.NoError(t, HandleSubscriptionUpdated(context.Background(), repo, env))

	sub := repo.subscriptions["sub_1"]
	assert.Equal(t, models.SubscriptionStatusActive, sub.Status)
	assert.True(t, sub.CancelAtPeriodEnd)
	require.NotNil(t, sub.LastEventAt)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), *sub.LastEventAt)
	// Trial fields are snapshot state: absent in payload means cleared.
	assert.Nil(t, sub.TrialStart)
	assert.Nil(t, sub.TrialEnd)
}

func TestHandleSubscriptionUpdatedStale(t *testing.T) {
	repo := newFakeRepository()
	newer := time.Unix(1700005000, 0).UTC()
	repo.subscriptions["sub_1"] = models.Subscription{
		ID:                     1,
		Provider:               models.PaymentProviderFlowPay,
		ProviderSubscriptionID: "sub_1",
		Status:                 models.SubscriptionStatusActive,
		LastEventAt:            &newer,
	}

	env := subscriptionEnvelope(t, EventSubscriptionUpdated, 1700000000, SubscriptionPayload{
		SubscriptionID: "sub_1",
		Status:         "past_due",
	})
	err := HandleSubscriptionUpdated(context.Background(), repo, env)
	require.ErrorIs(t, err, ErrStaleEvent)
	assert.Equal(t, models.SubscriptionStatusActive, repo.subscriptions["sub_1"].Status)
}

func TestHandleSubscriptionUpdatedMissing(t *testing.T) {
	repo := newFakeRepository()
	env := subscriptionEnvelope(t, EventSubscriptionUpdated, 0, SubscriptionPayload{SubscriptionID: "sub_missing"})
	require.ErrorIs(t, HandleSubscriptionUpdated(context.Background(), repo, env), ErrEntityNotFound)
}

func TestHandleSubscriptionDeleted(t *testing.T) {
	repo := newFakeRepository()
	repo.subscriptions["sub_1"] = models.Subscription{
		ID:                     1,
		Provider:               models.PaymentProviderFlowPay,
		ProviderSubscriptionID: "sub_1",
		Status:                 models.SubscriptionStatusActive,
	}

	env := subscriptionEnvelope(t, EventSubscriptionDeleted, 1700000000, SubscriptionPayload{
		SubscriptionID: "sub_1",
		CanceledAt:     1700000000,
	})
	require.NoError(t, HandleSubscriptionDeleted(context.Background(), repo, env))

	sub := repo.subscriptions["sub_1"]
	assert.Equal(t, models.SubscriptionStatusCanceled, sub.Status)
	require.NotNil(t, sub.CanceledAt)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), *sub.CanceledAt)
}

func TestHandleSubscriptionDeletedDefaultsCanceledAt(t *testing.T) {
	repo := newFakeRepository()
	repo.subscriptions["sub_1"] = models.Subscription{
		ID:                     1,
		Provider:               models.PaymentProviderFlowPay,
		ProviderSubscriptionID: "sub_1",
		Status:                 models.SubscriptionStatusActive,
	}

	before := time.Now().UTC()
	env := subscriptionEnvelope(t, EventSubscriptionDeleted, 0, SubscriptionPayload{SubscriptionID: "sub_1"})
	require.NoError(t, HandleSubscriptionDeleted(context.Background(), repo, env))

	sub := repo.subscriptions["sub_1"]
	require.NotNil(t, sub.CanceledAt)
	assert.False(t, sub.CanceledAt.Before(before.Truncate(time.Second)))
}

func TestHandleSubscriptionDeletedMissing(t *testing.T) {
	repo := newFakeRepository()
	env := subscriptionEnvelope(t, EventSubscriptionDeleted, 0, SubscriptionPayload{SubscriptionID: "sub_1"})
	require.ErrorIs(t, HandleSubscriptionDeleted(context.Background(), repo, env), ErrEntityNotFound)
	assert.Empty(t, repo.subscriptions)
}
