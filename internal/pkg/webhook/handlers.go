package webhook

import (
	"context"
	"strings"
	"time"

	"github.com/payfox/PayFox/app/models"
)

// HandlePaymentSucceeded marks the referenced transaction as succeeded and
// attaches the charge linkage from the payload.
func HandlePaymentSucceeded(ctx context.Context, repo Repository, env *Envelope) error {
	p, err := decodePaymentPayload(env.Data)
	if err != nil {
		return err
	}
	txn, err := repo.GetTransactionByIntentID(ctx, models.PaymentProviderFlowPay, p.IntentID)
	if err != nil {
		return err
	}
	txn.Status = models.TransactionStatusSucceeded
	txn.ProviderChargeID = p.ChargeID
	txn.ReceiptURL = p.ReceiptURL
	return repo.SaveTransaction(ctx, txn)
}

// HandlePaymentFailed marks the referenced transaction as failed and records
// the provider failure code and message.
func HandlePaymentFailed(ctx context.Context, repo Repository, env *Envelope) error {
	p, err := decodePaymentPayload(env.Data)
	if err != nil {
		return err
	}
	txn, err := repo.GetTransactionByIntentID(ctx, models.PaymentProviderFlowPay, p.IntentID)
	if err != nil {
		return err
	}
	txn.Status = models.TransactionStatusFailed
	txn.FailureCode = p.FailureCode
	txn.FailureMessage = p.FailureMessage
	return repo.SaveTransaction(ctx, txn)
}

// HandlePaymentRefunded transitions the transaction to refunded, or
// partially_refunded when the refunded amount does not cover the full
// charge. Pure status transition; refund bookkeeping lives elsewhere.
func HandlePaymentRefunded(ctx context.Context, repo Repository, env *Envelope) error {
	p, err := decodePaymentPayload(env.Data)
	if err != nil {
		return err
	}
	txn, err := repo.GetTransactionByIntentID(ctx, models.PaymentProviderFlowPay, p.IntentID)
	if err != nil {
		return err
	}
	txn.AmountRefundedCents = p.AmountRefundedCents
	if p.AmountRefundedCents > 0 && p.AmountRefundedCents < txn.AmountCents {
		txn.Status = models.TransactionStatusPartiallyRefunded
	} else {
		txn.Status = models.TransactionStatusRefunded
	}
	return repo.SaveTransaction(ctx, txn)
}

// HandlePaymentDisputed marks the referenced transaction as disputed.
func HandlePaymentDisputed(ctx context.Context, repo Repository, env *Envelope) error {
	p, err := decodePaymentPayload(env.Data)
	if err != nil {
		return err
	}
	txn, err := repo.GetTransactionByIntentID(ctx, models.PaymentProviderFlowPay, p.IntentID)
	if err != nil {
		return err
	}
	txn.Status = models.TransactionStatusDisputed
	return repo.SaveTransaction(ctx, txn)
}

// HandleSubscriptionCreated upserts the full subscription record from the
// payload. Creation is idempotent: a redelivered or re-sent "created" event
// for an existing row overwrites the same snapshot fields.
func HandleSubscriptionCreated(ctx context.Context, repo Repository, env *Envelope) error {
	p, err := decodeSubscriptionPayload(env.Data)
	if err != nil {
		return err
	}
	sub := &models.Subscription{
		Provider:               models.PaymentProviderFlowPay,
		ProviderSubscriptionID: p.SubscriptionID,
		Status:                 subscriptionStatusFromPayload(p.Status),
		CurrentPeriodStart:     unixTimePtr(p.CurrentPeriodStart),
		CurrentPeriodEnd:       unixTimePtr(p.CurrentPeriodEnd),
		CancelAtPeriodEnd:      p.CancelAtPeriodEnd,
		CanceledAt:             unixTimePtr(p.CanceledAt),
		TrialStart:             unixTimePtr(p.TrialStart),
		TrialEnd:               unixTimePtr(p.TrialEnd),
		LastEventAt:            env.OccurredAt(),
	}
	return repo.UpsertSubscription(ctx, sub)
}

// HandleSubscriptionUpdated overwrites status, period, trial and
// cancellation fields from the payload. Events older than the newest one
// already applied to the subscription are skipped as stale.
func HandleSubscriptionUpdated(ctx context.Context, repo Repository, env *Envelope) error {
	p, err := decodeSubscriptionPayload(env.Data)
	if err != nil {
		return err
	}
	sub, err := repo.GetSubscriptionByProviderID(ctx, models.PaymentProviderFlowPay, p.SubscriptionID)
	if err != nil {
		return err
	}
	if isStale(env, sub) {
		return ErrStaleEvent
	}
	sub.Status = subscriptionStatusFromPayload(p.Status)
	sub.CurrentPeriodStart = unixTimePtr(p.CurrentPeriodStart)
	sub.CurrentPeriodEnd = unixTimePtr(p.CurrentPeriodEnd)
	sub.CancelAtPeriodEnd = p.CancelAtPeriodEnd
	sub.CanceledAt = unixTimePtr(p.CanceledAt)
	sub.TrialStart = unixTimePtr(p.TrialStart)
	sub.TrialEnd = unixTimePtr(p.TrialEnd)
	if at := env.OccurredAt(); at != nil {
		sub.LastEventAt = at
	}
	return repo.SaveSubscription(ctx, sub)
}

// HandleSubscriptionDeleted marks the subscription canceled. The canceled_at
// timestamp comes from the payload when present, otherwise the local clock.
func HandleSubscriptionDeleted(ctx context.Context, repo Repository, env *Envelope) error {
	p, err := decodeSubscriptionPayload(env.Data)
	if err != nil {
		return err
	}
	sub, err := repo.GetSubscriptionByProviderID(ctx, models.PaymentProviderFlowPay, p.SubscriptionID)
	if err != nil {
		return err
	}
	if isStale(env, sub) {
		return ErrStaleEvent
	}
	sub.Status = models.SubscriptionStatusCanceled
	if at := unixTimePtr(p.CanceledAt); at != nil {
		sub.CanceledAt = at
	} else {
		now := time.Now().UTC()
		sub.CanceledAt = &now
	}
	if at := env.OccurredAt(); at != nil {
		sub.LastEventAt = at
	}
	return repo.SaveSubscription(ctx, sub)
}

// isStale reports whether the envelope predates the newest event already
// applied to the subscription. Events without a provider timestamp are never
// considered stale.
func isStale(env *Envelope, sub *models.Subscription) bool {
	at := env.OccurredAt()
	return at != nil && sub.LastEventAt != nil && at.Before(*sub.LastEventAt)
}

func subscriptionStatusFromPayload(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	if models.IsValidSubscriptionStatus(s) {
		return s
	}
	return models.SubscriptionStatusIncomplete
}
