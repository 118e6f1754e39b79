package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Event type tags delivered by the provider. The dispatch table in
// dispatch.go is the closed set of types this service acts on.
const (
	EventPaymentSucceeded    = "payment.succeeded"
	EventPaymentFailed       = "payment.failed"
	EventPaymentRefunded     = "payment.refunded"
	EventPaymentDisputed     = "payment.disputed"
	EventSubscriptionCreated = "subscription.created"
	EventSubscriptionUpdated = "subscription.updated"
	EventSubscriptionDeleted = "subscription.deleted"
)

var validate = validator.New()

// Envelope is the outer webhook message: a type tag, a globally unique
// provider-assigned event id, the provider-side creation time and a
// type-specific data object that stays raw until a handler decodes it.
type Envelope struct {
	Type    string          `json:"type" validate:"required"`
	ID      string          `json:"id" validate:"required"`
	Created int64           `json:"created"`
	Data    json.RawMessage `json:"data"`
}

// DecodeEnvelope parses and validates the envelope. Failures wrap
// ErrMalformedPayload.
func DecodeEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	env.Type = strings.TrimSpace(env.Type)
	env.ID = strings.TrimSpace(env.ID)
	if err := validate.Struct(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &env, nil
}

// OccurredAt returns the provider-side event creation time, or nil when the
// envelope carries none.
func (e *Envelope) OccurredAt() *time.Time {
	if e.Created <= 0 {
		return nil
	}
	t := time.Unix(e.Created, 0).UTC()
	return &t
}

// PaymentPayload is the data object of payment.* events.
type PaymentPayload struct {
	IntentID            string `json:"intent_id" validate:"required"`
	ChargeID            string `json:"charge_id"`
	ReceiptURL          string `json:"receipt_url"`
	FailureCode         string `json:"failure_code"`
	FailureMessage      string `json:"failure_message"`
	AmountCents         int64  `json:"amount"`
	AmountRefundedCents int64  `json:"amount_refunded"`
}

// SubscriptionPayload is the data object of subscription.* events. Times are
// provider-side unix seconds; zero means absent.
type SubscriptionPayload struct {
	SubscriptionID     string `json:"subscription_id" validate:"required"`
	Status             string `json:"status"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	TrialStart         int64  `json:"trial_start"`
	TrialEnd           int64  `json:"trial_end"`
	CanceledAt         int64  `json:"canceled_at"`
}

func decodePaymentPayload(data json.RawMessage) (*PaymentPayload, error) {
	var p PaymentPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	p.IntentID = strings.TrimSpace(p.IntentID)
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &p, nil
}

func decodeSubscriptionPayload(data json.RawMessage) (*SubscriptionPayload, error) {
	var p SubscriptionPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	p.SubscriptionID = strings.TrimSpace(p.SubscriptionID)
	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &p, nil
}

func unixTimePtr(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
