package webhook

import "errors"

// Sentinel errors classifying every way a delivery can terminate. The
// endpoint maps them to protocol responses; everything not matched here is
// treated as a retryable infrastructure failure.
var (
	// ErrSignatureInvalid rejects the request before anything is decoded or
	// stored.
	ErrSignatureInvalid = errors.New("invalid webhook signature")

	// ErrMalformedPayload rejects envelopes or data objects that cannot be
	// decoded. Redelivery of the same bytes can never succeed, so no ledger
	// row is written and the response is terminal.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrDuplicateEvent surfaces the ledger unique-index violation. Benign:
	// the event was already applied, possibly by a concurrent delivery.
	ErrDuplicateEvent = errors.New("webhook event already processed")

	// ErrEntityNotFound means the referenced transaction or subscription does
	// not exist locally. Acknowledged so the provider stops retrying, but
	// recorded on the ledger row as missing_entity.
	ErrEntityNotFound = errors.New("referenced entity not found")

	// ErrUnknownEventType means no handler is registered for the type tag.
	ErrUnknownEventType = errors.New("unknown webhook event type")

	// ErrStaleEvent means the event carries an older provider timestamp than
	// the newest event already applied to the same subscription.
	ErrStaleEvent = errors.New("stale webhook event")

	// ErrStoreUnavailable wraps infrastructure failures from the store. The
	// transaction rolls back, no ledger row is written and the provider is
	// asked to redeliver.
	ErrStoreUnavailable = errors.New("store unavailable")
)
