package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/payfox/PayFox/app/models"
)

// OutcomeDuplicate marks a delivery whose event id already has a ledger row.
// No handler runs and nothing is written; the ledger row from the first
// delivery keeps its original outcome.
const OutcomeDuplicate = "duplicate"

// Service orchestrates one webhook delivery: signature verification,
// envelope decoding, the ledger check and the transactional dispatch that
// commits the domain mutation together with the ledger row.
type Service struct {
	repo       Repository
	dispatcher *Dispatcher
	secret     string
}

// NewService creates a webhook service from an injected repository.
func NewService(repo Repository, webhookSecret string) *Service {
	return &Service{
		repo:       repo,
		dispatcher: NewDispatcher(),
		secret:     webhookSecret,
	}
}

// NewServiceFromDB creates a webhook service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, webhookSecret string) *Service {
	return NewService(NewRepository(db), webhookSecret)
}

// Result is the terminal disposition of an acknowledged delivery. LogRef
// correlates warn logs with the stored raw payload for manual replay.
type Result struct {
	Outcome string
	Note    string
	LogRef  string
}

// Process runs the full pipeline for one delivery. It returns a Result for
// every acknowledged event and an error for rejections (ErrSignatureInvalid,
// ErrMalformedPayload) and retryable failures (wrapping ErrStoreUnavailable).
func (s *Service) Process(ctx context.Context, rawBody []byte, signatureHeader string) (*Result, error) {
	if !VerifySignature(rawBody, signatureHeader, s.secret) {
		return nil, ErrSignatureInvalid
	}

	env, err := DecodeEnvelope(rawBody)
	if err != nil {
		return nil, err
	}

	processed, err := s.repo.HasProcessedEvent(ctx, models.PaymentProviderFlowPay, env.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if processed {
		return &Result{Outcome: OutcomeDuplicate}, nil
	}

	res := &Result{
		Outcome: models.WebhookOutcomeApplied,
		LogRef:  uuid.NewString(),
	}
	txErr := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := s.dispatcher.Dispatch(ctx, tx, env); err != nil {
			switch {
			case errors.Is(err, ErrMalformedPayload):
				// Redelivery of the same bytes can never succeed: reject
				// without a ledger row.
				return err
			case errors.Is(err, ErrUnknownEventType):
				res.Outcome = models.WebhookOutcomeUnknownType
				res.Note = err.Error()
			case errors.Is(err, ErrEntityNotFound):
				res.Outcome = models.WebhookOutcomeMissingEntity
				res.Note = err.Error()
			case errors.Is(err, ErrStaleEvent):
				res.Outcome = models.WebhookOutcomeStale
				res.Note = err.Error()
			default:
				// Infrastructure failure: roll back so redelivery retries.
				return err
			}
		}

		now := time.Now().UTC()
		return tx.RecordProcessedEvent(ctx, &models.WebhookEvent{
			Provider:        models.PaymentProviderFlowPay,
			ProviderEventID: env.ID,
			EventType:       env.Type,
			LogRef:          res.LogRef,
			PayloadJSON:     string(rawBody),
			Outcome:         res.Outcome,
			ProcessingNote:  res.Note,
			OccurredAt:      env.OccurredAt(),
			ProcessedAt:     &now,
		})
	})
	if txErr != nil {
		if errors.Is(txErr, ErrDuplicateEvent) {
			// A concurrent delivery of the same event won the insert race.
			return &Result{Outcome: OutcomeDuplicate}, nil
		}
		if errors.Is(txErr, ErrMalformedPayload) {
			return nil, txErr
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, txErr)
	}

	switch res.Outcome {
	case models.WebhookOutcomeMissingEntity:
		log.Printf("[webhook] entity missing for event=%s type=%s log_ref=%s: %s",
			env.ID, env.Type, res.LogRef, res.Note)
	case models.WebhookOutcomeUnknownType:
		log.Printf("[webhook] ignoring unknown event type=%s event=%s log_ref=%s",
			env.Type, env.ID, res.LogRef)
	}
	return res, nil
}
