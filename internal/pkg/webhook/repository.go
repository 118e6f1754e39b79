package webhook

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/payfox/PayFox/app/models"
)

const mysqlDuplicateEntry = 1062

// Repository provides the storage operations used by the webhook pipeline.
// Transaction yields a Repository bound to one database transaction; the
// pipeline runs the domain mutation and the ledger insert through that
// handle so both commit or neither does.
type Repository interface {
	HasProcessedEvent(ctx context.Context, provider, providerEventID string) (bool, error)
	RecordProcessedEvent(ctx context.Context, event *models.WebhookEvent) error

	GetTransactionByIntentID(ctx context.Context, provider, providerIntentID string) (*models.PaymentTransaction, error)
	SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error

	GetSubscriptionByProviderID(ctx context.Context, provider, providerSubscriptionID string) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	SaveSubscription(ctx context.Context, sub *models.Subscription) error

	Transaction(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a webhook repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) HasProcessedEvent(ctx context.Context, provider, providerEventID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordProcessedEvent inserts the ledger row. A violation of the unique
// (provider, provider_event_id) index surfaces as ErrDuplicateEvent so
// callers can distinguish a lost redelivery race from a real store failure.
func (r *gormRepository) RecordProcessedEvent(ctx context.Context, event *models.WebhookEvent) error {
	err := r.db.WithContext(ctx).Create(event).Error
	if err == nil {
		return nil
	}
	if isDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateEvent, event.ProviderEventID)
	}
	return err
}

func (r *gormRepository) GetTransactionByIntentID(ctx context.Context, provider, providerIntentID string) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_intent_id = ?", provider, providerIntentID).
		First(&txn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: payment transaction %s", ErrEntityNotFound, providerIntentID)
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *gormRepository) SaveTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *gormRepository) GetSubscriptionByProviderID(ctx context.Context, provider, providerSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_subscription_id = ?", provider, providerSubscriptionID).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: subscription %s", ErrEntityNotFound, providerSubscriptionID)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"canceled_at",
			"trial_start",
			"trial_end",
			"last_event_at",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return r.db.WithContext(ctx).
		Where("provider = ? AND provider_subscription_id = ?", sub.Provider, sub.ProviderSubscriptionID).
		First(sub).Error
}

func (r *gormRepository) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
