package models

import "time"

// Payment provider constants used across billing-related models.
const (
	PaymentProviderFlowPay = "flowpay"
)

const (
	TransactionStatusPending           = "pending"
	TransactionStatusSucceeded         = "succeeded"
	TransactionStatusFailed            = "failed"
	TransactionStatusRefunded          = "refunded"
	TransactionStatusPartiallyRefunded = "partially_refunded"
	TransactionStatusDisputed          = "disputed"
)

// PaymentTransaction mirrors a provider payment intent. Rows are created at
// payment initiation time by the checkout flow; the webhook pipeline only
// transitions status, failure fields and charge linkage.
type PaymentTransaction struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	Provider            string    `gorm:"type:varchar(20);not null;index:ux_payment_transactions_provider_intent,unique,priority:1" json:"provider"`
	ProviderIntentID    string    `gorm:"type:varchar(191);not null;index:ux_payment_transactions_provider_intent,unique,priority:2" json:"provider_intent_id"`
	Status              string    `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	ProviderChargeID    string    `gorm:"type:varchar(191);default:''" json:"provider_charge_id"`
	ReceiptURL          string    `gorm:"type:varchar(500);default:''" json:"receipt_url"`
	FailureCode         string    `gorm:"type:varchar(100);default:''" json:"failure_code"`
	FailureMessage      string    `gorm:"type:text" json:"failure_message"`
	AmountCents         int64     `gorm:"not null;default:0" json:"amount_cents"`
	AmountRefundedCents int64     `gorm:"not null;default:0" json:"amount_refunded_cents"`
	Currency            string    `gorm:"type:varchar(3);not null;default:'EUR'" json:"currency"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
