package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/payfox/PayFox/app/models"
	"github.com/payfox/PayFox/internal/pkg/database"
	"github.com/payfox/PayFox/internal/pkg/env"
	"github.com/payfox/PayFox/internal/pkg/metrics/counter"
	"github.com/payfox/PayFox/internal/pkg/webhook"
)

// Storage work for one delivery is bounded; on expiry the provider gets a
// retryable error and redelivers.
const webhookTimeout = 15 * time.Second

var webhookService *webhook.Service

// InitializeWebhookController wires the webhook service against the shared
// DB handle. Called from the router during startup.
func InitializeWebhookController() {
	webhookService = webhook.NewServiceFromDB(
		database.GetDB(),
		env.GetEnv("FLOWPAY_WEBHOOK_SECRET", ""),
	)
}

// SetWebhookService replaces the service instance. Used by tests.
func SetWebhookService(svc *webhook.Service) {
	webhookService = svc
}

// HandleFlowPayWebhook is the single inbound endpoint for provider events.
// Signature verification happens on the exact raw bytes before anything is
// decoded or stored.
func HandleFlowPayWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get(webhook.SignatureHeader))

	ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
	defer cancel()

	res, err := webhookService.Process(ctx, rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrSignatureInvalid):
			_ = counter.AddWebhookOutcome("rejected_signature")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		case errors.Is(err, webhook.ErrMalformedPayload):
			_ = counter.AddWebhookOutcome("rejected_malformed")
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		default:
			_ = counter.AddWebhookOutcome("failed")
			log.Printf("[webhook] processing failed, provider will retry: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
		}
	}

	_ = counter.AddWebhookOutcome(res.Outcome)

	resp := fiber.Map{"ok": true}
	switch res.Outcome {
	case webhook.OutcomeDuplicate:
		resp["duplicate"] = true
	case models.WebhookOutcomeMissingEntity, models.WebhookOutcomeUnknownType, models.WebhookOutcomeStale:
		resp["ignored"] = true
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// HandleWebhookMetrics exposes the per-outcome delivery counters.
func HandleWebhookMetrics(c *fiber.Ctx) error {
	totals, err := counter.WebhookOutcomeTotals()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "metrics_unavailable"})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"outcomes": totals})
}
