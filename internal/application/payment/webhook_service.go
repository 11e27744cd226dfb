package payment

import (
	"context"
	"errors"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// WebhookResult describes what happened to one gateway notification
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ErrInvalidSignature is returned when a webhook payload fails verification
var ErrInvalidSignature = shared.NewDomainError("INVALID_SIGNATURE", "Webhook signature verification failed")

// WebhookService applies gateway notifications to gateway payments.
// Deliveries are de-duplicated by event ID; a delivery that fails is
// forgotten again so the gateway's retry is processed.
type WebhookService struct {
	verifier    payment.WebhookVerifier
	payments    payment.Repository
	idempotency shared.IdempotencyStore
	config      shared.IdempotencyConfig
	settlement  *settlement
	logger      *zap.Logger
}

// WebhookServiceConfig wires a WebhookService
type WebhookServiceConfig struct {
	Verifier    payment.WebhookVerifier
	Payments    payment.Repository
	Idempotency shared.IdempotencyStore
	Config      shared.IdempotencyConfig
	TxScope     common.TransactionScope
	Metrics     common.Metrics
	Logger      *zap.Logger
}

// NewWebhookService creates a new WebhookService
func NewWebhookService(cfg WebhookServiceConfig) *WebhookService {
	idem := cfg.Config
	if idem.TTL == 0 {
		idem = shared.DefaultIdempotencyConfig()
	}
	return &WebhookService{
		verifier:    cfg.Verifier,
		payments:    cfg.Payments,
		idempotency: cfg.Idempotency,
		config:      idem,
		settlement: newSettlement(ServiceConfig{
			TxScope: cfg.TxScope,
			Metrics: cfg.Metrics,
			Logger:  cfg.Logger,
		}),
		logger: cfg.Logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *WebhookService) SetEventPublisher(publisher shared.EventPublisher) {
	s.settlement.publisher = publisher
}

// ProcessWebhook verifies and applies one notification
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ev, err := s.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected webhook", zap.Error(err))
		return nil, ErrInvalidSignature
	}

	result := &WebhookResult{EventID: ev.ID, EventType: ev.RawType}
	if ev.Kind == payment.GatewayEventIgnored {
		s.logger.Debug("Unhandled webhook event type", zap.String("event_type", ev.RawType))
		result.Message = "Event type not handled"
		return result, nil
	}

	if s.useIdempotency() {
		fresh, err := s.idempotency.MarkProcessed(ctx, ev.ID, s.config.TTL)
		if err != nil {
			s.logger.Warn("Failed to check webhook idempotency, processing anyway",
				zap.String("event_id", ev.ID),
				zap.Error(err))
		} else if !fresh {
			s.logger.Debug("Duplicate webhook delivery, skipping", zap.String("event_id", ev.ID))
			result.Duplicate = true
			result.Message = "Already processed"
			return result, nil
		}
	}

	s.logger.Info("Processing gateway webhook",
		zap.String("event_id", ev.ID),
		zap.String("event_type", ev.RawType),
		zap.String("intent_id", ev.IntentID))

	if err := s.apply(ctx, ev); err != nil {
		if s.useIdempotency() {
			if ferr := s.idempotency.Forget(ctx, ev.ID); ferr != nil {
				s.logger.Warn("Failed to release webhook idempotency key",
					zap.String("event_id", ev.ID),
					zap.Error(ferr))
			}
		}
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", ev.ID),
			zap.String("event_type", ev.RawType),
			zap.Error(err))
		result.Message = err.Error()
		return result, err
	}
	result.Processed = true
	return result, nil
}

func (s *WebhookService) useIdempotency() bool {
	return s.idempotency != nil && s.config.Enabled
}

func (s *WebhookService) apply(ctx context.Context, ev *payment.GatewayEvent) error {
	p, err := s.payments.FindByGatewayRef(ctx, ev.IntentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// The intent is created before the payment row commits, so the
			// notification can win the race. NotFound makes the gateway retry.
			return shared.NotFoundError("Payment")
		}
		return err
	}

	switch ev.Kind {
	case payment.GatewayEventSucceeded:
		res, err := s.settlement.settle(ctx, p.ID, settleOptions{skipSettled: true, markPaid: true}, func(p *payment.Payment) error {
			return p.MarkCompleted()
		})
		if err != nil {
			return err
		}
		if !res.changed && res.payment.Status == payment.StatusFailed {
			s.logger.Error("Gateway reports success for a failed payment",
				zap.String("payment_id", res.payment.ID.String()),
				zap.String("intent_id", ev.IntentID))
		}
	case payment.GatewayEventFailed:
		reason := ev.FailureReason
		if reason == "" {
			reason = "payment failed at gateway"
		}
		_, err := s.settlement.settle(ctx, p.ID, settleOptions{skipSettled: true}, func(p *payment.Payment) error {
			return p.MarkFailed(reason)
		})
		return err
	}
	return nil
}
