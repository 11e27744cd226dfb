package payment

import (
	"context"
	"errors"
	"strings"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is the customer side of payments: start a payment, upload a
// transfer proof, confirm a card payment.
type Service struct {
	orders        order.Repository
	payments      payment.Repository
	txScope       common.TransactionScope
	gateway       payment.Gateway
	storage       common.ObjectStorage
	currency      string
	maxUploadSize int64
	settlement    *settlement
	logger        *zap.Logger
}

// ServiceConfig wires the payment services
type ServiceConfig struct {
	Orders        order.Repository
	Payments      payment.Repository
	TxScope       common.TransactionScope
	Gateway       payment.Gateway
	Storage       common.ObjectStorage
	Currency      string
	MaxUploadSize int64
	Metrics       common.Metrics
	Logger        *zap.Logger
}

func newSettlement(cfg ServiceConfig) *settlement {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = common.NopMetrics{}
	}
	return &settlement{txScope: cfg.TxScope, metrics: metrics, logger: cfg.Logger}
}

// NewService creates a new customer payment Service
func NewService(cfg ServiceConfig) *Service {
	currency := strings.ToLower(cfg.Currency)
	if currency == "" {
		currency = "usd"
	}
	return &Service{
		orders:        cfg.Orders,
		payments:      cfg.Payments,
		txScope:       cfg.TxScope,
		gateway:       cfg.Gateway,
		storage:       cfg.Storage,
		currency:      currency,
		maxUploadSize: cfg.MaxUploadSize,
		settlement:    newSettlement(cfg),
		logger:        cfg.Logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.settlement.publisher = publisher
}

// ownedOrder loads the order and hides it when it belongs to someone else
func (s *Service) ownedOrder(ctx context.Context, userID, orderID uuid.UUID) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Order")
		}
		return nil, err
	}
	if !o.BelongsTo(userID) {
		return nil, shared.NotFoundError("Order")
	}
	return o, nil
}

// ownedPayment loads a payment of one of the user's orders
func (s *Service) ownedPayment(ctx context.Context, userID, paymentID uuid.UUID) (*payment.Payment, *order.Order, error) {
	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NotFoundError("Payment")
		}
		return nil, nil, err
	}
	o, err := s.ownedOrder(ctx, userID, p.OrderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, shared.NotFoundError("Payment")
		}
		return nil, nil, err
	}
	return p, o, nil
}

// Create starts a payment for one of the caller's orders. The amount is
// always the order total. For GATEWAY the intent is created before anything
// is stored, so a gateway failure leaves no payment behind and the caller
// can simply retry.
func (s *Service) Create(ctx context.Context, session shared.Session, req CreatePaymentRequest) (*PaymentDTO, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}
	method := payment.Method(req.Method)
	if !method.IsValid() {
		return nil, shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Unsupported payment method: "+req.Method)
	}

	o, err := s.ownedOrder(ctx, userID, req.OrderID)
	if err != nil {
		return nil, err
	}
	existing, err := s.payments.FindByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if err := ensurePayable(o, existing); err != nil {
		return nil, err
	}

	p, err := payment.NewPayment(o.ID, method, payment.OriginCustomer, o.Total)
	if err != nil {
		return nil, err
	}

	if method == payment.MethodGateway {
		intent, err := s.gateway.CreateIntent(ctx, payment.IntentRequest{
			PaymentID:     p.ID,
			OrderID:       o.ID,
			OrderNumber:   o.Number,
			AmountCents:   p.AmountCents(),
			Currency:      s.currency,
			CustomerEmail: o.CustomerEmail,
		})
		if err != nil {
			s.logger.Error("Failed to create payment intent",
				zap.String("order_id", o.ID.String()),
				zap.Error(err))
			return nil, upstreamError(err)
		}
		if err := p.BindGatewayIntent(intent.ID, intent.ClientSecret); err != nil {
			return nil, err
		}
	}

	if err := registerPayment(ctx, s.txScope, o.ID, p); err != nil {
		return nil, err
	}

	dto := ToPaymentDTO(p)
	common.PublishEvents(ctx, s.settlement.publisher, s.logger, p)
	s.logger.Info("Payment created",
		zap.String("payment_id", p.ID.String()),
		zap.String("order_id", o.ID.String()),
		zap.String("method", string(p.Method)),
		zap.String("amount", p.Amount.String()))
	return dto, nil
}

// UploadProof stores a transfer proof for a MANUAL_PROOF payment and puts
// a PENDING order into IN_VERIFICATION. The payment itself stays PENDING
// until an operator reviews it. A proof uploaded again replaces the old one.
func (s *Service) UploadProof(ctx context.Context, session shared.Session, paymentID uuid.UUID, file common.UploadedFile) (*PaymentDTO, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}
	if err := common.ValidateUpload(file, common.ProofContentTypes, s.maxUploadSize); err != nil {
		return nil, err
	}
	p, o, err := s.ownedPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Method != payment.MethodManualProof {
		return nil, shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Proof can only be attached to manual-proof payments")
	}
	if p.Status != payment.StatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidStateTransition, "Payment is already "+string(p.Status))
	}

	key := common.ObjectKey("proofs", o.ID, file)
	url, err := s.storage.Upload(ctx, key, file.Body, file.Size, file.ContentType)
	if err != nil {
		s.logger.Error("Failed to upload payment proof", zap.String("key", key), zap.Error(err))
		return nil, shared.ErrUpstreamUnavailable
	}

	var (
		updated *payment.Payment
		touched *order.Order
		oldKey  string
	)
	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		lp, err := repos.Payments().FindByIDForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		oldKey = lp.ProofKey
		if err := lp.AttachProof(key, url); err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, lp); err != nil {
			return err
		}
		updated = lp

		lo, err := repos.Orders().FindByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		if lo.Status != order.StatusPending {
			return nil
		}
		if err := lo.MarkInVerification(); err != nil {
			return err
		}
		touched = lo
		return repos.Orders().Save(ctx, lo)
	})
	if err != nil {
		if delErr := s.storage.DeleteObject(ctx, key); delErr != nil {
			s.logger.Warn("Failed to remove orphaned proof", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	if oldKey != "" && oldKey != key {
		if delErr := s.storage.DeleteObject(ctx, oldKey); delErr != nil {
			s.logger.Warn("Failed to remove replaced proof", zap.String("key", oldKey), zap.Error(delErr))
		}
	}

	common.PublishEvents(ctx, s.settlement.publisher, s.logger, updated)
	if touched != nil {
		common.PublishEvents(ctx, s.settlement.publisher, s.logger, touched)
	}
	s.logger.Info("Payment proof uploaded",
		zap.String("payment_id", updated.ID.String()),
		zap.String("order_id", o.ID.String()))
	return ToPaymentDTO(updated), nil
}

// Confirm asks the gateway for the intent status after the storefront
// finished card entry. A succeeded intent completes the payment and pays
// the order; any other status returns the payment unchanged.
func (s *Service) Confirm(ctx context.Context, session shared.Session, paymentID uuid.UUID) (*PaymentDTO, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}
	p, _, err := s.ownedPayment(ctx, userID, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Method != payment.MethodGateway {
		return nil, shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Only gateway payments can be confirmed")
	}
	if p.Status != payment.StatusPending {
		return ToPaymentDTO(p), nil
	}

	status, err := s.gateway.GetIntentStatus(ctx, p.GatewayRef)
	if err != nil {
		s.logger.Error("Failed to read payment intent",
			zap.String("payment_id", p.ID.String()),
			zap.String("intent_id", p.GatewayRef),
			zap.Error(err))
		return nil, upstreamError(err)
	}
	if status != payment.IntentSucceeded {
		s.logger.Debug("Payment intent not settled yet",
			zap.String("payment_id", p.ID.String()),
			zap.String("intent_status", string(status)))
		return ToPaymentDTO(p), nil
	}

	res, err := s.settlement.settle(ctx, p.ID, settleOptions{skipSettled: true, markPaid: true}, func(p *payment.Payment) error {
		return p.MarkCompleted()
	})
	if err != nil {
		return nil, err
	}
	return ToPaymentDTO(res.payment), nil
}

// ListMine lists payments of the caller's orders
func (s *Service) ListMine(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[PaymentDTO], error) {
	userID, err := session.RequireUser()
	if err != nil {
		return shared.Paginated[PaymentDTO]{}, err
	}
	payments, total, err := s.payments.FindByUser(ctx, userID, filter)
	if err != nil {
		return shared.Paginated[PaymentDTO]{}, err
	}
	return shared.NewPaginated(toPaymentDTOs(payments), total, filter.Page, filter.Limit()), nil
}
