package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/payment"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// proofURLExpiry bounds the presigned proof links handed to operators
const proofURLExpiry = 15 * time.Minute

// AdminService is the backoffice side of payments
type AdminService struct {
	orders     order.Repository
	payments   payment.Repository
	txScope    common.TransactionScope
	storage    common.ObjectStorage
	settlement *settlement
	logger     *zap.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(cfg ServiceConfig) *AdminService {
	return &AdminService{
		orders:     cfg.Orders,
		payments:   cfg.Payments,
		txScope:    cfg.TxScope,
		storage:    cfg.Storage,
		settlement: newSettlement(cfg),
		logger:     cfg.Logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *AdminService) SetEventPublisher(publisher shared.EventPublisher) {
	s.settlement.publisher = publisher
}

// List lists payments. Filters: "order_id", "method", "status".
func (s *AdminService) List(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[PaymentDTO], error) {
	if _, err := session.RequireOperator(); err != nil {
		return shared.Paginated[PaymentDTO]{}, err
	}
	if m, ok := filter.Filters["method"].(string); ok && m != "" && !payment.Method(m).IsValid() {
		return shared.Paginated[PaymentDTO]{}, shared.NewDomainError(shared.CodeInvalidInput, "Unknown payment method: "+m)
	}
	if st, ok := filter.Filters["status"].(string); ok && st != "" && !payment.Status(st).IsValid() {
		return shared.Paginated[PaymentDTO]{}, shared.NewDomainError(shared.CodeInvalidInput, "Unknown payment status: "+st)
	}
	payments, total, err := s.payments.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[PaymentDTO]{}, err
	}
	return shared.NewPaginated(toPaymentDTOs(payments), total, filter.Page, filter.Limit()), nil
}

// Get returns one payment. The proof link is replaced with a short-lived
// presigned URL when the object storage can issue one.
func (s *AdminService) Get(ctx context.Context, session shared.Session, id uuid.UUID) (*PaymentDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToPaymentDTO(p)
	if p.ProofKey != "" && s.storage != nil {
		url, err := s.storage.GenerateDownloadURL(ctx, p.ProofKey, proofURLExpiry)
		if err != nil {
			s.logger.Warn("Failed to presign proof URL", zap.String("key", p.ProofKey), zap.Error(err))
		} else {
			dto.ProofURL = url
		}
	}
	return dto, nil
}

func (s *AdminService) find(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Payment")
		}
		return nil, err
	}
	return p, nil
}

// Create records a MANUAL_PROOF payment for an order, for example a
// transfer the customer reported by phone. The amount may be lower than the
// order total but never above it.
func (s *AdminService) Create(ctx context.Context, session shared.Session, req AdminCreatePaymentRequest) (*PaymentDTO, error) {
	operatorID, err := session.RequireOperator()
	if err != nil {
		return nil, err
	}
	o, err := s.orders.FindByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Order")
		}
		return nil, err
	}
	existing, err := s.payments.FindByOrder(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if err := ensurePayable(o, existing); err != nil {
		return nil, err
	}

	amount := o.Total
	if req.Amount != nil {
		amount = *req.Amount
		if !amount.IsPositive() || amount.GreaterThan(o.Total) {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount,
				"Amount must be greater than zero and at most the order total "+o.Total.StringFixed(2))
		}
	}

	p, err := payment.NewPayment(o.ID, payment.MethodManualProof, payment.OriginOperator, amount)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Notes) != "" {
		p.SetAdminNotes(req.Notes)
	}
	if err := registerPayment(ctx, s.txScope, o.ID, p); err != nil {
		return nil, err
	}

	common.PublishEvents(ctx, s.settlement.publisher, s.logger, p)
	s.logger.Info("Payment recorded by operator",
		zap.String("payment_id", p.ID.String()),
		zap.String("order_id", o.ID.String()),
		zap.String("operator_id", operatorID.String()),
		zap.String("amount", p.Amount.String()))
	return ToPaymentDTO(p), nil
}

// Approve accepts a manual proof; the order becomes PAID in the same
// transaction. A proof for an order that is no longer payable is refused.
func (s *AdminService) Approve(ctx context.Context, session shared.Session, id uuid.UUID, req ReviewRequest) (*PaymentDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	res, err := s.settlement.settle(ctx, id, settleOptions{markPaid: true, requirePayable: true}, func(p *payment.Payment) error {
		return p.Approve(req.Notes)
	})
	if err != nil {
		return nil, err
	}
	return ToPaymentDTO(res.payment), nil
}

// Reject refuses a manual proof. The order is left as it is so the
// customer can pay again.
func (s *AdminService) Reject(ctx context.Context, session shared.Session, id uuid.UUID, req ReviewRequest) (*PaymentDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	res, err := s.settlement.settle(ctx, id, settleOptions{}, func(p *payment.Payment) error {
		return p.Reject(req.Notes)
	})
	if err != nil {
		return nil, err
	}
	return ToPaymentDTO(res.payment), nil
}

// Fail marks a PENDING gateway payment FAILED, freeing the order for a new
// attempt. Manual proofs are rejected instead.
func (s *AdminService) Fail(ctx context.Context, session shared.Session, id uuid.UUID, req FailRequest) (*PaymentDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "failed by operator"
	}
	res, err := s.settlement.settle(ctx, id, settleOptions{}, func(p *payment.Payment) error {
		if p.Method != payment.MethodGateway {
			return shared.NewDomainError(shared.CodeUnsupportedPaymentMethod, "Manual-proof payments are rejected, not failed")
		}
		return p.MarkFailed(reason)
	})
	if err != nil {
		return nil, err
	}
	return ToPaymentDTO(res.payment), nil
}

// UpdateNotes replaces the operator notes. Allowed in any state.
func (s *AdminService) UpdateNotes(ctx context.Context, session shared.Session, id uuid.UUID, req NotesRequest) (*PaymentDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	p, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	p.SetAdminNotes(req.Notes)
	if err := s.payments.Save(ctx, p); err != nil {
		return nil, err
	}
	return ToPaymentDTO(p), nil
}
