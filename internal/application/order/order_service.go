package order

import (
	"context"
	"errors"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/order"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service serves order reads for customers and operators and the
// operator's status changes.
type Service struct {
	orders         order.Repository
	txScope        common.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewService creates a new order Service
func NewService(orders order.Repository, txScope common.TransactionScope, logger *zap.Logger) *Service {
	return &Service{orders: orders, txScope: txScope, logger: logger}
}

// SetEventPublisher sets the event publisher for domain events
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *Service) find(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFoundError("Order")
		}
		return nil, err
	}
	return o, nil
}

// ListMyOrders lists the caller's orders, newest first
func (s *Service) ListMyOrders(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[SummaryDTO], error) {
	userID, err := session.RequireUser()
	if err != nil {
		return shared.Paginated[SummaryDTO]{}, err
	}
	orders, total, err := s.orders.FindByUser(ctx, userID, filter)
	if err != nil {
		return shared.Paginated[SummaryDTO]{}, err
	}
	return shared.NewPaginated(toSummaries(orders), total, filter.Page, filter.Limit()), nil
}

// GetMyOrder returns one of the caller's orders. Another customer's order
// is reported as not found.
func (s *Service) GetMyOrder(ctx context.Context, session shared.Session, id uuid.UUID) (*OrderDTO, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !o.BelongsTo(userID) {
		return nil, shared.NotFoundError("Order")
	}
	return ToOrderDTO(o, false), nil
}

// ListOrders lists all orders. Filters: "status", "user_id".
func (s *Service) ListOrders(ctx context.Context, session shared.Session, filter shared.Filter) (shared.Paginated[SummaryDTO], error) {
	if _, err := session.RequireOperator(); err != nil {
		return shared.Paginated[SummaryDTO]{}, err
	}
	if status, ok := filter.Filters["status"].(string); ok && status != "" && !order.Status(status).IsValid() {
		return shared.Paginated[SummaryDTO]{}, shared.NewDomainError(shared.CodeInvalidInput, "Unknown order status: "+status)
	}
	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[SummaryDTO]{}, err
	}
	return shared.NewPaginated(toSummaries(orders), total, filter.Page, filter.Limit()), nil
}

// GetOrder returns any order with the states an operator may move it to
func (s *Service) GetOrder(ctx context.Context, session shared.Session, id uuid.UUID) (*OrderDTO, error) {
	if _, err := session.RequireOperator(); err != nil {
		return nil, err
	}
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOrderDTO(o, true), nil
}

// UpdateStatus moves an order as an operator. The transition table is
// enforced here regardless of what the client offered.
func (s *Service) UpdateStatus(ctx context.Context, session shared.Session, id uuid.UUID, req UpdateStatusRequest) (*OrderDTO, error) {
	operatorID, err := session.RequireOperator()
	if err != nil {
		return nil, err
	}
	target := order.Status(req.Status)
	if !target.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Unknown order status: "+req.Status)
	}

	var updated *order.Order
	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		o, err := repos.Orders().FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NotFoundError("Order")
			}
			return err
		}
		if err := o.AdvanceTo(target, req.Reason); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		updated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	common.PublishEvents(ctx, s.eventPublisher, s.logger, updated)
	s.logger.Info("Order status updated",
		zap.String("order_id", updated.ID.String()),
		zap.String("status", string(updated.Status)),
		zap.String("operator_id", operatorID.String()))
	return ToOrderDTO(updated, true), nil
}
