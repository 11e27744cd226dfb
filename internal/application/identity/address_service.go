package identity

import (
	"context"

	"github.com/boutique/backend/internal/domain/identity"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddressService manages the signed-in customer's address book
type AddressService struct {
	addresses identity.AddressRepository
	logger    *zap.Logger
}

// NewAddressService creates a new address service
func NewAddressService(addresses identity.AddressRepository, logger *zap.Logger) *AddressService {
	return &AddressService{addresses: addresses, logger: logger}
}

// List returns the caller's addresses
func (s *AddressService) List(ctx context.Context, session shared.Session) ([]AddressDTO, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}
	list, err := s.addresses.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]AddressDTO, len(list))
	for i := range list {
		out[i] = ToAddressDTO(&list[i])
	}
	return out, nil
}

// Get returns one of the caller's addresses
func (s *AddressService) Get(ctx context.Context, session shared.Session, id uuid.UUID) (*AddressDTO, error) {
	a, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	dto := ToAddressDTO(a)
	return &dto, nil
}

// Create adds an address. The first address of a kind becomes its default.
func (s *AddressService) Create(ctx context.Context, session shared.Session, req AddressRequest) (*AddressDTO, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}
	a, err := identity.NewAddress(userID, req.input())
	if err != nil {
		return nil, err
	}

	existing, err := s.addresses.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	first := true
	for _, e := range existing {
		if e.Kind == a.Kind {
			first = false
			break
		}
	}
	if first {
		a.IsDefault = true
	}

	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("Address created",
		zap.String("user_id", userID.String()),
		zap.String("address_id", a.ID.String()))
	dto := ToAddressDTO(a)
	return &dto, nil
}

// Update replaces an address's fields
func (s *AddressService) Update(ctx context.Context, session shared.Session, id uuid.UUID, req AddressRequest) (*AddressDTO, error) {
	a, err := s.owned(ctx, session, id)
	if err != nil {
		return nil, err
	}
	if err := a.Update(req.input()); err != nil {
		return nil, err
	}
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}
	dto := ToAddressDTO(a)
	return &dto, nil
}

// Delete removes an address. Orders keep their own snapshot.
func (s *AddressService) Delete(ctx context.Context, session shared.Session, id uuid.UUID) error {
	a, err := s.owned(ctx, session, id)
	if err != nil {
		return err
	}
	return s.addresses.Delete(ctx, a.ID)
}

func (s *AddressService) save(ctx context.Context, a *identity.Address) error {
	if err := s.addresses.Save(ctx, a); err != nil {
		return err
	}
	if a.IsDefault {
		return s.addresses.ClearDefault(ctx, a.UserID, a.Kind, a.ID)
	}
	return nil
}

// owned hides other customers' addresses behind NOT_FOUND
func (s *AddressService) owned(ctx context.Context, session shared.Session, id uuid.UUID) (*identity.Address, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}
	a, err := s.addresses.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.BelongsTo(userID) {
		return nil, shared.NotFoundError("Address")
	}
	return a, nil
}
