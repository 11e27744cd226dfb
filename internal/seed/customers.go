package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	identityapp "github.com/boutique/backend/internal/application/identity"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"
)

// FakeCustomer is a generated customer with one shipping address
type FakeCustomer struct {
	Register identityapp.RegisterRequest
	Address  identityapp.AddressRequest
}

// FakeCustomers generates count customers. The same seed always yields the
// same customers; emails carry the index so they never collide.
func FakeCustomers(seed uint64, count int, password string) []FakeCustomer {
	f := gofakeit.New(seed)
	out := make([]FakeCustomer, 0, count)
	for i := 0; i < count; i++ {
		first, last := f.FirstName(), f.LastName()
		email := fmt.Sprintf("%s.%s.%d@%s", localPart(first), localPart(last), i+1, f.DomainName())
		out = append(out, FakeCustomer{
			Register: identityapp.RegisterRequest{
				Email:     email,
				Password:  password,
				FirstName: first,
				LastName:  last,
			},
			Address: identityapp.AddressRequest{
				Kind:       "SHIPPING",
				FullName:   first + " " + last,
				Street:     f.Street(),
				City:       f.City(),
				Region:     f.State(),
				Country:    f.Country(),
				PostalCode: f.Zip(),
				Phone:      f.Phone(),
				IsDefault:  true,
			},
		})
	}
	return out
}

// SeedCustomers registers the customers and adds their default address.
// Customers whose email is already taken are skipped.
func (s *Seeder) SeedCustomers(ctx context.Context, customers []FakeCustomer) (int, error) {
	created := 0
	for _, c := range customers {
		tokens, err := s.accounts.Register(ctx, shared.Session{}, c.Register)
		if err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				s.logger.Debug("Customer exists, skipping", zap.String("email", c.Register.Email))
				continue
			}
			return created, fmt.Errorf("registering %s: %w", c.Register.Email, err)
		}
		session := shared.NewUserSession(tokens.User.ID, tokens.User.Email, false, "")
		if _, err := s.addresses.Create(ctx, session, c.Address); err != nil {
			return created, fmt.Errorf("adding address for %s: %w", c.Register.Email, err)
		}
		created++
	}
	s.logger.Info("Customers seeded", zap.Int("created", created), zap.Int("requested", len(customers)))
	return created, nil
}

func localPart(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return -1
	}, name)
}
