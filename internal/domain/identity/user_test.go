package identity

import (
	"testing"

	"github.com/boutique/backend/internal/domain/order"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// keep hashing fast in tests
	bcryptCost = 4
}

func TestNewUser(t *testing.T) {
	u, err := NewUser("  Ana@Example.com ", "secret123", "Ana", "Pérez")
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, "Ana Pérez", u.FullName())
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff)
	assert.NotEqual(t, "secret123", u.PasswordHash)
	assert.True(t, u.VerifyPassword("secret123"))
	assert.False(t, u.VerifyPassword("wrong1234"))
	assert.Len(t, u.GetDomainEvents(), 1)
}

func TestNewUser_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret123"},
		{"bad email", "not-an-email", "secret123"},
		{"short password", "a@b.com", "abc12"},
		{"no digit", "a@b.com", "abcdefgh"},
		{"no letter", "a@b.com", "12345678"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUser(tt.email, tt.password, "", "")
			assert.Error(t, err)
		})
	}
}

func TestNewOperator(t *testing.T) {
	u, err := NewOperator("ops@boutique.test", "admin1234", "Ops", "")
	require.NoError(t, err)
	assert.True(t, u.IsStaff)
}

func TestChangePassword(t *testing.T) {
	u, err := NewUser("a@b.com", "secret123", "", "")
	require.NoError(t, err)

	assert.Error(t, u.ChangePassword("nope", "newpass123"))
	require.NoError(t, u.ChangePassword("secret123", "newpass123"))
	assert.True(t, u.VerifyPassword("newpass123"))
}

func TestAddress_Snapshot(t *testing.T) {
	userID := uuid.New()
	a, err := NewAddress(userID, AddressInput{
		FullName: "Ana Pérez", Street: "Av. Siempre Viva 742", City: "Lima", Country: "PE",
	})
	require.NoError(t, err)
	assert.Equal(t, AddressShipping, a.Kind)
	assert.True(t, a.BelongsTo(userID))

	snap := a.Snapshot()
	a.City = "Cusco"
	assert.Equal(t, order.ShippingAddress{
		FullName: "Ana Pérez", Street: "Av. Siempre Viva 742", City: "Lima", Country: "PE",
	}, snap)
}

func TestAddress_Invalid(t *testing.T) {
	_, err := NewAddress(uuid.New(), AddressInput{FullName: "X"})
	assert.Error(t, err)

	_, err = NewAddress(uuid.New(), AddressInput{
		Kind: "OFFICE", FullName: "X", Street: "Y", City: "Z", Country: "PE",
	})
	assert.Error(t, err)
}
