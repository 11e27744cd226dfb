package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/boutique/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is lowered by tests
var bcryptCost = 12

const (
	maxEmailLen = 200
	maxPhoneLen = 30
	minPasswordLen = 8
	maxPasswordLen = 72 // bcrypt ignores input past 72 bytes

	codeInvalidEmail    = "INVALID_EMAIL"
	codeInvalidPassword = "INVALID_PASSWORD"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// User is a storefront customer, or a backoffice operator when IsStaff is set
type User struct {
	shared.BaseAggregateRoot
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	PasswordHash string
	IsStaff      bool
	IsActive     bool
	LastLoginAt  *time.Time
}

// NewUser registers an active customer account and records UserRegistered
func NewUser(email, password, firstName, lastName string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		FirstName:         strings.TrimSpace(firstName),
		LastName:          strings.TrimSpace(lastName),
		PasswordHash:      hash,
		IsActive:          true,
	}
	u.AddDomainEvent(NewUserRegisteredEvent(u))
	return u, nil
}

// NewOperator is NewUser for backoffice staff
func NewOperator(email, password, firstName, lastName string) (*User, error) {
	u, err := NewUser(email, password, firstName, lastName)
	if err != nil {
		return nil, err
	}
	u.IsStaff = true
	return u, nil
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (u *User) CanLogin() bool { return u.IsActive }

func (u *User) RecordLogin() {
	u.Touch()
	at := u.UpdatedAt
	u.LastLoginAt = &at
}

func (u *User) UpdateProfile(firstName, lastName, phone string) error {
	phone = strings.TrimSpace(phone)
	if len(phone) > maxPhoneLen {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	u.FirstName, u.LastName, u.Phone = strings.TrimSpace(firstName), strings.TrimSpace(lastName), phone
	u.Touch()
	return nil
}

// ChangePassword requires the current password
func (u *User) ChangePassword(current, next string) error {
	if !u.VerifyPassword(current) {
		return shared.NewDomainError(shared.CodeInvalidCredentials, "Current password is incorrect")
	}
	hash, err := hashPassword(next)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.Touch()
	return nil
}

// Deactivate blocks further sign-ins; issued tokens stay valid until expiry
func (u *User) Deactivate() {
	u.IsActive = false
	u.Touch()
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case email == "":
		return "", shared.NewDomainError(codeInvalidEmail, "Email cannot be empty")
	case len(email) > maxEmailLen:
		return "", shared.NewDomainError(codeInvalidEmail, "Email cannot exceed 200 characters")
	case !emailPattern.MatchString(email):
		return "", shared.NewDomainError(codeInvalidEmail, "Invalid email format")
	}
	return email, nil
}

// hashPassword enforces the password policy before hashing
func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", shared.NewDomainError(codeInvalidPassword, "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordLen {
		return "", shared.NewDomainError(codeInvalidPassword, "Password cannot exceed 72 characters")
	}
	if !strings.ContainsFunc(password, isASCIILetter) || !strings.ContainsFunc(password, unicode.IsDigit) {
		return "", shared.NewDomainError(codeInvalidPassword, "Password must contain at least one letter and one number")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return string(hash), nil
}

func isASCIILetter(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}
