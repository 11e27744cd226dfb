package identity

import (
	"context"
	"errors"
	"time"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/identity"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartMerger folds an anonymous cart into the user's cart at sign-in
type CartMerger interface {
	MergeAnonymousCart(ctx context.Context, sessionKey string, userID uuid.UUID) error
}

// AuthService handles registration, sign-in and token lifecycle
type AuthService struct {
	users          identity.UserRepository
	jwtService     *auth.JWTService
	blacklist      auth.TokenBlacklist
	carts          CartMerger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service. blacklist and carts
// may be nil.
func NewAuthService(
	users identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	carts CartMerger,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		blacklist:  blacklist,
		carts:      carts,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

var errInvalidCredentials = shared.NewDomainError(shared.CodeInvalidCredentials, "Invalid email or password")

// Register creates a customer account and signs it in. The anonymous cart
// of the session, if any, becomes the user's cart.
func (s *AuthService) Register(ctx context.Context, session shared.Session, req RegisterRequest) (*TokenResult, error) {
	u, err := identity.NewUser(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}
	exists, err := s.users.ExistsByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "An account with this email already exists")
	}
	u.RecordLogin()
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	common.PublishEvents(ctx, s.eventPublisher, s.logger, u)
	s.logger.Info("User registered", zap.String("user_id", u.ID.String()))

	return s.signIn(ctx, u, session.SessionKey)
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(ctx context.Context, session shared.Session, req LoginRequest) (*TokenResult, error) {
	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown email")
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !u.VerifyPassword(req.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("user_id", u.ID.String()))
		return nil, errInvalidCredentials
	}
	if !u.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account has been deactivated")
	}

	u.RecordLogin()
	if err := s.users.Save(ctx, u); err != nil {
		s.logger.Error("Failed to record login", zap.Error(err))
	}
	s.logger.Info("User logged in", zap.String("user_id", u.ID.String()))
	return s.signIn(ctx, u, session.SessionKey)
}

func (s *AuthService) signIn(ctx context.Context, u *identity.User, sessionKey string) (*TokenResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{UserID: u.ID, Email: u.Email, IsStaff: u.IsStaff})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	// A failed merge must not block sign-in; the anonymous cart stays
	// reachable through its session key.
	if sessionKey != "" && s.carts != nil {
		if err := s.carts.MergeAnonymousCart(ctx, sessionKey, u.ID); err != nil {
			s.logger.Warn("Failed to merge anonymous cart",
				zap.String("user_id", u.ID.String()),
				zap.Error(err))
		}
	}

	dto := ToUserDTO(u)
	return &TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		User:                  &dto,
	}, nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError("TOKEN_MAX_REFRESH", "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
	}
	return shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
}

// Refresh rotates a refresh token. The old refresh token is revoked and the
// staff flag is re-read from the user.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}
	if s.blacklist != nil {
		revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			s.logger.Warn("Failed to check token blacklist", zap.Error(err))
		} else if revoked {
			return nil, tokenError(auth.ErrTokenBlacklisted)
		}
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, tokenError(auth.ErrInvalidClaims)
		}
		return nil, err
	}
	if !u.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_INACTIVE", "Account has been deactivated")
	}

	pair, err := s.jwtService.RefreshTokenPair(req.RefreshToken, u.Email, u.IsStaff)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, tokenError(err)
	}
	s.revoke(ctx, claims.ID, claims.GetRemainingTTL())

	s.logger.Info("Token refreshed", zap.String("user_id", userID.String()))
	return &TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

func (s *AuthService) revoke(ctx context.Context, jti string, ttl time.Duration) {
	if s.blacklist == nil || jti == "" || ttl <= 0 {
		return
	}
	if err := s.blacklist.Revoke(ctx, jti, ttl); err != nil {
		s.logger.Warn("Failed to revoke token", zap.String("jti", jti), zap.Error(err))
	}
}

// Logout revokes the caller's access token and, when supplied, the refresh
// token.
func (s *AuthService) Logout(ctx context.Context, session shared.Session, in LogoutInput) error {
	userID, err := session.RequireUser()
	if err != nil {
		return err
	}
	s.revoke(ctx, in.AccessJTI, in.AccessTTL)
	if in.RefreshToken != "" {
		claims, err := s.jwtService.ValidateRefreshToken(in.RefreshToken)
		if err == nil && claims.UserID == userID.String() {
			s.revoke(ctx, claims.ID, claims.GetRemainingTTL())
		}
	}
	s.logger.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

// Me returns the caller's profile
func (s *AuthService) Me(ctx context.Context, session shared.Session) (*UserDTO, error) {
	u, err := s.currentUser(ctx, session)
	if err != nil {
		return nil, err
	}
	dto := ToUserDTO(u)
	return &dto, nil
}

// UpdateProfile changes the caller's name and phone
func (s *AuthService) UpdateProfile(ctx context.Context, session shared.Session, req UpdateProfileRequest) (*UserDTO, error) {
	u, err := s.currentUser(ctx, session)
	if err != nil {
		return nil, err
	}
	if err := u.UpdateProfile(req.FirstName, req.LastName, req.Phone); err != nil {
		return nil, err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	dto := ToUserDTO(u)
	return &dto, nil
}

// ChangePassword replaces the caller's password after checking the old one
func (s *AuthService) ChangePassword(ctx context.Context, session shared.Session, req ChangePasswordRequest) error {
	u, err := s.currentUser(ctx, session)
	if err != nil {
		return err
	}
	if err := u.ChangePassword(req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	if err := s.users.Save(ctx, u); err != nil {
		return err
	}
	s.logger.Info("Password changed", zap.String("user_id", u.ID.String()))
	return nil
}

func (s *AuthService) currentUser(ctx context.Context, session shared.Session) (*identity.User, error) {
	userID, err := session.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, userID)
}
