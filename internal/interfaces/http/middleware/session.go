package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/auth"
	"github.com/boutique/backend/internal/infrastructure/logger"
	"github.com/boutique/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Gin context keys set by Session
const (
	SessionContextKey = "session"
	ClaimsContextKey  = "jwt_claims"
)

// MaxSessionKeyLength bounds the anonymous session key header
const MaxSessionKeyLength = 128

// SessionConfig holds the dependencies of the Session middleware
type SessionConfig struct {
	JWTService     *auth.JWTService
	TokenBlacklist auth.TokenBlacklist // optional
	Logger         *zap.Logger
}

// Session builds the shared.Session of every request. A Bearer token must be
// valid when present; without one the caller is anonymous and identified by
// X-Session-Key, which may be empty. Routes that need a signed-in user add
// RequireUser or RequireOperator after this middleware.
func Session(cfg SessionConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		sessionKey := strings.TrimSpace(c.GetHeader(SessionKeyHeader))
		if len(sessionKey) > MaxSessionKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				shared.CodeInvalidInput, "Session key is too long", GetRequestID(c)))
			return
		}

		header := c.GetHeader(AuthHeader)
		if header == "" {
			setSession(c, shared.NewAnonymousSession(sessionKey))
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			abortUnauthorized(c, log, auth.ErrInvalidToken)
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			abortUnauthorized(c, log, err)
			return
		}

		if cfg.TokenBlacklist != nil && claims.ID != "" {
			revoked, err := cfg.TokenBlacklist.IsRevoked(c.Request.Context(), claims.ID)
			switch {
			case err != nil:
				// fail open: a blacklist outage must not sign everybody out
				log.Error("Failed to check token blacklist", zap.String("jti", claims.ID), zap.Error(err))
			case revoked:
				abortUnauthorized(c, log, auth.ErrTokenBlacklisted)
				return
			}
		}

		userID, err := claims.GetUserUUID()
		if err != nil {
			abortUnauthorized(c, log, auth.ErrInvalidToken)
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Set(logger.GinUserIDKey, claims.UserID)
		setSession(c, shared.NewUserSession(userID, claims.Email, claims.IsStaff, sessionKey))

		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
		c.Next()
	}
}

func setSession(c *gin.Context, s shared.Session) {
	c.Set(SessionContextKey, s)
	if s.SessionKey != "" {
		c.Set(logger.GinSessionKeyKey, s.SessionKey)
		c.Request = c.Request.WithContext(logger.WithSessionKey(c.Request.Context(), s.SessionKey))
	}
}

// GetSession returns the request session; an empty session when Session did not run
func GetSession(c *gin.Context) shared.Session {
	if v, ok := c.Get(SessionContextKey); ok {
		if s, ok := v.(shared.Session); ok {
			return s
		}
	}
	return shared.Session{}
}

// GetClaims returns the verified access token claims, or nil for anonymous requests
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(ClaimsContextKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

// RequireUser rejects anonymous requests with 401
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetSession(c).RequireUser(); err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.Next()
	}
}

// RequireOperator rejects anonymous requests with 401 and customers with 403
func RequireOperator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := GetSession(c).RequireOperator(); err != nil {
			abortWithDomainError(c, err)
			return
		}
		c.Next()
	}
}

func abortWithDomainError(c *gin.Context, err error) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		de = shared.ErrUnauthorized
	}
	c.AbortWithStatusJSON(dto.GetHTTPStatus(de.Code), dto.NewDomainErrorResponse(de, GetRequestID(c)))
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error) {
	code, message := dto.ErrCodeTokenInvalid, "Invalid token"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		message = "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidTokenType):
		message = "Invalid token type"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		message = "Token is not yet valid"
	}

	log.Debug("Authentication failed",
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", GetRequestID(c)),
	)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, GetRequestID(c)))
}
