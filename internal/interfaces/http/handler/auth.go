package handler

import (
	"context"

	identityapp "github.com/boutique/backend/internal/application/identity"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// AuthService is what the authentication endpoints need
type AuthService interface {
	Register(ctx context.Context, session shared.Session, req identityapp.RegisterRequest) (*identityapp.TokenResult, error)
	Login(ctx context.Context, session shared.Session, req identityapp.LoginRequest) (*identityapp.TokenResult, error)
	Refresh(ctx context.Context, req identityapp.RefreshRequest) (*identityapp.TokenResult, error)
	Logout(ctx context.Context, session shared.Session, in identityapp.LogoutInput) error
	Me(ctx context.Context, session shared.Session) (*identityapp.UserDTO, error)
	UpdateProfile(ctx context.Context, session shared.Session, req identityapp.UpdateProfileRequest) (*identityapp.UserDTO, error)
	ChangePassword(ctx context.Context, session shared.Session, req identityapp.ChangePasswordRequest) error
}

// AuthHandler handles sign-up, sign-in and the caller's profile
type AuthHandler struct {
	BaseHandler
	auth AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register godoc
// @Summary      Register a customer account
// @Description  Send X-Session-Key to carry the anonymous cart into the new account.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Session-Key header string                      false "Anonymous session key"
// @Param        request       body   identityapp.RegisterRequest true  "Account"
// @Success      201 {object} APIResponse[identityapp.TokenResult]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req identityapp.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.auth.Register(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Login godoc
// @Summary      Sign in
// @Description  Send X-Session-Key to merge the anonymous cart into the account cart.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        X-Session-Key header string                   false "Anonymous session key"
// @Param        request       body   identityapp.LoginRequest true  "Credentials"
// @Success      200 {object} APIResponse[identityapp.TokenResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req identityapp.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.auth.Login(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.RefreshRequest true "Refresh token"
// @Success      200 {object} APIResponse[identityapp.TokenResult]
// @Failure      401 {object} ErrorResponse
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req identityapp.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.auth.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout godoc
// @Summary      Sign out
// @Description  Revokes the presented access token and, when given, the refresh token.
// @Tags         auth
// @Accept       json
// @Param        request body identityapp.LogoutInput false "Refresh token to revoke"
// @Success      204
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var in identityapp.LogoutInput
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &in) {
		return
	}
	if claims := middleware.GetClaims(c); claims != nil {
		in.AccessJTI = claims.ID
		in.AccessTTL = claims.GetRemainingTTL()
	}
	if err := h.auth.Logout(c.Request.Context(), session(c), in); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Me godoc
// @Summary      Get the caller's profile
// @Tags         auth
// @Produce      json
// @Success      200 {object} APIResponse[identityapp.UserDTO]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), session(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateProfile godoc
// @Summary      Update the caller's profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body identityapp.UpdateProfileRequest true "Profile"
// @Success      200 {object} APIResponse[identityapp.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/me [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req identityapp.UpdateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	user, err := h.auth.UpdateProfile(c.Request.Context(), session(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ChangePassword godoc
// @Summary      Change the caller's password
// @Tags         auth
// @Accept       json
// @Param        request body identityapp.ChangePasswordRequest true "Passwords"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req identityapp.ChangePasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), session(c), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
