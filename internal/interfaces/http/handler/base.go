// Package handler holds the gin handlers of the /api/v1 surface. Handlers
// bind and validate input, build nothing but the request Session, and leave
// every decision to the application services.
package handler

import (
	"errors"
	"net/http"

	"github.com/boutique/backend/internal/application/common"
	"github.com/boutique/backend/internal/domain/shared"
	"github.com/boutique/backend/internal/infrastructure/logger"
	"github.com/boutique/backend/internal/interfaces/http/dto"
	"github.com/boutique/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides the response helpers shared by all handlers
type BaseHandler struct{}

// Success sends a 200 envelope
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 envelope
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Paged sends a 200 envelope with pagination meta
func Paged[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPagedResponse(page))
}

// BadRequest sends a 400 envelope
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeBadRequest, message, middleware.GetRequestID(c)))
}

// HandleError maps an error to the envelope. Domain errors keep their code
// and details; anything else is logged and reported as INTERNAL_ERROR.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := middleware.GetRequestID(c)

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.GetHTTPStatus(domainErr.Code), dto.NewDomainErrorResponse(domainErr, requestID))
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("route", c.FullPath()),
		zap.Error(err))
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
		dto.ErrCodeInternal, "An unexpected error occurred", requestID))
}

// bindJSON binds the body into req, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds the query string into req, answering 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// uuidParam parses a path parameter, answering 400 on failure
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// listFilter binds the common pagination query
func (h *BaseHandler) listFilter(c *gin.Context) (shared.Filter, bool) {
	var q dto.ListQuery
	if !h.bindQuery(c, &q) {
		return shared.Filter{}, false
	}
	return q.Filter(), true
}

func session(c *gin.Context) shared.Session {
	return middleware.GetSession(c)
}

// formFile opens a multipart file, answering 400 when it is missing. The
// returned func closes the file.
func (h *BaseHandler) formFile(c *gin.Context, field string) (common.UploadedFile, func(), bool) {
	header, err := c.FormFile(field)
	if err != nil {
		h.BadRequest(c, "Missing file field: "+field)
		return common.UploadedFile{}, nil, false
	}
	f, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unreadable file")
		return common.UploadedFile{}, nil, false
	}
	return common.UploadedFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}, func() { _ = f.Close() }, true
}
