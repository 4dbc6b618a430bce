// Package controller holds the helpers shared by the HTTP controllers.
package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Legend8883/CompetencyTestingSystem/internal/apperror"
	"github.com/Legend8883/CompetencyTestingSystem/internal/auth"
	"github.com/Legend8883/CompetencyTestingSystem/internal/dto"
	"github.com/Legend8883/CompetencyTestingSystem/internal/middleware"
	"github.com/Legend8883/CompetencyTestingSystem/internal/service"
)

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	if errors.Is(err, service.ErrAssistantUnavailable) {
		return http.StatusServiceUnavailable
	}
	kind, ok := apperror.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindPolicy:
		return http.StatusForbidden
	case apperror.KindValidation:
		return http.StatusBadRequest
	case apperror.KindState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as a dto.ErrorResponse. Errors without a kind are
// logged and reported as a generic internal error.
func RespondError(ctx *gin.Context, op string, err error) {
	status := StatusFor(err)
	kind, _ := apperror.KindOf(err)

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("request_id", ctx.GetString(middleware.RequestIDHeader)).Msgf("%s: internal error", op)
		_ = ctx.Error(err)
		ctx.JSON(status, dto.ErrorResponse{Error: "internal server error"})
		return
	}
	log.Debug().Err(err).Str("kind", string(kind)).Msgf("%s: request rejected", op)
	ctx.JSON(status, dto.ErrorResponse{Error: err.Error(), Kind: string(kind)})
}

// RespondBindError reports a request body that failed to bind or validate.
func RespondBindError(ctx *gin.Context, op string, err error) {
	log.Warn().Err(err).Msgf("%s: failed to bind request", op)
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error:   "invalid request body",
		Kind:    string(apperror.KindValidation),
		Details: dto.ValidationDetails(err),
	})
}

// ParseUintParam reads a positive numeric path parameter. On failure it writes
// a 400 response and returns false.
func ParseUintParam(ctx *gin.Context, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error: fmt.Sprintf("invalid %s format", name),
			Kind:  string(apperror.KindValidation),
		})
		return 0, false
	}
	return uint(id), true
}

// CurrentIdentity returns the authenticated caller, writing 401 if there is none.
func CurrentIdentity(ctx *gin.Context) (*auth.Identity, bool) {
	identity, ok := middleware.IdentityFrom(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "not authenticated"})
		return nil, false
	}
	return identity, true
}
