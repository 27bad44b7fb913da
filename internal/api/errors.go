package api

import (
	"errors"
	"net/http"
	"ptcoach/pt-server/internal/domain"
	"ptcoach/pt-server/internal/llm"
	"ptcoach/pt-server/internal/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// statusFor maps a service error onto the HTTP status the client sees.
// Generation failures are checked first: a model reply may fail domain
// validation, and that is still an upstream failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, llm.ErrGeneration):
		return http.StatusInternalServerError
	case errors.Is(err, service.ErrWorkoutNotFound),
		errors.Is(err, service.ErrTemplateNotFound),
		errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPlan):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrExportUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": msg}. Unclassified errors are logged
// and hidden behind a generic message.
func respondError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError && !errors.Is(err, llm.ErrGeneration) {
		_ = c.Error(err)
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		abortWithError(c, status, fallback)
		return
	}
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	abortWithError(c, status, err.Error())
}
