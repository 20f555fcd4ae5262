package handler

import (
	"errors"
	"net/http"

	"spacemarket/internal/model"
	"spacemarket/internal/repository"
	"spacemarket/internal/service"

	"github.com/gin-gonic/gin"
)

// Error kinds returned in the "kind" field of error bodies
const (
	KindValidation            = "validation"
	KindQueryFailed           = "query_failed"
	KindPredictionUnavailable = "prediction_unavailable"
	KindAuth                  = "auth"
	KindForbidden             = "forbidden"
	KindNotFound              = "not_found"
	KindUnsupported           = "unsupported"
	KindStorageDisabled       = "storage_disabled"
	KindInternal              = "internal"
)

// classify maps a service error to a status code and error kind
func classify(err error) (int, string) {
	var (
		validation  *model.ValidationError
		queryFailed *model.QueryFailed
		unavailable *model.PredictionUnavailable
		authErr     *model.AuthError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, KindValidation
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, KindAuth
	case errors.As(err, &unavailable):
		return http.StatusBadGateway, KindPredictionUnavailable
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden, KindForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, KindNotFound
	case errors.Is(err, repository.ErrVectorsUnsupported):
		return http.StatusNotImplemented, KindUnsupported
	case errors.Is(err, service.ErrStorageDisabled):
		return http.StatusServiceUnavailable, KindStorageDisabled
	case errors.As(err, &queryFailed):
		return http.StatusBadGateway, KindQueryFailed
	}
	return http.StatusInternalServerError, KindInternal
}

// respondError writes err as {"error", "kind"}. Validation and auth errors
// carry their user-facing message, and server-side failures are logged.
func respondError(c *gin.Context, err error) {
	status, kind := classify(err)

	body := gin.H{"error": err.Error(), "kind": kind}
	var (
		authErr    *model.AuthError
		validation *model.ValidationError
	)
	switch {
	case errors.As(err, &authErr):
		body["error"] = authErr.Message
	case errors.As(err, &validation):
		body["error"] = validation.Message
		if validation.Field != "" {
			body["field"] = validation.Field
		}
	}
	if status >= http.StatusInternalServerError {
		requestLogger(c).Error("Request failed",
			"path", c.FullPath(),
			"kind", kind,
			"error", err,
		)
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest reports a request body or query that failed binding
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error(), "kind": KindValidation})
}
