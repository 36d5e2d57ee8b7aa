package errors

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain"
)

// Mapper maps operator and domain errors to HTTP status codes
type Mapper struct {
	logger zerolog.Logger
}

// NewMapper creates a new error mapper
func NewMapper(logger zerolog.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// MapErrorToHTTP maps an error to HTTP status code and message
func (m *Mapper) MapErrorToHTTP(err error) (int, string) {
	if err == nil {
		return fasthttp.StatusOK, ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return fasthttp.StatusBadRequest, validationErr.Error()
	}

	var permissionErr *PermissionError
	if errors.As(err, &permissionErr) {
		return fasthttp.StatusForbidden, permissionErr.Error()
	}

	switch domain.KindOf(err) {
	case domain.KindUnknownAccount:
		return fasthttp.StatusNotFound, err.Error()
	case domain.KindDuplicateAccount:
		return fasthttp.StatusConflict, err.Error()
	case domain.KindAuth:
		return fasthttp.StatusUnauthorized, err.Error()
	case domain.KindTransport, domain.KindPersistence:
		m.logger.Warn().Err(err).Msg("dependency unavailable")
		return fasthttp.StatusServiceUnavailable, err.Error()
	}

	m.logger.Error().Err(err).Msg("unknown error")
	return fasthttp.StatusInternalServerError, "internal server error"
}
