package http

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/deps"
	"github.com/Conte777/NewsFlow/services/sentinel-service/internal/domain/account/entities"
	pkgerrors "github.com/Conte777/NewsFlow/services/sentinel-service/pkg/errors"
	"github.com/Conte777/NewsFlow/services/sentinel-service/pkg/httputil"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth represents health status of a single component
type ComponentHealth struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// HealthResponse represents the JSON response for health check
type HealthResponse struct {
	Status     HealthStatus      `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Accounts   int               `json:"accounts"`
	Live       int               `json:"live"`
	Components []ComponentHealth `json:"components"`
}

// Reader is the read-only part of the operator use case
type Reader interface {
	ListAccounts() []entities.AccountInfo
	AccountStats(name string) (entities.AccountStats, error)
	Summary() entities.Summary
}

// Handler serves health and the read-only operator API
type Handler struct {
	reader      Reader
	sessions    deps.Sessions
	persistence deps.PersistenceStatus
	mapper      *pkgerrors.Mapper
	logger      zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(reader Reader, sessions deps.Sessions, persistence deps.PersistenceStatus, logger zerolog.Logger) *Handler {
	return &Handler{
		reader:      reader,
		sessions:    sessions,
		persistence: persistence,
		mapper:      pkgerrors.NewMapper(logger),
		logger:      logger,
	}
}

// Health handles the health check request
func (h *Handler) Health(ctx *fasthttp.RequestCtx) {
	components := h.checkComponents()
	status := determineOverallStatus(components)

	response := HealthResponse{
		Status:     status,
		Timestamp:  time.Now().UTC(),
		Accounts:   len(h.reader.ListAccounts()),
		Live:       h.sessions.LiveCount(),
		Components: components,
	}

	statusCode := fasthttp.StatusOK
	if status == HealthStatusUnhealthy {
		statusCode = fasthttp.StatusServiceUnavailable
	}

	logEvent := h.logger.Debug()
	if status != HealthStatusHealthy {
		logEvent = h.logger.Warn()
	}
	logEvent.
		Str("status", string(status)).
		Int("status_code", statusCode).
		Msg("Health check completed")

	ctx.SetContentType("application/json")
	ctx.SetStatusCode(statusCode)

	body, err := json.Marshal(response)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode health check response")
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetBody(body)
}

func (h *Handler) checkComponents() []ComponentHealth {
	components := make([]ComponentHealth, 0, 2)

	failed := h.sessions.Failed()
	sessions := ComponentHealth{Name: "session_workers", Healthy: len(failed) == 0}
	if !sessions.Healthy {
		sessions.Message = fmt.Sprintf("supervision stopped for %v", failed)
	}
	components = append(components, sessions)

	persistence := ComponentHealth{Name: "persistence", Healthy: true}
	if err := h.persistence.LastError(); err != nil {
		persistence.Healthy = false
		persistence.Message = err.Error()
	}
	components = append(components, persistence)

	return components
}

// determineOverallStatus determines overall health status based on component health
func determineOverallStatus(components []ComponentHealth) HealthStatus {
	allHealthy := true
	anyHealthy := false

	for _, component := range components {
		if !component.Healthy {
			allHealthy = false
		} else {
			anyHealthy = true
		}
	}

	if allHealthy {
		return HealthStatusHealthy
	} else if anyHealthy {
		return HealthStatusDegraded
	}
	return HealthStatusUnhealthy
}

// ListAccounts handles GET /api/v1/accounts
func (h *Handler) ListAccounts(ctx *fasthttp.RequestCtx) {
	httputil.WriteResponse(ctx, h.reader.ListAccounts())
}

// AccountStats handles GET /api/v1/accounts/{name}/stats
func (h *Handler) AccountStats(ctx *fasthttp.RequestCtx) {
	name, _ := ctx.UserValue("name").(string)

	stats, err := h.reader.AccountStats(name)
	if err != nil {
		status, message := h.mapper.MapErrorToHTTP(err)
		httputil.WriteErrorResponse(ctx, message, status)
		return
	}
	httputil.WriteResponse(ctx, stats)
}

// Summary handles GET /api/v1/stats
func (h *Handler) Summary(ctx *fasthttp.RequestCtx) {
	httputil.WriteResponse(ctx, h.reader.Summary())
}
