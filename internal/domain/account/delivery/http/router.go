package http

import (
	"github.com/fasthttp/router"
	"github.com/rs/zerolog"

	"github.com/Conte777/NewsFlow/services/sentinel-service/pkg/httputil"
)

// Router registers account-related HTTP routes
type Router struct {
	handler *Handler
	logger  zerolog.Logger
}

// NewRouter creates a new account router
func NewRouter(handler *Handler, logger zerolog.Logger) *Router {
	return &Router{
		handler: handler,
		logger:  logger,
	}
}

// RegisterRoutes registers account routes on the router
func (r *Router) RegisterRoutes(rt *router.Router) {
	rt.GET("/health", r.handler.Health)

	api := httputil.NewMiddlewareGroup(rt.Group("/api/v1")).
		Use(httputil.RequestID(), httputil.RequestLogger(r.logger))
	api.GET("/accounts", r.handler.ListAccounts)
	api.GET("/accounts/{name}/stats", r.handler.AccountStats)
	api.GET("/stats", r.handler.Summary)
}
