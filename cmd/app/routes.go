package main

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/shuliakovsky/trg-remote/pkg/api"
	"github.com/shuliakovsky/trg-remote/pkg/docs"
	"github.com/shuliakovsky/trg-remote/pkg/metrics"
	"github.com/shuliakovsky/trg-remote/pkg/peers"
	"github.com/shuliakovsky/trg-remote/pkg/poller"
	"github.com/shuliakovsky/trg-remote/pkg/prefs"
	"github.com/shuliakovsky/trg-remote/pkg/registry"
)

func registerRoutes(
	model *peers.Model,
	reg *registry.Registry,
	poll *poller.Poller,
	manager *prefs.Manager,
	cfg config,
	logger *zap.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()

	public := api.NewPublic(model, reg, logger)
	adminAPI := api.NewAdmin(manager, cfg.AdminKey, logger)
	wsAPI := api.NewWS(model, logger)

	mux.HandleFunc("/healthz", api.Healthz(poll))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/swagger.json"),
		httpSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
	))
	mux.HandleFunc("/swagger/swagger.json", docs.JSONHandler)

	// Public routes
	mux.HandleFunc("/peers", public.Peers)
	mux.HandleFunc("/torrents", public.Torrents)
	mux.HandleFunc("/torrents/", public.Select)
	mux.HandleFunc("/ws/peers", wsAPI.ServeWS)

	// Admin routes
	if cfg.AdminKey == "" {
		logger.Warn("admin_key_unset", zap.String("hint", "set TRG_ADMIN_KEY to enable /admin/prefs"))
	}
	mux.HandleFunc("/admin/prefs", adminAPI.HandlePrefs)

	// Metrics
	mux.Handle("/metrics", metrics.Handler())
	return mux
}
