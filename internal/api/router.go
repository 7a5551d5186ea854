package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/mindfulpath/practicesite/internal/app"
	"github.com/mindfulpath/practicesite/internal/handlers"
	"github.com/mindfulpath/practicesite/internal/middleware"
	"github.com/mindfulpath/practicesite/internal/monitoring"
	"github.com/mindfulpath/practicesite/internal/monitoring/checks"
)

// NewRouter builds the Gin engine, wires middleware and registers every route. svcs is
// built from db when nil; tracker may be nil when no background jobs run.
func NewRouter(db *gorm.DB, cfg *app.Config, svcs *Services, tracker *monitoring.JobTracker) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svcs == nil {
		var err error
		if svcs, err = NewServices(db); err != nil {
			return nil, err
		}
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowedOrigins...))

	if cfg.Monitoring.Health.Enabled {
		health := monitoring.NewHealthManager(
			checks.Database(db, 0),
			checks.SiteMaintenance(svcs.Config),
			checks.Jobs(tracker, 0),
		)
		r.GET("/health", handlers.Health(health))
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	configHandler, err := handlers.NewConfigHandler(svcs.Config)
	if err != nil {
		return nil, err
	}

	api := r.Group("/api")
	api.GET("/config", configHandler.List)

	// Public content answers 503 while the site is in maintenance; config stays readable so
	// the site can render the maintenance message.
	public := api.Group("")
	public.Use(middleware.MaintenanceGate(svcs.Config))

	admin := api.Group("/admin")
	{
		admin.GET("/config", configHandler.List)
		admin.POST("/config", configHandler.Upsert)
		admin.GET("/config/:key", configHandler.Get)
		admin.DELETE("/config/:key", configHandler.Delete)
	}

	if err := registerCollections(public, admin, svcs); err != nil {
		return nil, err
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
