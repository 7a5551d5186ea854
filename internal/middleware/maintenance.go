package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mindfulpath/practicesite/internal/siteconfig"
	appErrors "github.com/mindfulpath/practicesite/pkg/errors"
	"github.com/mindfulpath/practicesite/pkg/logger"
	"github.com/mindfulpath/practicesite/pkg/response"
)

// MaintenanceSource reports the current maintenance switch.
type MaintenanceSource interface {
	Maintenance(ctx context.Context) (siteconfig.Maintenance, error)
}

// MaintenanceGate answers 503 while maintenance mode is enabled. A failing source lets
// requests through.
func MaintenanceGate(source MaintenanceSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if source == nil {
			c.Next()
			return
		}

		m, err := source.Maintenance(c.Request.Context())
		if err != nil {
			logger.WithModule("http").Warn("maintenance lookup failed", zap.Error(err))
			c.Next()
			return
		}
		if m.Enabled {
			appErr := appErrors.ErrMaintenance
			if m.Message != "" {
				appErr = appErr.WithMessage(m.Message)
			}
			c.Header("Retry-After", "120")
			response.Abort(c, appErr)
			return
		}
		c.Next()
	}
}
