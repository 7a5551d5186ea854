package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mindfulpath/practicesite/internal/services"
	appErrors "github.com/mindfulpath/practicesite/pkg/errors"
	"github.com/mindfulpath/practicesite/pkg/response"
)

// ConfigHandler serves the key/value site content store.
type ConfigHandler struct {
	svc *services.ConfigService
}

// NewConfigHandler constructs a config handler.
func NewConfigHandler(svc *services.ConfigService) (*ConfigHandler, error) {
	if svc == nil {
		return nil, errors.New("config handler: service is required")
	}
	return &ConfigHandler{svc: svc}, nil
}

type upsertConfigRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// List GET /api/config and /api/admin/config: every stored section.
func (h *ConfigHandler) List(c *gin.Context) {
	entries, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, entries, &response.Meta{Total: len(entries)})
}

// Get GET /api/admin/config/:key
func (h *ConfigHandler) Get(c *gin.Context) {
	entry, err := h.svc.Get(requestContext(c), c.Param("key"))
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, entry)
}

// Upsert POST /api/admin/config with {key, value}. Create and update are the same call.
func (h *ConfigHandler) Upsert(c *gin.Context) {
	var req upsertConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}
	if strings.TrimSpace(req.Key) == "" {
		response.Error(c, appErrors.NewBadRequest("key is required"))
		return
	}

	entry, err := h.svc.Upsert(requestContext(c), req.Key, req.Value)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, entry)
}

// Delete DELETE /api/admin/config/:key. Only optional sections can be removed.
func (h *ConfigHandler) Delete(c *gin.Context) {
	key := c.Param("key")
	if err := h.svc.Delete(requestContext(c), key); err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true, "key": strings.ToLower(strings.TrimSpace(key))})
}
