package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mindfulpath/practicesite/internal/ordering"
	"github.com/mindfulpath/practicesite/internal/services"
	appErrors "github.com/mindfulpath/practicesite/pkg/errors"
	"github.com/mindfulpath/practicesite/pkg/response"
)

// CollectionHandler serves one user-sortable collection.
type CollectionHandler[P services.Record[P]] struct {
	svc *services.CollectionService[P]
}

// NewCollectionHandler constructs a handler over svc.
func NewCollectionHandler[P services.Record[P]](svc *services.CollectionService[P]) (*CollectionHandler[P], error) {
	if svc == nil {
		return nil, errors.New("collection handler: service is required")
	}
	return &CollectionHandler[P]{svc: svc}, nil
}

// Register mounts the public read route on public and the management routes on admin.
func (h *CollectionHandler[P]) Register(public, admin gin.IRouter) {
	name := "/" + h.svc.Name()

	public.GET(name, h.PublicList)

	group := admin.Group(name)
	group.GET("", h.List)
	group.POST("", h.Create)
	group.PUT("/reorder", h.Reorder)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// PublicList GET /api/{collection}: active items in display order.
func (h *CollectionHandler[P]) PublicList(c *gin.Context) {
	h.list(c, true)
}

// List GET /api/admin/{collection}: every item in display order.
func (h *CollectionHandler[P]) List(c *gin.Context) {
	h.list(c, false)
}

func (h *CollectionHandler[P]) list(c *gin.Context, activeOnly bool) {
	items, err := h.svc.List(requestContext(c), activeOnly)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items)})
}

// Get GET /api/admin/{collection}/:id
func (h *CollectionHandler[P]) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.svc.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, item)
}

// Create POST /api/admin/{collection}. Without an explicit order the item is appended.
func (h *CollectionHandler[P]) Create(c *gin.Context) {
	_, members, err := readObject(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	_, hasOrder := members["order"]

	payload, err := withoutServerFields(members)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	item := h.svc.New()
	if err := json.Unmarshal(payload, item); err != nil {
		response.Error(c, serviceError(errors.Join(services.ErrInvalidItem, err)))
		return
	}

	created, err := h.svc.Create(requestContext(c), item, !hasOrder)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusCreated, created)
}

// Update PUT /api/admin/{collection}/:id. Members absent from the body keep their value.
func (h *CollectionHandler[P]) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	_, members, err := readObject(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, err := withoutServerFields(members)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return
	}

	updated, err := h.svc.Update(requestContext(c), id, func(item P) error {
		return json.Unmarshal(payload, item)
	})
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, updated)
}

// Delete DELETE /api/admin/{collection}/:id
func (h *CollectionHandler[P]) Delete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.svc.Delete(requestContext(c), id); err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true, "id": id})
}

// Reorder PUT /api/admin/{collection}/reorder with [{id, order}]. The response carries the
// whole collection in its new order.
func (h *CollectionHandler[P]) Reorder(c *gin.Context) {
	var pairs []ordering.Pair
	if err := c.ShouldBindJSON(&pairs); err != nil {
		response.Error(c, appErrors.NewBadRequest("reorder body must be an array of {id, order}"))
		return
	}

	items, err := h.svc.Reorder(requestContext(c), pairs)
	if err != nil {
		response.Error(c, serviceError(err))
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: len(items)})
}
