package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orrery-labs/orrery/backend/internal/api/ws"
	"github.com/orrery-labs/orrery/backend/internal/domain/window"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"github.com/orrery-labs/orrery/backend/internal/shared/utils"
)

// defaultPosition places windows created without explicit geometry.
var defaultPosition = types.Position{X: 120, Y: 120, Width: 640, Height: 480}

type createWindowRequest struct {
	Kind     types.Kind      `json:"kind" binding:"required"`
	ID       *int            `json:"id"`
	Position *types.Position `json:"position"`
}

// ListWindows returns every window record.
func (h *Handlers) ListWindows(c *gin.Context) {
	records := h.store.List()
	c.JSON(http.StatusOK, gin.H{
		"windows": records,
		"count":   len(records),
	})
}

// CreateWindow adds a window. A request without an id lands past the
// current maximum; an explicit id overwrites any occupant.
func (h *Handlers) CreateWindow(c *gin.Context) {
	var req createWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown window kind %q", req.Kind)})
		return
	}

	id := h.store.NextID()
	if req.ID != nil {
		if *req.ID < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "window id must not be negative"})
			return
		}
		id = *req.ID
	}

	pos := defaultPosition
	if req.Position != nil {
		pos = *req.Position
	}

	rec := h.store.Create(req.Kind, id, pos)
	h.broadcast(ws.EventWindowCreated, rec)
	c.JSON(http.StatusCreated, gin.H{"window": rec})
}

// GetWindow fetches one window record.
func (h *Handlers) GetWindow(c *gin.Context) {
	id, ok := windowID(c)
	if !ok {
		return
	}

	rec, found := h.store.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("window %d not found", id)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": rec})
}

// UpdateWindow applies a partial mutation. Absent fields keep their
// current values.
func (h *Handlers) UpdateWindow(c *gin.Context) {
	id, ok := windowID(c)
	if !ok {
		return
	}

	var mut window.Mutation
	if err := c.ShouldBindJSON(&mut); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if mut.Kind != nil && !mut.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown window kind %q", *mut.Kind)})
		return
	}
	if mut.Content != nil {
		if err := utils.ValidateContent(*mut.Content); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if mut.Tags != nil {
		if err := utils.ValidateTags(mut.Tags); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if mut.Opacity != nil && (*mut.Opacity < 0 || *mut.Opacity > 1) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "opacity must be between 0 and 1"})
		return
	}

	rec, found := h.store.Apply(id, mut)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("window %d not found", id)})
		return
	}

	h.broadcast(ws.EventWindowUpdated, rec)
	c.JSON(http.StatusOK, gin.H{"window": rec})
}

// DeleteWindow removes a window record.
func (h *Handlers) DeleteWindow(c *gin.Context) {
	id, ok := windowID(c)
	if !ok {
		return
	}

	if !h.store.Remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("window %d not found", id)})
		return
	}

	h.broadcast(ws.EventWindowRemoved, gin.H{"id": id})
	c.JSON(http.StatusOK, gin.H{"removed": true, "id": id})
}

// windowID parses the :id route parameter.
func windowID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window id must be an integer"})
		return 0, false
	}
	return id, true
}
