package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orrery-labs/orrery/backend/internal/api/ws"
	"github.com/orrery-labs/orrery/backend/internal/domain/notebook"
	"github.com/orrery-labs/orrery/backend/internal/domain/workspace"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"github.com/orrery-labs/orrery/backend/internal/shared/utils"
)

// ipynbContentType is the registered media type for notebook documents.
const ipynbContentType = "application/x-ipynb+json"

// ExportWorkspace encodes the live store into a notebook document served
// as a download.
func (h *Handlers) ExportWorkspace(c *gin.Context) {
	data, err := notebook.Export(h.store.List())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.mu.Lock()
	h.lastExport = time.Now().UTC()
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.IncExports()
	}

	c.Header("Content-Disposition", `attachment; filename="workspace.ipynb"`)
	c.Data(http.StatusOK, ipynbContentType, data)
}

// ImportWorkspace decodes the request body as a notebook document and
// reconciles it into the store. Per-cell failures come back in the result
// alongside whatever restored; only an unparseable document fails whole.
func (h *Handlers) ImportWorkspace(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.DefaultJSONValidator().ValidateSize(data); err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}

	clearExisting, _ := strconv.ParseBool(c.DefaultQuery("clear_existing", "false"))

	decoded, err := h.decoder.Decode(data)
	if err != nil {
		respondError(c, err)
		return
	}

	result := h.reconciler.Reconcile(decoded, workspace.Options{ClearExisting: clearExisting})
	h.broadcast(ws.EventWorkspaceImported, gin.H{
		"restored": len(result.RestoredWindows),
		"errors":   len(result.Errors),
	})
	c.JSON(http.StatusOK, result)
}

// WorkspaceStats reports store totals, per-frame column summaries, and the
// last export stamp.
func (h *Handlers) WorkspaceStats(c *gin.Context) {
	h.mu.Lock()
	last := h.lastExport
	h.mu.Unlock()

	body := gin.H{"workspace": h.store.Stats()}
	if !last.IsZero() {
		body["last_export_at"] = last
	}

	frames := map[int][]types.ColumnSummary{}
	for _, rec := range h.store.List() {
		if rec.State.DataFrame == nil {
			continue
		}
		if sums := notebook.Summarize(rec.State.DataFrame); len(sums) > 0 {
			frames[rec.ID] = sums
		}
	}
	if len(frames) > 0 {
		body["frames"] = frames
	}

	c.JSON(http.StatusOK, body)
}
