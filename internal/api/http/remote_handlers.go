package http

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/orrery-labs/orrery/backend/internal/api/ws"
	"github.com/orrery-labs/orrery/backend/internal/domain/workspace"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"github.com/orrery-labs/orrery/backend/internal/shared/utils"
)

type connectRequest struct {
	BaseURL string `json:"base_url"`
	Token   string `json:"token"`
	Profile string `json:"profile"`
}

type remoteImportRequest struct {
	Path          string `json:"path" binding:"required"`
	ClearExisting bool   `json:"clear_existing"`
}

type executeCellRequest struct {
	CellID string `json:"cell_id" binding:"required"`
	Code   string `json:"code"`
}

// ConnectRemote reconfigures the remote client and performs the listing
// handshake. Settings resolve in layers: environment defaults, then the
// named profile, then explicit overrides. An empty body connects with the
// defaults.
func (h *Handlers) ConnectRemote(c *gin.Context) {
	var req connectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	cfg := h.remoteBase
	if req.Profile != "" {
		if err := utils.ValidateProfileName(req.Profile); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		prof, ok := h.profiles.Get(req.Profile)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{
				"error":    fmt.Sprintf("unknown profile %q", req.Profile),
				"profiles": h.profiles.Names(),
			})
			return
		}
		cfg = prof.Remote(cfg)
	}
	if req.BaseURL != "" {
		if err := validateBaseURL(req.BaseURL); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		cfg.BaseURL = req.BaseURL
	}
	if req.Token != "" {
		cfg.Token = req.Token
	}

	h.remote.Configure(cfg)
	if err := h.remote.Connect(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":  err.Error(),
			"status": h.remote.Status(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.remote.Status()})
}

// RemoteStatus returns the connection and kernel snapshot.
func (h *Handlers) RemoteStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.remote.Status())
}

// ListRemoteNotebooks fetches the server listing. On failure the last
// successful listing is served alongside the error so the UI keeps
// something to show.
func (h *Handlers) ListRemoteNotebooks(c *gin.Context) {
	entries, err := h.remote.ListNotebooks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     err.Error(),
			"notebooks": h.remote.Notebooks(),
			"cached":    true,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notebooks": entries,
		"count":     len(entries),
		"cached":    false,
	})
}

// ImportRemoteNotebook fetches a document from the connected server and
// reconciles it into the workspace.
func (h *Handlers) ImportRemoteNotebook(c *gin.Context) {
	var req remoteImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.remote.FetchNotebook(c.Request.Context(), req.Path)
	if err != nil {
		respondError(c, err)
		return
	}

	result := h.reconciler.Reconcile(h.decoder.DecodeDocument(doc), workspace.Options{ClearExisting: req.ClearExisting})
	h.broadcast(ws.EventWorkspaceImported, gin.H{
		"source":   req.Path,
		"restored": len(result.RestoredWindows),
		"errors":   len(result.Errors),
	})
	c.JSON(http.StatusOK, result)
}

// StartKernel brings up the remote kernel, coalescing concurrent starts.
func (h *Handlers) StartKernel(c *gin.Context) {
	kernel, err := h.remote.StartKernel(c.Request.Context())
	h.broadcastKernelState()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kernel": kernel})
}

// StopKernel tears down the kernel handle. Stopping with nothing running
// is a no-op, not an error.
func (h *Handlers) StopKernel(c *gin.Context) {
	err := h.remote.StopKernel(c.Request.Context())
	h.broadcastKernelState()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stopped": true})
}

// ExecuteCell runs code on the remote kernel under the given cell's
// session. A raising cell still answers 200: the failure is part of the
// session record, not a transport fault.
func (h *Handlers) ExecuteCell(c *gin.Context) {
	var req executeCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateContent(req.Code); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.remote.ExecuteCell(c.Request.Context(), req.CellID, req.Code)
	h.broadcast(ws.EventExecutionDone, sess)

	if err != nil {
		if kind, ok := types.KindOf(err); !ok || kind != types.ErrExecutionFailure {
			c.JSON(statusFor(err), gin.H{
				"error":   err.Error(),
				"session": sess,
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

// ListSessions returns every per-cell session snapshot.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.remote.Sessions()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns the session snapshot for one cell.
func (h *Handlers) GetSession(c *gin.Context) {
	cell := c.Param("cell")
	sess, ok := h.remote.Session(cell)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no session for cell %q", cell)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func (h *Handlers) broadcastKernelState() {
	kernel, state := h.remote.Kernel()
	h.broadcast(ws.EventKernelState, ws.KernelStatePayload{State: state, Kernel: kernel})
}

// validateBaseURL accepts absolute http or https URLs only.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http or https URL")
	}
	return nil
}
