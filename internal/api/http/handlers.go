package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orrery-labs/orrery/backend/internal/api/ws"
	"github.com/orrery-labs/orrery/backend/internal/domain/library"
	"github.com/orrery-labs/orrery/backend/internal/domain/notebook"
	"github.com/orrery-labs/orrery/backend/internal/domain/window"
	"github.com/orrery-labs/orrery/backend/internal/domain/workspace"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/config"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/monitoring"
	"github.com/orrery-labs/orrery/backend/internal/jupyter"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// Version reported by the banner and health endpoints.
const Version = "0.3.0"

// Handlers carries the dependencies of the HTTP surface.
type Handlers struct {
	store      *window.Store
	decoder    *notebook.Decoder
	reconciler *workspace.Reconciler
	library    *library.Manager
	remote     *jupyter.Client
	hub        *ws.Hub

	profiles   *config.Profiles
	remoteBase config.RemoteConfig
	metrics    *monitoring.Metrics
	started    time.Time

	mu         sync.Mutex
	lastExport time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(
	store *window.Store,
	decoder *notebook.Decoder,
	reconciler *workspace.Reconciler,
	lib *library.Manager,
	remote *jupyter.Client,
	hub *ws.Hub,
) *Handlers {
	return &Handlers{
		store:      store,
		decoder:    decoder,
		reconciler: reconciler,
		library:    lib,
		remote:     remote,
		hub:        hub,
		profiles:   &config.Profiles{Profiles: map[string]config.Profile{}},
		started:    time.Now(),
	}
}

// WithMetrics attaches the export counter and health snapshot source.
func (h *Handlers) WithMetrics(m *monitoring.Metrics) *Handlers {
	h.metrics = m
	return h
}

// WithRemoteConfig supplies the fallback connection settings and the named
// profile set that /remote/connect resolves against.
func (h *Handlers) WithRemoteConfig(base config.RemoteConfig, profiles *config.Profiles) *Handlers {
	h.remoteBase = base
	if profiles != nil {
		h.profiles = profiles
	}
	return h
}

// Root serves the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Orrery Workspace Service",
		"status":  "online",
		"version": Version,
	})
}

// Health reports liveness plus headline numbers from every subsystem.
func (h *Handlers) Health(c *gin.Context) {
	status := h.remote.Status()
	body := gin.H{
		"status":         "healthy",
		"version":        Version,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"workspace":      h.store.Stats(),
		"remote": gin.H{
			"state":        status.State,
			"kernel_state": status.KernelState,
			"sessions":     status.Sessions,
		},
		"stream_clients": h.hub.ClientCount(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.GetSnapshot()
	}
	c.JSON(http.StatusOK, body)
}

// broadcast publishes a typed event to every stream client.
func (h *Handlers) broadcast(kind ws.EventType, payload interface{}) {
	h.hub.Broadcast(ws.NewEvent(kind, payload))
}

// statusFor maps domain error kinds onto HTTP status codes. Errors without
// a kind are internal faults.
func statusFor(err error) int {
	kind, ok := types.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case types.ErrCandidateInvalid:
		return http.StatusBadRequest
	case types.ErrFileRead:
		return http.StatusNotFound
	case types.ErrDocumentParse:
		return http.StatusUnprocessableEntity
	case types.ErrKernelUnavailable:
		return http.StatusConflict
	case types.ErrConnection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}
