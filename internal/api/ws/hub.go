package ws

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/logging"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/monitoring"
	"github.com/orrery-labs/orrery/backend/internal/shared/id"
)

const (
	clientBuffer = 32
	eventBuffer  = 256
)

// Origin checks happen at the HTTP layer; the bearer token is the gate
// for the stream itself.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans workspace events out to subscribers. Run owns the client set;
// everything else talks to it through channels.
type Hub struct {
	logger  *logging.Logger
	metrics *monitoring.Metrics

	register   chan *client
	unregister chan *client
	events     chan Event
	done       chan struct{}
	closeOnce  sync.Once
	count      atomic.Int32
}

// NewHub builds a hub. Call Run on its own goroutine before serving.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Hub{
		logger:     logger.Named("ws"),
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan Event, eventBuffer),
		done:       make(chan struct{}),
	}
}

// WithMetrics attaches the metrics sink.
func (h *Hub) WithMetrics(m *monitoring.Metrics) *Hub {
	h.metrics = m
	return h
}

// Run drives the hub until Close. It owns the client set exclusively.
func (h *Hub) Run() {
	clients := make(map[*client]struct{})

	drop := func(cl *client) {
		delete(clients, cl)
		close(cl.send)
		h.count.Add(-1)
		if h.metrics != nil {
			h.metrics.DecWSConnections()
		}
	}

	for {
		select {
		case cl := <-h.register:
			clients[cl] = struct{}{}
			h.count.Add(1)
			if h.metrics != nil {
				h.metrics.IncWSConnections()
			}
			h.logger.Info("client connected", zap.String("client_id", cl.id.String()))

		case cl := <-h.unregister:
			if _, ok := clients[cl]; ok {
				drop(cl)
				h.logger.Info("client disconnected", zap.String("client_id", cl.id.String()))
			}

		case evt := <-h.events:
			for cl := range clients {
				select {
				case cl.send <- evt:
				default:
					drop(cl)
					h.logger.Warn("dropping slow client", zap.String("client_id", cl.id.String()))
				}
			}
			if h.metrics != nil {
				h.metrics.RecordWSMessage("out", string(evt.Type))
			}

		case <-h.done:
			for cl := range clients {
				drop(cl)
			}
			return
		}
	}
}

// Close shuts the hub down and disconnects every client.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Broadcast queues an event for every subscriber. Never blocks the
// caller: when the hub is saturated or gone the event is dropped.
func (h *Hub) Broadcast(evt Event) {
	if h == nil {
		return
	}
	select {
	case h.events <- evt:
	case <-h.done:
	default:
		h.logger.Warn("event queue full, dropping", zap.String("type", string(evt.Type)))
	}
}

// ClientCount reports the number of connected subscribers.
func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	return int(h.count.Load())
}

// Serve upgrades the request and pumps the connection until it drops.
// The read loop runs on the request goroutine, the write loop on its own.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}

	cl := &client{
		id:   id.NewClientID(),
		conn: conn,
		send: make(chan Event, clientBuffer),
	}
	select {
	case h.register <- cl:
	case <-h.done:
		conn.Close()
		return
	}

	// Greet before any broadcast so clients can record their identity.
	welcome := NewEvent(EventSystem, gin.H{"client_id": cl.id.String()})
	select {
	case cl.send <- welcome:
	default:
	}

	go cl.writePump()
	cl.readPump(h)
}
