package jupyter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/config"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/logging"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/monitoring"
	"github.com/orrery-labs/orrery/backend/internal/infrastructure/resilience"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

const (
	defaultTimeout  = 30 * time.Second
	getRetryMax     = 2
	getRetryWaitMin = 250 * time.Millisecond
	getRetryWaitMax = 2 * time.Second
)

// Client talks to one notebook server. All state transitions happen under
// mu; network calls run outside it so a slow server never blocks snapshots.
type Client struct {
	rest    *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu          sync.RWMutex
	baseURL     string
	state       types.ConnState
	connErr     string
	kernel      *types.Kernel
	kernelState types.KernelState
	starting    chan struct{}
	startErr    error
	sessions    map[string]*types.RemoteSession
	notebooks   []types.NotebookEntry
}

// New builds a client for the server described by cfg. The zero limiter
// passes everything through; callers tune it via the config they hand in.
func New(cfg config.RemoteConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	log := logger.Named("jupyter")

	breaker := resilience.New("remote-notebook", resilience.Settings{
		MaxRequests: 2,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("breaker state changed",
				zap.String("breaker", name),
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	c := &Client{
		rest:        newTransport(cfg),
		limiter:     rate.NewLimiter(rate.Inf, 0),
		breaker:     breaker,
		logger:      log,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		state:       types.ConnDisconnected,
		kernelState: types.KernelNone,
		sessions:    make(map[string]*types.RemoteSession),
	}
	return c
}

// WithMetrics attaches the metrics sink.
func (c *Client) WithMetrics(m *monitoring.Metrics) *Client {
	c.metrics = m
	return c
}

// newTransport builds the resty client over a pooled transport. Retries
// are handled per-operation, never at the transport layer, so mutating
// requests are issued at most once.
func newTransport(cfg config.RemoteConfig) *resty.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.Logger = nil

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rest := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Orrery/1.0").
		SetTransport(retryClient.HTTPClient.Transport)
	if cfg.Token != "" {
		rest.SetAuthToken(cfg.Token)
	}
	return rest
}

// Configure points the client at a different server. The previous kernel
// handle, session table, and cached listing belong to the old server and
// are dropped; executing sessions are marked abandoned first.
func (c *Client) Configure(cfg config.RemoteConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sess := range c.sessions {
		sess.Abandoned = true
		sess.IsExecuting = false
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	c.rest.SetBaseURL(c.baseURL).SetTimeout(timeout).SetAuthToken(cfg.Token)

	c.state = types.ConnDisconnected
	c.connErr = ""
	c.kernel = nil
	c.kernelState = types.KernelNone
	c.starting = nil
	c.startErr = nil
	c.sessions = make(map[string]*types.RemoteSession)
	c.notebooks = nil
}

// Connect probes the server with a contents listing. Success caches the
// listing and moves the machine to connected; failure records the error in
// the status snapshot and returns it.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.state = types.ConnConnecting
	c.connErr = ""
	c.mu.Unlock()

	entries, err := c.fetchListing(ctx, "connect")

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.state = types.ConnDisconnected
		c.connErr = err.Error()
		c.logger.Warn("connect failed", zap.String("base_url", c.baseURL), zap.Error(err))
		return err
	}
	c.state = types.ConnConnected
	c.notebooks = entries
	c.logger.Info("connected", zap.String("base_url", c.baseURL), zap.Int("notebooks", len(entries)))
	return nil
}

// Status returns a point-in-time snapshot of the state machine.
func (c *Client) Status() types.ConnStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := types.ConnStatus{
		State:           c.state,
		ConnectionError: c.connErr,
		BaseURL:         c.baseURL,
		KernelState:     c.kernelState,
		Sessions:        len(c.sessions),
	}
	if c.kernel != nil {
		kernel := *c.kernel
		status.Kernel = &kernel
	}
	return status
}

// BaseURL returns the server the client currently points at.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Close abandons sessions and resets the machine. The remote kernel is
// left to the server's own culling; call StopKernel first to be polite.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sess := range c.sessions {
		sess.Abandoned = true
		sess.IsExecuting = false
	}
	c.state = types.ConnDisconnected
	c.kernel = nil
	c.kernelState = types.KernelNone
	c.starting = nil
}

// send runs one request through the limiter, breaker, and timer. A 5xx
// counts as a breaker failure; anything below that is handed back to the
// caller as a plain response to interpret.
func (c *Client) send(ctx context.Context, op string, fn func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	if c.breaker.State() == resilience.StateOpen {
		return nil, types.WrapError(types.ErrConnection, resilience.ErrCircuitOpen, op)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, types.WrapError(types.ErrConnection, err, op+" rate limited")
	}

	timer := monitoring.NewTimer(c.metrics, op)
	resp, err := resilience.Execute(c.breaker, func() (*resty.Response, error) {
		c.mu.RLock()
		req := c.rest.R().SetContext(ctx)
		c.mu.RUnlock()

		resp, err := fn(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, fmt.Errorf("%s: %s", op, resp.Status())
		}
		return resp, nil
	})
	if err != nil {
		timer.Stop("error")
		if kind, ok := types.KindOf(err); ok && kind == types.ErrConnection {
			return resp, err
		}
		return resp, types.WrapError(types.ErrConnection, err, op)
	}
	timer.Stop("ok")
	return resp, nil
}

// getWithRetry issues an idempotent GET, retrying transport failures and
// 5xx responses with backoff. The first settled response comes back for
// the caller to interpret; mutating requests never go through here.
func (c *Client) getWithRetry(ctx context.Context, op, path string, query map[string]string) (*resty.Response, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := c.send(ctx, op, func(r *resty.Request) (*resty.Response, error) {
			if len(query) > 0 {
				r.SetQueryParams(query)
			}
			return r.Get(path)
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt >= getRetryMax || ctx.Err() != nil || errors.Is(lastErr, resilience.ErrCircuitOpen) {
			return nil, lastErr
		}
		wait := retryablehttp.DefaultBackoff(getRetryWaitMin, getRetryWaitMax, attempt, nil)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, lastErr
		}
	}
}

// getJSON fetches and decodes a JSON body. Non-success statuses map
// through statusError.
func (c *Client) getJSON(ctx context.Context, op, path string, query map[string]string, out interface{}) error {
	resp, err := c.getWithRetry(ctx, op, path, query)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return c.statusError(op, resp)
	}
	if out == nil {
		return nil
	}
	return decodeBody(op, resp, out)
}

// decodeBody unmarshals a response body, mapping parse failures to the
// document-parse error kind.
func decodeBody(op string, resp *resty.Response, out interface{}) error {
	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return types.WrapError(types.ErrDocumentParse, err, op+" response")
	}
	return nil
}

// statusError maps a non-success HTTP status to a typed error.
func (c *Client) statusError(op string, resp *resty.Response) *types.Error {
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.NewError(types.ErrConnection, fmt.Sprintf("%s: server rejected credentials (%s)", op, resp.Status()))
	default:
		return types.NewError(types.ErrConnection, fmt.Sprintf("%s: %s", op, resp.Status()))
	}
}
