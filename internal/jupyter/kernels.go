package jupyter

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// defaultKernelName is what the server starts when the caller has no
// preference. Matches the stock Jupyter python kernelspec.
const defaultKernelName = "python3"

type kernelSpec struct {
	Name string `json:"name"`
}

// StartKernel brings up the client's kernel. Exactly one create request is
// in flight at a time: a second call while starting waits on the same
// attempt and observes its kernel, and a call while running returns the
// existing handle.
func (c *Client) StartKernel(ctx context.Context) (*types.Kernel, error) {
	c.mu.Lock()
	switch c.kernelState {
	case types.KernelRunning:
		kernel := *c.kernel
		c.mu.Unlock()
		return &kernel, nil
	case types.KernelStarting:
		wait := c.starting
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return c.startOutcome()
	case types.KernelStopping:
		c.mu.Unlock()
		return nil, types.NewError(types.ErrKernelUnavailable, "kernel is stopping")
	}

	done := make(chan struct{})
	c.starting = done
	c.startErr = nil
	c.kernelState = types.KernelStarting
	c.mu.Unlock()

	kernel, err := c.createKernel(ctx)

	c.mu.Lock()
	c.starting = nil
	c.startErr = err
	if err != nil {
		c.kernel = nil
		c.kernelState = types.KernelNone
	} else {
		c.kernel = kernel
		c.kernelState = types.KernelRunning
	}
	close(done)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("kernel start failed", zap.Error(err))
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.IncKernelStarts()
	}
	c.logger.Info("kernel started",
		zap.String("kernel_id", kernel.ID),
		zap.String("kernel_name", kernel.Name))
	out := *kernel
	return &out, nil
}

// startOutcome reads the result of the attempt a waiter coalesced onto.
func (c *Client) startOutcome() (*types.Kernel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kernelState == types.KernelRunning && c.kernel != nil {
		kernel := *c.kernel
		return &kernel, nil
	}
	if c.startErr != nil {
		return nil, c.startErr
	}
	return nil, types.NewError(types.ErrKernelUnavailable, "kernel start did not complete")
}

// StopKernel deletes the kernel on the server and drops the handle. The
// handle is dropped even when the delete fails; the server's own culling
// collects orphans.
func (c *Client) StopKernel(ctx context.Context) error {
	c.mu.Lock()
	if c.kernelState == types.KernelStarting {
		c.mu.Unlock()
		return types.NewError(types.ErrKernelUnavailable, "kernel start in flight")
	}
	if c.kernel == nil || c.kernelState != types.KernelRunning {
		c.mu.Unlock()
		return nil
	}
	kernelID := c.kernel.ID
	c.kernelState = types.KernelStopping
	c.mu.Unlock()

	err := c.deleteKernel(ctx, kernelID)

	c.mu.Lock()
	c.kernel = nil
	c.kernelState = types.KernelNone
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("kernel stop failed, handle dropped",
			zap.String("kernel_id", kernelID), zap.Error(err))
		return err
	}
	c.logger.Info("kernel stopped", zap.String("kernel_id", kernelID))
	return nil
}

// Kernel returns a copy of the current kernel handle, if any.
func (c *Client) Kernel() (*types.Kernel, types.KernelState) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.kernel == nil {
		return nil, c.kernelState
	}
	kernel := *c.kernel
	return &kernel, c.kernelState
}

func (c *Client) createKernel(ctx context.Context) (*types.Kernel, error) {
	resp, err := c.send(ctx, "start_kernel", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(kernelSpec{Name: defaultKernelName}).Post("/api/kernels")
	})
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.statusError("start_kernel", resp)
	}

	var kernel types.Kernel
	if err := decodeBody("start_kernel", resp, &kernel); err != nil {
		return nil, err
	}
	if kernel.ID == "" {
		return nil, types.NewError(types.ErrConnection, "start_kernel: server returned no kernel id")
	}
	return &kernel, nil
}

func (c *Client) deleteKernel(ctx context.Context, id string) error {
	resp, err := c.send(ctx, "stop_kernel", func(r *resty.Request) (*resty.Response, error) {
		return r.Delete("/api/kernels/" + url.PathEscape(id))
	})
	if err != nil {
		return err
	}
	// An already-gone kernel is a successful stop.
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound && resp.StatusCode() != http.StatusGone {
		return c.statusError("stop_kernel", resp)
	}
	return nil
}

// kernelGoneLocked handles server-reported kernel death. Caller holds mu.
func (c *Client) kernelGoneLocked() {
	if c.kernel != nil {
		c.logger.Warn("kernel reported gone by server", zap.String("kernel_id", c.kernel.ID))
	}
	c.kernel = nil
	c.kernelState = types.KernelNone
}
