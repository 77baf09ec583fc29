package jupyter

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/orrery-labs/orrery/backend/internal/domain/notebook"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

type executeRequest struct {
	Code string `json:"code"`
}

type executeResponse struct {
	Status         string         `json:"status"`
	ExecutionCount int            `json:"execution_count"`
	Outputs        []types.Output `json:"outputs"`
}

// ExecuteCell runs code against the kernel on behalf of one cell and
// records the outcome on that cell's session. The session's isExecuting
// flag is set before the request goes out and cleared once it settles,
// success or failure alike. Without a running kernel the attempt is
// rejected and the rejection recorded. HTML payloads in the returned
// outputs are sanitized before they land on the session, since sessions
// are served to callers and broadcast to stream clients.
//
// The returned snapshot reflects the session after the attempt; errors are
// both recorded on it and returned.
func (c *Client) ExecuteCell(ctx context.Context, cellID, code string) (types.RemoteSession, error) {
	c.mu.Lock()
	sess := c.sessionLocked(cellID)
	if c.kernelState != types.KernelRunning || c.kernel == nil {
		err := types.NewError(types.ErrKernelUnavailable, "no running kernel")
		sess.Error = err.Error()
		snap := sess.Clone()
		c.mu.Unlock()
		c.recordExecution("rejected")
		return snap, err
	}
	kernelID := c.kernel.ID
	sess.IsExecuting = true
	sess.Error = ""
	c.mu.Unlock()

	resp, err := c.send(ctx, "execute_cell", func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(executeRequest{Code: code}).
			Post("/api/kernels/" + url.PathEscape(kernelID) + "/execute")
	})

	var result executeResponse
	var execErr error
	switch {
	case err != nil:
		execErr = err
	case resp.StatusCode() == http.StatusNotFound || resp.StatusCode() == http.StatusGone:
		execErr = types.NewError(types.ErrKernelUnavailable, "kernel no longer exists on server")
	case resp.IsError():
		execErr = c.statusError("execute_cell", resp)
	default:
		execErr = decodeBody("execute_cell", resp, &result)
	}

	c.mu.Lock()
	sess = c.sessionLocked(cellID)
	sess.IsExecuting = false
	sess.LastRunAt = time.Now().UTC()
	if execErr != nil {
		sess.Error = execErr.Error()
		if kind, ok := types.KindOf(execErr); ok && kind == types.ErrKernelUnavailable {
			c.kernelGoneLocked()
		}
	} else {
		sess.Outputs = notebook.SanitizeOutputs(append([]types.Output(nil), result.Outputs...))
		sess.ExecutionCount++
		sess.Error = ""
		if fail := notebook.ErrorFromOutputs(result.Outputs); fail != nil {
			sess.Error = fail.Error()
			execErr = fail
		}
	}
	snap := sess.Clone()
	c.mu.Unlock()

	if execErr != nil {
		c.recordExecution("error")
		return snap, execErr
	}
	c.recordExecution("ok")
	return snap, nil
}

func (c *Client) recordExecution(status string) {
	if c.metrics != nil {
		c.metrics.RecordExecution(status)
	}
}
