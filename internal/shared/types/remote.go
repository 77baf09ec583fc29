package types

import "time"

// ConnState tracks the connection lifecycle of the remote session client
type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
)

// KernelState tracks the kernel lifecycle sub-machine. A connected client
// holds at most one active kernel.
type KernelState string

const (
	KernelNone     KernelState = "none"
	KernelStarting KernelState = "starting"
	KernelRunning  KernelState = "running"
	KernelStopping KernelState = "stopping"
)

// Kernel is a remote kernel handle as reported by the server
type Kernel struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ExecutionState string `json:"execution_state,omitempty"`
}

// RemoteSession tracks one cell's remote execution. Sessions are ephemeral:
// created on first execution attempt for a cell, dropped with the client,
// never persisted into the notebook.
type RemoteSession struct {
	ID             string    `json:"id"`
	CellID         string    `json:"cell_id"`
	IsExecuting    bool      `json:"is_executing"`
	ExecutionCount int       `json:"execution_count"`
	Outputs        []Output  `json:"outputs"`
	Error          string    `json:"error,omitempty"`
	Abandoned      bool      `json:"abandoned,omitempty"`
	LastRunAt      time.Time `json:"last_run_at,omitempty"`
}

// Clone returns a copy safe to hand across the client's lock boundary
func (s RemoteSession) Clone() RemoteSession {
	out := s
	out.Outputs = append([]Output(nil), s.Outputs...)
	return out
}

// ConnStatus is a point-in-time snapshot of the client state machine
type ConnStatus struct {
	State           ConnState   `json:"state"`
	ConnectionError string      `json:"connection_error,omitempty"`
	BaseURL         string      `json:"base_url,omitempty"`
	KernelState     KernelState `json:"kernel_state"`
	Kernel          *Kernel     `json:"kernel,omitempty"`
	Sessions        int         `json:"sessions"`
}
