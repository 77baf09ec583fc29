package jupyter

import (
	"sort"

	"github.com/google/uuid"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// sessionLocked returns the session for cellID, creating it on first use.
// Caller holds c.mu.
func (c *Client) sessionLocked(cellID string) *types.RemoteSession {
	if sess, ok := c.sessions[cellID]; ok {
		return sess
	}
	sess := &types.RemoteSession{
		ID:      uuid.NewString(),
		CellID:  cellID,
		Outputs: []types.Output{},
	}
	c.sessions[cellID] = sess
	return sess
}

// Session returns a snapshot of one cell's execution session.
func (c *Client) Session(cellID string) (types.RemoteSession, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sess, ok := c.sessions[cellID]
	if !ok {
		return types.RemoteSession{}, false
	}
	return sess.Clone(), true
}

// Sessions returns snapshots of every session, ordered by cell id.
func (c *Client) Sessions() []types.RemoteSession {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]types.RemoteSession, 0, len(c.sessions))
	for _, sess := range c.sessions {
		out = append(out, sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CellID < out[j].CellID })
	return out
}

// AbandonAll marks every session abandoned and clears execution flags.
// Used at teardown so in-flight work is visibly orphaned, not leaked.
func (c *Client) AbandonAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, sess := range c.sessions {
		sess.Abandoned = true
		sess.IsExecuting = false
	}
}
