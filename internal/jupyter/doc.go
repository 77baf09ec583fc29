// Package jupyter is the client for a remote Jupyter-style notebook server.
//
// The client owns three pieces of state behind one lock: the connection
// machine (disconnected, connecting, connected), at most one kernel handle
// with its own lifecycle sub-machine, and a table of per-cell execution
// sessions. Every public operation takes a context and degrades to an
// observable state change on failure: connection errors land in the status
// snapshot, execution errors land on the cell's RemoteSession, and the
// error is also returned to the caller.
//
// Transport composes resty over a pooled retryablehttp transport, guarded
// by a token-bucket limiter and a circuit breaker. Only idempotent GETs
// retry; kernel and execute POSTs are issued at most once.
//
// Consumed server surface:
//
//	GET    /api/contents?type=notebook
//	GET    /api/contents/{path}?content=1
//	POST   /api/kernels
//	DELETE /api/kernels/{id}
//	POST   /api/kernels/{id}/execute
//
// Close drops local state only; callers that want the remote kernel torn
// down call StopKernel first.
package jupyter
