// Package http is the JSON API surface. Handlers follow one shape:
// validate the request, call into a domain component, answer with gin.H.
// Domain error kinds map onto status codes in one place (statusFor), so a
// missing notebook is always 404 and an unreachable remote server is
// always 502 no matter which route surfaced it.
//
// Handlers hold no domain state of their own beyond the last export
// timestamp. Everything else lives in the injected store, library,
// reconciler, and remote client; state changes fan out to stream clients
// through the hub.
package http
