// Package middleware provides the HTTP middleware stack for the API.
//
//   - RequestID: ulid per request, honored from or reflected into headers
//   - CORS: cross-origin policy for the workspace UI
//   - RateLimit: per-IP token buckets with idle-entry sweeping
//   - Auth: optional bearer token checked against a bcrypt hash
//
// Ordering matters: RequestID runs first so every later log line and
// error response can carry the id.
package middleware
