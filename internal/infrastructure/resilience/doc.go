// Package resilience implements a three-state circuit breaker.
//
// The remote notebook server is the only out-of-process dependency the
// backend talks to. Every request to it passes through a Breaker so that a
// dead or flapping server fails fast instead of stalling workspace
// operations behind HTTP timeouts.
//
// States follow the usual pattern: Closed passes requests through and
// counts failures, Open rejects immediately until Timeout elapses, and
// HalfOpen admits up to MaxRequests probes before closing again.
package resilience
