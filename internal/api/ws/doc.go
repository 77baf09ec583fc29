// Package ws streams workspace events to WebSocket subscribers.
//
// A single Hub goroutine owns the client set; handlers publish events
// through Broadcast and never touch connections. Each client gets a
// buffered send queue drained by its own writer; a client that stops
// reading backs its queue up and is dropped so one stalled browser tab
// cannot stall the loop.
//
// Inbound traffic is limited to pings; the stream is one-way otherwise.
package ws
