// Package transport owns the ZeroMQ ROUTER socket.
//
// Inbound messages are split into identity, delimiter and payload frames.
// Outbound replies go through a Writer: handlers append envelopes to an
// unbounded outbox and a single goroutine drains it onto the socket, so
// multipart frames from concurrent replies never interleave.
package transport
