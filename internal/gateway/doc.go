// Package gateway runs the receive loop that ties the ROUTER socket to
// the request router and the reply writer.
//
// Run owns the lifecycle:
//   - a reader goroutine pulls multipart messages off the socket in order
//   - each message is split into an envelope and handed to the router, which
//     returns as soon as the request is running
//   - on shutdown in-flight requests get DrainTimeout to finish, queued
//     replies are flushed and only then is the socket closed
package gateway
