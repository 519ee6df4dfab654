// Package ws provides the devtools stream over WebSocket.
//
// Server frames:
//   - snapshot: sent on connect, after every store change and on each poll
//     tick; carries the connection ID
//   - pong, error
//
// Client frames: ping, update_context, set_modality, refresh. Mutations are
// submitted through the intent coordinator.
//
// Each connection has one writer goroutine. Store changes only mark the
// connection dirty, so a slow client skips intermediate snapshots instead
// of holding up the store.
package ws
