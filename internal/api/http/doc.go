// Package http provides the REST handlers for the attention service.
//
// Reads go straight to the store; every mutation is submitted through the
// intent coordinator so HTTP, WebSocket and in-process callers share one
// ordered queue.
//
// Endpoints:
//   - GET /, GET /health
//   - GET /context, PUT /context, PUT /context/modality
//   - GET /elements, POST /elements, PUT /elements/:id, DELETE /elements/:id
//   - POST /allocate
//   - GET /metrics, GET /metrics/json
package http
