// Package server provides the HTTP front of sttd: a Gin engine on a
// ServeMux behind h2c, wrapped by a server-level middleware stack.
//
// Middleware (server/middleware): Recovery, RequestID, Tracing, CORS,
// BodySizeLimit and RequestLogger apply to every route. RateLimit is a Gin
// handler for transcription routes.
//
// Endpoints (server/endpoint):
//
//   - /health: component health aggregation, 503 when a component is down
//   - /health/live: liveness probe
//   - /health/ready: readiness probe
//   - /info: build information
//   - /metrics: Prometheus scrape handler
package server
