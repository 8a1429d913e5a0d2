// Package api implements the HTTP REST API for the Gray Logic display service.
//
// This package provides:
//   - REST endpoints for display enumeration and per-display bus statistics
//   - Lifecycle event journal queries with filtering and pagination
//   - System metrics (runtime, MQTT, database pool, aggregated bus counters)
//   - Middleware stack (request ID, logging, recovery, body size limit)
//
// # Architecture
//
// The API server is a read-only operational surface. Display commands and
// requests flow through the MQTT bridge; this server exposes the state of
// the node registry and the event journal to admin tooling and dashboards.
//
// # Graceful Degradation
//
// The server operates without MQTT, InfluxDB, or the journal — the
// corresponding response fields are zeroed or the endpoint reports the
// component as unavailable.
package api
