// Package api implements the HTTP API and WebSocket relay for the
// inventory service.
//
// This package provides:
//   - the entity application (list, create, delete, show, insert), mounted
//     under every prefix configured in api.mounts
//   - service endpoints: /__version__, /__meta__, /__metrics__, /__audit__
//     and /health
//   - a WebSocket hub relaying entity events at websocket.path
//   - middleware (request ID, logging, recovery, CORS, body limit, metrics)
//
// # Wire format
//
// Response bodies are JSON indented with four spaces. Objects have sorted
// keys. Errors are a single JSON string carrying the message.
//
// # Events
//
// Every completed mutation is fanned out to WebSocket subscribers, to the
// MQTT bus when connected, to InfluxDB when enabled and to the audit trail.
// None of these sinks can fail a request.
//
// # Graceful Degradation
//
// MQTT, InfluxDB and the audit trail are optional. The entity application
// only needs the entity service and the driver registry.
package api
