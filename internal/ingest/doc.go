// Package ingest is the producer-facing boundary of NoiseWatch Core.
//
// Producers are ephemeral devices pushing telemetry over a WebSocket (or,
// optionally, MQTT). Every raw payload flows through one shared Pipeline:
//
//	decode -> classify -> registry upsert -> device-data event -> alert rules
//
// The WebSocket server additionally runs a two-state liveness machine per
// connection: payload traffic or a pong marks the connection alive, each
// sweep clears the flag and sends a ping, and a connection found dead at
// the following sweep is terminated. Closing a connection never removes
// the device state it carried; offline detection is the registry sweep's
// job.
//
// Malformed payloads and payloads without a device ID are logged and
// skipped without closing the carrying connection.
package ingest
