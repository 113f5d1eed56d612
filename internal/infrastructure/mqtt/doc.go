// Package mqtt wraps paho.mqtt.golang for the optional MQTT ingest bridge.
//
// Producers that cannot hold a WebSocket open may publish the same
// telemetry JSON to noisewatch/telemetry/{deviceId}; the bridge in the
// ingest package subscribes here and feeds the shared processing pipeline.
//
// The client handles reconnection with exponential backoff, restores
// subscriptions after a reconnect, and publishes online/offline status
// (including a Last Will for crash detection) to noisewatch/system/status.
package mqtt
