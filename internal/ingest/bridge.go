package ingest

import (
	"github.com/noisewatch/noisewatch-core/internal/infrastructure/mqtt"
)

// Subscriber is the slice of the MQTT client the bridge needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// StartBridge subscribes the shared pipeline to producer telemetry topics.
//
// Producers that cannot hold a WebSocket open publish the same JSON
// payload to noisewatch/telemetry/{deviceId}; every message goes through
// the identical decode/classify/upsert/alert path as WebSocket traffic.
// MQTT messages carry no connection ID, so they never touch the liveness
// machinery — inactivity is still detected through lastSeen.
//
// Parameters:
//   - client: Connected MQTT client
//   - qos: QoS level for the telemetry subscription
//   - pipeline: Shared message processing pipeline
//   - logger: Logger instance (nil for no logging)
//
// Returns:
//   - error: If the subscription cannot be established
func StartBridge(client Subscriber, qos byte, pipeline *Pipeline, logger Logger) error {
	if logger == nil {
		logger = noopLogger{}
	}

	topic := mqtt.Topics{}.AllTelemetry()
	err := client.Subscribe(topic, qos, func(topic string, payload []byte) error {
		if _, err := pipeline.Process(payload, ""); err != nil {
			logger.Warn("mqtt telemetry rejected", "topic", topic, "error", err)
		}
		// Per-message isolation: a bad payload never tears down the bridge.
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("mqtt ingest bridge started", "topic", topic)
	return nil
}
