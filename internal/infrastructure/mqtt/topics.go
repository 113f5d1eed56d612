package mqtt

import "fmt"

// Topic prefixes for the NoiseWatch MQTT hierarchy.
const (
	// TopicPrefix is the base for all NoiseWatch topics.
	TopicPrefix = "noisewatch"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "noisewatch/system"
)

// Topics provides builders for NoiseWatch MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
type Topics struct{}

// Telemetry returns the topic a producer publishes readings for one device to.
//
// Example: noisewatch/telemetry/dev-42
func (Topics) Telemetry(deviceID string) string {
	return fmt.Sprintf("%s/telemetry/%s", TopicPrefix, deviceID)
}

// AllTelemetry returns a pattern matching all producer telemetry.
//
// Pattern: noisewatch/telemetry/+
func (Topics) AllTelemetry() string {
	return fmt.Sprintf("%s/telemetry/+", TopicPrefix)
}

// SystemStatus returns the core status topic.
//
// Example: noisewatch/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
