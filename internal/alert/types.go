package alert

// Type identifies the alert variant.
type Type string

// Alert types emitted by the engine.
const (
	// TypeNoiseExceed fires when a reading is at or above the configured
	// threshold. Re-fires on every qualifying message; no hysteresis.
	TypeNoiseExceed Type = "noise_exceed"

	// TypeSensorIssue fires when one device reads at or above the threshold
	// while every peer at the same table reads well below it, suggesting a
	// faulty sensor rather than genuine ambient noise.
	TypeSensorIssue Type = "possible_sensor_issue"

	// TypeDeviceOffline fires from the inactivity sweep for devices whose
	// last accepted message is older than the inactivity window. Re-fires
	// on every sweep while the device stays silent.
	TypeDeviceOffline Type = "device_offline"
)

// Peer is one same-table device included in a sensor-issue alert.
type Peer struct {
	DeviceID string  `json:"deviceId"`
	Noise    float64 `json:"noise"`
}

// Alert is a single emitted alert. Alerts are transient: they are pushed to
// consumers and never stored or deduplicated.
type Alert struct {
	Type       Type    `json:"type"`
	DeviceID   string  `json:"deviceId"`
	TableID    string  `json:"tableId,omitempty"`
	NoiseLevel float64 `json:"noiseLevel"`
	SoundType  string  `json:"soundType,omitempty"`
	Timestamp  int64   `json:"timestamp,omitempty"` // epoch milliseconds
	Peers      []Peer  `json:"peers,omitempty"`
}

// OfflineNotice is the payload of a device-offline event.
type OfflineNotice struct {
	DeviceID string `json:"deviceId"`
	TableID  string `json:"tableId"`
}
