package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/noisewatch/noisewatch-core/internal/device"
)

// Message is the telemetry payload producers send over the ingest
// WebSocket or the MQTT bridge. All fields except DeviceID are optional;
// absent fields leave the corresponding registry state untouched.
type Message struct {
	DeviceID      string         `json:"deviceId"`
	TableID       *string        `json:"tableId,omitempty"`
	NoiseLevel    *float64       `json:"noiseLevel,omitempty"`
	AudioFeatures *AudioFeatures `json:"audioFeatures,omitempty"`

	// SoundType is a producer-supplied label, used only when no feature
	// vector is present.
	SoundType *string `json:"soundType,omitempty"`

	// Timestamp is epoch milliseconds. When absent the server's receive
	// time is used.
	Timestamp *int64 `json:"timestamp,omitempty"`
}

// AudioFeatures is the optional feature vector attached to a reading.
// Absent members are filled with the classifier defaults.
type AudioFeatures struct {
	LowFreqEnergy  *float64 `json:"lowFreqEnergy,omitempty"`
	MidFreqEnergy  *float64 `json:"midFreqEnergy,omitempty"`
	HighFreqEnergy *float64 `json:"highFreqEnergy,omitempty"`
	Volatility     *float64 `json:"volatility,omitempty"`
}

// decodeMessage parses a raw payload into a Message.
//
// Returns ErrMalformedPayload for invalid JSON and
// device.ErrMissingDeviceID when the deviceId field is absent or empty.
func decodeMessage(raw []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if msg.DeviceID == "" {
		return Message{}, device.ErrMissingDeviceID
	}
	return msg, nil
}
