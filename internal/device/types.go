package device

import "time"

// State is the authoritative live record for one producer device.
// One entry exists per distinct device ID ever seen; entries are created on
// first sighting and never removed. Connection closure leaves the entry
// intact so the inactivity sweep can still report the device offline.
type State struct {
	// DeviceID is the unique key, assigned by the remote producer.
	DeviceID string `json:"deviceId"`

	// TableID is the logical grouping key (physical location). It may change
	// on a later message; last write wins.
	TableID string `json:"tableId,omitempty"`

	// LastSeen is the timestamp of the most recent accepted message.
	LastSeen time.Time `json:"lastSeen"`

	// LastNoiseLevel is the last reported noise reading. Producer units,
	// typically 0-120; not validated against a hard range.
	LastNoiseLevel float64 `json:"noiseLevel"`

	// LastSoundType is the last classifier output, or a producer-supplied
	// fallback label.
	LastSoundType string `json:"soundType,omitempty"`

	// ConnectionID identifies the live ingest connection that most recently
	// carried traffic for this device. It is an opaque, non-owning reference;
	// a reconnect overwrites it and closing the connection does not clear it.
	ConnectionID string `json:"-"`
}

// Update is a partial update applied by Upsert. Nil fields retain the prior
// value; set fields are total overwrites of that field.
type Update struct {
	TableID        *string
	LastSeen       *time.Time
	LastNoiseLevel *float64
	LastSoundType  *string
	ConnectionID   *string
}

// View is the wire representation of a device entry returned by the
// snapshot query and pushed to consumers on connect.
type View struct {
	DeviceID   string  `json:"deviceId"`
	TableID    string  `json:"tableId"`
	NoiseLevel float64 `json:"noiseLevel"`
	SoundType  string  `json:"soundType"`
	LastSeen   int64   `json:"lastSeen"` // epoch milliseconds
}

// View returns the wire representation of the state.
func (s State) View() View {
	return View{
		DeviceID:   s.DeviceID,
		TableID:    s.TableID,
		NoiseLevel: s.LastNoiseLevel,
		SoundType:  s.LastSoundType,
		LastSeen:   s.LastSeen.UnixMilli(),
	}
}
