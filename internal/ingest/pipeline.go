package ingest

import (
	"time"

	"github.com/noisewatch/noisewatch-core/internal/alert"
	"github.com/noisewatch/noisewatch-core/internal/classify"
	"github.com/noisewatch/noisewatch-core/internal/device"
)

// EventDeviceData is the event name carrying TelemetryEvent payloads.
const EventDeviceData = "device-data"

// TelemetryEvent is the outbound payload emitted for every accepted
// message, carrying the post-update state of the reporting device.
type TelemetryEvent struct {
	DeviceID   string  `json:"deviceId"`
	TableID    string  `json:"tableId"`
	NoiseLevel float64 `json:"noiseLevel"`
	SoundType  string  `json:"soundType"`
	Timestamp  int64   `json:"timestamp"` // epoch milliseconds
}

// Registry is the view of the device registry the pipeline needs.
type Registry interface {
	Upsert(deviceID string, update device.Update) (device.State, error)
}

// Alerter runs the per-message alert rules against post-update state.
type Alerter interface {
	Evaluate(state device.State) []alert.Alert
}

// Emitter is the outbound event boundary. Emit is one-way and best-effort.
type Emitter interface {
	Emit(event string, payload any)
}

// Logger defines the logging interface used by the ingest package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Pipeline is the shared per-message processing path. Both the WebSocket
// server and the MQTT bridge feed raw payloads through it: decode,
// classify, update the registry, emit the telemetry event, then run the
// alert rules.
//
// Thread Safety: Process is safe for concurrent use; all shared state
// lives behind the registry.
type Pipeline struct {
	registry Registry
	alerts   Alerter
	emitter  Emitter
	logger   Logger
	now      func() time.Time
}

// NewPipeline creates the message processing pipeline.
//
// Parameters:
//   - registry: Device registry receiving state updates
//   - alerts: Alert engine run after each accepted message
//   - emitter: Outbound event boundary (may not be nil)
//   - logger: Logger instance (nil for no logging)
func NewPipeline(registry Registry, alerts Alerter, emitter Emitter, logger Logger) *Pipeline {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Pipeline{
		registry: registry,
		alerts:   alerts,
		emitter:  emitter,
		logger:   logger,
		now:      time.Now,
	}
}

// Process handles one raw producer payload.
//
// The payload is decoded, labelled, applied to the registry, emitted as a
// device-data event and finally evaluated against the alert rules. connID
// identifies the carrying WebSocket connection; the MQTT bridge passes an
// empty string.
//
// Errors are per-message and never fatal to the carrying connection:
// ErrMalformedPayload for invalid JSON, device.ErrMissingDeviceID for a
// missing device ID.
//
// Returns the post-update device state on success.
func (p *Pipeline) Process(raw []byte, connID string) (device.State, error) {
	msg, err := decodeMessage(raw)
	if err != nil {
		return device.State{}, err
	}

	lastSeen := p.now()
	if msg.Timestamp != nil {
		lastSeen = time.UnixMilli(*msg.Timestamp)
	}

	update := device.Update{
		TableID:        msg.TableID,
		LastSeen:       &lastSeen,
		LastNoiseLevel: msg.NoiseLevel,
	}

	label := p.label(msg)
	update.LastSoundType = &label

	if connID != "" {
		update.ConnectionID = &connID
	}

	state, err := p.registry.Upsert(msg.DeviceID, update)
	if err != nil {
		return device.State{}, err
	}

	p.emitter.Emit(EventDeviceData, TelemetryEvent{
		DeviceID:   state.DeviceID,
		TableID:    state.TableID,
		NoiseLevel: state.LastNoiseLevel,
		SoundType:  state.LastSoundType,
		Timestamp:  state.LastSeen.UnixMilli(),
	})

	p.alerts.Evaluate(state)

	return state, nil
}

// label derives the sound label for one message. A feature vector always
// wins over a producer-supplied label; with neither present the reading is
// labelled unknown.
func (p *Pipeline) label(msg Message) string {
	if msg.AudioFeatures != nil {
		noise := 0.0
		if msg.NoiseLevel != nil {
			noise = *msg.NoiseLevel
		}
		f := classify.NewFeatures(noise,
			msg.AudioFeatures.LowFreqEnergy,
			msg.AudioFeatures.MidFreqEnergy,
			msg.AudioFeatures.HighFreqEnergy,
			msg.AudioFeatures.Volatility,
		)
		return classify.Classify(f)
	}
	if msg.SoundType != nil && *msg.SoundType != "" {
		return *msg.SoundType
	}
	return classify.LabelUnknown
}
