package alert

import (
	"context"
	"time"

	"github.com/noisewatch/noisewatch-core/internal/device"
)

// peerQuietMargin is how far below the threshold every peer must read for
// the peer-consistency rule to fire. A lone loud device among peers all
// reading under threshold-margin is reported as a possible sensor issue.
const peerQuietMargin = 10

// Registry is the view of the device registry the engine needs.
type Registry interface {
	// All returns a snapshot of every device entry.
	All() []device.State

	// PeersOnTable returns all devices sharing tableID except excludeID.
	PeersOnTable(tableID, excludeID string) []device.State
}

// Emitter is the outbound event boundary. Emit is one-way and best-effort:
// no return value, no acknowledgment, no retry.
type Emitter interface {
	Emit(event string, payload any)
}

// Logger defines the logging interface used by the Engine.
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

// Config holds the engine's rule parameters.
type Config struct {
	// NoiseThreshold is the level at or above which a reading exceeds.
	NoiseThreshold float64

	// InactivityWindow is how long a device may stay silent before the
	// sweep reports it offline.
	InactivityWindow time.Duration

	// SweepInterval is the period of the inactivity sweep.
	SweepInterval time.Duration
}

// Engine evaluates alert rules against the device registry.
//
// The threshold and peer-consistency rules are stateless per invocation and
// run once per accepted message via Evaluate. The inactivity rule runs on a
// periodic sweep started with Run. All alerts go out through the Emitter;
// nothing is stored.
//
// Thread Safety: Evaluate is safe for concurrent use; it only reads
// registry snapshots.
type Engine struct {
	cfg      Config
	registry Registry
	emitter  Emitter
	logger   Logger
}

// EventAlert is the event name carrying Alert payloads.
const EventAlert = "alert"

// EventDeviceOffline is the event name carrying OfflineNotice payloads.
const EventDeviceOffline = "device-offline"

// NewEngine creates an alert engine.
//
// Parameters:
//   - cfg: Rule parameters (threshold, inactivity window, sweep interval)
//   - registry: Device registry for peer lookups and the sweep scan
//   - emitter: Outbound event boundary (may not be nil)
//   - logger: Logger instance (nil for no logging)
func NewEngine(cfg Config, registry Registry, emitter Emitter, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		cfg:      cfg,
		registry: registry,
		emitter:  emitter,
		logger:   logger,
	}
}

// Evaluate runs the per-message rules against the post-upsert state of the
// triggering device and emits any resulting alerts.
//
// Rules:
//   - Threshold: noise >= threshold emits noise_exceed. Every qualifying
//     message re-fires; there is no cooldown.
//   - Peer consistency: when the triggering device exceeds and every peer
//     on its table reads below threshold-10, possible_sensor_issue is
//     emitted carrying the full peer list. With zero peers the rule never
//     fires; there is nothing to compare against.
//
// Returns the alerts emitted, in emission order.
func (e *Engine) Evaluate(state device.State) []Alert {
	if state.LastNoiseLevel < e.cfg.NoiseThreshold {
		return nil
	}

	alerts := make([]Alert, 0, 2)

	exceed := Alert{
		Type:       TypeNoiseExceed,
		DeviceID:   state.DeviceID,
		TableID:    state.TableID,
		NoiseLevel: state.LastNoiseLevel,
		SoundType:  state.LastSoundType,
		Timestamp:  state.LastSeen.UnixMilli(),
	}
	alerts = append(alerts, exceed)
	e.emit(exceed)

	if issue, ok := e.evaluatePeers(state); ok {
		alerts = append(alerts, issue)
		e.emit(issue)
	}

	return alerts
}

// evaluatePeers runs the peer-consistency rule. The peer list is a
// best-effort snapshot taken at evaluation time.
func (e *Engine) evaluatePeers(state device.State) (Alert, bool) {
	peers := e.registry.PeersOnTable(state.TableID, state.DeviceID)
	if len(peers) == 0 {
		return Alert{}, false
	}

	quietCeiling := e.cfg.NoiseThreshold - peerQuietMargin
	peerList := make([]Peer, 0, len(peers))
	for _, p := range peers {
		if p.LastNoiseLevel >= quietCeiling {
			return Alert{}, false
		}
		peerList = append(peerList, Peer{DeviceID: p.DeviceID, Noise: p.LastNoiseLevel})
	}

	return Alert{
		Type:       TypeSensorIssue,
		DeviceID:   state.DeviceID,
		TableID:    state.TableID,
		NoiseLevel: state.LastNoiseLevel,
		Peers:      peerList,
	}, true
}

// Run starts the periodic inactivity sweep. It blocks until the context is
// cancelled.
//
// Each sweep scans a registry snapshot and emits device_offline for every
// device whose LastSeen is older than the inactivity window. The notice
// re-fires on every sweep for as long as the device stays silent; consumers
// are expected to be idempotent to repeated notices.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	e.logger.Info("inactivity sweep started",
		"interval", e.cfg.SweepInterval,
		"window", e.cfg.InactivityWindow,
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("inactivity sweep stopped")
			return
		case now := <-ticker.C:
			e.Sweep(now)
		}
	}
}

// Sweep runs one inactivity pass against the registry snapshot, emitting an
// offline notice for every silent device. Exposed for testing and returns
// the notices emitted.
func (e *Engine) Sweep(now time.Time) []OfflineNotice {
	cutoff := now.Add(-e.cfg.InactivityWindow)

	var notices []OfflineNotice
	for _, state := range e.registry.All() {
		if state.LastSeen.After(cutoff) {
			continue
		}
		notice := OfflineNotice{DeviceID: state.DeviceID, TableID: state.TableID}
		notices = append(notices, notice)
		e.emitter.Emit(EventDeviceOffline, notice)
		e.logger.Debug("device offline",
			"device_id", state.DeviceID,
			"table_id", state.TableID,
			"last_seen", state.LastSeen,
		)
	}
	return notices
}

// emit pushes one alert to the boundary and logs it.
func (e *Engine) emit(a Alert) {
	e.emitter.Emit(EventAlert, a)
	e.logger.Info("alert emitted",
		"type", a.Type,
		"device_id", a.DeviceID,
		"table_id", a.TableID,
		"noise", a.NoiseLevel,
	)
}
