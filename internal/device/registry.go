package device

import (
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Registry is the shared keyed store of per-device state.
//
// Every ingest connection writes into the registry and the alert engine and
// periodic sweeps read from it, so all access is serialised behind a
// read-write mutex. Query methods copy entries out; callers never receive a
// reference into the internal map, and iteration never observes concurrent
// mutation.
//
// Entries are never deleted. Connection closure leaves an entry intact, and
// the inactivity sweep only reads LastSeen; stale entries are reported
// offline rather than evicted.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*State
	logger  Logger
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*State),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Upsert creates or updates the entry for deviceID and returns the
// post-update state.
//
// Only the fields set in the update are overwritten; nil fields retain
// their prior values. Applying the same update twice yields identical
// final state.
//
// Returns ErrMissingDeviceID if deviceID is empty.
func (r *Registry) Upsert(deviceID string, update Update) (State, error) {
	if deviceID == "" {
		return State{}, ErrMissingDeviceID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.devices[deviceID]
	if !ok {
		entry = &State{DeviceID: deviceID}
		r.devices[deviceID] = entry
		r.logger.Info("device registered", "device_id", deviceID)
	}

	if update.TableID != nil {
		entry.TableID = *update.TableID
	}
	if update.LastSeen != nil {
		entry.LastSeen = *update.LastSeen
	}
	if update.LastNoiseLevel != nil {
		entry.LastNoiseLevel = *update.LastNoiseLevel
	}
	if update.LastSoundType != nil {
		entry.LastSoundType = *update.LastSoundType
	}
	if update.ConnectionID != nil {
		entry.ConnectionID = *update.ConnectionID
	}

	return *entry, nil
}

// Get retrieves the state for a device ID. The second return value reports
// whether the device has ever been seen.
func (r *Registry) Get(deviceID string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.devices[deviceID]
	if !ok {
		return State{}, false
	}
	return *entry, true
}

// All returns a snapshot of every entry. The snapshot is a copy taken under
// the lock; it does not reflect mutations made after it is taken.
func (r *Registry) All() []State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]State, 0, len(r.devices))
	for _, entry := range r.devices {
		entries = append(entries, *entry)
	}
	return entries
}

// PeersOnTable returns a snapshot of all devices sharing tableID, excluding
// excludeID. An empty tableID never matches: devices that have not reported
// a table have no peers.
func (r *Registry) PeersOnTable(tableID, excludeID string) []State {
	if tableID == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var peers []State
	for _, entry := range r.devices {
		if entry.DeviceID == excludeID {
			continue
		}
		if entry.TableID == tableID {
			peers = append(peers, *entry)
		}
	}
	return peers
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Views returns the wire representation of every entry keyed by device ID,
// for the snapshot query.
func (r *Registry) Views() map[string]View {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make(map[string]View, len(r.devices))
	for id, entry := range r.devices {
		views[id] = entry.View()
	}
	return views
}
