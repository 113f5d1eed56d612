// Package device provides the Device Registry for NoiseWatch Core.
//
// The Device Registry is the authoritative live-state store for every
// telemetry producer the system has ever seen. Ingest connections write
// into it, the alert engine reads peer groups from it, and the inactivity
// sweep scans it for silent devices.
//
// # Key Types
//
//   - State: the live record for one device (table, last reading, last
//     classification, last-seen timestamp, connection reference)
//   - Update: a partial update where nil fields retain prior values
//   - View: the wire representation used by the snapshot query
//
// # Usage
//
//	registry := device.NewRegistry()
//	registry.SetLogger(log)
//
//	state, err := registry.Upsert("dev-42", device.Update{
//	    TableID:        ptr("T1"),
//	    LastNoiseLevel: ptr(72.5),
//	})
//
//	peers := registry.PeersOnTable(state.TableID, state.DeviceID)
//
// # Growth
//
// Entries are never evicted, matching the authoritative-state design: a
// device that goes silent is reported offline by the sweep, not forgotten.
// The population of device IDs bounds memory in practice; Len() exposes the
// entry count for monitoring.
//
// # Thread Safety
//
// All operations are protected by a read-write mutex. Query methods return
// copies, so callers can hold results across slow operations (WebSocket
// broadcasts, peer comparisons) without holding the registry lock.
package device
