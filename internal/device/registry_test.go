package device

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func strPtr(s string) *string       { return &s }
func floatPtr(f float64) *float64   { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func TestUpsert_CreatesEntry(t *testing.T) {
	r := NewRegistry()

	state, err := r.Upsert("d1", Update{
		TableID:        strPtr("T1"),
		LastNoiseLevel: floatPtr(42),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if state.DeviceID != "d1" {
		t.Errorf("DeviceID = %q, want %q", state.DeviceID, "d1")
	}
	if state.TableID != "T1" {
		t.Errorf("TableID = %q, want %q", state.TableID, "T1")
	}
	if state.LastNoiseLevel != 42 {
		t.Errorf("LastNoiseLevel = %v, want 42", state.LastNoiseLevel)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

func TestUpsert_MissingID(t *testing.T) {
	r := NewRegistry()

	_, err := r.Upsert("", Update{})
	if !errors.Is(err, ErrMissingDeviceID) {
		t.Errorf("Upsert(\"\") error = %v, want ErrMissingDeviceID", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestUpsert_PartialUpdateRetainsFields(t *testing.T) {
	r := NewRegistry()

	seen := time.Now()
	_, err := r.Upsert("d1", Update{
		TableID:        strPtr("T1"),
		LastNoiseLevel: floatPtr(50),
		LastSoundType:  strPtr("speech"),
		LastSeen:       timePtr(seen),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	// Update only the noise level; other fields must survive.
	state, err := r.Upsert("d1", Update{LastNoiseLevel: floatPtr(70)})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if state.TableID != "T1" {
		t.Errorf("TableID = %q, want retained %q", state.TableID, "T1")
	}
	if state.LastSoundType != "speech" {
		t.Errorf("LastSoundType = %q, want retained %q", state.LastSoundType, "speech")
	}
	if !state.LastSeen.Equal(seen) {
		t.Errorf("LastSeen = %v, want retained %v", state.LastSeen, seen)
	}
	if state.LastNoiseLevel != 70 {
		t.Errorf("LastNoiseLevel = %v, want 70", state.LastNoiseLevel)
	}
}

func TestUpsert_Idempotent(t *testing.T) {
	r := NewRegistry()

	update := Update{
		TableID:        strPtr("T2"),
		LastNoiseLevel: floatPtr(61.5),
		LastSoundType:  strPtr("music"),
	}

	first, err := r.Upsert("d1", update)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	second, err := r.Upsert("d1", update)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if first != second {
		t.Errorf("repeated Upsert differs: first=%+v second=%+v", first, second)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (no duplication)", r.Len())
	}
}

func TestUpsert_ReconnectOverwritesConnection(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Upsert("d1", Update{ConnectionID: strPtr("conn-a")}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	state, err := r.Upsert("d1", Update{ConnectionID: strPtr("conn-b")})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if state.ConnectionID != "conn-b" {
		t.Errorf("ConnectionID = %q, want %q", state.ConnectionID, "conn-b")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Get("absent"); ok {
		t.Error("Get() on empty registry reported an entry")
	}

	if _, err := r.Upsert("d1", Update{TableID: strPtr("T1")}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	state, ok := r.Get("d1")
	if !ok {
		t.Fatal("Get() did not find upserted entry")
	}
	if state.TableID != "T1" {
		t.Errorf("TableID = %q, want %q", state.TableID, "T1")
	}
}

func TestAll_SnapshotIsolation(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Upsert("d1", Update{LastNoiseLevel: floatPtr(40)}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	snapshot := r.All()
	if len(snapshot) != 1 {
		t.Fatalf("All() returned %d entries, want 1", len(snapshot))
	}

	// Mutating the registry after the snapshot must not change it.
	if _, err := r.Upsert("d1", Update{LastNoiseLevel: floatPtr(99)}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if snapshot[0].LastNoiseLevel != 40 {
		t.Errorf("snapshot entry mutated: LastNoiseLevel = %v, want 40", snapshot[0].LastNoiseLevel)
	}
}

func TestPeersOnTable(t *testing.T) {
	r := NewRegistry()

	mustUpsert := func(id, table string, noise float64) {
		t.Helper()
		if _, err := r.Upsert(id, Update{TableID: strPtr(table), LastNoiseLevel: floatPtr(noise)}); err != nil {
			t.Fatalf("Upsert(%q) error = %v", id, err)
		}
	}

	mustUpsert("d1", "T1", 80)
	mustUpsert("d2", "T1", 30)
	mustUpsert("d3", "T1", 45)
	mustUpsert("d4", "T2", 90)

	peers := r.PeersOnTable("T1", "d1")
	if len(peers) != 2 {
		t.Fatalf("PeersOnTable(T1, d1) returned %d peers, want 2", len(peers))
	}
	for _, p := range peers {
		if p.DeviceID == "d1" {
			t.Error("PeersOnTable included the excluded device")
		}
		if p.TableID != "T1" {
			t.Errorf("peer %s has TableID %q, want T1", p.DeviceID, p.TableID)
		}
	}

	if got := r.PeersOnTable("T3", "d1"); len(got) != 0 {
		t.Errorf("PeersOnTable on empty table returned %d peers, want 0", len(got))
	}
	if got := r.PeersOnTable("", "d1"); len(got) != 0 {
		t.Errorf("PeersOnTable with empty table ID returned %d peers, want 0", len(got))
	}
}

func TestViews(t *testing.T) {
	r := NewRegistry()

	seen := time.Now()
	if _, err := r.Upsert("d1", Update{
		TableID:        strPtr("T1"),
		LastNoiseLevel: floatPtr(55),
		LastSoundType:  strPtr("speech"),
		LastSeen:       timePtr(seen),
	}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	views := r.Views()
	v, ok := views["d1"]
	if !ok {
		t.Fatal("Views() missing d1")
	}
	if v.NoiseLevel != 55 || v.SoundType != "speech" || v.TableID != "T1" {
		t.Errorf("View = %+v, want noise=55 sound=speech table=T1", v)
	}
	if v.LastSeen != seen.UnixMilli() {
		t.Errorf("View.LastSeen = %d, want %d", v.LastSeen, seen.UnixMilli())
	}
}

func TestRegistry_ConcurrentUpserts(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			noise := float64(n)
			if _, err := r.Upsert("shared", Update{LastNoiseLevel: &noise}); err != nil {
				t.Errorf("Upsert() error = %v", err)
			}
			r.All()
			r.PeersOnTable("T1", "shared")
		}(i)
	}
	wg.Wait()

	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}
