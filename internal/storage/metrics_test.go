package storage

import "testing"

func TestSnapshotStartsAtZero(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()
	if snap.Written != 0 || snap.Symlinked != 0 || snap.BorderTiles != 0 {
		t.Errorf("fresh Metrics should snapshot to zero, got %+v", snap)
	}
}

func TestSnapshotReflectsIncrements(t *testing.T) {
	m := NewMetrics()
	m.written.Inc()
	m.written.Inc()
	m.symlinked.Inc()
	m.borderTiles.Inc()

	snap := m.Snapshot()
	if snap.Written != 2 || snap.Symlinked != 1 || snap.BorderTiles != 1 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}
