// Package progress reports one pyramid level's tile submissions against
// Storage's running write/dedup counters. It is purely a CLI convenience
// — tilelevel and storage never import it; pyramid wires it in through
// Level.OnTile.
package progress

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/geopyramid/tmspyramid/internal/storage"
)

// LevelReporter renders an in-place terminal line for one zoom level,
// tracking tiles submitted against the level's known total alongside how
// many of those submissions Storage actually wrote versus deduplicated
// via symlink. Border tiles dedup almost entirely to the one canonical
// border PNG; interior tiles rarely do, so the split is a more useful
// read on progress than a bare tile count.
type LevelReporter struct {
	zoom      int
	total     int64
	submitted atomic.Int64
	metrics   *storage.Metrics
	baseline  storage.Snapshot
	barWidth  int
	start     time.Time
	done      chan struct{}
	mu        sync.Mutex
}

// NewLevel starts reporting on zoom. metrics is snapshotted once here as
// a baseline, so the written/deduped counts drawn later are this level's
// own contribution rather than the whole run's running total.
func NewLevel(zoom int, total int64, metrics *storage.Metrics) *LevelReporter {
	r := &LevelReporter{
		zoom:     zoom,
		total:    total,
		metrics:  metrics,
		baseline: metrics.Snapshot(),
		barWidth: 30,
		start:    time.Now(),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

// Submit marks one more tile as handed to Storage. Safe for concurrent use.
func (r *LevelReporter) Submit() {
	r.submitted.Add(1)
}

// Finish stops the refresh loop and leaves the final line in place.
func (r *LevelReporter) Finish() {
	close(r.done)
	r.draw()
	fmt.Fprint(os.Stderr, "\n")
}

func (r *LevelReporter) run() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.draw()
		}
	}
}

func (r *LevelReporter) draw() {
	r.mu.Lock()
	defer r.mu.Unlock()

	submitted := r.submitted.Load()
	var frac float64
	if r.total > 0 {
		frac = float64(submitted) / float64(r.total)
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(float64(r.barWidth) * frac)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", r.barWidth-filled)

	now := r.metrics.Snapshot()
	written := now.Written - r.baseline.Written
	deduped := now.Symlinked - r.baseline.Symlinked

	fmt.Fprintf(os.Stderr, "\rz%-2d [%s] %3.0f%%  %d/%d tiles  %d written  %d deduped  %s\033[K",
		r.zoom, bar, frac*100, submitted, r.total, written, deduped, formatDuration(time.Since(r.start)))
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) - m*60
	return fmt.Sprintf("%dm%02ds", m, s)
}
