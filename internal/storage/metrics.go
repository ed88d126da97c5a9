package storage

import (
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the outcomes of one pyramid run. It is backed by real
// prometheus counters registered on a private registry — there is no
// HTTP exposition (spec Non-goals exclude network I/O/serving), so
// Snapshot reads the counters back via client_model for the CLI's final
// summary line instead of scraping them over the wire.
type Metrics struct {
	reg         *prometheus.Registry
	written     prometheus.Counter
	symlinked   prometheus.Counter
	borderTiles prometheus.Counter
}

// NewMetrics registers a fresh set of counters.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tmspyramid_tiles_written_total",
			Help: "Tiles PNG-encoded and written as regular files.",
		}),
		symlinked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tmspyramid_tiles_symlinked_total",
			Help: "Tiles that deduplicated to an existing hash via symlink/hardlink/copy.",
		}),
		borderTiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tmspyramid_border_tiles_total",
			Help: "Border tiles submitted (outside the dataset footprint).",
		}),
	}
	reg.MustRegister(m.written, m.symlinked, m.borderTiles)
	return m
}

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	Written     int64
	Symlinked   int64
	BorderTiles int64
}

func readCounter(c prometheus.Counter) int64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return int64(m.GetCounter().GetValue())
}

// Snapshot reads all counters back for logging/summary purposes.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Written:     readCounter(m.written),
		Symlinked:   readCounter(m.symlinked),
		BorderTiles: readCounter(m.borderTiles),
	}
}
