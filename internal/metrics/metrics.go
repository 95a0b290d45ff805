package metrics

import "sync/atomic"

// MetricID indexes one counter slot. The root package owns the ID namespace;
// this package only needs the slot count at construction time.
type MetricID uint16

// Config controls metric recording.
type Config struct {
	Enabled bool
	Slots   int
}

// Metrics holds atomic counters. When disabled (or nil) every operation is a
// no-op, so callers never branch on enablement.
type Metrics struct {
	enabled  bool
	counters []atomic.Uint64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters map[MetricID]uint64
}

func New(cfg Config) *Metrics {
	if !cfg.Enabled || cfg.Slots <= 0 {
		return &Metrics{}
	}
	return &Metrics{
		enabled:  true,
		counters: make([]atomic.Uint64, cfg.Slots),
	}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || int(id) >= len(m.counters) {
		return
	}
	m.counters[id].Add(1)
}

func (m *Metrics) Add(id MetricID, delta uint64) {
	if m == nil || !m.enabled || int(id) >= len(m.counters) {
		return
	}
	m.counters[id].Add(delta)
}

func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || !m.enabled || int(id) >= len(m.counters) {
		return 0
	}
	return m.counters[id].Load()
}

func (m *Metrics) Snapshot() Snapshot {
	snap := Snapshot{Counters: make(map[MetricID]uint64, len(m.countersOrNil()))}
	for i := range m.countersOrNil() {
		if v := m.counters[i].Load(); v != 0 {
			snap.Counters[MetricID(i)] = v
		}
	}
	return snap
}

func (m *Metrics) countersOrNil() []atomic.Uint64 {
	if m == nil || !m.enabled {
		return nil
	}
	return m.counters
}
