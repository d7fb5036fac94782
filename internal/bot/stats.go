package bot

import (
	"sync"
	"time"
)

// Stats tracks relay counters across requests. It is the only state shared
// between handler goroutines and the status server.
type Stats struct {
	mu           sync.Mutex
	startedAt    time.Time
	served       uint64
	failed       uint64
	bytesRelayed int64
}

// NewStats creates a Stats with the uptime clock started now
func NewStats() *Stats {
	return &Stats{startedAt: time.Now()}
}

// RecordSuccess counts one relayed payload of the given size
func (s *Stats) RecordSuccess(bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.served++
	s.bytesRelayed += bytes
}

// RecordFailure counts one failed request
func (s *Stats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// Snapshot is a point-in-time copy of the counters
type Snapshot struct {
	Uptime       time.Duration `json:"-"`
	UptimeSec    int64         `json:"uptime_seconds"`
	Served       uint64        `json:"served"`
	Failed       uint64        `json:"failed"`
	BytesRelayed int64         `json:"bytes_relayed"`
}

// Snapshot returns a consistent copy of the counters
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	up := time.Since(s.startedAt)
	return Snapshot{
		Uptime:       up,
		UptimeSec:    int64(up.Seconds()),
		Served:       s.served,
		Failed:       s.failed,
		BytesRelayed: s.bytesRelayed,
	}
}
