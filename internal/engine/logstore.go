package engine

import "github.com/codedock/docksearch/internal/domain"

// DefaultLogCapacity bounds the number of retained log entries per session.
const DefaultLogCapacity = 200

// LogStore is an insertion-ordered, capacity-bounded record of log entries.
// Once full, the oldest entries are evicted first. There is no deduplication
// and no reordering by level or timestamp.
type LogStore struct {
	entries  []domain.LogEntry
	capacity int
}

func NewLogStore(capacity int) *LogStore {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogStore{
		entries:  make([]domain.LogEntry, 0, capacity),
		capacity: capacity,
	}
}

// Append adds entry at the tail, evicting from the head until the store is
// back within capacity.
func (s *LogStore) Append(entry domain.LogEntry) {
	s.entries = append(s.entries, entry)
	for len(s.entries) > s.capacity {
		s.entries = s.entries[1:]
	}
}

func (s *LogStore) Len() int {
	return len(s.entries)
}

// Entries returns a copy of the surviving entries in insertion order.
func (s *LogStore) Entries() []domain.LogEntry {
	out := make([]domain.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Reset discards all entries.
func (s *LogStore) Reset() {
	s.entries = s.entries[:0]
}
