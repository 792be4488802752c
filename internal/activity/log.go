// Package activity provides a bounded, in-memory, newest-first log of
// notable tool and component actions. It is observability only: nothing
// is persisted, and a restart discards all history.
package activity

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Status classifies an activity event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
	StatusInfo    Status = "info"
)

// ErrInvalidStatus is returned by Record when the status is outside the
// success/warning/info taxonomy.
var ErrInvalidStatus = errors.New("invalid activity status")

const (
	// DefaultCapacity is the event buffer size used when none is configured.
	DefaultCapacity = 50
	// DefaultRecentLimit is the number of events returned by callers that
	// don't ask for a specific count.
	DefaultRecentLimit = 10
)

// Event is a single recorded action. The timestamp is assigned by the log
// at insertion so recency order always matches insertion order.
type Event struct {
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
}

// Stats reports counters for metrics exposition.
type Stats struct {
	Len      int
	Capacity int
	Recorded int64
	Evicted  int64
	ByStatus map[Status]int64
}

// Log is a capacity-bounded event buffer ordered newest-first. Once the
// buffer is full the oldest event is evicted for each new one recorded.
// Safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	capacity int
	events   []Event

	recorded int64
	evicted  int64
	byStatus map[Status]int64

	// nowFunc allows tests to control timestamps
	nowFunc func() time.Time
}

// NewLog creates a log holding at most capacity events. A non-positive
// capacity selects DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		capacity: capacity,
		events:   make([]Event, 0, capacity),
		byStatus: make(map[Status]int64),
		nowFunc:  time.Now,
	}
}

// Record appends an event with the current timestamp. It fails only when
// status is not one of success/warning/info.
func (l *Log) Record(source, message string, status Status) error {
	switch status {
	case StatusSuccess, StatusWarning, StatusInfo:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ev := Event{
		Source:    source,
		Timestamp: l.nowFunc(),
		Status:    status,
		Message:   message,
	}

	l.events = append([]Event{ev}, l.events...)
	if len(l.events) > l.capacity {
		l.evicted += int64(len(l.events) - l.capacity)
		l.events = l.events[:l.capacity]
	}

	l.recorded++
	l.byStatus[status]++
	return nil
}

// RecordInfo records an event with the default info status.
func (l *Log) RecordInfo(source, message string) {
	l.Record(source, message, StatusInfo)
}

// Recent returns a copy of the newest limit events, most recent first.
// A limit beyond the buffer length returns the whole buffer; a
// non-positive limit returns an empty slice. Recent never fails.
func (l *Log) Recent(limit int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 {
		return []Event{}
	}
	if limit > len(l.events) {
		limit = len(l.events)
	}

	out := make([]Event, limit)
	copy(out, l.events[:limit])
	return out
}

// Len returns the current number of buffered events.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Capacity returns the maximum number of buffered events.
func (l *Log) Capacity() int {
	return l.capacity
}

// Stats returns a point-in-time copy of the log's counters.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	byStatus := make(map[Status]int64, len(l.byStatus))
	for k, v := range l.byStatus {
		byStatus[k] = v
	}

	return Stats{
		Len:      len(l.events),
		Capacity: l.capacity,
		Recorded: l.recorded,
		Evicted:  l.evicted,
		ByStatus: byStatus,
	}
}
