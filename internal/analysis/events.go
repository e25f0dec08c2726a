package analysis

import "sync"

// EventLog is a fixed-capacity ring of events, newest overwriting oldest.
type EventLog struct {
	mu     sync.Mutex
	buf    []Event
	pos    int
	filled int
}

// NewEventLog returns a ring retaining capacity events; capacity <= 0
// selects DefaultEventLogSize.
func NewEventLog(capacity int) *EventLog {
	if capacity <= 0 {
		capacity = DefaultEventLogSize
	}
	return &EventLog{buf: make([]Event, capacity)}
}

// Append records an event.
func (l *EventLog) Append(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf[l.pos] = e
	l.pos = (l.pos + 1) % len(l.buf)
	if l.filled < len(l.buf) {
		l.filled++
	}
}

// Len returns the retained event count.
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filled
}

// Recent returns up to n retained events, newest first; n <= 0 returns all
// retained.
func (l *EventLog) Recent(n int) []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > l.filled {
		n = l.filled
	}
	out := make([]Event, 0, n)
	for i := 1; i <= n; i++ {
		idx := (l.pos - i + len(l.buf)) % len(l.buf)
		out = append(out, l.buf[idx])
	}
	return out
}
