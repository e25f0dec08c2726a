package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/virtualloop/internal/annotation"
	"github.com/banshee-data/virtualloop/internal/geometry"
	"github.com/banshee-data/virtualloop/internal/timeutil"
)

const (
	// DefaultRememberedIDs bounds the object/trigger pairs remembered for
	// crossing dedup; the oldest pair is evicted past this.
	DefaultRememberedIDs = 1000
	// DefaultEventLogSize is the retained first-crossing event count.
	DefaultEventLogSize = 100
)

// Event statuses: an object's first contact with a trigger is reported as
// triggered, every further contact as ongoing.
const (
	StatusTriggered = "triggered"
	StatusOngoing   = "ongoing"
)

// Event is one trigger contact report.
type Event struct {
	TriggerName string    `json:"trigger_name"`
	ObjectID    int64     `json:"track_id"`
	Class       string    `json:"class_name,omitempty"`
	LaneName    string    `json:"lane_name"`
	LaneNumber  int       `json:"lane_number"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

// MatcherConfig tunes a TriggerMatcher. Zero values select defaults.
type MatcherConfig struct {
	// Location selects the box reference point for lane containment.
	Location LocationMode
	// RememberedIDs caps the crossing-dedup set.
	RememberedIDs int
	// EventLogSize caps the retained first-crossing log.
	EventLogSize int
	// Clock stamps events; nil selects the real clock.
	Clock timeutil.Clock
}

// TriggerMatcher reports objects whose boxes contact a trigger line while
// inside a lane. Annotations are hot-swappable: SetAnnotations replaces the
// lane and trigger sets without disturbing crossing dedup, so a config save
// mid-stream does not re-fire events for objects already seen.
type TriggerMatcher struct {
	mu       sync.Mutex
	location LocationMode
	locator  *Locator
	triggers []annotation.Trigger
	seen     map[string]struct{}
	order    []string
	capacity int
	events   *EventLog
	clock    timeutil.Clock
}

// NewTriggerMatcher returns a matcher with no annotations loaded.
func NewTriggerMatcher(cfg MatcherConfig) *TriggerMatcher {
	if cfg.RememberedIDs <= 0 {
		cfg.RememberedIDs = DefaultRememberedIDs
	}
	if cfg.EventLogSize <= 0 {
		cfg.EventLogSize = DefaultEventLogSize
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &TriggerMatcher{
		location: cfg.Location,
		locator:  NewLocator(nil, cfg.Location),
		seen:     make(map[string]struct{}),
		capacity: cfg.RememberedIDs,
		events:   NewEventLog(cfg.EventLogSize),
		clock:    cfg.Clock,
	}
}

// SetAnnotations replaces the lane and trigger sets.
func (m *TriggerMatcher) SetAnnotations(doc annotation.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locator = NewLocator(doc.Lanes, m.location)
	m.triggers = doc.Triggers
}

// Process tests each object against the trigger lines and returns one event
// per contacted trigger for objects that resolve to a lane. First contacts
// are additionally appended to the event log.
func (m *TriggerMatcher) Process(objects []Object) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	var out []Event
	for _, obj := range objects {
		hits := m.contactedTriggersLocked(obj.Box)
		if len(hits) == 0 {
			continue
		}
		lane, ok := m.locator.Locate(obj.Box)
		if !ok {
			continue
		}

		for _, trig := range hits {
			name := trig.Name
			if name == "" {
				name = "trigger"
			}
			ev := Event{
				TriggerName: name,
				ObjectID:    obj.ID,
				Class:       obj.Class,
				LaneName:    lane.Name,
				LaneNumber:  lane.Number,
				Status:      StatusOngoing,
				At:          now,
			}
			key := fmt.Sprintf("%d|%s", obj.ID, name)
			if _, known := m.seen[key]; !known {
				ev.Status = StatusTriggered
				m.rememberLocked(key)
				m.events.Append(ev)
			}
			out = append(out, ev)
		}
	}
	return out
}

// RecentEvents returns up to n retained first-crossing events, newest first.
func (m *TriggerMatcher) RecentEvents(n int) []Event {
	return m.events.Recent(n)
}

// contactedTriggersLocked returns the triggers whose polyline passes within
// the contact threshold of the box centre. The threshold adapts to the box
// (half its smaller side) but never drops below the painted line's own hit
// width, so thin boxes still register on a thick line.
func (m *TriggerMatcher) contactedTriggersLocked(b Box) []annotation.Trigger {
	centre := b.Center()

	w := b.X2 - b.X1
	if w < 1 {
		w = 1
	}
	h := b.Y2 - b.Y1
	if h < 1 {
		h = 1
	}
	sizeThreshold := 0.5 * w
	if h < w {
		sizeThreshold = 0.5 * h
	}

	var hits []annotation.Trigger
	for _, trig := range m.triggers {
		strokeWidth := trig.StrokeWidth
		if strokeWidth <= 0 {
			strokeWidth = annotation.DefaultStrokeWidth
		}
		threshold := sizeThreshold
		if lineThreshold := float64(strokeWidth) + geometry.StrokeSlack; lineThreshold > threshold {
			threshold = lineThreshold
		}

		for i := 1; i < len(trig.Points); i++ {
			if geometry.PointToSegmentDistance(centre, trig.Points[i-1], trig.Points[i]) <= threshold {
				hits = append(hits, trig)
				break
			}
		}
	}
	return hits
}

// rememberLocked records a dedup key, evicting oldest keys past capacity.
func (m *TriggerMatcher) rememberLocked(key string) {
	m.seen[key] = struct{}{}
	m.order = append(m.order, key)
	for len(m.seen) > m.capacity {
		delete(m.seen, m.order[0])
		m.order = m.order[1:]
	}
}
