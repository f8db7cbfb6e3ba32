// Package notify implements a bounded, in-process degradation event bus.
// Any component that falls back to a worse mode of operation (a tier
// failing open, the origin breaker tripping, a stale read being served)
// reports it here; operators and the admin surface subscribe to find out.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies how serious a degradation event is, ordered from
// least to most severe so the highest value in a group is its escalated
// severity.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "warning"
	}
}

// EventType is the closed taxonomy of degradation events the engine can
// report. Components must pick one of these; there is no freeform
// category field, so a dashboard can enumerate every case.
type EventType string

const (
	EventStorageFailure     EventType = "storage-failure"
	EventAPIDegraded        EventType = "api-degraded"
	EventServingStale       EventType = "serving-stale"
	EventPartialData        EventType = "partial-data"
	EventCircuitBreakerOpen EventType = "circuit-breaker-open"
	EventHighErrorRate      EventType = "high-error-rate"
)

// Event is one degradation occurrence. ID is assigned by Notify and lets an
// operator correlate the same event across the in-memory ring, the durable
// audit log, and any external trace it was recorded alongside.
type Event struct {
	ID        string
	Type      EventType
	Severity  Severity
	Tier      string
	Message   string
	Timestamp time.Time
}

const (
	ringCapacity  = 1000
	retentionSpan = time.Hour
)

// Subscriber receives events as they are published. A Subscriber must not
// block for long: subscribers are called synchronously, one after another,
// so a slow one delays the subscribers after it and Notify's caller.
type Subscriber func(Event)

// Notifier is a bounded ring buffer of recent events plus a fan-out list
// of subscribers. A panicking subscriber never breaks Notify; a slow one
// delays it, since delivery is synchronous.
type Notifier struct {
	mu   sync.Mutex
	ring []Event
	head int
	size int

	subs   map[int]Subscriber
	nextID int
}

func New() *Notifier {
	return &Notifier{
		ring: make([]Event, ringCapacity),
		subs: make(map[int]Subscriber),
	}
}

// Notify records the event and fans it out to every current subscriber.
// Subscribers are called in turn; a panic in one is recovered and does not
// prevent delivery to the others.
func (n *Notifier) Notify(evt Event) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}

	n.mu.Lock()
	n.ring[(n.head+n.size)%ringCapacity] = evt
	if n.size < ringCapacity {
		n.size++
	} else {
		n.head = (n.head + 1) % ringCapacity
	}
	subs := make([]Subscriber, 0, len(n.subs))
	for _, s := range n.subs {
		subs = append(subs, s)
	}
	n.mu.Unlock()

	for _, s := range subs {
		deliver(s, evt)
	}
}

// deliver calls a subscriber, converting a panic into a swallowed error so
// one misbehaving subscriber never takes down Notify's caller.
func deliver(s Subscriber, evt Event) {
	defer func() {
		_ = recover()
	}()
	s(evt)
}

// Subscribe registers a subscriber and returns a function that removes it.
// Calling the returned function more than once is safe.
func (n *Notifier) Subscribe(s Subscriber) (unsubscribe func()) {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = s
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Issue is one (type, tier) group of degradation events seen within a
// window, escalated to the highest severity observed in the group.
type Issue struct {
	Type        EventType
	Tier        string
	Severity    Severity
	Message     string
	FirstSeen   time.Time
	LastSeen    time.Time
	Occurrences int
}

type issueKey struct {
	eventType EventType
	tier      string
}

// ActiveIssues groups every event still inside window by (type, tier),
// reporting first-seen/last-seen/occurrences and the highest severity
// observed per group, sorted by severity descending then by recency.
// Events older than retentionSpan are never considered even if window is
// wider than that.
func (n *Notifier) ActiveIssues(window time.Duration, now time.Time) []Issue {
	if window > retentionSpan {
		window = retentionSpan
	}
	cutoff := now.Add(-window)

	n.mu.Lock()
	events := make([]Event, 0, n.size)
	for i := 0; i < n.size; i++ {
		evt := n.ring[(n.head+i)%ringCapacity]
		if evt.Timestamp.After(cutoff) {
			events = append(events, evt)
		}
	}
	n.mu.Unlock()

	groups := make(map[issueKey]*Issue)
	var order []issueKey
	for _, evt := range events {
		k := issueKey{eventType: evt.Type, tier: evt.Tier}
		issue, ok := groups[k]
		if !ok {
			issue = &Issue{Type: evt.Type, Tier: evt.Tier}
			groups[k] = issue
			order = append(order, k)
			issue.FirstSeen = evt.Timestamp
			issue.LastSeen = evt.Timestamp
		}
		issue.Occurrences++
		if evt.Timestamp.Before(issue.FirstSeen) {
			issue.FirstSeen = evt.Timestamp
		}
		if !evt.Timestamp.Before(issue.LastSeen) {
			issue.LastSeen = evt.Timestamp
			issue.Message = evt.Message
		}
		if evt.Severity > issue.Severity {
			issue.Severity = evt.Severity
			issue.Message = evt.Message
		}
	}

	out := make([]Issue, 0, len(order))
	for _, k := range order {
		out = append(out, *groups[k])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return out[i].LastSeen.After(out[j].LastSeen)
	})
	return out
}

// IsDegraded reports whether any active issue within window has escalated
// to at least SeverityError.
func (n *Notifier) IsDegraded(window time.Duration, now time.Time) bool {
	for _, issue := range n.ActiveIssues(window, now) {
		if issue.Severity >= SeverityError {
			return true
		}
	}
	return false
}
