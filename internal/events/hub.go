// Package events fans project progress out to in-process subscribers such as
// the websocket endpoint.
package events

import (
	"context"
	"strings"
	"sync"
	"time"

	"reelcast/internal/logging"
	"reelcast/internal/project"
)

// Kind classifies an Event.
type Kind string

const (
	// KindStatus carries a project snapshot after a store update.
	KindStatus Kind = "status"
	// KindProgress marks the start or successful end of a step.
	KindProgress Kind = "progress"
	// KindLog carries a log line tagged with the project.
	KindLog Kind = "log"
)

// Event is one entry in the hub.
type Event struct {
	Seq       uint64           `json:"seq"`
	Time      time.Time        `json:"ts"`
	ProjectID string           `json:"projectId"`
	Kind      Kind             `json:"kind"`
	Step      string           `json:"step,omitempty"`
	Phase     string           `json:"phase,omitempty"`
	Project   *project.Project `json:"project,omitempty"`
	Log       *logging.Line    `json:"log,omitempty"`
}

// Hub keeps a bounded buffer of recent events and wakes waiters on publish.
type Hub struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
	// lastUpdate drops status snapshots older than one already published,
	// which happens when the same update arrives locally and via redis.
	lastUpdate map[string]time.Time
}

// NewHub returns a hub holding at most capacity events.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 1024
	}
	h := &Hub{capacity: capacity, lastUpdate: map[string]time.Time{}}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// Publish appends evt and returns it with its sequence number. A zero Seq in
// the result means the event was dropped as stale.
func (h *Hub) Publish(evt Event) Event {
	if h == nil {
		return evt
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if evt.Kind == KindStatus && evt.Project != nil {
		if last, ok := h.lastUpdate[evt.ProjectID]; ok && !evt.Project.UpdatedAt.After(last) {
			return Event{}
		}
		h.lastUpdate[evt.ProjectID] = evt.Project.UpdatedAt
	}
	h.nextSeq++
	evt.Seq = h.nextSeq
	if evt.Time.IsZero() {
		evt.Time = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, evt)
	h.cond.Broadcast()
	return evt
}

// Status publishes a snapshot of p.
func (h *Hub) Status(p *project.Project) {
	if p == nil {
		return
	}
	h.Publish(Event{ProjectID: p.ID, Kind: KindStatus, Project: p.Clone()})
}

// Progress publishes a step boundary. phase is "generating" or "complete".
func (h *Hub) Progress(projectID string, step project.Step, phase string) {
	h.Publish(Event{ProjectID: projectID, Kind: KindProgress, Step: string(step), Phase: phase})
}

// AppendLog implements logging.Sink.
func (h *Hub) AppendLog(projectID string, line logging.Line) {
	h.Publish(Event{ProjectID: projectID, Kind: KindLog, Time: line.Time, Step: line.Step, Log: &line})
}

// Fetch returns events for projectID with a sequence above since. When wait
// is true it blocks until one arrives or ctx ends. An empty projectID
// matches every project.
func (h *Hub) Fetch(ctx context.Context, projectID string, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	projectID = strings.TrimSpace(projectID)

	stop := make(chan struct{})
	defer close(stop)
	if wait {
		go func() {
			select {
			case <-ctx.Done():
				h.mu.Lock()
				h.cond.Broadcast()
				h.mu.Unlock()
			case <-stop:
			}
		}()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		events, cursor := h.collectLocked(projectID, since, limit)
		if len(events) > 0 || !wait {
			return events, cursor, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil, cursor, err
		}
		since = cursor
		h.cond.Wait()
	}
}

// collectLocked returns matching events after since and the cursor to
// resume from.
func (h *Hub) collectLocked(projectID string, since uint64, limit int) ([]Event, uint64) {
	var out []Event
	cursor := since
	for _, evt := range h.buffer {
		if evt.Seq <= since {
			continue
		}
		cursor = evt.Seq
		if projectID != "" && evt.ProjectID != projectID {
			continue
		}
		out = append(out, evt)
		if len(out) == limit {
			break
		}
	}
	if cursor < h.nextSeq && len(out) < limit {
		cursor = h.nextSeq
	}
	return out, cursor
}

// Tail returns up to limit of the most recent events for projectID.
func (h *Hub) Tail(projectID string, limit int) []Event {
	if h == nil {
		return nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for i := len(h.buffer) - 1; i >= 0 && len(out) < limit; i-- {
		if projectID == "" || h.buffer[i].ProjectID == projectID {
			out = append(out, h.buffer[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Forget drops the staleness marker for a deleted project.
func (h *Hub) Forget(projectID string) {
	if h == nil {
		return
	}
	h.mu.Lock()
	delete(h.lastUpdate, projectID)
	h.mu.Unlock()
}
