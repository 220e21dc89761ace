package project

import (
	"strconv"
	"sync"
	"time"
)

// IDGenerator issues strictly increasing project identifiers of the form
// proj_<n>, where n starts from the current Unix millisecond and is bumped
// past the previous value when the clock has not advanced.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewIDGenerator returns a generator using the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// NewIDGeneratorWithClock returns a generator using now as its clock.
func NewIDGeneratorWithClock(now func() time.Time) *IDGenerator {
	return &IDGenerator{now: now}
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.now().UnixMilli()
	if n <= g.last {
		n = g.last + 1
	}
	g.last = n
	return "proj_" + strconv.FormatInt(n, 10)
}

// Seq extracts the numeric component of an identifier issued by Next.
func Seq(id string) (int64, bool) {
	const prefix = "proj_"
	if len(id) <= len(prefix) || id[:len(prefix)] != prefix {
		return 0, false
	}
	n, err := strconv.ParseInt(id[len(prefix):], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// New builds a draft project from a validated request.
func New(req Request, id string, now time.Time) *Project {
	now = now.UTC()
	return &Project{
		ID:             id,
		Title:          req.Topic,
		Status:         StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
		Topic:          req.Topic,
		Tone:           req.Tone,
		Duration:       req.Duration,
		VoiceID:        req.VoiceID,
		SourcePhotoURL: req.SourcePhotoURL,
		SceneStyle:     req.SceneStyle,
		ScenePrompt:    req.CustomScenePrompt,
		SyncMode:       req.SyncMode,
		CurrentStep:    StepScript,
	}
}
