package jobs

import (
	"fmt"
	"time"

	"github.com/ncobase/rendercore/nanoid"
)

// ProgressUnknown marks a job whose progress cannot be shown
const ProgressUnknown = -1.0

const (
	textCompleted = "Completed"
	textCancelled = "Cancelled"
)

// NewID returns a fresh job id
func NewID() string {
	return nanoid.String()
}

// Handle is the registry's live record of one background render. After
// Submit only the registry mutates it; everybody else reads Snapshots.
type Handle struct {
	id      string
	kind    Kind
	backend Backend

	status   Status
	progress float64
	text     string
	elapsed  float64 // seconds

	submittedAt time.Time
	finishedAt  time.Time
	started     bool
}

// NewHandle creates a handle for backend. An empty id gets a generated one.
func NewHandle(id string, kind Kind, backend Backend) *Handle {
	if id == "" {
		id = NewID()
	}
	return &Handle{
		id:      id,
		kind:    kind,
		backend: backend,
		status:  StatusQueued,
	}
}

// ID returns the job id
func (h *Handle) ID() string { return h.id }

// Kind returns the job kind
func (h *Handle) Kind() Kind { return h.kind }

func (h *Handle) snapshot(removeAt time.Time) Snapshot {
	return Snapshot{
		ID:          h.id,
		Kind:        h.kind,
		Status:      h.status,
		Progress:    h.progress,
		Text:        h.text,
		Elapsed:     h.elapsed,
		SubmittedAt: h.submittedAt,
		FinishedAt:  h.finishedAt,
		RemoveAt:    removeAt,
	}
}

// Snapshot is a copy of a handle's observable state
type Snapshot struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Status      Status    `json:"status"`
	Progress    float64   `json:"progress"`
	Text        string    `json:"text"`
	Elapsed     float64   `json:"elapsed"`
	SubmittedAt time.Time `json:"submitted_at"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
	RemoveAt    time.Time `json:"remove_at,omitzero"`
}

// TypeLabel returns the text for the type column
func (s Snapshot) TypeLabel() string { return s.Kind.Label() }

// ProgressLabel returns the text for the progress column
func (s Snapshot) ProgressLabel() string { return FormatProgress(s.Progress) }

// ElapsedLabel returns the text for the render time column
func (s Snapshot) ElapsedLabel() string { return FormatElapsed(s.Elapsed) }

// FormatProgress renders a fraction as a whole percent, "-" when unknown
func FormatProgress(p float64) string {
	if p < 0 {
		return "-"
	}
	pct := int(p * 100.0)
	if pct > 100 {
		pct = 100
	}
	return fmt.Sprintf("%d%%", pct)
}

// FormatElapsed renders fractional seconds as "5s", "2m 5s" or "1h 2m 5s"
func FormatElapsed(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	total := int(sec)
	hours := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	case mins > 0:
		return fmt.Sprintf("%dm %ds", mins, secs)
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// Update is what a backend reports about its job
type Update struct {
	ID       string  `json:"id"`
	Status   Status  `json:"status"`
	Progress float64 `json:"progress"`
	Text     string  `json:"text"`
	Elapsed  float64 `json:"elapsed"`
}

func clampProgress(p float64) float64 {
	switch {
	case p < 0:
		return ProgressUnknown
	case p > 1:
		return 1
	default:
		return p
	}
}
