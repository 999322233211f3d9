package jobs

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a job.
//
//	Queued -> Rendering -> Completed
//	Queued -> Cancelled
//	Rendering -> Cancelled
//
// Completed and Cancelled are terminal.
type Status int

const (
	StatusQueued Status = iota
	StatusRendering
	StatusCompleted
	StatusCancelled
)

var statusNames = [...]string{"queued", "rendering", "completed", "cancelled"}

// String returns the machine name of the status
func (s Status) String() string {
	if s.Valid() {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Valid reports whether s is one of the declared statuses
func (s Status) Valid() bool {
	return s >= StatusQueued && s <= StatusCancelled
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// MarshalText implements encoding.TextMarshaler
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses a machine name produced by String
func ParseStatus(s string) (Status, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return StatusQueued, fmt.Errorf("unknown job status %q", s)
}
