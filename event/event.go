package event

import "time"

// Job lifecycle event names
const (
	JobSubmitted    = "job.submitted"
	JobStarted      = "job.started"
	JobUpdated      = "job.updated"
	JobCompleted    = "job.completed"
	JobCancelled    = "job.cancelled"
	JobRemoved      = "job.removed"
	JobOrphanUpdate = "job.orphan_update"
)

// PrefsChanged is published with the new prefs.Prefs after the flags change
const PrefsChanged = "prefs.changed"

// Data is what subscribers receive
type Data struct {
	Time      time.Time `json:"time"`
	Source    string    `json:"source"`
	EventType string    `json:"event_type"`
	Data      any       `json:"data"`
}

// Handler handles one event
type Handler func(Data)
