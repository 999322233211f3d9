package jobs

import "errors"

var (
	// ErrInvalidJob is returned when a handle lacks an id or a backend
	ErrInvalidJob = errors.New("invalid job")
	// ErrDuplicateJob is returned when a live job already uses the id
	ErrDuplicateJob = errors.New("job id already in use")
	// ErrUnknownJob is returned when an id matches no live job
	ErrUnknownJob = errors.New("unknown job")
	// ErrJobFinished is returned when cancelling a completed or cancelled job
	ErrJobFinished = errors.New("job already finished")
	// ErrInvalidStatus is returned for an update carrying an undeclared status
	ErrInvalidStatus = errors.New("invalid job status")
	// ErrAlreadyStarted is returned by Start on a running registry
	ErrAlreadyStarted = errors.New("registry already started")
)
