package jobs

// Backend is the render process a handle controls.
//
// StartRender begins work asynchronously and returns at once; the registry
// calls it at most once per handle. AbortRender stops work on a best effort
// basis and may arrive before StartRender, in which case the backend must not
// start. Errors are reported through later updates, never returned.
type Backend interface {
	StartRender()
	AbortRender()
}

// BackendFuncs adapts plain functions to Backend
type BackendFuncs struct {
	Start func()
	Abort func()
}

// StartRender calls Start if set
func (b BackendFuncs) StartRender() {
	if b.Start != nil {
		b.Start()
	}
}

// AbortRender calls Abort if set
func (b BackendFuncs) AbortRender() {
	if b.Abort != nil {
		b.Abort()
	}
}
