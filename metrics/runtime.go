package metrics

import "runtime"

// RuntimeSample is a point-in-time view of the process
type RuntimeSample struct {
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"` // bytes
	Sys        uint64 `json:"sys"`        // bytes obtained from the OS
	NumGC      uint32 `json:"num_gc"`
}

// SampleRuntime reads the current goroutine and memory figures
func SampleRuntime() RuntimeSample {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return RuntimeSample{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}
