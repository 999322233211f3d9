// Package jobs coordinates background render jobs.
//
// A render backend wraps its work in a Handle and submits it to a Registry.
// The Registry decides whether the job starts right away or waits behind the
// one currently rendering (when the "render sequentially" preference is on),
// folds the backend's progress updates into the live handle, starts the next
// queued job when one completes and hides finished rows after a delay.
//
//	reg := jobs.NewRegistry(prefs, jobs.WithEventBus(bus))
//	if err := reg.Start(ctx); err != nil {
//	    return err
//	}
//	defer reg.Stop(ctx)
//
//	h := jobs.NewHandle("", jobs.KindMLTXML, backend)
//	if err := reg.Submit(ctx, h); err != nil {
//	    return err
//	}
//
//	// from the backend's goroutine
//	_ = reg.ApplyUpdate(ctx, jobs.Update{ID: h.ID(), Status: jobs.StatusRendering, Progress: 0.4})
//
// All state lives behind one mutex. Backend calls, observer refreshes and
// event publication happen after it is released, so a backend may call
// ApplyUpdate from inside StartRender.
//
// Updates for one job are applied in the order they arrive. They carry no
// sequence number, so a transport that reorders them would show stale
// progress.
package jobs
