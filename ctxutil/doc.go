// Package ctxutil provides context helpers for values that travel with a
// render operation: the trace id used to correlate log lines and the id of
// the job an operation acts on.
//
// # Trace IDs
//
//	ctx, traceID := ctxutil.EnsureTraceID(ctx)
//	logger.Infof(ctx, "submitting %s", id) // log entry carries trace_id
//
// # Job IDs
//
//	ctx = ctxutil.SetJobID(ctx, handle.ID())
//	id := ctxutil.GetJobID(ctx)
package ctxutil
