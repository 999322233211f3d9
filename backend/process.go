// Package backend runs external renderers as registry backends.
package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/ncobase/rendercore/concurrency/worker"
	"github.com/ncobase/rendercore/ctxutil"
	"github.com/ncobase/rendercore/jobs"
	"github.com/ncobase/rendercore/logging/logger"
)

// waitDelay bounds how long a killed renderer's children may hold its output open
const waitDelay = 2 * time.Second

// Updater receives progress reports, normally the registry
type Updater interface {
	ApplyUpdate(ctx context.Context, u jobs.Update) error
}

// Command is one external program invocation
type Command struct {
	Path string
	Args []string
	Dir  string
	Env  []string
}

func (c Command) String() string {
	return fmt.Sprintf("%s %v", filepath.Base(c.Path), c.Args)
}

// Plan is what a Process runs: its commands in order and how to read their output
type Plan struct {
	Steps []Command
	// Parse reads one output line. Nil means progress only moves between steps.
	Parse ProgressParser
}

// Process is a jobs.Backend that runs a Plan on the worker pool
type Process struct {
	id      string
	kind    jobs.Kind
	plan    Plan
	pool    *worker.Pool
	updater Updater
	now     func() time.Time

	mu      sync.Mutex
	started bool
	aborted bool
}

var _ jobs.Backend = (*Process)(nil)

// NewProcess creates a backend for job id
func NewProcess(id string, kind jobs.Kind, plan Plan, pool *worker.Pool, updater Updater) *Process {
	return &Process{
		id:      id,
		kind:    kind,
		plan:    plan,
		pool:    pool,
		updater: updater,
		now:     time.Now,
	}
}

// Handle returns a registry handle driving this process
func (p *Process) Handle() *jobs.Handle {
	return jobs.NewHandle(p.id, p.kind, p)
}

// ID returns the job id
func (p *Process) ID() string { return p.id }

// StartRender queues the plan on the pool. It does nothing after AbortRender.
func (p *Process) StartRender() {
	p.mu.Lock()
	if p.started || p.aborted {
		p.mu.Unlock()
		return
	}
	p.started = true
	err := p.pool.Submit(worker.Task{ID: p.id, Run: p.run})
	p.mu.Unlock()

	if err != nil {
		ctx := ctxutil.SetJobID(context.Background(), p.id)
		logger.Errorf(ctx, "cannot queue render: %v", err)
		p.report(ctx, jobs.StatusCancelled, jobs.ProgressUnknown, "Could not start: "+err.Error(), 0)
	}
}

// AbortRender stops the running process, or keeps it from starting
func (p *Process) AbortRender() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.aborted = true
	if p.started {
		p.pool.Cancel(p.id)
	}
}

func (p *Process) isAborted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aborted
}

func (p *Process) run(ctx context.Context) error {
	ctx = ctxutil.SetJobID(ctx, p.id)
	if len(p.plan.Steps) == 0 {
		err := errors.New("nothing to run")
		p.report(ctx, jobs.StatusCancelled, jobs.ProgressUnknown, err.Error(), 0)
		return err
	}

	begin := p.now()
	elapsed := func() float64 { return p.now().Sub(begin).Seconds() }
	p.report(ctx, jobs.StatusRendering, 0, "Rendering", 0)

	n := float64(len(p.plan.Steps))
	last := ""
	for i, step := range p.plan.Steps {
		onLine := func(line string) {
			frac, text, ok := 0.0, "", false
			if p.plan.Parse != nil {
				frac, text, ok = p.plan.Parse(line)
			}
			if !ok {
				return
			}
			progress := (float64(i) + frac) / n
			if label := jobs.FormatProgress(progress) + text; label != last {
				last = label
				p.report(ctx, jobs.StatusRendering, progress, text, elapsed())
			}
		}

		if err := p.exec(ctx, step, onLine); err != nil {
			if p.isAborted() {
				// the registry already shows the job as cancelled
				logger.Infof(ctx, "render aborted during %s", step)
				return ctx.Err()
			}
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			logger.Errorf(ctx, "render failed during %s: %v", step, err)
			p.report(ctx, jobs.StatusCancelled, jobs.ProgressUnknown, fmt.Sprintf("%s failed: %v", filepath.Base(step.Path), err), elapsed())
			return err
		}

		if len(p.plan.Steps) > 1 {
			done := float64(i+1) / n
			p.report(ctx, jobs.StatusRendering, done, fmt.Sprintf("Step %d/%d", i+1, len(p.plan.Steps)), elapsed())
		}
	}

	p.report(ctx, jobs.StatusCompleted, 1, "", elapsed())
	logger.Infof(ctx, "render finished in %s", jobs.FormatElapsed(elapsed()))
	return nil
}

func (p *Process) exec(ctx context.Context, c Command, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}

	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout

	logger.Debugf(ctx, "running %s", c)
	if err := cmd.Start(); err != nil {
		return err
	}
	scanLines(out, onLine)
	return cmd.Wait()
}

func (p *Process) report(ctx context.Context, status jobs.Status, progress float64, text string, elapsed float64) {
	if p.updater == nil {
		return
	}
	err := p.updater.ApplyUpdate(ctx, jobs.Update{
		ID:       p.id,
		Status:   status,
		Progress: progress,
		Text:     text,
		Elapsed:  elapsed,
	})
	if err != nil {
		logger.Warnf(ctx, "progress report rejected: %v", err)
	}
}

// scanLines feeds every line of r to fn, treating a bare carriage return as a
// line end since renderers redraw their progress line in place.
func scanLines(r io.Reader, fn func(string)) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(splitCRLF)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			fn(line)
		}
	}
}

func splitCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, bytes.TrimSpace(data[:i]), nil
	}
	if atEOF {
		return len(data), bytes.TrimSpace(data), nil
	}
	return 0, nil, nil
}
