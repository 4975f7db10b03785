// Package engine executes copy/move/delete/mkdir requests against the
// virtual filesystem. A request is planned into an ordered work list,
// then run strictly sequentially with per-step conflict resolution,
// progress reporting and cooperative cancellation. The engine contains
// no archive-specific logic; crossing an archive boundary is the VFS's
// concern.
package engine

import (
	"context"
	"sync"

	"noxcmd/internal/errs"
	"noxcmd/internal/log"
	"noxcmd/internal/vfs"
)

// Op is the kind of operation requested.
type Op int

const (
	Copy Op = iota
	Move
	Delete
	MakeDirectory
)

func (o Op) String() string {
	switch o {
	case Copy:
		return "copy"
	case Move:
		return "move"
	case Delete:
		return "delete"
	case MakeDirectory:
		return "mkdir"
	default:
		return "?"
	}
}

// Policy governs what happens when a destination entry already exists.
// It is selected once per request; Ask defers each conflict to the
// resolver callback.
type Policy int

const (
	Overwrite Policy = iota
	Skip
	Abort
	Ask
)

// Decision is a resolver's answer for one conflicting path.
type Decision int

const (
	DecideOverwrite Decision = iota
	DecideSkip
	DecideAbort
)

// Resolver supplies conflict decisions when the policy is Ask. The
// engine blocks the current step until Resolve returns; UI layers
// typically bridge this to a dialog via message passing.
type Resolver interface {
	Resolve(conflict vfs.Path) Decision
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(vfs.Path) Decision

func (f ResolverFunc) Resolve(p vfs.Path) Decision { return f(p) }

// Request describes one user-initiated operation.
type Request struct {
	Op      Op
	Sources []vfs.Path
	Dest    vfs.Path // unused for Delete
	Policy  Policy
}

// Progress is one incremental progress tick.
type Progress struct {
	Done    int
	Total   int
	Current string
}

// Status classifies one step's result.
type Status int

const (
	Succeeded Status = iota
	Skipped
	Failed
)

// Outcome is the per-entry result recorded for every planned step.
type Outcome struct {
	Path   vfs.Path
	Status Status
	Reason string // set for Skipped
	Err    error  // set for Failed
}

// RunState is the terminal state of a request.
type RunState int

const (
	StateCompleted RunState = iota
	StateCancelled
	StateFailed
)

// Report aggregates a finished (or cancelled) request. It is the only
// externally visible result of a run.
type Report struct {
	Op       Op
	State    RunState
	Outcomes []Outcome
	Err      error // request-level failure, e.g. CircularCopy
}

func (r *Report) count(st Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == st {
			n++
		}
	}
	return n
}

func (r *Report) SucceededCount() int { return r.count(Succeeded) }
func (r *Report) SkippedCount() int   { return r.count(Skipped) }
func (r *Report) FailedCount() int    { return r.count(Failed) }

// Failures returns every failed outcome, for display.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			out = append(out, o)
		}
	}
	return out
}

const (
	reasonAborted     = "aborted by policy"
	reasonCancelled   = "cancelled"
	reasonDestExists  = "destination exists"
	reasonArchiveKept = "source retained in read-only archive"
)

// Engine runs one operation at a time against the VFS.
type Engine struct {
	fs       *vfs.VFS
	mu       sync.Mutex // one request at a time
	progress func(Progress)
	resolver Resolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgress registers the progress observer invoked before each step.
func WithProgress(fn func(Progress)) Option {
	return func(e *Engine) { e.progress = fn }
}

// WithResolver registers the conflict resolver used by the Ask policy.
func WithResolver(r Resolver) Option {
	return func(e *Engine) { e.resolver = r }
}

func New(fs *vfs.VFS, opts ...Option) *Engine {
	e := &Engine{fs: fs}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run plans and executes the request, blocking until it reaches a
// terminal state. Cancel by cancelling the context: the engine observes
// it between steps, never mid-step, finalizes the report with whatever
// completed, and rolls nothing back.
func (e *Engine) Run(ctx context.Context, req Request) *Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &Report{Op: req.Op}

	e.retainRequest(req)
	defer e.releaseRequest(req)

	steps, planFailures, err := e.plan(ctx, req)
	if err != nil {
		report.State = StateFailed
		report.Err = err
		log.Warnf("engine: %s planning failed: %v", req.Op, err)
		return report
	}
	report.Outcomes = append(report.Outcomes, planFailures...)
	if req.Policy == Abort && len(planFailures) > 0 {
		e.skipRemaining(report, steps, reasonAborted)
		report.State = StateCompleted
		return report
	}

	total := len(steps)
	done := 0
	for i, st := range steps {
		if ctx.Err() != nil {
			e.skipRemaining(report, steps[i:], reasonCancelled)
			report.State = StateCancelled
			log.Infof("engine: %s cancelled after %d/%d steps", req.Op, i, total)
			return report
		}
		e.emit(Progress{Done: i, Total: total, Current: st.displayPath()})

		out := e.runStep(st, req.Policy)
		report.Outcomes = append(report.Outcomes, out)
		done = i + 1

		abort := out.Status == Skipped && out.Reason == reasonAborted
		if req.Policy == Abort && out.Status == Failed {
			abort = true
		}
		if abort {
			e.skipRemaining(report, steps[i+1:], reasonAborted)
			break
		}
	}
	e.emit(Progress{Done: done, Total: total})
	report.State = StateCompleted
	log.Infof("engine: %s done: %d ok, %d skipped, %d failed",
		req.Op, report.SucceededCount(), report.SkippedCount(), report.FailedCount())
	return report
}

func (e *Engine) emit(p Progress) {
	if e.progress != nil {
		e.progress(p)
	}
}

func (e *Engine) skipRemaining(report *Report, rest []step, reason string) {
	for _, st := range rest {
		report.Outcomes = append(report.Outcomes, Outcome{
			Path: st.target(), Status: Skipped, Reason: reason,
		})
	}
}

// retainRequest pins every archive mount the request touches so repeated
// reads during the run do not re-decode containers.
func (e *Engine) retainRequest(req Request) {
	for _, src := range req.Sources {
		if err := e.fs.RetainPath(src); err != nil {
			log.Debugf("engine: retain %s: %v", src, err)
		}
	}
	if req.Op == Copy || req.Op == Move || req.Op == MakeDirectory {
		if err := e.fs.RetainPath(req.Dest); err != nil {
			log.Debugf("engine: retain %s: %v", req.Dest, err)
		}
	}
}

func (e *Engine) releaseRequest(req Request) {
	for _, src := range req.Sources {
		e.fs.ReleasePath(src)
	}
	if req.Op == Copy || req.Op == Move || req.Op == MakeDirectory {
		e.fs.ReleasePath(req.Dest)
	}
}

// runStep executes one planned step, applying the conflict policy when
// the destination already exists.
func (e *Engine) runStep(st step, policy Policy) Outcome {
	switch st.kind {
	case stepMakeDir:
		return e.runMakeDir(st, policy)
	case stepCopyFile:
		return e.runCopyFile(st, policy)
	case stepRenameMove:
		return e.runRenameMove(st, policy)
	case stepRemove:
		return e.runRemove(st)
	default:
		return Outcome{Path: st.src, Status: Failed, Err: errs.New(errs.Unknown, st.src.String())}
	}
}

func (e *Engine) runMakeDir(st step, policy Policy) Outcome {
	if existing, err := e.fs.Stat(st.dst); err == nil {
		if existing.IsDir() {
			// Merging into an existing directory is not a conflict.
			return Outcome{Path: st.dst, Status: Succeeded}
		}
		out, proceed := e.resolveConflict(st.dst, policy)
		if !proceed {
			return out
		}
		if err := e.fs.Remove(st.dst); err != nil {
			return Outcome{Path: st.dst, Status: Failed, Err: err}
		}
	}
	if err := e.fs.MakeDir(st.dst); err != nil {
		return Outcome{Path: st.dst, Status: Failed, Err: err}
	}
	return Outcome{Path: st.dst, Status: Succeeded}
}

func (e *Engine) runCopyFile(st step, policy Policy) Outcome {
	if _, err := e.fs.Stat(st.dst); err == nil {
		out, proceed := e.resolveConflict(st.dst, policy)
		if !proceed {
			return out
		}
	}
	src, err := e.fs.Read(st.src)
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			err = errs.Wrap(errs.EntryVanished, st.src.String(), err)
		}
		return Outcome{Path: st.src, Status: Failed, Err: err}
	}
	defer src.Close()
	if err := e.fs.Write(st.dst, src); err != nil {
		return Outcome{Path: st.src, Status: Failed, Err: err}
	}
	return Outcome{Path: st.src, Status: Succeeded}
}

func (e *Engine) runRenameMove(st step, policy Policy) Outcome {
	if _, err := e.fs.Stat(st.dst); err == nil {
		out, proceed := e.resolveConflict(st.dst, policy)
		if !proceed {
			return out
		}
	}
	err := e.fs.RenameTo(st.src, st.dst)
	if err == nil {
		return Outcome{Path: st.src, Status: Succeeded}
	}
	if !vfs.IsCrossDevice(err) {
		return Outcome{Path: st.src, Status: Failed, Err: err}
	}
	// Different volumes: copy then remove, never leaving a partial
	// rename behind.
	src, err := e.fs.Read(st.src)
	if err != nil {
		return Outcome{Path: st.src, Status: Failed, Err: err}
	}
	if err := e.fs.Write(st.dst, src); err != nil {
		src.Close()
		return Outcome{Path: st.src, Status: Failed, Err: err}
	}
	src.Close()
	if err := e.fs.Remove(st.src); err != nil {
		return Outcome{Path: st.src, Status: Failed, Err: err}
	}
	return Outcome{Path: st.src, Status: Succeeded}
}

func (e *Engine) runRemove(st step) Outcome {
	err := e.fs.Remove(st.src)
	if err == nil {
		return Outcome{Path: st.src, Status: Succeeded}
	}
	if errs.KindOf(err) == errs.UnsupportedInArchive {
		// Moving out of a read-mostly archive extracts but cannot delete
		// the source entry; record the leftover instead of failing.
		log.Warnf("engine: %s: %s", st.src, reasonArchiveKept)
		return Outcome{Path: st.src, Status: Skipped, Reason: reasonArchiveKept}
	}
	if errs.KindOf(err) == errs.NotFound {
		err = errs.Wrap(errs.EntryVanished, st.src.String(), err)
	}
	return Outcome{Path: st.src, Status: Failed, Err: err}
}

// resolveConflict applies the policy to an existing destination. The
// second return is true when the caller should proceed to overwrite.
func (e *Engine) resolveConflict(dst vfs.Path, policy Policy) (Outcome, bool) {
	decision := DecideOverwrite
	switch policy {
	case Overwrite:
	case Skip:
		decision = DecideSkip
	case Abort:
		decision = DecideAbort
	case Ask:
		if e.resolver == nil {
			decision = DecideAbort
		} else {
			decision = e.resolver.Resolve(dst)
		}
	}
	switch decision {
	case DecideOverwrite:
		return Outcome{}, true
	case DecideSkip:
		return Outcome{Path: dst, Status: Skipped, Reason: reasonDestExists}, false
	default:
		return Outcome{Path: dst, Status: Skipped, Reason: reasonAborted}, false
	}
}
