package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"noxcmd/internal/errs"
	"noxcmd/internal/vfs"
)

type stepKind int

const (
	stepMakeDir stepKind = iota
	stepCopyFile
	stepRenameMove
	stepRemove
)

// step is one concrete unit of work produced by planning. Steps run in
// exactly this order: directories before their children for creation,
// children before their parents for removal.
type step struct {
	kind stepKind
	src  vfs.Path
	dst  vfs.Path
}

// target is the path an outcome for this step is recorded under.
func (s step) target() vfs.Path {
	if s.kind == stepMakeDir {
		return s.dst
	}
	return s.src
}

func (s step) displayPath() string { return s.target().String() }

// sourcePlan is the expansion of one top-level request source.
type sourcePlan struct {
	steps    []step
	failures []Outcome
}

// plan expands the request sources into the ordered work list. Top-level
// sources expand concurrently (listing is read-only); the resulting
// steps keep the request's source order. Only CircularCopy aborts
// planning; per-source expansion errors become Failed outcomes.
func (e *Engine) plan(ctx context.Context, req Request) ([]step, []Outcome, error) {
	switch req.Op {
	case MakeDirectory:
		return []step{{kind: stepMakeDir, dst: req.Dest}}, nil, nil
	case Copy, Move:
		for _, src := range req.Sources {
			// The effective destination of this source is Dest/base(src).
			// Rejecting when the source is a prefix of it covers both the
			// classic case (copying a directory into its own subtree) and
			// copying an entry onto itself, which would truncate the source
			// before it is read.
			if req.Dest.Join(src.Base()).HasPrefix(src) {
				return nil, nil, errs.New(errs.CircularCopy, req.Dest.String())
			}
		}
	}

	plans := make([]sourcePlan, len(req.Sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range req.Sources {
		i, src := i, src
		g.Go(func() error {
			plans[i] = e.planSource(gctx, req, src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var steps []step
	var failures []Outcome
	for _, p := range plans {
		steps = append(steps, p.steps...)
		failures = append(failures, p.failures...)
	}
	return steps, failures, nil
}

func (e *Engine) planSource(ctx context.Context, req Request, src vfs.Path) sourcePlan {
	var p sourcePlan
	entry, err := e.fs.Stat(src)
	if err != nil {
		kind := errs.KindOf(err)
		if kind == errs.NotFound {
			err = errs.Wrap(errs.EntryVanished, src.String(), err)
		}
		p.failures = append(p.failures, Outcome{Path: src, Status: Failed, Err: err})
		return p
	}

	switch req.Op {
	case Delete:
		p.expandDelete(ctx, e.fs, entry)
	case Copy:
		p.expandCopy(ctx, e.fs, entry, req.Dest.Join(src.Base()))
	case Move:
		if !entry.IsDir() && !src.IsMounted() && !req.Dest.IsMounted() {
			// Same-store single-entry move gets the atomic rename fast
			// path; the step falls back to copy+remove across volumes.
			p.steps = append(p.steps, step{kind: stepRenameMove, src: src, dst: req.Dest.Join(src.Base())})
			return p
		}
		p.expandCopy(ctx, e.fs, entry, req.Dest.Join(src.Base()))
		p.expandDelete(ctx, e.fs, entry)
	}
	return p
}

// expandCopy emits the copy steps for one entry, directories before
// their children so MakeDirectory at the destination precedes the
// contents.
func (p *sourcePlan) expandCopy(ctx context.Context, fs *vfs.VFS, entry vfs.Entry, dst vfs.Path) {
	if ctx.Err() != nil {
		return
	}
	if !entry.IsDir() {
		p.steps = append(p.steps, step{kind: stepCopyFile, src: entry.Path, dst: dst})
		return
	}
	p.steps = append(p.steps, step{kind: stepMakeDir, src: entry.Path, dst: dst})
	children, err := fs.ListAll(entry.Path)
	if err != nil {
		p.failures = append(p.failures, Outcome{Path: entry.Path, Status: Failed, Err: err})
		return
	}
	for _, child := range children {
		p.expandCopy(ctx, fs, child, dst.Join(child.Name))
	}
}

// expandDelete emits removal steps children-before-parents, the reverse
// of creation order, so directories are empty when their turn comes.
func (p *sourcePlan) expandDelete(ctx context.Context, fs *vfs.VFS, entry vfs.Entry) {
	if ctx.Err() != nil {
		return
	}
	if entry.IsDir() {
		children, err := fs.ListAll(entry.Path)
		if err != nil {
			p.failures = append(p.failures, Outcome{Path: entry.Path, Status: Failed, Err: err})
			return
		}
		for _, child := range children {
			p.expandDelete(ctx, fs, child)
		}
	}
	p.steps = append(p.steps, step{kind: stepRemove, src: entry.Path})
}
