package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/feed"
)

// Registry hands out one LiveView per identity. Views are acquired for the
// duration of a request or stream and released afterwards; a view nobody
// holds is torn down after the idle TTL.
//
// The registry holds a single change subscription for all of its views and
// wakes only the view of the owner a change belongs to.
type Registry struct {
	svc     *ProjectService
	opts    Options
	idleTTL time.Duration
	log     *logging.Logger

	mu     sync.Mutex
	views  map[string]*entry
	closed bool

	feedMu   sync.Mutex
	sub      feed.Subscription
	feedDone chan struct{}
	// changes counts dispatched notifications
	changes atomic.Uint64
}

type entry struct {
	view *LiveView
	refs int
	idle *time.Timer
}

func NewRegistry(svc *ProjectService, opts Options, idleTTL time.Duration) *Registry {
	return &Registry{
		svc:     svc,
		opts:    opts,
		idleTTL: idleTTL,
		log:     logging.Named("projects.registry"),
		views:   make(map[string]*entry),
	}
}

// Service returns the underlying project service.
func (r *Registry) Service() *ProjectService {
	return r.svc
}

// Acquire returns the view for ownerID, starting it if needed, and a release
// func that must be called exactly once when the caller is done. A view that
// failed to start is returned uncached so its error can still be rendered.
func (r *Registry) Acquire(ctx context.Context, ownerID string) (*LiveView, func()) {
	if view, release, ok := r.reuse(ownerID); ok {
		return view, release
	}

	if r.svc.Ready() {
		r.watch(ctx)
	}
	seen := r.changes.Load()

	view := newSharedView(r.svc, ownerID, r.opts)
	if err := view.Start(ctx); err != nil {
		return view, func() { _ = view.Close() }
	}
	// a change dispatched while the view was starting was not routed to it
	defer func() {
		if r.changes.Load() != seen {
			view.Notify()
		}
	}()

	r.mu.Lock()
	if e, ok := r.views[ownerID]; ok {
		// another request started the same view first
		r.hold(e)
		r.mu.Unlock()
		_ = view.Close()
		return e.view, r.releaser(ownerID, e)
	}
	if r.closed {
		r.mu.Unlock()
		return view, func() { _ = view.Close() }
	}
	e := &entry{view: view, refs: 1}
	r.views[ownerID] = e
	r.mu.Unlock()

	return view, r.releaser(ownerID, e)
}

func (r *Registry) reuse(ownerID string) (*LiveView, func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.views[ownerID]
	if !ok {
		return nil, nil, false
	}
	r.hold(e)
	return e.view, r.releaser(ownerID, e), true
}

// hold must be called with r.mu held.
func (r *Registry) hold(e *entry) {
	e.refs++
	if e.idle != nil {
		e.idle.Stop()
		e.idle = nil
	}
}

func (r *Registry) releaser(ownerID string, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() { r.release(ownerID, e) })
	}
}

func (r *Registry) release(ownerID string, e *entry) {
	r.mu.Lock()
	e.refs--
	if e.refs > 0 || r.views[ownerID] != e {
		r.mu.Unlock()
		return
	}
	if r.idleTTL > 0 {
		e.idle = time.AfterFunc(r.idleTTL, func() { r.expire(ownerID, e) })
		r.mu.Unlock()
		return
	}
	delete(r.views, ownerID)
	r.mu.Unlock()

	_ = e.view.Close()
}

func (r *Registry) expire(ownerID string, e *entry) {
	r.mu.Lock()
	if r.views[ownerID] != e || e.refs > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.views, ownerID)
	r.mu.Unlock()

	if err := e.view.Close(); err != nil {
		r.log.LogWarnf("expire", "closing idle view: %v", err)
	}
}

// Len is the number of cached views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) snapshotViews() []*LiveView {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*LiveView, 0, len(r.views))
	for _, e := range r.views {
		out = append(out, e.view)
	}
	return out
}

// ResyncAll re-queries every cached view. It backs up the change feed when
// a notification was lost.
func (r *Registry) ResyncAll(ctx context.Context) int {
	views := r.snapshotViews()
	for _, v := range views {
		if err := v.Refresh(ctx); err != nil {
			r.log.LogWarnf("resync", "owner=%s: %v", v.OwnerID(), err)
		}
	}
	return len(views)
}

// watch opens the shared change subscription unless one is running. A
// failure is logged and retried on the next acquisition; until then views
// see their own writes and the periodic resync.
func (r *Registry) watch(ctx context.Context) {
	f := r.svc.Feed()
	if f == nil {
		return
	}

	r.feedMu.Lock()
	defer r.feedMu.Unlock()
	if r.sub != nil || r.isClosed() {
		return
	}

	sub, err := f.Subscribe(ctx)
	if err != nil {
		r.log.LogErrorf("subscribe", "change feed unavailable: %v", err)
		return
	}
	r.sub = sub
	r.feedDone = make(chan struct{})
	go r.dispatch(sub, r.feedDone)
}

func (r *Registry) dispatch(sub feed.Subscription, done chan struct{}) {
	defer close(done)
	for ch := range sub.Events() {
		r.changes.Add(1)
		r.notify(ch.OwnerID)
	}

	r.feedMu.Lock()
	lost := r.sub == sub
	if lost {
		r.sub = nil
	}
	r.feedMu.Unlock()

	if lost {
		r.log.LogWarn("dispatch", "change feed closed, resubscribing on next acquisition")
		_ = sub.Close()
	}
}

// notify wakes the view of ownerID, or every view when the owner is unknown.
func (r *Registry) notify(ownerID string) {
	r.mu.Lock()
	var targets []*LiveView
	if ownerID == "" {
		for _, e := range r.views {
			targets = append(targets, e.view)
		}
	} else if e, ok := r.views[ownerID]; ok {
		targets = append(targets, e.view)
	}
	r.mu.Unlock()

	for _, v := range targets {
		v.Notify()
	}
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Close tears down every view and the shared subscription. Later
// acquisitions return uncached views.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	entries := make([]*entry, 0, len(r.views))
	for id, e := range r.views {
		if e.idle != nil {
			e.idle.Stop()
		}
		entries = append(entries, e)
		delete(r.views, id)
	}
	r.mu.Unlock()

	for _, e := range entries {
		_ = e.view.Close()
	}

	r.feedMu.Lock()
	sub, done := r.sub, r.feedDone
	r.sub = nil
	r.feedMu.Unlock()
	if sub != nil {
		if err := sub.Close(); err != nil {
			r.log.LogWarnf("close", "closing change subscription: %v", err)
		}
		<-done
	}
}
