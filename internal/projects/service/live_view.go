package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ansen-2255/ansen-portfolio/internal/debounce"
	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/metrics"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/feed"
)

// State of a LiveView.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateSubscribing   State = "subscribing"
	StateSynced        State = "synced"
	StateRequerying    State = "requerying"
	StateError         State = "error"
)

var ErrViewClosed = errors.New("project view closed")

// Options tune a LiveView.
type Options struct {
	CreateDebounce time.Duration
	QueryTimeout   time.Duration
}

func (o Options) withDefaults() Options {
	if o.CreateDebounce <= 0 {
		o.CreateDebounce = 300 * time.Millisecond
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = 10 * time.Second
	}
	return o
}

// Snapshot is a copy of the view's state at one point in time.
type Snapshot struct {
	State    State            `json:"state"`
	Projects []domain.Project `json:"projects"`
	Err      string           `json:"error,omitempty"`
	// Version increases whenever Projects or Err changes.
	Version uint64 `json:"version"`
	// CreatePending is set while a debounced create waits to be submitted.
	CreatePending bool `json:"create_pending"`
}

// LiveView keeps an in-memory list of one owner's projects eventually
// consistent with the store. Every change notification, from any writer,
// triggers a full re-query; bursts of notifications coalesce and stale
// re-queries are discarded by epoch.
type LiveView struct {
	svc     *ProjectService
	ownerID string
	opts    Options
	log     *logging.Logger
	// shared views are woken through Notify instead of holding a subscription
	shared bool

	create *debounce.Debouncer[domain.Fields]
	wake   chan struct{}
	epoch  atomic.Uint64

	mu       sync.RWMutex
	state    State
	projects []domain.Project
	queryErr string
	// actionErr is the outcome of the last failed mutation, cleared by the next successful one.
	actionErr string
	version   uint64
	applied   uint64

	lifeMu  sync.Mutex
	sub     feed.Subscription
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	closed  bool
}

func NewLiveView(svc *ProjectService, ownerID string, opts Options) *LiveView {
	opts = opts.withDefaults()
	v := &LiveView{
		svc:      svc,
		ownerID:  ownerID,
		opts:     opts,
		log:      logging.Named("projects.view"),
		wake:     make(chan struct{}, 1),
		state:    StateUninitialized,
		projects: []domain.Project{},
	}
	v.create = debounce.New(opts.CreateDebounce, v.insert)
	return v
}

func newSharedView(svc *ProjectService, ownerID string, opts Options) *LiveView {
	v := NewLiveView(svc, ownerID, opts)
	v.shared = true
	return v
}

// Notify schedules a re-query, as a change notification would.
func (v *LiveView) Notify() {
	v.poke()
}

// OwnerID is the identity whose projects this view holds.
func (v *LiveView) OwnerID() string {
	return v.ownerID
}

// Start subscribes to change notifications and performs the initial query.
// ctx bounds only the subscription; the initial query runs to completion
// even if ctx is cancelled.
func (v *LiveView) Start(ctx context.Context) error {
	v.lifeMu.Lock()
	defer v.lifeMu.Unlock()

	if v.closed {
		return ErrViewClosed
	}
	if v.started {
		return nil
	}
	if err := v.svc.check(v.ownerID); err != nil {
		v.fail(err)
		return err
	}

	v.setState(StateSubscribing)
	var events <-chan domain.Change
	if f := v.svc.Feed(); f != nil && !v.shared {
		sub, err := f.Subscribe(ctx)
		if err != nil {
			v.fail(fmt.Errorf("subscribe to changes: %w", err))
			return err
		}
		v.sub = sub
		events = sub.Events()
	}
	v.started = true
	metrics.ActiveViews.Inc()

	// the initial query failing leaves the view in StateError; it stays
	// subscribed and recovers on the next notification
	_ = v.Refresh(context.WithoutCancel(ctx))

	loopCtx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.done = make(chan struct{})
	go v.loop(loopCtx, events)
	return nil
}

func (v *LiveView) loop(ctx context.Context, events <-chan domain.Change) {
	defer close(v.done)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				v.log.LogWarn("loop", "change feed closed, view relies on resync")
				events = nil
				continue
			}
			v.drain(events)
			_ = v.Refresh(ctx)
		case <-v.wake:
			v.drain(events)
			_ = v.Refresh(ctx)
		}
	}
}

// drain swallows notifications already queued; one re-query covers them all.
func (v *LiveView) drain(events <-chan domain.Change) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-v.wake:
		default:
			return
		}
	}
}

func (v *LiveView) poke() {
	select {
	case v.wake <- struct{}{}:
	default:
	}
}

// Refresh re-queries the owner's projects. A result older than one already
// applied is discarded. On failure the last good list is retained.
func (v *LiveView) Refresh(ctx context.Context) error {
	e := v.epoch.Add(1)

	v.mu.Lock()
	if v.state == StateSynced {
		v.state = StateRequerying
	}
	v.mu.Unlock()

	qctx, cancel := context.WithTimeout(ctx, v.opts.QueryTimeout)
	defer cancel()
	items, err := v.svc.List(qctx, v.ownerID)

	v.mu.Lock()
	defer v.mu.Unlock()

	if e < v.applied {
		metrics.Requeries.WithLabelValues("stale").Inc()
		return nil
	}
	v.applied = e

	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		metrics.Requeries.WithLabelValues("error").Inc()
		v.log.LogError("refresh", err)
		v.state = StateError
		v.queryErr = userMessage("failed to load projects", err)
		v.version++
		return err
	}

	metrics.Requeries.WithLabelValues("success").Inc()
	if items == nil {
		items = []domain.Project{}
	}
	v.projects = items
	v.state = StateSynced
	v.queryErr = ""
	v.version++
	return nil
}

// Create validates f and schedules the insert. Rapid successive calls are
// debounced: only the last one in a burst is submitted. Insert failures are
// reported through the snapshot.
func (v *LiveView) Create(f domain.Fields) error {
	if err := v.svc.check(v.ownerID); err != nil {
		v.recordErr(err)
		return err
	}
	if err := f.Validate(); err != nil {
		v.recordErr(err)
		return err
	}
	v.create.Call(f.Normalize())
	return nil
}

// FlushCreate submits a pending create now and waits for the list to
// include it.
func (v *LiveView) FlushCreate() {
	v.create.Flush()
}

func (v *LiveView) insert(f domain.Fields) {
	ctx, cancel := context.WithTimeout(context.Background(), v.opts.QueryTimeout)
	defer cancel()

	if _, err := v.svc.Create(ctx, v.ownerID, f); err != nil {
		v.log.LogError("create", err)
		v.recordErr(errors.New(userMessage("failed to add project", err)))
		return
	}
	v.clearErr()
	_ = v.Refresh(context.Background())
}

// Update replaces a project's fields. The id travels separately and is never
// part of the written payload. The list reflects the write when Update returns.
func (v *LiveView) Update(ctx context.Context, id string, f domain.Fields) error {
	if _, err := v.svc.Update(ctx, v.ownerID, id, f); err != nil {
		v.recordErr(errors.New(userMessage("failed to update project", err)))
		return err
	}
	v.clearErr()
	_ = v.Refresh(context.WithoutCancel(ctx))
	return nil
}

// Delete removes a project by id. The list reflects the write when Delete returns.
func (v *LiveView) Delete(ctx context.Context, id string) error {
	if err := v.svc.Delete(ctx, v.ownerID, id); err != nil {
		v.recordErr(errors.New(userMessage("failed to delete project", err)))
		return err
	}
	v.clearErr()
	_ = v.Refresh(context.WithoutCancel(ctx))
	return nil
}

// Snapshot returns a copy of the current state.
func (v *LiveView) Snapshot() Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	items := make([]domain.Project, len(v.projects))
	copy(items, v.projects)
	msg := v.actionErr
	if msg == "" {
		msg = v.queryErr
	}
	return Snapshot{
		State:         v.state,
		Projects:      items,
		Err:           msg,
		Version:       v.version,
		CreatePending: v.create.Pending(),
	}
}

// Close releases the subscription. A pending debounced create is submitted first.
func (v *LiveView) Close() error {
	v.create.Flush()
	v.create.Stop()

	v.lifeMu.Lock()
	defer v.lifeMu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	if v.cancel != nil {
		v.cancel()
		<-v.done
	}
	var err error
	if v.sub != nil {
		err = v.sub.Close()
		v.sub = nil
	}
	if v.started {
		metrics.ActiveViews.Dec()
	}
	v.setState(StateUninitialized)
	return err
}

func (v *LiveView) setState(s State) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}

func (v *LiveView) fail(err error) {
	v.mu.Lock()
	v.state = StateError
	v.queryErr = userMessage("failed to load projects", err)
	v.version++
	v.mu.Unlock()
}

func (v *LiveView) recordErr(err error) {
	v.mu.Lock()
	v.actionErr = err.Error()
	v.version++
	v.mu.Unlock()
}

func (v *LiveView) clearErr() {
	v.mu.Lock()
	if v.actionErr != "" {
		v.actionErr = ""
		v.version++
	}
	v.mu.Unlock()
}

func userMessage(prefix string, err error) string {
	switch {
	case errors.Is(err, domain.ErrNotReady), errors.Is(err, domain.ErrMissingFields):
		return err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return prefix + ": " + domain.ErrNotFound.Error()
	default:
		return prefix + ": " + err.Error()
	}
}
