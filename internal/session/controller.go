// Package session owns the lifecycle of one live test session: submission,
// polling, aggregation and publication of view snapshots.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"reqtester/internal/registry"
	"reqtester/internal/request"
	"reqtester/pkg/tester"
)

var (
	// ErrAlreadyRunning rejects a submit while a submitted session is polling.
	ErrAlreadyRunning = errors.New("a test session is already running")
	// ErrNoSession is returned when an operation needs a current session.
	ErrNoSession = errors.New("no current session")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session controller closed")
)

// Options wires a Controller.
type Options struct {
	Backend  tester.Backend
	Registry *registry.Registry
	Observer Observer
	Logger   *zap.Logger
	Policy   Policy
	Limits   request.Limits
	// RefreshTimeout bounds the session-list refresh after a chain ends.
	RefreshTimeout time.Duration
	Now            func() time.Time
}

// Controller serializes session state behind one mutex. Poll chains run on
// their own goroutines and are identified by a generation number; a chain
// whose generation is no longer current never mutates state.
type Controller struct {
	backend        tester.Backend
	registry       *registry.Registry
	observer       Observer
	logger         *zap.Logger
	policy         Policy
	limits         request.Limits
	refreshTimeout time.Duration
	now            func() time.Time

	mu         sync.Mutex
	sessionID  string
	running    bool
	generation uint64
	chain      *chain
	lastChain  *chain
	view       View
	closed     bool
}

// New constructs a controller.
func New(opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, errors.New("session backend is required")
	}
	reg := opts.Registry
	if reg == nil {
		reg = registry.New(opts.Backend)
	}
	observer := opts.Observer
	if observer == nil {
		observer = nopObserver{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limits := opts.Limits
	if limits.MaxCount <= 0 {
		limits = request.DefaultLimits
	}
	refreshTimeout := opts.RefreshTimeout
	if refreshTimeout <= 0 {
		refreshTimeout = 10 * time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Controller{
		backend:        opts.Backend,
		registry:       reg,
		observer:       observer,
		logger:         logger,
		policy:         opts.Policy.withDefaults(),
		limits:         limits,
		refreshTimeout: refreshTimeout,
		now:            now,
		view:           View{Phase: PhaseIdle},
	}, nil
}

// Submit validates spec, sends it and starts polling the new session.
// It returns the backend's session id.
func (c *Controller) Submit(ctx context.Context, spec request.Spec) (string, error) {
	if err := spec.Validate(c.limits); err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	if c.running {
		c.mu.Unlock()
		return "", ErrAlreadyRunning
	}
	ch := c.startChainLocked(true)
	c.sessionID = ""
	c.view.resetResults()
	c.view.Phase = PhaseSubmitting
	c.view.Total = spec.Count
	snap := c.publishLocked()
	c.mu.Unlock()
	c.observer.Publish(snap)

	resp, err := c.backend.Submit(ctx, spec.ToWire())

	c.mu.Lock()
	if c.chain != ch {
		c.mu.Unlock()
		ch.finish()
		if err != nil {
			return "", errors.Wrap(err, "submit test")
		}
		c.logger.Info("session submitted after switch; not polling",
			zap.String("session_id", resp.SessionID),
			zap.Uint64("generation", ch.gen))
		return resp.SessionID, nil
	}
	if err != nil {
		c.endChainLocked(ch)
		c.view.Phase = PhaseFailed
		c.view.Err = errors.Wrap(err, "submit test")
		snap = c.publishLocked()
		c.mu.Unlock()
		c.observer.Publish(snap)
		ch.finish()
		c.logger.Warn("submit failed", zap.Error(err))
		return "", snap.Err
	}
	ch.sessionID = resp.SessionID
	c.sessionID = resp.SessionID
	c.view.SessionID = resp.SessionID
	c.view.Status = tester.StatusRunning
	c.view.Phase = PhasePolling
	snap = c.publishLocked()
	c.mu.Unlock()
	c.observer.Publish(snap)

	c.logger.Info("session submitted",
		zap.String("session_id", resp.SessionID),
		zap.String("mode", string(spec.Mode)),
		zap.Int("count", spec.Count),
		zap.Uint64("generation", ch.gen))
	go c.loop(ch, 0, pollState{lastOK: c.now()})
	return resp.SessionID, nil
}

// Select makes id the current session, fetches its results and keeps polling
// while it is still running. Any previous chain is invalidated.
func (c *Controller) Select(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNoSession
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	ch := c.startChainLocked(false)
	ch.sessionID = id
	c.sessionID = id
	c.view.resetResults()
	c.view.SessionID = id
	c.view.Phase = PhaseLoading
	snap := c.publishLocked()
	c.mu.Unlock()
	c.observer.Publish(snap)

	fetchCtx, cancel := mergeCancel(ctx, ch.ctx)
	res, err := c.backend.Results(fetchCtx, id)
	cancel()
	if err != nil {
		err = errors.Wrapf(err, "load session %s", id)
		c.mu.Lock()
		if c.chain == ch {
			c.endChainLocked(ch)
			c.view.Phase = PhaseFailed
			c.view.Err = err
			snap = c.publishLocked()
			c.mu.Unlock()
			c.observer.Publish(snap)
		} else {
			c.mu.Unlock()
		}
		ch.finish()
		return err
	}

	state := pollState{lastOK: c.now()}
	delay, more := c.apply(ch, res, nil, &state)
	if more {
		go c.loop(ch, delay, state)
	}
	return nil
}

// Reload re-selects the current session.
func (c *Controller) Reload(ctx context.Context) error {
	c.mu.Lock()
	id := c.sessionID
	c.mu.Unlock()
	if id == "" {
		return ErrNoSession
	}
	return c.Select(ctx, id)
}

// Delete removes one session. When it is the current session the view is
// cleared. A failed delete leaves results untouched.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.registry.Delete(ctx, id); err != nil {
		c.logger.Warn("delete session failed", zap.String("session_id", id), zap.Error(err))
		c.setSessionsErr(err)
		return err
	}
	c.logger.Info("session deleted", zap.String("session_id", id))
	c.mu.Lock()
	if c.sessionID == id {
		c.clearCurrentLocked()
	}
	snap := c.publishLocked()
	c.mu.Unlock()
	c.observer.Publish(snap)
	return c.RefreshSessions(ctx)
}

// DeleteAll deletes every session, continuing past individual failures.
func (c *Controller) DeleteAll(ctx context.Context) (registry.DeleteReport, error) {
	report, err := c.registry.DeleteAll(ctx)
	if err != nil {
		c.setSessionsErr(err)
		return report, err
	}
	c.logger.Info("sessions cleared",
		zap.Int("attempted", len(report.Attempted)),
		zap.Int("deleted", len(report.Deleted)),
		zap.Int("failed", len(report.Failed)))

	c.mu.Lock()
	for _, id := range report.Deleted {
		if id == c.sessionID {
			c.clearCurrentLocked()
			break
		}
	}
	snap := c.publishLocked()
	c.mu.Unlock()
	c.observer.Publish(snap)

	refreshErr := c.RefreshSessions(ctx)
	if reportErr := report.Err(); reportErr != nil {
		c.setSessionsErr(reportErr)
		return report, reportErr
	}
	return report, refreshErr
}

// RefreshSessions reloads the session list into the view.
func (c *Controller) RefreshSessions(ctx context.Context) error {
	sessions, err := c.registry.List(ctx)
	c.mu.Lock()
	if err != nil {
		c.view.SessionsErr = err
	} else {
		c.view.Sessions = sessions
		c.view.SessionsErr = nil
	}
	snap := c.publishLocked()
	c.mu.Unlock()
	c.observer.Publish(snap)
	return err
}

// View returns the latest snapshot.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// Running reports whether a submitted session is still being polled.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Wait blocks until the most recent chain ends or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	ch := c.lastChain
	c.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close invalidates any chain. Further submits fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	ch := c.chain
	c.invalidateLocked()
	c.mu.Unlock()
	if ch != nil {
		ch.finish()
	}
}

func (c *Controller) setSessionsErr(err error) {
	c.mu.Lock()
	c.view.SessionsErr = err
	snap := c.publishLocked()
	c.mu.Unlock()
	c.observer.Publish(snap)
}

// clearCurrentLocked forgets the current session and stops its chain.
func (c *Controller) clearCurrentLocked() {
	ch := c.chain
	c.invalidateLocked()
	if ch != nil {
		ch.finish()
	}
	c.sessionID = ""
	c.view.resetResults()
}

// startChainLocked invalidates the live chain and registers a new one.
// An owned chain holds the running guard until it ends.
func (c *Controller) startChainLocked(owned bool) *chain {
	if prev := c.chain; prev != nil {
		c.invalidateLocked()
		prev.finish()
		c.logger.Debug("poll chain invalidated",
			zap.String("session_id", prev.sessionID),
			zap.Uint64("generation", prev.gen))
	}
	c.generation++
	ch := newChain(c.generation, owned)
	c.chain = ch
	c.lastChain = ch
	if owned {
		c.running = true
	}
	return ch
}

// invalidateLocked detaches the live chain. Callers finish it outside
// or after the state change; finishing is idempotent.
func (c *Controller) invalidateLocked() {
	if c.chain == nil {
		return
	}
	if c.chain.owned {
		c.running = false
	}
	c.chain = nil
	c.generation++
}

// endChainLocked detaches ch after it reached a terminal state.
func (c *Controller) endChainLocked(ch *chain) {
	if c.chain != ch {
		return
	}
	if ch.owned {
		c.running = false
	}
	c.chain = nil
}

func (c *Controller) publishLocked() View {
	c.view.Version++
	c.view.UpdatedAt = c.now()
	return c.view.clone()
}
