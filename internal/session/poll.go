package session

import (
	"context"
	"sync"
	"time"

	"github.com/Laisky/zap"

	"reqtester/internal/aggregate"
	"reqtester/internal/normalize"
	"reqtester/pkg/tester"
)

// chain is one poll sequence bound to a session id and generation.
type chain struct {
	gen       uint64
	owned     bool
	sessionID string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	once      sync.Once
}

func newChain(gen uint64, owned bool) *chain {
	ctx, cancel := context.WithCancel(context.Background())
	return &chain{
		gen:    gen,
		owned:  owned,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// finish cancels in-flight work and releases waiters.
func (ch *chain) finish() {
	ch.once.Do(func() {
		ch.cancel()
		close(ch.done)
	})
}

type pollState struct {
	failures int
	lastOK   time.Time
}

// loop fetches results until apply reports the chain is over.
func (c *Controller) loop(ch *chain, delay time.Duration, state pollState) {
	for {
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ch.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
		if ch.ctx.Err() != nil {
			return
		}
		res, err := c.backend.Results(ch.ctx, ch.sessionID)
		var more bool
		delay, more = c.apply(ch, res, err, &state)
		if !more {
			return
		}
	}
}

// apply folds one poll outcome into the view. It returns the delay before
// the next poll and whether the chain continues. The generation check and
// the mutation happen under one lock acquisition.
func (c *Controller) apply(ch *chain, res tester.ResultsResponse, err error, state *pollState) (time.Duration, bool) {
	c.mu.Lock()
	if c.chain != ch {
		c.mu.Unlock()
		c.logger.Debug("stale poll dropped",
			zap.String("session_id", ch.sessionID),
			zap.Uint64("generation", ch.gen))
		return 0, false
	}

	if err != nil {
		state.failures++
		sinceOK := c.now().Sub(state.lastOK)
		c.view.Failures = state.failures
		c.view.Err = err
		if c.policy.exhausted(state.failures, sinceOK, err) {
			c.endChainLocked(ch)
			c.view.Phase = PhaseStalled
			snap := c.publishLocked()
			c.mu.Unlock()
			c.observer.Publish(snap)
			c.logger.Warn("polling stalled",
				zap.String("session_id", ch.sessionID),
				zap.Int("failures", state.failures),
				zap.Duration("since_success", sinceOK),
				zap.Error(err))
			ch.finish()
			return 0, false
		}
		snap := c.publishLocked()
		c.mu.Unlock()
		c.observer.Publish(snap)
		c.logger.Debug("poll failed, retrying",
			zap.String("session_id", ch.sessionID),
			zap.Int("failures", state.failures),
			zap.Error(err))
		return c.policy.ErrorInterval, true
	}

	state.failures = 0
	state.lastOK = c.now()
	records := normalize.DecodeAll(res.Results)
	c.view.Records = records
	c.view.Summary = aggregate.Summarize(records)
	c.view.Status = res.Status
	c.view.Completed = res.Completed
	c.view.Total = res.Total
	c.view.ProgressPct = aggregate.ProgressPct(res.Completed, res.Total)
	c.view.Failures = 0
	c.view.Err = nil

	if res.Status == tester.StatusRunning {
		c.view.Phase = PhasePolling
		snap := c.publishLocked()
		c.mu.Unlock()
		c.observer.Publish(snap)
		return c.policy.PollInterval, true
	}

	c.endChainLocked(ch)
	if res.Status == tester.StatusCompleted {
		c.view.Phase = PhaseCompleted
	} else {
		c.view.Phase = PhaseFailed
	}
	snap := c.publishLocked()
	c.mu.Unlock()
	c.observer.Publish(snap)
	c.logger.Info("session finished",
		zap.String("session_id", ch.sessionID),
		zap.String("status", string(res.Status)),
		zap.Int("success", snap.Summary.SuccessCount),
		zap.Int("errors", snap.Summary.ErrorCount))

	refreshCtx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
	if err := c.RefreshSessions(refreshCtx); err != nil {
		c.logger.Warn("refresh sessions failed", zap.Error(err))
	}
	cancel()
	ch.finish()
	return 0, false
}

// mergeCancel returns a context cancelled when either parent is done.
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
