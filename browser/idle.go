package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// Network idle is reached when no more than idleMaxInflight requests have
// been outstanding for idleQuietPeriod.
const (
	idleMaxInflight = 2
	idleQuietPeriod = 500 * time.Millisecond
	idlePollEvery   = 100 * time.Millisecond
)

// idleTracker counts in-flight requests from network events.
type idleTracker struct {
	mu         sync.Mutex
	inflight   map[network.RequestID]struct{}
	lastChange time.Time
	now        func() time.Time
}

func newIdleTracker() *idleTracker {
	return &idleTracker{
		inflight:   make(map[network.RequestID]struct{}),
		lastChange: time.Now(),
		now:        time.Now,
	}
}

// observe is a chromedp target listener.
func (t *idleTracker) observe(ev interface{}) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.started(e.RequestID)
	case *network.EventLoadingFinished:
		t.finished(e.RequestID)
	case *network.EventLoadingFailed:
		t.finished(e.RequestID)
	}
}

func (t *idleTracker) started(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.lastChange = t.now()
}

func (t *idleTracker) finished(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.lastChange = t.now()
}

// idle reports whether the quiet period has elapsed with few enough
// requests outstanding.
func (t *idleTracker) idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.inflight) > idleMaxInflight {
		return false
	}
	return t.now().Sub(t.lastChange) >= idleQuietPeriod
}

// wait blocks until the network is idle or ctx is done.
func (t *idleTracker) wait(ctx context.Context) error {
	ticker := time.NewTicker(idlePollEvery)
	defer ticker.Stop()

	for {
		if t.idle() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
