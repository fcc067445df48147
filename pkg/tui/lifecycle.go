package tui

import (
	"context"
	"sync/atomic"
)

var sessionSeq atomic.Uint64

// lifecycle binds one view activation to a session token. Every fetch a view
// issues carries the token and runs under the session context; after
// teardown the context is cancelled and messages for the token are refused.
type lifecycle struct {
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	token  uint64
	active bool
	closed bool
}

func newLifecycle(parent context.Context) lifecycle {
	if parent == nil {
		parent = context.Background()
	}
	return lifecycle{parent: parent}
}

// activate opens the session. Only the first call reports true; the caller
// issues its initial fetches exactly then.
func (l *lifecycle) activate() bool {
	if l.active || l.closed {
		return false
	}
	l.ctx, l.cancel = context.WithCancel(l.parent)
	l.token = sessionSeq.Add(1)
	l.active = true
	return true
}

// teardown cancels in-flight fetches and closes the session for good.
func (l *lifecycle) teardown() {
	if l.cancel != nil {
		l.cancel()
	}
	l.active = false
	l.closed = true
}

func (l lifecycle) accepts(token uint64) bool {
	return l.active && !l.closed && token == l.token
}

func (l lifecycle) context() context.Context {
	if l.ctx == nil {
		return l.parent
	}
	return l.ctx
}
