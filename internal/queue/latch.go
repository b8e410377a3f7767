package queue

import "sync/atomic"

// Latch is a one-shot flag. The first TryFire wins; every later call, from
// any goroutine, returns false.
type Latch struct {
	fired atomic.Bool
}

func (l *Latch) TryFire() bool {
	return l.fired.CompareAndSwap(false, true)
}

func (l *Latch) Fired() bool {
	return l.fired.Load()
}
