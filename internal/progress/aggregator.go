// Package progress tracks aggregate batch progress across concurrent transfers.
//
// Counters are plain atomics so transfers never serialize on each other. Observers
// subscribe to a latest-value stream: each subscriber holds at most one pending
// Snapshot, and publishing never blocks the transfer that triggered it.
package progress

import (
	"sync"
	"sync/atomic"
)

// Snapshot is a point-in-time read of the batch counters.
type Snapshot struct {
	FilesCompleted uint64 `json:"files_completed"`
	FilesTotal     uint64 `json:"files_total"`
	BytesCompleted uint64 `json:"bytes_completed"`
	BytesTotal     uint64 `json:"bytes_total"`
}

// Done reports whether every file in the batch has completed.
func (s Snapshot) Done() bool {
	return s.FilesTotal > 0 && s.FilesCompleted >= s.FilesTotal
}

// Percent is the byte completion ratio, or the file ratio when no sizes are known yet.
func (s Snapshot) Percent() float64 {
	if s.BytesTotal > 0 {
		p := float64(s.BytesCompleted) / float64(s.BytesTotal) * 100
		if p > 100 {
			p = 100
		}
		return p
	}
	if s.FilesTotal > 0 {
		return float64(s.FilesCompleted) / float64(s.FilesTotal) * 100
	}
	return 0
}

type Aggregator struct {
	filesCompleted atomic.Uint64
	filesTotal     atomic.Uint64
	bytesCompleted atomic.Uint64
	bytesTotal     atomic.Uint64

	// mu guards subs and orders publishes; it is never held across I/O.
	mu   sync.Mutex
	subs map[chan Snapshot]struct{}
}

func NewAggregator() *Aggregator {
	return &Aggregator{subs: make(map[chan Snapshot]struct{})}
}

// Reset seeds the counters for a new batch and publishes the initial snapshot.
func (a *Aggregator) Reset(filesTotal, bytesTotal uint64) {
	a.filesCompleted.Store(0)
	a.bytesCompleted.Store(0)
	a.filesTotal.Store(filesTotal)
	a.bytesTotal.Store(bytesTotal)
	a.Publish()
}

// Advance records n freshly written bytes. growth raises BytesTotal first, so a
// published snapshot never shows more completed bytes than total bytes.
func (a *Aggregator) Advance(n, growth uint64) {
	if growth > 0 {
		a.bytesTotal.Add(growth)
	}
	a.bytesCompleted.Add(n)
	a.Publish()
}

// Rollback removes bytes credited by a transfer that did not complete.
func (a *Aggregator) Rollback(n uint64) {
	if n == 0 {
		return
	}
	a.bytesCompleted.Add(^(n - 1))
	a.Publish()
}

// CreditFresh counts a file that needed no transfer, with its declared size.
func (a *Aggregator) CreditFresh(size uint64) {
	a.bytesCompleted.Add(size)
	a.filesCompleted.Add(1)
	a.Publish()
}

func (a *Aggregator) FileCompleted() {
	a.filesCompleted.Add(1)
	a.Publish()
}

func (a *Aggregator) Snapshot() Snapshot {
	return Snapshot{
		FilesCompleted: a.filesCompleted.Load(),
		FilesTotal:     a.filesTotal.Load(),
		BytesCompleted: a.bytesCompleted.Load(),
		BytesTotal:     a.bytesTotal.Load(),
	}
}

// Subscribe returns a channel carrying the latest snapshot and a cancel func
// that detaches and closes it.
func (a *Aggregator) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	a.mu.Lock()
	a.subs[ch] = struct{}{}
	ch <- a.Snapshot()
	a.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.subs, ch)
			close(ch)
			a.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish pushes the current snapshot to every subscriber, replacing any value
// the subscriber has not consumed yet.
func (a *Aggregator) Publish() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.subs) == 0 {
		return
	}

	s := a.Snapshot()
	for ch := range a.subs {
		select {
		case ch <- s:
			continue
		default:
		}

		// Slot is full: drop the stale value and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
}
