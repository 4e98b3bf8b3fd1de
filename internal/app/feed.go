package app

import (
	"sync"

	"quizdeck/internal/domain"
)

// ResultFeed fans newly persisted results out to in-process subscribers.
// The websocket transport attaches admin clients to it for a live view of
// incoming submissions.
type ResultFeed struct {
	mu          sync.Mutex
	subscribers map[chan domain.Result]struct{}
}

func NewResultFeed() *ResultFeed {
	return &ResultFeed{
		subscribers: make(map[chan domain.Result]struct{}),
	}
}

// Subscribe returns a channel that receives every result published after
// the call. The caller must invoke the returned cancel function to avoid
// leaks.
func (f *ResultFeed) Subscribe() (<-chan domain.Result, func()) {
	ch := make(chan domain.Result, 8)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers a result to all subscribers. A subscriber with a full
// buffer has its oldest pending result dropped so slow consumers never
// block submission handling.
func (f *ResultFeed) Publish(result domain.Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- result:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- result
		}
	}
}
