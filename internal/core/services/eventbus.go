package services

import (
	"sync"

	"github.com/tao-shen/CiteTrack-sub002/internal/core/domain"
)

// EventBus fans change events out to subscribers.
//
// Every subscriber owns an ordered mailbox drained by its own goroutine, so
// Publish never blocks on a slow handler and a handler may call back into
// the publisher. A batch passed to one Publish call is appended to every
// mailbox under a single lock, so batches never interleave.
type EventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
	closed bool
}

type subscriber struct {
	handler func(domain.ChangeEvent)

	mu      sync.Mutex
	pending []domain.ChangeEvent
	busy    bool
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[int]*subscriber)}
}

// Subscribe registers handler. Events are delivered in publish order.
// The returned function removes the subscription; events already queued
// for it are dropped.
func (b *EventBus) Subscribe(handler func(domain.ChangeEvent)) func() {
	sub := &subscriber{
		handler: handler,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub
	b.mu.Unlock()

	go sub.run()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		sub.stop()
	}
}

// Publish queues events for every subscriber.
func (b *EventBus) Publish(events ...domain.ChangeEvent) {
	if len(events) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		sub.enqueue(events)
	}
}

// Idle reports whether every subscriber has handled everything queued.
func (b *EventBus) Idle() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subs {
		sub.mu.Lock()
		busy := sub.busy || len(sub.pending) > 0
		sub.mu.Unlock()
		if busy {
			return false
		}
	}
	return true
}

// Close stops every subscriber and waits for in-flight handlers to return.
func (b *EventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[int]*subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.stop()
		<-sub.stopped
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *subscriber) enqueue(events []domain.ChangeEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, events...)
	s.mu.Unlock()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if len(s.pending) == 0 {
				s.busy = false
				s.mu.Unlock()
				break
			}
			ev := s.pending[0]
			s.pending = s.pending[1:]
			s.busy = true
			s.mu.Unlock()

			select {
			case <-s.done:
				return
			default:
			}
			s.handler(ev)
		}
	}
}
