package core

import (
	"context"
	"sync"
)

const defaultEventBuffer = 100

// broker fans mutations out to subscribers.
type broker struct {
	mu     sync.Mutex
	buffer int
	next   int
	subs   map[int]chan Mutation
	closed bool
}

func newBroker(buffer int) *broker {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &broker{
		buffer: buffer,
		subs:   make(map[int]chan Mutation),
	}
}

func (b *broker) subscribe(ctx context.Context) <-chan Mutation {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Mutation, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	context.AfterFunc(ctx, func() {
		b.unsubscribe(id)
	})
	return ch
}

func (b *broker) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// publish never blocks; a full subscriber buffer drops the event.
func (b *broker) publish(m Mutation) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- m:
		default:
		}
	}
}

func (b *broker) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *broker) close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
