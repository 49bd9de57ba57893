package eventbus

import "sync"

// defaultBuffer is the channel capacity handed out by Subscribe.
const defaultBuffer = 8

// TypedBus fans events of type T out to its subscribers. Publishing
// never blocks: a subscriber that falls behind loses events instead of
// stalling the publisher.
type TypedBus[T any] struct {
	mu        sync.RWMutex
	receivers []chan T
	closed    bool
}

// NewTyped creates an empty bus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish delivers e to every subscriber with room in its buffer.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.receivers {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a subscriber with the default buffer size.
func (b *TypedBus[T]) Subscribe() <-chan T {
	return b.SubscribeBuffered(defaultBuffer)
}

// SubscribeBuffered registers a subscriber whose channel holds up to n
// pending events. With n == 1 the subscription acts as a coalescing
// wake-up signal. On a closed bus the returned channel arrives already
// closed.
func (b *TypedBus[T]) SubscribeBuffered(n int) <-chan T {
	if n < 1 {
		n = 1
	}
	ch := make(chan T, n)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.receivers = append(b.receivers, ch)
	return ch
}

// Unsubscribe detaches the subscriber and closes its channel. Unknown
// channels, including any handed out before Close, are ignored.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.receivers[:0]
	var dropped chan T
	for _, ch := range b.receivers {
		if ch == sub {
			dropped = ch
			continue
		}
		kept = append(kept, ch)
	}
	b.receivers = kept
	if dropped != nil {
		close(dropped)
	}
}

// Close shuts the bus down and closes every subscriber channel. Later
// publishes are dropped.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	detached := b.receivers
	b.receivers = nil
	b.mu.Unlock()

	// Sends happen under the read lock, so nothing can be mid-send on
	// these channels once the write lock is released.
	for _, ch := range detached {
		close(ch)
	}
}
