// Package eventbus implements an asynchronous publish/subscribe bus with a
// single dispatch goroutine and FIFO delivery.
package eventbus

import (
	"log"
	"sync"
	"sync/atomic"
)

// Event is an opaque value delivered to every subscribed handler. Ownership
// transfers to the bus on Publish and to the dispatcher on delivery.
type Event interface{}

// Handler consumes one event. Handlers run on the dispatch goroutine, in
// subscription order, never while the bus lock is held. A handler may call
// Subscribe or Publish; new handlers only see subsequent events.
type Handler func(Event)

// Stats exposes current bus counters.
type Stats struct {
	Published     uint64
	Dispatched    uint64
	Pending       int
	Subscribers   int
	HandlerPanics uint64
}

// Bus dispatches published events to all subscribed handlers in FIFO order
// on one dedicated goroutine. All methods are safe for concurrent use.
//
// The queue is unbounded: Publish never blocks on handler execution and
// never fails. Stop blocks until every queued event has been delivered and
// the dispatch goroutine has exited.
type Bus struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []Event
	handlers []Handler

	running       bool
	stopRequested bool
	done          chan struct{}

	published     uint64
	dispatched    uint64
	handlerPanics uint64
}

// New creates an idle bus. Call Start before expecting delivery; events
// published earlier are retained and delivered once the bus starts.
func New() *Bus {
	b := &Bus{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Subscribe appends handler to the delivery list. Handlers are invoked for
// every event dispatched after subscription, in subscription order. There
// is no unsubscribe; the list is append-only.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish queues event for asynchronous delivery and wakes the dispatcher.
// It never blocks on handlers and is safe to call before Start.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	b.queue = append(b.queue, event)
	b.published++
	b.cond.Signal()
	b.mu.Unlock()
}

// Start launches the dispatch goroutine. Calling Start on a running bus is
// a logged no-op; at most one dispatcher exists at any time.
func (b *Bus) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		log.Printf("eventbus: start ignored, already running")
		return
	}
	b.stopRequested = false
	b.running = true
	b.done = make(chan struct{})
	go b.dispatchLoop(b.done)
}

// Stop signals the dispatcher and blocks until the queue is fully drained
// and the dispatch goroutine has exited. Every event published before Stop
// is delivered to all currently subscribed handlers before Stop returns.
// Stop without a prior Start, or repeated Stop, is a no-op.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.stopRequested = true
	done := b.done
	b.cond.Broadcast()
	b.mu.Unlock()

	<-done

	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
}

// Stats returns a snapshot of the bus counters.
func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{
		Published:     b.published,
		Dispatched:    b.dispatched,
		Pending:       len(b.queue),
		Subscribers:   len(b.handlers),
		HandlerPanics: atomic.LoadUint64(&b.handlerPanics),
	}
}

// dispatchLoop runs on the dispatch goroutine: wait for work or a stop
// request, pop one event, snapshot the handler list, release the lock,
// then invoke handlers. Exits only when stop was requested and the queue
// is empty.
func (b *Bus) dispatchLoop(done chan struct{}) {
	defer close(done)
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.stopRequested {
			b.cond.Wait()
		}
		if b.stopRequested && len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		event := b.queue[0]
		b.queue[0] = nil
		b.queue = b.queue[1:]
		b.dispatched++
		handlers := append([]Handler(nil), b.handlers...)
		b.mu.Unlock()

		for _, h := range handlers {
			b.invoke(h, event)
		}
	}
}

// invoke isolates one handler call so a panicking subscriber cannot abort
// the dispatch loop or starve the remaining handlers.
func (b *Bus) invoke(h Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddUint64(&b.handlerPanics, 1)
			log.Printf("eventbus: handler panic recovered: %v", r)
		}
	}()
	h(event)
}
