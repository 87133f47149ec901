package messagebus

import (
	"context"
	"errors"
	"sync"

	cbus "github.com/next-trace/scg-mics/contract/bus"
)

var errMailboxClosed = errors.New("mailbox closed")

// mailbox is an unbounded FIFO with many producers and a single consumer.
type mailbox struct {
	mu     sync.Mutex
	items  []cbus.Message
	closed bool

	signal chan struct{} // capacity 1; wakes the consumer after a push
	done   chan struct{} // closed by close()
}

func newMailbox() *mailbox {
	return &mailbox{
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// push appends m and reports the resulting depth. It fails once the mailbox is closed.
func (mb *mailbox) push(m cbus.Message) (int, bool) {
	mb.mu.Lock()
	if mb.closed {
		mb.mu.Unlock()
		return 0, false
	}

	mb.items = append(mb.items, m)
	depth := len(mb.items)
	mb.mu.Unlock()

	select {
	case mb.signal <- struct{}{}:
	default:
	}

	return depth, true
}

// pop blocks until a message is available, the mailbox is closed or ctx is done.
func (mb *mailbox) pop(ctx context.Context) (cbus.Message, error) {
	for {
		mb.mu.Lock()
		if len(mb.items) > 0 {
			m := mb.items[0]
			mb.items[0] = nil
			mb.items = mb.items[1:]

			if len(mb.items) == 0 {
				mb.items = nil
			}
			mb.mu.Unlock()

			return m, nil
		}

		if mb.closed {
			mb.mu.Unlock()
			return nil, errMailboxClosed
		}
		mb.mu.Unlock()

		select {
		case <-mb.signal:
		case <-mb.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// close rejects further pushes and returns whatever was still queued.
func (mb *mailbox) close() []cbus.Message {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.closed {
		return nil
	}

	mb.closed = true
	rest := mb.items
	mb.items = nil
	close(mb.done)

	return rest
}

func (mb *mailbox) len() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return len(mb.items)
}
