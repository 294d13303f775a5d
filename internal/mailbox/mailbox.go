// Package mailbox implements the cross-thread command channel between the
// controller-facing entry points and the UI loop.
//
// It is a multi-producer, single-consumer queue with an unbounded internal
// buffer: Post never blocks the calling thread, even when the UI loop is
// busy or parked. Commands from a single producer are delivered in the
// order posted; ordering across producers is unspecified.
//
// A command is visible to TryNext before Post invokes the wake hook. This
// is what makes the wake contract hold: a consumer that wakes, polls
// TryNext once and re-parks cannot miss a command whose wake it observed.
package mailbox

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Post after the consumer side has been torn down.
var ErrClosed = errors.New("mailbox: closed")

// Mailbox is the consumer half. It is owned by exactly one goroutine, the
// UI loop; producers interact only through Sender.
type Mailbox struct {
	mu     sync.Mutex
	queue  []any
	head   int
	closed bool

	// wake is invoked after every successful post, so a loop parked on
	// OS events observes the command in bounded time. It must be safe to
	// call from any thread.
	wake func()
}

// New returns a mailbox whose wake hook is invoked on every successful
// post. A nil wake is allowed.
func New(wake func()) *Mailbox {
	return &Mailbox{wake: wake}
}

// Sender returns the producer half. It may be cloned freely and used from
// any thread.
func (m *Mailbox) Sender() *Sender { return &Sender{m: m} }

// TryNext returns the next pending command without blocking. The second
// result is false when no command is pending.
func (m *Mailbox) TryNext() (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.head == len(m.queue) {
		return nil, false
	}
	cmd := m.queue[m.head]
	m.queue[m.head] = nil
	m.head++
	if m.head == len(m.queue) {
		// Fully drained; reuse the backing array from the start.
		m.queue = m.queue[:0]
		m.head = 0
	}
	return cmd, true
}

// Close tears down the consumer side. Every later Post fails with
// ErrClosed; commands still buffered at close time are dropped.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.queue = nil
	m.head = 0
}

// Sender is the producer half of a Mailbox.
type Sender struct {
	m *Mailbox
}

// Post enqueues one command. It never blocks: the command is either
// appended to the unbounded buffer or rejected with ErrClosed. On return
// with a nil error the command is already observable through TryNext, and
// the wake hook has fired.
func (s *Sender) Post(cmd any) error {
	m := s.m
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.queue = append(m.queue, cmd)
	m.mu.Unlock()
	if m.wake != nil {
		m.wake()
	}
	return nil
}
