package render

import (
	"sync"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/logger"
)

// Completion is work handed back to the render goroutine, typically the
// result of an asynchronous load.
type Completion func(rc *Context)

// Mailbox queues completions posted from any goroutine and runs them at the
// start of the next frame, before any job.
type Mailbox struct {
	mu      sync.Mutex
	pending []Completion
	spare   []Completion
	log     *logger.Logger
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{log: logger.Get("render").WithComponent("mailbox")}
}

// Post queues fn. Safe for concurrent use.
func (m *Mailbox) Post(fn Completion) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.pending = append(m.pending, fn)
	m.mu.Unlock()
}

// Pending returns the number of queued completions.
func (m *Mailbox) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Drain runs every completion queued so far in posting order and returns
// how many ran. Completions may register frame resources. A panicking
// completion is logged and dropped. Completions posted while draining wait
// for the next frame.
func (m *Mailbox) Drain(rc *Context) int {
	m.mu.Lock()
	batch := m.pending
	m.pending = m.spare[:0]
	m.mu.Unlock()

	rc.enter("mailbox", true)
	defer rc.leave()
	for _, fn := range batch {
		m.run(rc, fn)
	}

	n := len(batch)
	clear(batch)
	m.spare = batch[:0]
	return n
}

func (m *Mailbox) run(rc *Context, fn Completion) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.JobPanic("mailbox", r)
			m.log.Warn("completion panicked", logger.ErrorFields("drain", err))
		}
	}()
	fn(rc)
}
