package docnet

import (
	"context"

	"docdb-go/docp"
)

// Pending tracks one dispatched request until the line that answers it
// arrives. Each entry settles exactly once: with a parsed response, with a
// malformed-line error, or with a connection failure.
type Pending struct {
	resp *docp.Response
	err  error
	done chan struct{}
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Done is closed once the entry has settled.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Result returns the outcome. Call it only after Done is closed.
func (p *Pending) Result() (*docp.Response, error) {
	return p.resp, p.err
}

// Await blocks until the entry settles or ctx ends. Cancellation abandons
// the wait only: a request already on the wire cannot be withdrawn, so the
// entry keeps its slot in the reply order and settles when its line arrives.
func (p *Pending) Await(ctx context.Context) (*docp.Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) resolve(resp *docp.Response) {
	p.resp = resp
	close(p.done)
}

func (p *Pending) fail(err error) {
	p.err = err
	close(p.done)
}

// pendingQueue is the FIFO of in-flight requests. Replies carry no
// correlation id; pairing is purely positional, so every mutation happens
// under the session mutex and in dispatch order.
type pendingQueue struct {
	entries []*Pending
}

func (q *pendingQueue) push(p *Pending) {
	q.entries = append(q.entries, p)
}

// pop removes and returns the oldest entry, or nil when nothing is pending.
func (q *pendingQueue) pop() *Pending {
	if len(q.entries) == 0 {
		return nil
	}
	p := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return p
}

// popNewest undoes the most recent push. Used when the write that followed
// the push never made it onto the wire.
func (q *pendingQueue) popNewest() *Pending {
	if len(q.entries) == 0 {
		return nil
	}
	last := len(q.entries) - 1
	p := q.entries[last]
	q.entries[last] = nil
	q.entries = q.entries[:last]
	return p
}

// drain empties the queue and returns the entries in dispatch order.
func (q *pendingQueue) drain() []*Pending {
	out := q.entries
	q.entries = nil
	return out
}

func (q *pendingQueue) len() int { return len(q.entries) }
