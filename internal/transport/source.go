package transport

import (
	"context"
	"sync"
)

// Kind classifies a transport event.
type Kind int

const (
	KindMessage   Kind = iota // a decoded reading
	KindMalformed             // a message that failed validation
	KindError                 // a connection fault; the stream may continue
	KindClosed                // the stream ended; always the last event
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindMalformed:
		return "malformed"
	case KindError:
		return "error"
	case KindClosed:
		return "closed"
	}
	return "unknown"
}

type Event struct {
	Kind    Kind
	Message Message
	Err     error
}

// Source opens a streaming connection. Stream returns immediately; the
// connection is made in the background and the channel is closed once the
// stream ends or ctx is cancelled.
type Source interface {
	Stream(ctx context.Context) (<-chan Event, error)
}

const streamBuffer = 64

// emitter guards the event channel against sends after close, which
// callbacks from client libraries can race with.
type emitter struct {
	ctx    context.Context
	mu     sync.Mutex
	out    chan Event
	closed bool
}

func newEmitter(ctx context.Context) *emitter {
	return &emitter{ctx: ctx, out: make(chan Event, streamBuffer)}
}

func (e *emitter) send(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	select {
	case e.out <- ev:
	case <-e.ctx.Done():
	}
}

func (e *emitter) payload(data []byte) {
	msg, err := Decode(data)
	if err != nil {
		e.send(Event{Kind: KindMalformed, Err: err})
		return
	}
	e.send(Event{Kind: KindMessage, Message: msg})
}

// close emits KindClosed unless the stream was cancelled, then closes the
// channel. Safe to call more than once.
func (e *emitter) close(err error) {
	if err != nil && e.ctx.Err() == nil {
		e.send(Event{Kind: KindError, Err: err})
	}
	if e.ctx.Err() == nil {
		e.send(Event{Kind: KindClosed})
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.out)
	}
}
