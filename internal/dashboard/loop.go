package dashboard

import (
	"context"
)

// Loop owns the controller goroutine. Transport events and closures posted
// with Do run one at a time, in arrival order.
type Loop struct {
	ctrl  *Controller
	calls chan func(*Controller)
}

func NewLoop(ctrl *Controller) *Loop {
	return &Loop{ctrl: ctrl, calls: make(chan func(*Controller))}
}

// Run serves the controller until ctx is done, then stops any running
// session.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.ctrl.Stop()
			return ctx.Err()
		case ev, ok := <-l.ctrl.Inbound():
			if !ok {
				l.ctrl.OnTransportLost(nil)
				continue
			}
			l.ctrl.OnMessage(ev)
		case fn := <-l.calls:
			fn(l.ctrl)
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func(*Controller)) error {
	done := make(chan struct{})
	call := func(c *Controller) {
		defer close(done)
		fn(c)
	}
	select {
	case l.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}
