package irisfast

import (
    "context"
    "time"
)

type MessageCallback func(message *Message)
type StateCallback func(state WebSocketState)

// Inbound is the receiving half of the Iris connection. *WebSocket implements it.
type Inbound interface {
    Connect(ctx context.Context) error
    OnMessage(cb MessageCallback) int
    RemoveMessageCallback(id int)
    OnStateChange(cb StateCallback) int
    RemoveStateCallback(id int)
    Close(ctx context.Context) error
}

var _ Inbound = (*WebSocket)(nil)

// Listener attaches one message handler and one state handler to an Inbound
// connection and detaches both on Stop.
type Listener struct {
    in      Inbound
    msgID   int
    stateID int
}

// Listen registers the handlers on in. Either handler may be nil.
func Listen(in Inbound, onMessage MessageCallback, onState StateCallback) *Listener {
    l := &Listener{in: in}
    if onMessage != nil {
        l.msgID = in.OnMessage(onMessage)
    }
    if onState != nil {
        l.stateID = in.OnStateChange(onState)
    }
    return l
}

// Start connects, giving up after timeout.
func (l *Listener) Start(ctx context.Context, timeout time.Duration) error {
    cctx, cancel := context.WithTimeout(ctx, timeout)
    defer cancel()
    return l.in.Connect(cctx)
}

// Stop detaches the handlers before closing, so nothing is delivered to a
// router that is shutting down.
func (l *Listener) Stop(timeout time.Duration) error {
    if l.msgID != 0 {
        l.in.RemoveMessageCallback(l.msgID)
        l.msgID = 0
    }
    if l.stateID != 0 {
        l.in.RemoveStateCallback(l.stateID)
        l.stateID = 0
    }
    ctx, cancel := context.WithTimeout(context.Background(), timeout)
    defer cancel()
    return l.in.Close(ctx)
}
