package session

import "sync/atomic"

// Sink is one live observer connection. WriteJSON must be safe to call
// from the hub loop; implementations that also write from other
// goroutines (keep-alives) must serialize internally.
type Sink interface {
	WriteJSON(v any) error
}

type subReq struct {
	sessionID string
	sink      Sink
}

type pubReq struct {
	sessionID string
	event     any
}

type countReq struct {
	sessionID string
	resp      chan int
}

// Hub fans session events out to registered observer sinks.
//
// Concurrency model: a single internal event loop (goroutine) owns the
// per-session sink sets. Public methods communicate with this loop through
// channels, so no mutexes are required. Delivery is best-effort and
// at-most-once: a failed write removes that sink and does not abort
// delivery to the others; nothing is buffered for late joiners. Events
// published by one producing task are delivered in publish order.
type Hub struct {
	registerCh   chan subReq
	unregisterCh chan subReq
	publishCh    chan pubReq
	countReqCh   chan countReq

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewHub creates a hub and starts its event loop.
func NewHub() *Hub {
	h := &Hub{
		registerCh:   make(chan subReq),
		unregisterCh: make(chan subReq),
		publishCh:    make(chan pubReq, 256),
		countReqCh:   make(chan countReq),
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.stopped)

	conns := make(map[string]map[Sink]struct{})

	for {
		select {
		case <-h.stopCh:
			return

		case req := <-h.registerCh:
			set, ok := conns[req.sessionID]
			if !ok {
				set = make(map[Sink]struct{})
				conns[req.sessionID] = set
			}
			set[req.sink] = struct{}{}

		case req := <-h.unregisterCh:
			if set, ok := conns[req.sessionID]; ok {
				delete(set, req.sink)
				if len(set) == 0 {
					delete(conns, req.sessionID)
				}
			}

		case req := <-h.publishCh:
			set := conns[req.sessionID]
			for sink := range set {
				if err := sink.WriteJSON(req.event); err != nil {
					// Dead observer; prune silently and keep going.
					delete(set, sink)
				}
			}
			if len(set) == 0 {
				delete(conns, req.sessionID)
			}

		case req := <-h.countReqCh:
			req.resp <- len(conns[req.sessionID])
		}
	}
}

// Close stops the hub loop. Registered sinks are not closed; their owners
// remain responsible for the underlying connections.
func (h *Hub) Close() {
	if h.closed.CompareAndSwap(false, true) {
		close(h.stopCh)
	}
	<-h.stopped
}

// AddConnection registers a sink as an observer of the session.
func (h *Hub) AddConnection(sessionID string, sink Sink) {
	if h.closed.Load() {
		return
	}
	select {
	case h.registerCh <- subReq{sessionID: sessionID, sink: sink}:
	case <-h.stopped:
	}
}

// RemoveConnection deregisters a sink.
func (h *Hub) RemoveConnection(sessionID string, sink Sink) {
	if h.closed.Load() {
		return
	}
	select {
	case h.unregisterCh <- subReq{sessionID: sessionID, sink: sink}:
	case <-h.stopped:
	}
}

// Broadcast delivers event to every sink currently registered for the
// session. Broadcasting to a session with no observers is a no-op.
func (h *Hub) Broadcast(sessionID string, event any) {
	if h.closed.Load() {
		return
	}
	select {
	case h.publishCh <- pubReq{sessionID: sessionID, event: event}:
	case <-h.stopped:
	}
}

// ConnectionCount returns the number of sinks observing the session.
func (h *Hub) ConnectionCount(sessionID string) int {
	if h.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case h.countReqCh <- countReq{sessionID: sessionID, resp: resp}:
	case <-h.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-h.stopped:
		return 0
	}
}
