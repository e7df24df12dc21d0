package rt

import "sync"

// PrintEvent is one privileged actor's print() call (spec §4.3), fanned
// out to anything subscribed via Rt.SubscribePrints — typically a gateway
// websocket hub relaying guest diagnostic output to an embedding, since the
// spec only requires that print reach "a log sink" and doesn't otherwise
// constrain how an embedding observes it.
type PrintEvent struct {
	Actor   uint32
	Message string
}

type printSink struct {
	mu   sync.RWMutex
	subs map[chan PrintEvent]struct{}
}

func newPrintSink() *printSink {
	return &printSink{subs: make(map[chan PrintEvent]struct{})}
}

func (s *printSink) subscribe(buffer int) (<-chan PrintEvent, func()) {
	ch := make(chan PrintEvent, buffer)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, unsubscribe
}

func (s *printSink) publish(ev PrintEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber; drop rather than block the actor that
			// called print.
		}
	}
}

// SubscribePrints registers for every future privileged print() call. The
// returned unsubscribe func must be called when the caller is done
// listening.
func (r *Rt) SubscribePrints(buffer int) (<-chan PrintEvent, func()) {
	return r.prints.subscribe(buffer)
}
