package worker

import "sync"

// statementSlot is the one piece of shared mutable state between the
// worker goroutine and callers of Worker.Cancel: a mutex-guarded cancel
// closure over whatever statement is currently running. The worker writes
// it (set on start, cleared on finish); Cancel reads and invokes it. The
// mutex guarantees the closure is never observed mid-transition — Cancel
// either fires against the real in-flight statement or finds the slot
// empty and does nothing.
type statementSlot struct {
	mu     sync.Mutex
	cancel func()
}

func (s *statementSlot) set(cancel func()) {
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
}

func (s *statementSlot) clear() {
	s.mu.Lock()
	s.cancel = nil
	s.mu.Unlock()
}

// fire invokes the slotted cancel function, if any, and is safe to call
// from any goroutine. A no-op when the worker is idle.
func (s *statementSlot) fire() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
