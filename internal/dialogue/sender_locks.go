package dialogue

import "sync"

// senderLocks serializes turns per sender while letting different senders
// proceed in parallel. The AWAITING_LOCATION transition reads then writes
// tracker state non-atomically, so two concurrent turns for one sender could
// otherwise race and target the wrong pending ticket.
type senderLocks struct {
	mu    sync.Mutex
	locks map[string]*senderLock
}

type senderLock struct {
	mu   sync.Mutex
	refs int
}

func newSenderLocks() *senderLocks {
	return &senderLocks{locks: make(map[string]*senderLock)}
}

// acquire blocks until the sender's lock is held and returns the release
// function. Lock entries are reference-counted and removed when idle so the
// map does not grow with every sender ever seen.
func (s *senderLocks) acquire(sender string) func() {
	s.mu.Lock()
	lock, ok := s.locks[sender]
	if !ok {
		lock = &senderLock{}
		s.locks[sender] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()

		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, sender)
		}
		s.mu.Unlock()
	}
}
