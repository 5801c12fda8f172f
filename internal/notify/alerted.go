package notify

import "sync"

// AlertedSet tracks which identities have already triggered a successful
// alert in this process run. TryAdd is a single atomic test-and-set: under
// concurrent detections of the same identity exactly one caller wins and
// proceeds to send. The set is deliberately not persisted — a restart makes
// every identity alertable once again.
type AlertedSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func NewAlertedSet() *AlertedSet {
	return &AlertedSet{ids: make(map[string]struct{})}
}

// TryAdd inserts id and reports whether it was newly added. The insert
// happens before any delivery attempt so a second task detecting the same
// identity cannot also pass the check while the first is mid-send.
func (s *AlertedSet) TryAdd(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Remove makes id eligible for alerting again. Called only when a dispatch
// is confirmed to have failed.
func (s *AlertedSet) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// Contains reports whether id has a successful (or in-flight) alert.
func (s *AlertedSet) Contains(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// IDs returns a snapshot of the set.
func (s *AlertedSet) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}
