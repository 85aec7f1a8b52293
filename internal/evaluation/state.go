package evaluation

import (
	"sync"
	"time"
)

// State holds the last-fired timestamp per rule for every scope, in
// memory. It is the evaluator's working copy; the Redis-backed
// StateRepository keeps it durable across restarts and replicas.
type State struct {
	mu        sync.RWMutex
	lastFired map[string]map[string]time.Time // scope -> rule ID -> last fired
	hydrated  map[string]bool
}

func NewState() *State {
	return &State{
		lastFired: make(map[string]map[string]time.Time),
		hydrated:  make(map[string]bool),
	}
}

// Snapshot returns a copy of the per-rule timestamps for a scope,
// safe to hand to Evaluate.
func (s *State) Snapshot(scope string) map[string]time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]time.Time, len(s.lastFired[scope]))
	for ruleID, t := range s.lastFired[scope] {
		out[ruleID] = t
	}
	return out
}

func (s *State) IsHydrated(scope string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated[scope]
}

// Hydrate merges persisted timestamps into memory. In-memory entries
// win when newer, so a hydration racing a concurrent firing cannot
// roll the state back.
func (s *State) Hydrate(scope string, persisted map[string]time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastFired[scope] == nil {
		s.lastFired[scope] = make(map[string]time.Time, len(persisted))
	}
	for ruleID, t := range persisted {
		if existing, ok := s.lastFired[scope][ruleID]; !ok || t.After(existing) {
			s.lastFired[scope][ruleID] = t
		}
	}
	s.hydrated[scope] = true
}

func (s *State) MarkFired(scope string, ruleIDs []string, firedAt time.Time) {
	if len(ruleIDs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastFired[scope] == nil {
		s.lastFired[scope] = make(map[string]time.Time, len(ruleIDs))
	}
	for _, ruleID := range ruleIDs {
		s.lastFired[scope][ruleID] = firedAt
	}
}
