package parley

import (
	"strconv"
	"strings"
	"time"
)

// Store is the ordered, append-only sequence of conversation turns plus at
// most one in-progress streaming placeholder. It performs no I/O and is
// owned by exactly one Controller; the presentation surface only reads it.
// Not safe for concurrent use; the single-writer event loop is the
// synchronization mechanism.
type Store struct {
	turns   []Turn
	pending int // index of the PendingTurn, -1 when absent

	// accum buffers placeholder fragments so each upsert is an O(1)
	// append rather than a string rebuild.
	accum strings.Builder
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{pending: -1}
}

// Append adds a finalized turn. The placeholder, when present, stays the
// last element, so finalized turns are inserted just before it.
func (s *Store) Append(t Turn) {
	if s.pending < 0 {
		s.turns = append(s.turns, t)
		return
	}
	s.turns = append(s.turns, nil)
	s.turns[len(s.turns)-1] = s.turns[s.pending]
	s.turns[s.pending] = t
	s.pending = len(s.turns) - 1
}

// UpsertPlaceholder appends fragment to the streaming placeholder, creating
// it as the last element if absent.
func (s *Store) UpsertPlaceholder(fragment string) {
	if s.pending < 0 {
		s.accum.Reset()
		s.turns = append(s.turns, PendingTurn{StartedAt: time.Now()})
		s.pending = len(s.turns) - 1
	}
	s.accum.WriteString(fragment)
	p := s.turns[s.pending].(PendingTurn)
	p.Accumulated = s.accum.String()
	s.turns[s.pending] = p
}

// FinalizePlaceholder replaces the placeholder with an immutable
// AssistantTurn built from the accumulated fragments, using a fresh
// time-derived identifier. Returns false without mutating anything if no
// placeholder exists, so duplicate completion signals are harmless.
func (s *Store) FinalizePlaceholder() (AssistantTurn, bool) {
	if s.pending < 0 {
		return AssistantTurn{}, false
	}
	now := time.Now()
	turn := AssistantTurn{
		ID:        strconv.FormatInt(now.UnixNano(), 10),
		Content:   s.accum.String(),
		CreatedAt: now,
	}
	s.turns[s.pending] = turn
	s.pending = -1
	s.accum.Reset()
	return turn, true
}

// DiscardPlaceholder removes the placeholder and its accumulated content.
// Returns false if no placeholder exists.
func (s *Store) DiscardPlaceholder() bool {
	if s.pending < 0 {
		return false
	}
	s.turns = append(s.turns[:s.pending], s.turns[s.pending+1:]...)
	s.pending = -1
	s.accum.Reset()
	return true
}

// Clear empties the store, placeholder included. Used only after a
// confirmed server-side history deletion.
func (s *Store) Clear() {
	s.turns = nil
	s.pending = -1
	s.accum.Reset()
}

// Turns returns the transcript in order. The returned slice is the store's
// backing array; callers must not mutate it.
func (s *Store) Turns() []Turn {
	return s.turns
}

// Len returns the number of turns, placeholder included.
func (s *Store) Len() int {
	return len(s.turns)
}

// Pending returns the streaming placeholder, if one exists.
func (s *Store) Pending() (PendingTurn, bool) {
	if s.pending < 0 {
		return PendingTurn{}, false
	}
	return s.turns[s.pending].(PendingTurn), true
}
