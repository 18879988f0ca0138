// Package core holds the reactive heart of the dashboard: per-session filter
// state and the memoized derived view computed from the shared base table.
package core

import (
	"sync"
	"time"

	"penguindash/pkg/domain"
)

// Session owns one user's filter state and derived-view cache. The data flow
// is strictly one-directional: filter updates invalidate the cache, reads
// recompute at most once per distinct filter value, and presentation sinks
// only ever read.
type Session struct {
	base domain.Table

	mu         sync.Mutex
	filter     domain.FilterState
	view       domain.Table
	viewFilter domain.FilterState
	viewValid  bool
	recomputes uint64
	lastSeen   time.Time
}

func newSession(base domain.Table, now time.Time) *Session {
	return &Session{
		base:     base,
		filter:   domain.DefaultFilter(),
		lastSeen: now,
	}
}

// Filter returns the current filter state snapshot.
func (s *Session) Filter() domain.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetFilter stores a new filter state. No recomputation happens here; the
// derived view is recomputed lazily on the next read if the value changed.
func (s *Session) SetFilter(f domain.FilterState) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	filterUpdatesTotal.Inc()
}

// View returns the filtered table for the current filter state. The result
// is memoized against the filter snapshot it was computed from; repeated
// reads with an unchanged filter return the cached table.
func (s *Session) View() domain.Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewValid && s.viewFilter.Equal(s.filter) {
		viewCacheHitsTotal.Inc()
		return s.view
	}
	s.view = s.filter.Apply(s.base)
	s.viewFilter = s.filter
	s.viewValid = true
	s.recomputes++
	viewRecomputesTotal.Inc()
	viewRows.Observe(float64(s.view.Len()))
	return s.view
}

// Summary computes the scalar metrics over the current derived view.
func (s *Session) Summary() domain.Summary {
	return domain.Summarize(s.View())
}

// Recomputes reports how many times the derived view has been recomputed.
func (s *Session) Recomputes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recomputes
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}
