// Package services – Scheduler
//
// The scheduler decides whether a candidate [start, start+duration) interval
// is free for a set of participants and, for the auto-approval path, walks
// forward one step (a calendar day by default) until it finds a free slot or
// exhausts its attempt budget.
//
// Conflict detection fetches every scheduled or in-progress session whose
// start falls within a bounded look-back window before the candidate start
// (any session starting earlier has necessarily ended, given the maximum
// duration ceiling) and applies the half-open overlap test in memory:
// [s1,e1) and [s2,e2) overlap iff s1 < e2 && s2 < e1.
//
// Check-then-schedule is a read-then-write sequence; two concurrent bookings
// for the same participant could both pass Check and both insert. The
// scheduler therefore exposes per-user locks that SessionService holds across
// the whole check+insert, serializing scheduling per participant within this
// process.
package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/repo"
)

// Scheduler finds and validates session slots. It holds policy and the
// per-user locks only; every scan runs on the database handle the caller
// passes in. All fields are set once at construction and safe for concurrent
// use.
type Scheduler struct {
	// Lookback bounds the conflict scan: only sessions starting within
	// Lookback before the candidate start are considered. Must be at least
	// the maximum allowed session duration.
	Lookback time.Duration

	// Step is how far the candidate start advances after a conflict during
	// FindNextFree.
	Step time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewScheduler constructs a Scheduler with the default 8-hour look-back and
// one-day retry step.
func NewScheduler() *Scheduler {
	return &Scheduler{
		Lookback: 8 * time.Hour,
		Step:     24 * time.Hour,
		locks:    make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing scheduling for one user, creating
// it on first use. Locks are never evicted; the map grows with the number of
// distinct participants, which is bounded by the user base.
func (s *Scheduler) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// LockParticipants acquires the per-user scheduling locks for every
// participant and returns an unlock function. Locks are taken in sorted id
// order so two overlapping participant sets cannot deadlock.
func (s *Scheduler) LockParticipants(participants []string) func() {
	ids := append([]string(nil), participants...)
	sort.Strings(ids)
	// Dedupe after sorting; locking the same mutex twice would deadlock.
	uniq := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			uniq = append(uniq, id)
		}
	}
	held := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		l := s.userLock(id)
		l.Lock()
		held = append(held, l)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Check returns the first session conflicting with [start, start+duration)
// for any participant, or nil when the interval is free. excludeSessionID
// lets a reschedule ignore its own prior booking.
//
// db must be the caller's handle. Callers that delete or insert sessions in
// a transaction have to pass that transaction here, or the scan runs on a
// separate connection that cannot see the pending writes and, on SQLite,
// blocks on the transaction's write lock.
func (s *Scheduler) Check(ctx context.Context, db *gorm.DB, participants []string, start time.Time, duration time.Duration, excludeSessionID string) (*domain.Session, error) {
	end := start.Add(duration)
	for _, userID := range participants {
		candidates, err := repo.ListActiveSessionsInWindow(ctx, db, userID, start.Add(-s.Lookback), end, excludeSessionID)
		if err != nil {
			return nil, err
		}
		for i := range candidates {
			if candidates[i].Overlaps(start, end) {
				return &candidates[i], nil
			}
		}
	}
	return nil, nil
}

// FindNextFree walks forward from start in Step increments until Check finds
// a slot free for all participants, or maxAttempts slots have been tried, in
// which case it fails with ErrNoFreeSlot. db follows the same transaction
// rule as Check.
func (s *Scheduler) FindNextFree(ctx context.Context, db *gorm.DB, participants []string, start time.Time, duration time.Duration, maxAttempts int) (time.Time, error) {
	candidate := start
	for attempt := 0; attempt < maxAttempts; attempt++ {
		conflict, err := s.Check(ctx, db, participants, candidate, duration, "")
		if err != nil {
			return time.Time{}, err
		}
		if conflict == nil {
			return candidate, nil
		}
		candidate = candidate.Add(s.Step)
	}
	return time.Time{}, ErrNoFreeSlot
}
