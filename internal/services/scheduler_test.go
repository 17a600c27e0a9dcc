package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/skillswap/swap-backend/internal/domain"
)

func TestSchedulerCheck_OverlapAndExclusion(t *testing.T) {
	f := newFixture(t)
	sched := NewScheduler()
	ctx := context.Background()

	base := time.Date(2026, 9, 12, 14, 0, 0, 0, time.UTC) // 14:00-15:00
	r := f.acceptedRequest(t)
	existing := f.session(t, r, base, 60, domain.SessionScheduled)

	participants := []string{f.teacher.ID, f.learner.ID}

	// Overlapping candidate collides.
	conflict, err := sched.Check(ctx, f.db, participants, base.Add(30*time.Minute), time.Hour, "")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if conflict == nil || conflict.ID != existing.ID {
		t.Fatalf("expected conflict with existing session, got %v", conflict)
	}

	// Back-to-back slots (half-open intervals) do not collide.
	if conflict, _ = sched.Check(ctx, f.db, participants, base.Add(time.Hour), time.Hour, ""); conflict != nil {
		t.Fatalf("touching intervals must not conflict: %v", conflict)
	}
	if conflict, _ = sched.Check(ctx, f.db, participants, base.Add(-time.Hour), time.Hour, ""); conflict != nil {
		t.Fatalf("slot ending at existing start must not conflict: %v", conflict)
	}

	// A third party is unaffected.
	if conflict, _ = sched.Check(ctx, f.db, []string{"someone-else"}, base, time.Hour, ""); conflict != nil {
		t.Fatalf("unrelated user must not conflict: %v", conflict)
	}

	// Excluding the session itself frees the slot (reschedule case).
	if conflict, _ = sched.Check(ctx, f.db, participants, base, time.Hour, existing.ID); conflict != nil {
		t.Fatalf("excluded session still conflicts: %v", conflict)
	}

	// Cancelled sessions do not block the slot.
	if err := f.db.Model(existing).Update("status", domain.SessionCancelled).Error; err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if conflict, _ = sched.Check(ctx, f.db, participants, base, time.Hour, ""); conflict != nil {
		t.Fatalf("cancelled session must not conflict: %v", conflict)
	}
}

func TestSchedulerFindNextFree_AdvancesPastConflicts(t *testing.T) {
	f := newFixture(t)
	sched := NewScheduler()
	ctx := context.Background()

	base := time.Date(2026, 9, 12, 14, 0, 0, 0, time.UTC)
	// Occupy the first two daily candidates.
	r1 := f.acceptedRequest(t)
	f.session(t, r1, base, 60, domain.SessionScheduled)
	r2 := f.acceptedRequest(t)
	f.session(t, r2, base.Add(24*time.Hour), 60, domain.SessionScheduled)

	slot, err := sched.FindNextFree(ctx, f.db, []string{f.teacher.ID, f.learner.ID}, base, time.Hour, 10)
	if err != nil {
		t.Fatalf("FindNextFree: %v", err)
	}
	if want := base.Add(48 * time.Hour); !slot.Equal(want) {
		t.Fatalf("slot = %v, want %v", slot, want)
	}
}

func TestSchedulerFindNextFree_Exhaustion(t *testing.T) {
	f := newFixture(t)
	sched := NewScheduler()
	ctx := context.Background()

	base := time.Date(2026, 9, 12, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		r := f.acceptedRequest(t)
		f.session(t, r, base.Add(time.Duration(i)*24*time.Hour), 60, domain.SessionScheduled)
	}

	_, err := sched.FindNextFree(ctx, f.db, []string{f.teacher.ID}, base, time.Hour, 3)
	if !errors.Is(err, ErrNoFreeSlot) {
		t.Fatalf("want ErrNoFreeSlot, got %v", err)
	}
}

func TestSchedulerLockParticipants_DedupesAndUnlocks(t *testing.T) {
	sched := NewScheduler()

	// Duplicate ids must not deadlock.
	unlock := sched.LockParticipants([]string{"u1", "u1", "u2"})
	unlock()

	// After unlock the same locks are acquirable again.
	unlock = sched.LockParticipants([]string{"u2", "u1"})
	unlock()
}

// Two goroutines race to book the same slot for the same pair; exactly one
// must win once the participant locks are held across check+insert.
func TestScheduleSession_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	sched := NewScheduler()
	svc := NewSessionService(f.db, sched, nil)

	r1 := f.acceptedRequest(t)
	r2 := f.acceptedRequest(t)

	start := time.Now().UTC().Add(48 * time.Hour)
	in := ScheduleInput{
		Date:        start,
		Duration:    60,
		Format:      domain.FormatOnline,
		MeetingLink: "https://meet.example.com/abc",
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, req := range []string{r1.ID, r2.ID} {
		wg.Add(1)
		go func(i int, requestID string) {
			defer wg.Done()
			_, errs[i] = svc.Schedule(context.Background(), requestID, f.teacher.ID, in)
		}(i, req)
	}
	wg.Wait()

	var conflicts, wins int
	for _, err := range errs {
		var ce *ConflictError
		switch {
		case err == nil:
			wins++
		case errors.As(err, &ce):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("want exactly one winner and one conflict, got wins=%d conflicts=%d", wins, conflicts)
	}
}
