package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/repo"
)

// ---------- shared test fixtures ----------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// captureSink records every emitted event, safe for concurrent use.
type captureSink struct {
	mu     sync.Mutex
	events []domain.Event
}

func (c *captureSink) Emit(_ context.Context, evs ...domain.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, evs...)
}

func (c *captureSink) all() []domain.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Event(nil), c.events...)
}

func (c *captureSink) last(t *testing.T) domain.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		t.Fatalf("no events emitted")
	}
	return c.events[len(c.events)-1]
}

// fixture is a seeded learner/teacher pair with one offered skill.
type fixture struct {
	db      *gorm.DB
	learner domain.User
	teacher domain.User
	skill   domain.Skill
	offered domain.OfferedSkill
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	f := &fixture{
		db:      db,
		learner: domain.User{ID: uuid.NewString(), Username: "lena", FullName: "Lena Fischer"},
		teacher: domain.User{ID: uuid.NewString(), Username: "marco", FullName: "Marco Rossi"},
		skill:   domain.Skill{ID: uuid.NewString(), Name: "Sourdough Baking"},
	}
	for _, m := range []any{&f.learner, &f.teacher, &f.skill} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	f.offered = domain.OfferedSkill{
		ID: uuid.NewString(), UserID: f.teacher.ID, SkillID: f.skill.ID, IsActive: true,
	}
	if err := db.Create(&f.offered).Error; err != nil {
		t.Fatalf("seed offered: %v", err)
	}
	return f
}

// pendingRequest files a valid pending online request from learner to teacher.
func (f *fixture) pendingRequest(t *testing.T) *domain.SwapRequest {
	t.Helper()
	r := &domain.SwapRequest{
		RequesterID:         f.learner.ID,
		RecipientID:         f.teacher.ID,
		OfferedSkillID:      f.offered.ID,
		ProposedFormat:      domain.FormatOnline,
		ProposedDuration:    60,
		ProposedMeetingLink: "https://meet.example.com/abc",
	}
	if err := repo.CreateRequest(context.Background(), f.db, r); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return r
}

// acceptedRequest files and accepts a request.
func (f *fixture) acceptedRequest(t *testing.T) *domain.SwapRequest {
	t.Helper()
	r := f.pendingRequest(t)
	if err := repo.UpdateRequestStatus(context.Background(), f.db, r.ID, domain.RequestAccepted, nil); err != nil {
		t.Fatalf("accept request: %v", err)
	}
	r.Status = domain.RequestAccepted
	return r
}

// session persists a session for the request at the given slot and status.
func (f *fixture) session(t *testing.T, r *domain.SwapRequest, start time.Time, minutes int, status domain.SessionStatus) *domain.Session {
	t.Helper()
	s := &domain.Session{
		RequestID:       r.ID,
		TeacherID:       r.RecipientID,
		LearnerID:       r.RequesterID,
		SkillID:         f.skill.ID,
		ScheduledDate:   start,
		DurationMinutes: minutes,
		Format:          domain.FormatOnline,
		MeetingLink:     "https://meet.example.com/abc",
		Status:          status,
	}
	if err := repo.CreateSession(context.Background(), f.db, s); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}
