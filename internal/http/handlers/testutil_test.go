package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/repo"
	"github.com/skillswap/swap-backend/internal/services"
)

// ---------- test server over a real in-memory DB ----------

// env wires the handlers over real services and a seeded learner/teacher
// pair, mirroring the production route layout.
type env struct {
	db      *gorm.DB
	router  *gin.Engine
	learner domain.User
	teacher domain.User
	skill   domain.Skill
	offered domain.OfferedSkill
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
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

	e := &env{
		db:      db,
		learner: domain.User{ID: uuid.NewString(), Username: "lena", FullName: "Lena Fischer"},
		teacher: domain.User{ID: uuid.NewString(), Username: "marco", FullName: "Marco Rossi"},
		skill:   domain.Skill{ID: uuid.NewString(), Name: "Sourdough Baking"},
	}
	for _, m := range []any{&e.learner, &e.teacher, &e.skill} {
		if err := db.Create(m).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	e.offered = domain.OfferedSkill{
		ID: uuid.NewString(), UserID: e.teacher.ID, SkillID: e.skill.ID, IsActive: true,
	}
	if err := db.Create(&e.offered).Error; err != nil {
		t.Fatalf("seed offered: %v", err)
	}

	sched := services.NewScheduler()
	h := New(
		services.NewRequestService(db, nil),
		services.NewSessionService(db, sched, nil),
		services.NewReviewService(db, nil),
		func(ctx context.Context, userID string) (int64, *time.Time, error) {
			return repo.SessionsStats(ctx, db, userID)
		},
	)

	r := gin.New()
	api := r.Group("/api/v1")
	{
		api.POST("/requests", h.CreateRequest)
		api.GET("/requests", h.ListRequests)
		api.GET("/requests/:id", h.GetRequest)
		api.POST("/requests/:id/respond", h.RespondRequestHandler)
		api.POST("/requests/:id/cancel", h.CancelRequest)
		api.POST("/requests/:id/approve", h.ApproveRequest)
		api.POST("/requests/:id/schedule", h.ScheduleSession)

		api.GET("/sessions", h.ListSessions)
		api.GET("/sessions/:id", h.GetSession)
		api.PUT("/sessions/:id", h.RescheduleSession)
		api.POST("/sessions/:id/start", h.StartSession)
		api.POST("/sessions/:id/end", h.EndSession)
		api.POST("/sessions/:id/cancel", h.CancelSession)
		api.GET("/schedule", h.ScheduleOverview)

		api.POST("/sessions/:id/review", h.CreateReview)
		api.PUT("/reviews/:id", h.UpdateReview)
		api.GET("/users/:id/reviews", h.ListUserReviews)
	}
	e.router = r
	return e
}

// do performs a JSON request as the given user and returns the recorder.
func (e *env) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// doWithHeader performs a body-less request with one extra header set.
func (e *env) doWithHeader(t *testing.T, method, path, user, header, value string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	req.Header.Set(header, value)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a success body into out.
func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// wantError asserts status and envelope code.
func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var resp ErrorResponse
	decode(t, w, &resp)
	if resp.Code != code {
		t.Fatalf("code = %q, want %q", resp.Code, code)
	}
}

// ---------- seeding shortcuts ----------

func (e *env) createPayload() gin.H {
	return gin.H{
		"recipient_id":          e.teacher.ID,
		"offered_skill_id":      e.offered.ID,
		"message":               "I'd love to learn.",
		"proposed_format":       "online",
		"proposed_duration":     60,
		"proposed_meeting_link": "https://meet.example.com/abc",
	}
}

func slotPayload(start time.Time) gin.H {
	return gin.H{
		"date":         start.Format(time.RFC3339),
		"duration":     60,
		"format":       "online",
		"meeting_link": "https://meet.example.com/abc",
	}
}

func reviewPayload() gin.H {
	return gin.H{
		"overall_rating":       5,
		"knowledge_rating":     5,
		"communication_rating": 4,
		"punctuality_rating":   5,
		"review_text":          "Patient and well prepared.",
		"would_recommend":      true,
		"is_public":            true,
	}
}

// acceptedRequest seeds an accepted request from learner to teacher.
func (e *env) acceptedRequest(t *testing.T) *domain.SwapRequest {
	t.Helper()
	r := &domain.SwapRequest{
		RequesterID:         e.learner.ID,
		RecipientID:         e.teacher.ID,
		OfferedSkillID:      e.offered.ID,
		ProposedFormat:      domain.FormatOnline,
		ProposedDuration:    60,
		ProposedMeetingLink: "https://meet.example.com/abc",
	}
	ctx := context.Background()
	if err := repo.CreateRequest(ctx, e.db, r); err != nil {
		t.Fatalf("seed request: %v", err)
	}
	if err := repo.UpdateRequestStatus(ctx, e.db, r.ID, domain.RequestAccepted, nil); err != nil {
		t.Fatalf("accept: %v", err)
	}
	r.Status = domain.RequestAccepted
	return r
}

// seedSession persists a session for the request at the given slot and status.
func (e *env) seedSession(t *testing.T, r *domain.SwapRequest, start time.Time, status domain.SessionStatus) *domain.Session {
	t.Helper()
	s := &domain.Session{
		RequestID:       r.ID,
		TeacherID:       r.RecipientID,
		LearnerID:       r.RequesterID,
		SkillID:         e.skill.ID,
		ScheduledDate:   start.UTC(),
		DurationMinutes: 60,
		Format:          domain.FormatOnline,
		MeetingLink:     "https://meet.example.com/abc",
		Status:          status,
	}
	if err := repo.CreateSession(context.Background(), e.db, s); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}
