// Session HTTP handlers.
//
// This file exposes REST endpoints for the session ledger:
//   - GET    /sessions                (list, paginated, ETag support)
//   - GET    /sessions/{id}           (fetch one)
//   - PUT    /sessions/{id}           (reschedule)
//   - POST   /sessions/{id}/start     (teacher starts)
//   - POST   /sessions/{id}/end       (teacher ends)
//   - POST   /sessions/{id}/cancel    (either participant cancels)
//   - GET    /schedule                (pending requests + sessions overview)
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/services"
)

// SessionService defines session lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SessionService interface {
	// Schedule books a session for an accepted request at a chosen slot.
	Schedule(ctx context.Context, requestID, actorID string, in services.ScheduleInput) (*domain.Session, error)
	// Reschedule moves an existing session to a new slot.
	Reschedule(ctx context.Context, sessionID, actorID string, in services.ScheduleInput) (*domain.Session, error)
	// Start moves a scheduled session to in_progress (teacher only).
	Start(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	// End moves an in-progress session to completed (teacher only).
	End(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	// Cancel aborts a scheduled or in-progress session.
	Cancel(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	// Approve accepts a pending request and auto-schedules its session.
	Approve(ctx context.Context, requestID, actorID string) (*domain.Session, error)
	// Get fetches a session the actor participates in.
	Get(ctx context.Context, sessionID, actorID string) (*domain.Session, error)
	// ListPage returns a page of the user's sessions and the total count.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error)
	// Overview assembles the combined schedule view for a user.
	Overview(ctx context.Context, userID string) (*services.SessionOverview, error)
}

//
// DTOs
//

// ScheduleRequest is the JSON payload for scheduling or rescheduling a
// session.
type ScheduleRequest struct {
	// Date is the session start, RFC 3339.
	Date string `json:"date" binding:"required" example:"2026-09-12T18:00:00Z"`
	// Duration is the session length in minutes (15–480).
	Duration int `json:"duration" binding:"required" example:"60"`
	// Format is "online" or "in_person".
	Format string `json:"format" binding:"required,oneof=online in_person" example:"online"`
	// Location is where an in-person session takes place.
	Location string `json:"location" example:"Central Library, Room 2"`
	// MeetingLink is required for online sessions.
	MeetingLink string `json:"meeting_link" example:"https://meet.example.com/abc"`
}

// ListSessionsResponse wraps a page of sessions and pagination information.
type ListSessionsResponse struct {
	Sessions   []domain.Session `json:"sessions"`
	Pagination Pagination       `json:"pagination"`
}

// ScheduleOverviewResponse is the combined schedule view: incoming requests
// still awaiting a decision, and the user's sessions bucketed by status.
type ScheduleOverviewResponse struct {
	PendingRequests []domain.SwapRequest `json:"pending_requests"`
	Upcoming        []domain.Session     `json:"upcoming"`
	Ongoing         []domain.Session     `json:"ongoing"`
	Completed       []domain.Session     `json:"completed"`
	Cancelled       []domain.Session     `json:"cancelled"`
}

//
// Handlers
//

// ListSessions godoc
// @ID          listSessions
// @Summary     List sessions (paginated)
// @Description Returns a page of the user's sessions, soonest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListSessionsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /sessions [get]
func (h *Handlers) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.sessStats != nil {
		count, maxTS, err := h.sessStats(ctx, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"sessions:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.sessSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListSessionsResponse{
		Sessions: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetSession godoc
// @ID          getSession
// @Summary     Fetch a session
// @Description Returns a single session the current user participates in.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Router      /sessions/{id} [get]
func (h *Handlers) GetSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	out, err := h.sessSvc.Get(c.Request.Context(), id, userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// RescheduleSession godoc
// @ID          rescheduleSession
// @Summary     Reschedule a session
// @Description Moves a scheduled session to a new slot, or revives a cancelled one as a fresh booking. Fails with 409 on a conflict.
// @Tags        Sessions
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       body       body    handlers.ScheduleRequest  true  "New slot payload"
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Conflict or illegal transition"
// @Router      /sessions/{id} [put]
func (h *Handlers) RescheduleSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "date must be RFC 3339")
		return
	}

	out, err := h.sessSvc.Reschedule(c.Request.Context(), id, userID(c), services.ScheduleInput{
		Date:        date,
		Duration:    req.Duration,
		Format:      domain.SessionFormat(req.Format),
		Location:    strings.TrimSpace(req.Location),
		MeetingLink: strings.TrimSpace(req.MeetingLink),
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// StartSession godoc
// @ID          startSession
// @Summary     Start a session
// @Description The teacher starts a scheduled session. Allowed from shortly before the scheduled time until its scheduled end.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the teacher"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Outside start window or wrong state"
// @Router      /sessions/{id}/start [post]
func (h *Handlers) StartSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	out, err := h.sessSvc.Start(c.Request.Context(), id, userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// EndSession godoc
// @ID          endSession
// @Summary     End a session
// @Description The teacher completes a session that is in progress.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the teacher"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Wrong state"
// @Router      /sessions/{id}/end [post]
func (h *Handlers) EndSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	out, err := h.sessSvc.End(c.Request.Context(), id, userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// CancelSession godoc
// @ID          cancelSession
// @Summary     Cancel a session
// @Description Either participant cancels a scheduled or in-progress session. The originating request stays accepted so the pair can rebook.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Wrong state"
// @Router      /sessions/{id}/cancel [post]
func (h *Handlers) CancelSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	out, err := h.sessSvc.Cancel(c.Request.Context(), id, userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ScheduleOverview godoc
// @ID          scheduleOverview
// @Summary     Combined schedule view
// @Description Returns the user's incoming pending requests and their sessions grouped into upcoming, ongoing, completed, and cancelled.
// @Tags        Sessions
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object}  handlers.ScheduleOverviewResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /schedule [get]
func (h *Handlers) ScheduleOverview(c *gin.Context) {
	ov, err := h.sessSvc.Overview(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ScheduleOverviewResponse{
		PendingRequests: ov.PendingRequests,
		Upcoming:        ov.Upcoming,
		Ongoing:         ov.Ongoing,
		Completed:       ov.Completed,
		Cancelled:       ov.Cancelled,
	})
}
