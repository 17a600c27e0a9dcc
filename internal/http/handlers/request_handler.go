// Swap request HTTP handlers.
//
// This file exposes REST endpoints for the request ledger:
//   - POST   /requests                  (create)
//   - GET    /requests                  (list, sent or received)
//   - GET    /requests/{id}             (fetch one)
//   - POST   /requests/{id}/respond     (accept or decline)
//   - POST   /requests/{id}/cancel      (requester withdraws)
//   - POST   /requests/{id}/approve     (accept and auto-schedule)
//   - POST   /requests/{id}/schedule    (manual scheduling)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/services"
	"github.com/skillswap/swap-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// RequestService defines swap-request lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RequestService interface {
	// Create files a new pending swap request from actorID.
	Create(ctx context.Context, actorID string, in services.CreateRequestInput) (*domain.SwapRequest, error)
	// Respond accepts or declines a pending request addressed to actorID.
	Respond(ctx context.Context, requestID, actorID string, decision services.Decision, message string) (*domain.SwapRequest, error)
	// Cancel withdraws a pending request filed by actorID.
	Cancel(ctx context.Context, requestID, actorID string) (*domain.SwapRequest, error)
	// Get fetches a request visible to actorID.
	Get(ctx context.Context, requestID, actorID string) (*domain.SwapRequest, error)
	// ListSent returns requests filed by the user, newest first.
	ListSent(ctx context.Context, userID string) ([]domain.SwapRequest, error)
	// ListReceived returns requests addressed to the user, newest first.
	ListReceived(ctx context.Context, userID string) ([]domain.SwapRequest, error)
}

//
// Handler wiring
//

// SessionStats reports the user's session count and most recent update
// timestamp. It backs the weak ETag on the session listing.
type SessionStats func(ctx context.Context, userID string) (count int64, maxUpdatedAt *time.Time, err error)

// Handlers groups HTTP endpoints for requests, sessions, and reviews.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	reqSvc    RequestService
	sessSvc   SessionService
	revSvc    ReviewService
	sessStats SessionStats
}

// New constructs and returns a Handlers instance bound to the given services.
// stats may be nil, in which case the session listing skips ETags.
func New(reqSvc RequestService, sessSvc SessionService, revSvc ReviewService, stats SessionStats) *Handlers {
	return &Handlers{reqSvc: reqSvc, sessSvc: sessSvc, revSvc: revSvc, sessStats: stats}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// CreateSwapRequest is the JSON payload for filing a swap request.
type CreateSwapRequest struct {
	// RecipientID is the prospective teacher.
	RecipientID string `json:"recipient_id" binding:"required,uuid" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	// OfferedSkillID is the recipient's offered-skill listing being asked for.
	OfferedSkillID string `json:"offered_skill_id" binding:"required,uuid" example:"6f1b0f1e-9a3e-4c29-9c3f-52b0a3d5a111"`
	// Message is an optional note to the recipient.
	Message string `json:"message" example:"I'd love to learn the basics of sourdough baking."`
	// ProposedFormat is "online" or "in_person".
	ProposedFormat string `json:"proposed_format" binding:"required,oneof=online in_person" example:"online"`
	// ProposedLocation is required in spirit for in-person swaps.
	ProposedLocation string `json:"proposed_location" example:"Central Library, Room 2"`
	// ProposedDuration is the session length in minutes (15–480).
	ProposedDuration int `json:"proposed_duration" binding:"required" example:"60"`
	// ProposedMeetingLink is required for online swaps.
	ProposedMeetingLink string `json:"proposed_meeting_link" example:"https://meet.example.com/abc"`
}

// RespondRequest is the JSON payload for accepting or declining a request.
type RespondRequest struct {
	// Decision is "accept" or "decline".
	Decision string `json:"decision" binding:"required,oneof=accept decline" example:"accept"`
	// Message is an optional response note shown to the requester.
	Message string `json:"message" example:"Happy to help! Evenings work best."`
}

// ListRequestsResponse wraps a mailbox listing of swap requests.
type ListRequestsResponse struct {
	Box      string               `json:"box"`
	Requests []domain.SwapRequest `json:"requests"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// CreateRequest godoc
// @ID          createRequest
// @Summary     File a swap request
// @Description Creates a pending swap request addressed to another user for one of their offered skills.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.CreateSwapRequest  true  "Swap request payload"
//
// @Success     201  {object}  domain.SwapRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Recipient or skill not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Duplicate pending request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [post]
func (h *Handlers) CreateRequest(c *gin.Context) {
	var req CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	out, err := h.reqSvc.Create(c.Request.Context(), userID(c), services.CreateRequestInput{
		RecipientID:    req.RecipientID,
		OfferedSkillID: req.OfferedSkillID,
		Message:        strings.TrimSpace(req.Message),
		Format:         domain.SessionFormat(req.ProposedFormat),
		Location:       strings.TrimSpace(req.ProposedLocation),
		Duration:       req.ProposedDuration,
		MeetingLink:    strings.TrimSpace(req.ProposedMeetingLink),
	})
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, out)
}

// ListRequests godoc
// @ID          listRequests
// @Summary     List swap requests
// @Description Returns the user's sent or received requests, newest first. Select the mailbox with ?box=sent|received.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       box        query   string  false "Mailbox"  Enums(sent, received)  default(received)
//
// @Success     200  {object}  handlers.ListRequestsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [get]
func (h *Handlers) ListRequests(c *gin.Context) {
	uid := userID(c)
	box := c.DefaultQuery("box", "received")

	var (
		items []domain.SwapRequest
		err   error
	)
	switch box {
	case "sent":
		items, err = h.reqSvc.ListSent(c.Request.Context(), uid)
	case "received":
		items, err = h.reqSvc.ListReceived(c.Request.Context(), uid)
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "box must be sent or received")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListRequestsResponse{Box: box, Requests: items})
}

// GetRequest godoc
// @ID          getRequest
// @Summary     Fetch a swap request
// @Description Returns a single request visible to the current user (as requester or recipient).
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Request ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.SwapRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Router      /requests/{id} [get]
func (h *Handlers) GetRequest(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	out, err := h.reqSvc.Get(c.Request.Context(), id, userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// RespondRequestHandler godoc
// @ID          respondRequest
// @Summary     Accept or decline a request
// @Description The recipient accepts or declines a pending request. Accepting does not schedule a session; use /approve or /schedule for that.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Request ID (UUID)"  format(uuid)
// @Param       body       body    handlers.RespondRequest  true  "Decision payload"
//
// @Success     200  {object}  domain.SwapRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already processed"
// @Router      /requests/{id}/respond [post]
func (h *Handlers) RespondRequestHandler(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "decision must be accept or decline")
		return
	}
	decision := services.DecisionAccept
	if req.Decision == "decline" {
		decision = services.DecisionDecline
	}

	out, err := h.reqSvc.Respond(c.Request.Context(), id, userID(c), decision, strings.TrimSpace(req.Message))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// CancelRequest godoc
// @ID          cancelRequest
// @Summary     Cancel a pending request
// @Description The requester withdraws a request that is still pending.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Request ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.SwapRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the requester"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already processed"
// @Router      /requests/{id}/cancel [post]
func (h *Handlers) CancelRequest(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	out, err := h.reqSvc.Cancel(c.Request.Context(), id, userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ApproveRequest godoc
// @ID          approveRequest
// @Summary     Accept and auto-schedule
// @Description The recipient accepts a pending request and a session is booked automatically at the next conflict-free slot, starting tomorrow.
// @Tags        Requests
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Request ID (UUID)"  format(uuid)
//
// @Success     201  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the recipient"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already processed or no free slot"
// @Router      /requests/{id}/approve [post]
func (h *Handlers) ApproveRequest(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	out, err := h.sessSvc.Approve(c.Request.Context(), id, userID(c))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, out)
}

// ScheduleSession godoc
// @ID          scheduleSession
// @Summary     Schedule a session for an accepted request
// @Description Books a session at a caller-chosen time. Fails with 409 when the slot collides with an existing session of either participant.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Request ID (UUID)"  format(uuid)
// @Param       body       body    handlers.ScheduleRequest  true  "Slot payload"
//
// @Success     201  {object}  domain.Session
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a participant"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Conflict or session exists"
// @Router      /requests/{id}/schedule [post]
func (h *Handlers) ScheduleSession(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
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

	out, err := h.sessSvc.Schedule(c.Request.Context(), id, userID(c), services.ScheduleInput{
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
	ok(c, http.StatusCreated, out)
}
