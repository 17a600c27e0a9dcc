// Review HTTP handlers.
//
// This file exposes REST endpoints for post-session reviews:
//   - POST  /sessions/{id}/review    (learner reviews a completed session)
//   - PUT   /reviews/{id}            (reviewer edits their review)
//   - GET   /users/{id}/reviews      (reviews written about a user)
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/services"
)

// ReviewService defines review operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ReviewService interface {
	// Create records the learner's review of a completed session.
	Create(ctx context.Context, sessionID, actorID string, in services.ReviewInput) (*domain.Review, error)
	// Update lets the original reviewer revise their review.
	Update(ctx context.Context, reviewID, actorID string, in services.ReviewInput) (*domain.Review, error)
	// ListForUser returns the reviews written about a user, newest first.
	ListForUser(ctx context.Context, userID string) ([]domain.Review, error)
}

//
// DTOs
//

// ReviewRequest is the JSON payload for creating or updating a review.
type ReviewRequest struct {
	// OverallRating is the headline rating (1–5). Ratings below 3 require
	// ReviewText.
	OverallRating int `json:"overall_rating" binding:"required,min=1,max=5" example:"5"`
	// KnowledgeRating rates the teacher's subject knowledge (1–5).
	KnowledgeRating int `json:"knowledge_rating" binding:"required,min=1,max=5" example:"5"`
	// CommunicationRating rates how clearly the teacher explained (1–5).
	CommunicationRating int `json:"communication_rating" binding:"required,min=1,max=5" example:"4"`
	// PunctualityRating rates timekeeping (1–5).
	PunctualityRating int `json:"punctuality_rating" binding:"required,min=1,max=5" example:"5"`
	// ReviewText is free-form feedback.
	ReviewText string `json:"review_text" example:"Patient and well prepared."`
	// WhatLearned summarizes what the learner took away.
	WhatLearned string `json:"what_learned"`
	// Suggestions is private improvement feedback for the teacher.
	Suggestions string `json:"suggestions"`
	// WouldRecommend marks whether the learner would recommend the teacher.
	WouldRecommend bool `json:"would_recommend" example:"true"`
	// IsAnonymous hides the reviewer's name from the teacher.
	IsAnonymous bool `json:"is_anonymous"`
	// IsPublic controls whether the review shows on the teacher's profile.
	IsPublic bool `json:"is_public"`
}

// ListReviewsResponse wraps the reviews written about a user.
type ListReviewsResponse struct {
	Reviews []domain.Review `json:"reviews"`
}

func reviewInput(req ReviewRequest) services.ReviewInput {
	return services.ReviewInput{
		OverallRating:       req.OverallRating,
		KnowledgeRating:     req.KnowledgeRating,
		CommunicationRating: req.CommunicationRating,
		PunctualityRating:   req.PunctualityRating,
		ReviewText:          strings.TrimSpace(req.ReviewText),
		WhatLearned:         strings.TrimSpace(req.WhatLearned),
		Suggestions:         strings.TrimSpace(req.Suggestions),
		WouldRecommend:      req.WouldRecommend,
		IsAnonymous:         req.IsAnonymous,
		IsPublic:            req.IsPublic,
	}
}

//
// Handlers
//

// CreateReview godoc
// @ID          createReview
// @Summary     Review a completed session
// @Description The learner leaves a one-time review of a completed session. An overall rating below 3 requires review text.
// @Tags        Reviews
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Session ID (UUID)"  format(uuid)
// @Param       body       body    handlers.ReviewRequest  true  "Review payload"
//
// @Success     201  {object}  domain.Review
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the learner"
// @Failure     404  {object}  handlers.ErrorResponse  "Session not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Not completed or already reviewed"
// @Router      /sessions/{id}/review [post]
func (h *Handlers) CreateReview(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session id must be a UUID")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ratings must be integers between 1 and 5")
		return
	}

	out, err := h.revSvc.Create(c.Request.Context(), id, userID(c), reviewInput(req))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusCreated, out)
}

// UpdateReview godoc
// @ID          updateReview
// @Summary     Edit a review
// @Description The original reviewer revises their review. The same validation rules apply as on creation.
// @Tags        Reviews
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Review ID (UUID)"  format(uuid)
// @Param       body       body    handlers.ReviewRequest  true  "Review payload"
//
// @Success     200  {object}  domain.Review
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the reviewer"
// @Failure     404  {object}  handlers.ErrorResponse  "Review not found"
// @Router      /reviews/{id} [put]
func (h *Handlers) UpdateReview(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "review id must be a UUID")
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ratings must be integers between 1 and 5")
		return
	}

	out, err := h.revSvc.Update(c.Request.Context(), id, userID(c), reviewInput(req))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, out)
}

// ListUserReviews godoc
// @ID          listUserReviews
// @Summary     List reviews about a user
// @Description Returns the reviews written about the given user, newest first.
// @Tags        Reviews
// @Produce     json
//
// @Param       id  path  string  true  "User ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.ListReviewsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /users/{id}/reviews [get]
func (h *Handlers) ListUserReviews(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "user id must be a UUID")
		return
	}

	items, err := h.revSvc.ListForUser(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListReviewsResponse{Reviews: items})
}
