package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/repo"
)

// ReviewInput carries the rating dimensions and free-text of a review.
type ReviewInput struct {
	OverallRating       int
	KnowledgeRating     int
	CommunicationRating int
	PunctualityRating   int
	ReviewText          string
	WhatLearned         string
	Suggestions         string
	WouldRecommend      bool
	IsAnonymous         bool
	IsPublic            bool
}

// ReviewService owns post-session reviews. Only the learner of a completed
// session may review it, exactly once; the reviewee is always the teacher.
type ReviewService struct {
	DB     *gorm.DB
	Events EventSink
}

// NewReviewService constructs a ReviewService.
func NewReviewService(db *gorm.DB, sink EventSink) *ReviewService {
	return &ReviewService{DB: db, Events: sinkOrDiscard(sink)}
}

func validateReview(in ReviewInput) error {
	for _, r := range []int{in.OverallRating, in.KnowledgeRating, in.CommunicationRating, in.PunctualityRating} {
		if r < 1 || r > 5 {
			return ErrRatingOutOfRange
		}
	}
	// A poor overall rating must come with an explanation.
	if in.OverallRating < 3 && strings.TrimSpace(in.ReviewText) == "" {
		return ErrReviewTextRequired
	}
	return nil
}

// Create records the learner's review of a completed session. The teacher is
// notified. A second review of the same session by the same reviewer fails
// with ErrDuplicateReview.
func (s *ReviewService) Create(ctx context.Context, sessionID, actorID string, in ReviewInput) (*domain.Review, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}

	session, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if actorID != session.LearnerID {
		return nil, ErrNotLearner
	}
	if session.Status != domain.SessionCompleted {
		return nil, ErrSessionNotCompleted
	}

	review := &domain.Review{
		SessionID:           session.ID,
		ReviewerID:          actorID,
		RevieweeID:          session.TeacherID,
		OverallRating:       in.OverallRating,
		KnowledgeRating:     in.KnowledgeRating,
		CommunicationRating: in.CommunicationRating,
		PunctualityRating:   in.PunctualityRating,
		ReviewText:          in.ReviewText,
		WhatLearned:         in.WhatLearned,
		Suggestions:         in.Suggestions,
		WouldRecommend:      in.WouldRecommend,
		IsAnonymous:         in.IsAnonymous,
		IsPublic:            in.IsPublic,
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := repo.HasReview(ctx, tx, session.ID, actorID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicateReview
		}
		return repo.CreateReview(ctx, tx, review)
	})
	if err != nil {
		return nil, err
	}

	reviewer := "Someone"
	if !in.IsAnonymous {
		if u, uerr := repo.GetUser(ctx, s.DB, actorID); uerr == nil {
			reviewer = u.DisplayName()
		}
	}
	s.Events.Emit(ctx, domain.Event{
		Recipient:       session.TeacherID,
		Type:            domain.NotifyReviewReceived,
		Title:           "New Review Received",
		Message:         fmt.Sprintf("%s left you a %d-star review.", reviewer, in.OverallRating),
		RelatedUser:     actorID,
		RelatedObjectID: review.ID,
	})
	return review, nil
}

// Update lets the original reviewer revise their review. The same validation
// rules apply as on creation.
func (s *ReviewService) Update(ctx context.Context, reviewID, actorID string, in ReviewInput) (*domain.Review, error) {
	if err := validateReview(in); err != nil {
		return nil, err
	}

	review, err := repo.GetReview(ctx, s.DB, reviewID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	if review.ReviewerID != actorID {
		return nil, ErrNotReviewer
	}

	err = repo.UpdateReview(ctx, s.DB, review.ID, actorID, map[string]any{
		"overall_rating":       in.OverallRating,
		"knowledge_rating":     in.KnowledgeRating,
		"communication_rating": in.CommunicationRating,
		"punctuality_rating":   in.PunctualityRating,
		"review_text":          in.ReviewText,
		"what_learned":         in.WhatLearned,
		"suggestions":          in.Suggestions,
		"would_recommend":      in.WouldRecommend,
		"is_anonymous":         in.IsAnonymous,
		"is_public":            in.IsPublic,
	})
	if err != nil {
		return nil, err
	}

	review.OverallRating = in.OverallRating
	review.KnowledgeRating = in.KnowledgeRating
	review.CommunicationRating = in.CommunicationRating
	review.PunctualityRating = in.PunctualityRating
	review.ReviewText = in.ReviewText
	review.WhatLearned = in.WhatLearned
	review.Suggestions = in.Suggestions
	review.WouldRecommend = in.WouldRecommend
	review.IsAnonymous = in.IsAnonymous
	review.IsPublic = in.IsPublic
	return review, nil
}

// ListForUser returns the reviews written about a user, newest first.
func (s *ReviewService) ListForUser(ctx context.Context, userID string) ([]domain.Review, error) {
	return repo.ListReviewsForUser(ctx, s.DB, userID)
}
