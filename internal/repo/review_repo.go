// Repository functions for the Review model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
)

// CreateReview inserts a new Review row. The (session_id, reviewer_id)
// unique index backs the one-review-per-learner rule; services re-check it
// before the insert for a stable error.
func CreateReview(ctx context.Context, db *gorm.DB, r *domain.Review) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// GetReview fetches a review by id, or ErrNotFound.
func GetReview(ctx context.Context, db *gorm.DB, id string) (*domain.Review, error) {
	var r domain.Review
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// HasReview reports whether reviewer has already reviewed the session.
func HasReview(ctx context.Context, db *gorm.DB, sessionID, reviewerID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("session_id = ? AND reviewer_id = ?", sessionID, reviewerID).
		Count(&n).Error
	return n > 0, err
}

// UpdateReview applies field updates to a review owned by reviewerID.
// Returns ErrNotFound if the review does not exist or belongs to someone else.
func UpdateReview(ctx context.Context, db *gorm.DB, id, reviewerID string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Review{}).
		Where("id = ? AND reviewer_id = ?", id, reviewerID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListReviewsForUser returns the reviews written about a user, most recent
// first. Reviews the user authored about others are not included; the
// profile view shows received feedback only.
func ListReviewsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Review, error) {
	var out []domain.Review
	err := db.WithContext(ctx).
		Where("reviewee_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
