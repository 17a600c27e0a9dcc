// Repository functions for the Session model.
//
// The conflict-scan query here is deliberately wider than the exact overlap
// test: it fetches every active session whose start falls inside the
// look-back window and lets the scheduler apply the half-open interval test
// in memory, mirroring how the overlap rule is specified.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
)

// CreateSession inserts a new Session row.
func CreateSession(ctx context.Context, db *gorm.DB, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = domain.SessionScheduled
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(s).Error
}

// GetSession fetches a session by id, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.Session, error) {
	var s domain.Session
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSessionForRequest fetches the session derived from a request, or
// ErrNotFound when the request has none.
func GetSessionForRequest(ctx context.Context, db *gorm.DB, requestID string) (*domain.Session, error) {
	var s domain.Session
	if err := db.WithContext(ctx).Where("request_id = ?", requestID).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes a session row. Only cancelled sessions are deleted,
// to make room for a replacement on reschedule.
func DeleteSession(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Session{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSession applies field updates to a session. Transition validation is
// the service's job.
func UpdateSession(ctx context.Context, db *gorm.DB, id string, updates map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActiveSessionsInWindow returns the user's scheduled or in-progress
// sessions whose scheduled_date falls in [from, to). The caller applies the
// exact overlap test. excludeID, when non-empty, skips that session so a
// reschedule does not collide with its own prior booking.
func ListActiveSessionsInWindow(ctx context.Context, db *gorm.DB, userID string, from, to time.Time, excludeID string) ([]domain.Session, error) {
	q := db.WithContext(ctx).
		Where("(teacher_id = ? OR learner_id = ?)", userID, userID).
		Where("status IN ?", []domain.SessionStatus{domain.SessionScheduled, domain.SessionInProgress}).
		Where("scheduled_date >= ? AND scheduled_date < ?", from, to)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var out []domain.Session
	err := q.Order("scheduled_date asc").Find(&out).Error
	return out, err
}

// ListSessionsForUser returns every session the user participates in,
// most recently scheduled first.
func ListSessionsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("teacher_id = ? OR learner_id = ?", userID, userID).
		Order("scheduled_date desc").
		Find(&out).Error
	return out, err
}

// ListSessionsPage returns a page of the user's sessions for the paginated
// listing endpoint.
func ListSessionsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Session, error) {
	var out []domain.Session
	err := db.WithContext(ctx).
		Where("teacher_id = ? OR learner_id = ?", userID, userID).
		Order("scheduled_date desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountSessions returns the total number of sessions the user participates in.
func CountSessions(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("teacher_id = ? OR learner_id = ?", userID, userID).
		Count(&total).Error
	return total, err
}
