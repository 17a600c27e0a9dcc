// Aggregate queries backing conditional responses in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
)

// SessionsStats returns the number of sessions the user participates in and
// the most recent UpdatedAt among them. Both feed the session list ETag: any
// booking, reschedule or state change moves at least one of the two. A user
// with no sessions gets count 0 and a nil timestamp.
func SessionsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("teacher_id = ? OR learner_id = ?", userID, userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Scan a single ordered row rather than MAX(); SQLite's MAX on a
	// timestamp column comes back as TEXT.
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
