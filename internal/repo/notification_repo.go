// Repository functions for the Notification sink. Only the insert is part of
// the core; listing and read-marking belong to the surrounding application
// and are not exposed here.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
)

// CreateNotification inserts a notification row.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(n).Error
}
