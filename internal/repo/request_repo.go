// Repository functions for the SwapRequest model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Guards (actor checks, state machine)
// live in services.RequestService.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
)

// CreateRequest inserts a new pending SwapRequest. The id is a generated
// UUID and CreatedAt is set to UTC.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.SwapRequest) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = domain.RequestPending
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(r).Error
}

// GetRequest fetches a request by id, or ErrNotFound.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.SwapRequest, error) {
	var r domain.SwapRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// HasPendingRequest reports whether a pending request already exists from
// requester to recipient.
func HasPendingRequest(ctx context.Context, db *gorm.DB, requesterID, recipientID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SwapRequest{}).
		Where("requester_id = ? AND recipient_id = ? AND status = ?",
			requesterID, recipientID, domain.RequestPending).
		Count(&n).Error
	return n > 0, err
}

// UpdateRequestStatus writes a new status (and optional response fields) for
// the request. It does not validate the transition; callers go through the
// domain transition table first.
func UpdateRequestStatus(ctx context.Context, db *gorm.DB, id string, status domain.RequestStatus, updates map[string]any) error {
	fields := map[string]any{"status": status}
	for k, v := range updates {
		fields[k] = v
	}
	res := db.WithContext(ctx).
		Model(&domain.SwapRequest{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListRequestsByRequester returns requests sent by the user, most recent first.
func ListRequestsByRequester(ctx context.Context, db *gorm.DB, userID string) ([]domain.SwapRequest, error) {
	var out []domain.SwapRequest
	err := db.WithContext(ctx).
		Where("requester_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListRequestsByRecipient returns requests received by the user, most recent first.
func ListRequestsByRecipient(ctx context.Context, db *gorm.DB, userID string) ([]domain.SwapRequest, error) {
	var out []domain.SwapRequest
	err := db.WithContext(ctx).
		Where("recipient_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListPendingReceived returns the user's pending incoming requests, most
// recent first. Used by the schedule overview.
func ListPendingReceived(ctx context.Context, db *gorm.DB, userID string) ([]domain.SwapRequest, error) {
	var out []domain.SwapRequest
	err := db.WithContext(ctx).
		Where("recipient_id = ? AND status = ?", userID, domain.RequestPending).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}
