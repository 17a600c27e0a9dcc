// Read-only lookups against the identity and skill-catalog tables. The
// workflow never writes these rows; it only resolves actors and validates
// that a requested offered skill exists, is active, and belongs to the
// request's recipient.
//
// Error semantics follow the rest of the package: a missing row yields
// gorm.ErrRecordNotFound (aliased as ErrNotFound), everything else is the
// raw driver error.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetUser fetches a user by id, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetOfferedSkill fetches an offered-skill row with its skill and owner
// preloaded, or ErrNotFound.
func GetOfferedSkill(ctx context.Context, db *gorm.DB, id string) (*domain.OfferedSkill, error) {
	var os domain.OfferedSkill
	err := db.WithContext(ctx).
		Preload("Skill").
		Preload("User").
		Where("id = ?", id).
		First(&os).Error
	if err != nil {
		return nil, err
	}
	return &os, nil
}
