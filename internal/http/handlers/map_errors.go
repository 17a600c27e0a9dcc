package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillswap/swap-backend/internal/services"
)

// failService maps a service-layer error onto the HTTP error envelope.
//
// The mapping follows the error taxonomy of the services package:
// validation errors become 400, permission errors 403, missing resources
// 404, and state-machine or scheduling collisions 409. Anything unrecognized
// is treated as a server error.
func failService(c *gin.Context, err error) {
	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		fail(c, http.StatusConflict, ErrCodeScheduleConflict, conflict.Error())
		return
	}

	switch {
	case errors.Is(err, services.ErrSelfRequest),
		errors.Is(err, services.ErrSkillUnavailable),
		errors.Is(err, services.ErrMeetingLinkRequired),
		errors.Is(err, services.ErrDurationOutOfRange),
		errors.Is(err, services.ErrRatingOutOfRange),
		errors.Is(err, services.ErrReviewTextRequired),
		errors.Is(err, services.ErrPastDate):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())

	case errors.Is(err, services.ErrNotRecipient),
		errors.Is(err, services.ErrNotRequester),
		errors.Is(err, services.ErrNotParticipant),
		errors.Is(err, services.ErrNotTeacher),
		errors.Is(err, services.ErrNotLearner),
		errors.Is(err, services.ErrNotReviewer):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())

	case errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrReviewNotFound),
		errors.Is(err, services.ErrSkillNotFound),
		errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case errors.Is(err, services.ErrRequestNotPending),
		errors.Is(err, services.ErrRequestNotAccepted),
		errors.Is(err, services.ErrSessionExists),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrNotStartable),
		errors.Is(err, services.ErrSessionNotCompleted):
		fail(c, http.StatusConflict, ErrCodeInvalidState, err.Error())

	case errors.Is(err, services.ErrNoFreeSlot):
		fail(c, http.StatusConflict, ErrCodeNoFreeSlot, err.Error())

	case errors.Is(err, services.ErrDuplicatePending),
		errors.Is(err, services.ErrDuplicateReview):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())

	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
