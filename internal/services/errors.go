// Package services implements the skill-swap workflow: the request ledger,
// the conflict-aware scheduler, the session ledger, and the review ledger.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// Errors fall into five kinds mirrored by the HTTP layer: validation
// (malformed or semantically invalid input), permission (wrong actor), state
// (illegal transition for the entity's current status), not-found, and
// scheduling (no conflict-free slot). Translation into HTTP status codes is
// performed at the handler layer.
package services

import (
	"errors"
	"fmt"
	"time"
)

// Validation errors.
var (
	// ErrSelfRequest is returned when a user addresses a swap request to
	// themselves.
	ErrSelfRequest = errors.New("cannot send a swap request to yourself")

	// ErrDuplicatePending is returned when a pending request already exists
	// between the requester and the recipient.
	ErrDuplicatePending = errors.New("a pending request with this user already exists")

	// ErrSkillUnavailable is returned when the offered skill does not belong
	// to the recipient or is no longer active.
	ErrSkillUnavailable = errors.New("the selected skill is no longer available")

	// ErrMeetingLinkRequired is returned when an online session or request
	// lacks a meeting link.
	ErrMeetingLinkRequired = errors.New("meeting link is required for online sessions")

	// ErrDurationOutOfRange is returned when a duration falls outside the
	// configured minute bounds.
	ErrDurationOutOfRange = errors.New("session duration is out of range")

	// ErrRatingOutOfRange is returned when a review rating is not in 1..5.
	ErrRatingOutOfRange = errors.New("ratings must be between 1 and 5")

	// ErrReviewTextRequired is returned when a low overall rating is not
	// accompanied by review text.
	ErrReviewTextRequired = errors.New("please provide feedback when giving a low rating")
)

// Permission errors.
var (
	// ErrNotRecipient is returned when someone other than the request's
	// recipient tries to respond to it.
	ErrNotRecipient = errors.New("only the recipient may respond to this request")

	// ErrNotRequester is returned when someone other than the requester tries
	// to cancel a request.
	ErrNotRequester = errors.New("only the requester may cancel this request")

	// ErrNotParticipant is returned when the actor is neither teacher nor
	// learner of the session (or neither party of the request).
	ErrNotParticipant = errors.New("you are not a participant in this session")

	// ErrNotTeacher is returned when someone other than the teacher tries to
	// start or end a session.
	ErrNotTeacher = errors.New("only the teacher may perform this action")

	// ErrNotLearner is returned when someone other than the learner tries to
	// review a session.
	ErrNotLearner = errors.New("only the learner may review this session")

	// ErrNotReviewer is returned when someone other than the original
	// reviewer tries to edit a review.
	ErrNotReviewer = errors.New("only the original reviewer may edit this review")
)

// State errors.
var (
	// ErrRequestNotPending is returned when responding to or cancelling a
	// request that has already left pending.
	ErrRequestNotPending = errors.New("request has already been processed")

	// ErrRequestNotAccepted is returned when scheduling against a request
	// that is not in accepted state.
	ErrRequestNotAccepted = errors.New("request has not been accepted")

	// ErrSessionExists is returned when a live (non-cancelled) session
	// already exists for the request.
	ErrSessionExists = errors.New("a session has already been scheduled for this request")

	// ErrInvalidTransition is returned when a session transition is illegal
	// from the current status.
	ErrInvalidTransition = errors.New("transition not allowed from current status")

	// ErrNotStartable is returned when a start attempt falls outside the
	// allowed window around the scheduled date.
	ErrNotStartable = errors.New("session cannot be started yet")

	// ErrPastDate is returned when a session is scheduled for a time that is
	// not strictly in the future.
	ErrPastDate = errors.New("session must be scheduled for a future date and time")

	// ErrSessionNotCompleted is returned when reviewing a session that has
	// not completed.
	ErrSessionNotCompleted = errors.New("session has not been completed")
)

// Not-found errors.
var (
	ErrRequestNotFound = errors.New("request not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrReviewNotFound  = errors.New("review not found")
	ErrSkillNotFound   = errors.New("offered skill not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Scheduling errors.
var (
	// ErrNoFreeSlot is returned when the bounded day-by-day search exhausts
	// its attempts without finding a conflict-free slot.
	ErrNoFreeSlot = errors.New("no conflict-free slot found")

	// ErrDuplicateReview is returned when a learner reviews the same session
	// twice. The second attempt is rejected, never merged.
	ErrDuplicateReview = errors.New("you have already reviewed this session")
)

// ConflictError reports a scheduling collision with an existing booking. The
// message names the colliding interval so manual scheduling can surface it.
type ConflictError struct {
	UserID string
	Start  time.Time
	End    time.Time
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("you already have a session scheduled from %s to %s; please choose a different time",
		e.Start.Format("Jan 2, 2006 at 3:04 PM"), e.End.Format("3:04 PM"))
}
