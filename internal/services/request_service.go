// Package services – RequestService
//
// This file implements the request ledger: creating swap requests, the
// recipient's accept/decline response, and the requester's cancellation.
// Guards are enforced here (self-request, duplicate pending pair, skill
// ownership, actor identity, the pending-only transition rule) and every
// successful mutation emits its notification event to the sink.
//
// Service-level errors (e.g. ErrDuplicatePending, ErrNotRecipient) are
// returned for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/repo"
)

// Decision is the recipient's answer to a pending request.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// CreateRequestInput carries the requester-supplied fields of a new request.
type CreateRequestInput struct {
	RecipientID    string
	OfferedSkillID string
	Message        string
	Format         domain.SessionFormat
	Location       string
	Duration       int // minutes
	MeetingLink    string
}

// RequestService owns SwapRequest rows and their state machine.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Events receives notification events after each mutation.
	Events EventSink

	// MinDuration and MaxDuration bound the proposed session length,
	// in minutes.
	MinDuration int
	MaxDuration int
}

// NewRequestService constructs a RequestService with the default 15..480
// minute duration bounds.
func NewRequestService(db *gorm.DB, sink EventSink) *RequestService {
	return &RequestService{
		DB:          db,
		Events:      sinkOrDiscard(sink),
		MinDuration: 15,
		MaxDuration: 480,
	}
}

// Create validates and inserts a new pending request from requesterID.
//
// Validation:
//   - requester and recipient must differ (ErrSelfRequest)
//   - the offered skill must exist, be active, and belong to the recipient
//     (ErrSkillNotFound / ErrSkillUnavailable)
//   - no pending request may already exist for the pair (ErrDuplicatePending)
//   - duration must fall within the configured bounds (ErrDurationOutOfRange)
//   - online format requires a meeting link (ErrMeetingLinkRequired)
//
// On success the recipient is notified with a skill_request event.
func (s *RequestService) Create(ctx context.Context, requesterID string, in CreateRequestInput) (*domain.SwapRequest, error) {
	if requesterID == in.RecipientID {
		return nil, ErrSelfRequest
	}
	if in.Duration < s.MinDuration || in.Duration > s.MaxDuration {
		return nil, ErrDurationOutOfRange
	}
	if in.Format == domain.FormatOnline && strings.TrimSpace(in.MeetingLink) == "" {
		return nil, ErrMeetingLinkRequired
	}

	var (
		req       *domain.SwapRequest
		requester *domain.User
		skillName string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		requester, err = repo.GetUser(ctx, tx, requesterID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		if _, err = repo.GetUser(ctx, tx, in.RecipientID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		offered, err := repo.GetOfferedSkill(ctx, tx, in.OfferedSkillID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrSkillNotFound
			}
			return err
		}
		if offered.UserID != in.RecipientID || !offered.IsActive {
			return ErrSkillUnavailable
		}
		skillName = offered.Skill.Name

		exists, err := repo.HasPendingRequest(ctx, tx, requesterID, in.RecipientID)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicatePending
		}

		req = &domain.SwapRequest{
			RequesterID:         requesterID,
			RecipientID:         in.RecipientID,
			OfferedSkillID:      in.OfferedSkillID,
			Message:             in.Message,
			ProposedFormat:      in.Format,
			ProposedLocation:    in.Location,
			ProposedDuration:    in.Duration,
			ProposedMeetingLink: in.MeetingLink,
			Status:              domain.RequestPending,
		}
		return repo.CreateRequest(ctx, tx, req)
	})
	if err != nil {
		return nil, err
	}

	s.Events.Emit(ctx, domain.Event{
		Recipient:       req.RecipientID,
		Type:            domain.NotifySkillRequest,
		Title:           "New Skill Swap Request",
		Message:         fmt.Sprintf("%s wants to learn %s from you.", requester.DisplayName(), skillName),
		RelatedUser:     requesterID,
		RelatedObjectID: req.ID,
	})
	return req, nil
}

// Respond records the recipient's accept or decline decision.
//
// Guards: the actor must be the request's recipient (ErrNotRecipient) and the
// request must still be pending (ErrRequestNotPending). On success the status
// moves through the transition table, responded_at is stamped, and the
// requester is notified.
func (s *RequestService) Respond(ctx context.Context, requestID, actorID string, decision Decision, responseMessage string) (*domain.SwapRequest, error) {
	target := domain.RequestAccepted
	if decision == DecisionDecline {
		target = domain.RequestDeclined
	}

	var (
		req       *domain.SwapRequest
		recipient *domain.User
		skillName string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = repo.GetRequest(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.RecipientID != actorID {
			return ErrNotRecipient
		}
		if !req.Status.CanTransition(target) {
			return ErrRequestNotPending
		}

		recipient, err = repo.GetUser(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if offered, err := repo.GetOfferedSkill(ctx, tx, req.OfferedSkillID); err == nil {
			skillName = offered.Skill.Name
		}

		now := time.Now().UTC()
		if err := repo.UpdateRequestStatus(ctx, tx, req.ID, target, map[string]any{
			"responded_at":     now,
			"response_message": responseMessage,
		}); err != nil {
			return err
		}
		req.Status = target
		req.RespondedAt = &now
		req.ResponseMessage = responseMessage
		return nil
	})
	if err != nil {
		return nil, err
	}

	ev := domain.Event{
		Recipient:       req.RequesterID,
		RelatedUser:     actorID,
		RelatedObjectID: req.ID,
	}
	if target == domain.RequestAccepted {
		ev.Type = domain.NotifyRequestAccepted
		ev.Title = "Request Accepted!"
		ev.Message = fmt.Sprintf("%s accepted your request to learn %s. You can now schedule the session.",
			recipient.DisplayName(), skillName)
	} else {
		ev.Type = domain.NotifyRequestDeclined
		ev.Title = "Request Declined"
		ev.Message = fmt.Sprintf("%s declined your request to learn %s.",
			recipient.DisplayName(), skillName)
	}
	s.Events.Emit(ctx, ev)
	return req, nil
}

// Cancel withdraws a pending request. Only the requester may cancel
// (ErrNotRequester) and only while pending (ErrRequestNotPending). The
// recipient is notified with a system event.
func (s *RequestService) Cancel(ctx context.Context, requestID, actorID string) (*domain.SwapRequest, error) {
	var (
		req       *domain.SwapRequest
		requester *domain.User
		skillName string
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		req, err = repo.GetRequest(ctx, tx, requestID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrRequestNotFound
			}
			return err
		}
		if req.RequesterID != actorID {
			return ErrNotRequester
		}
		if !req.Status.CanTransition(domain.RequestCancelled) {
			return ErrRequestNotPending
		}

		requester, err = repo.GetUser(ctx, tx, actorID)
		if err != nil {
			return err
		}
		if offered, err := repo.GetOfferedSkill(ctx, tx, req.OfferedSkillID); err == nil {
			skillName = offered.Skill.Name
		}

		if err := repo.UpdateRequestStatus(ctx, tx, req.ID, domain.RequestCancelled, nil); err != nil {
			return err
		}
		req.Status = domain.RequestCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Events.Emit(ctx, domain.Event{
		Recipient:       req.RecipientID,
		Type:            domain.NotifySystem,
		Title:           "Session Request Cancelled",
		Message:         fmt.Sprintf("%s cancelled their request to learn %s.", requester.DisplayName(), skillName),
		RelatedUser:     actorID,
		RelatedObjectID: req.ID,
	})
	return req, nil
}

// Get fetches a request visible to the actor (requester or recipient).
func (s *RequestService) Get(ctx context.Context, requestID, actorID string) (*domain.SwapRequest, error) {
	req, err := repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.RequesterID != actorID && req.RecipientID != actorID {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

// ListSent returns requests the user has sent, most recent first.
func (s *RequestService) ListSent(ctx context.Context, userID string) ([]domain.SwapRequest, error) {
	return repo.ListRequestsByRequester(ctx, s.DB, userID)
}

// ListReceived returns requests the user has received, most recent first.
func (s *RequestService) ListReceived(ctx context.Context, userID string) ([]domain.SwapRequest, error) {
	return repo.ListRequestsByRecipient(ctx, s.DB, userID)
}
