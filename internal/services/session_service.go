// Package services – SessionService
//
// This file implements the session ledger: deriving a session from an
// accepted request (manually or through the auto-approval path), the
// reschedule/start/end/cancel transitions, and the listings backing the
// session views. Teacher and learner are fixed by the originating request
// (teacher = recipient, learner = requester) and never change.
//
// Scheduling holds the per-participant locks exposed by the Scheduler across
// the whole conflict-check-plus-insert, so two racing bookings for the same
// user cannot both pass the check within this process.
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

// ScheduleInput carries the scheduling fields of a session.
type ScheduleInput struct {
	Date        time.Time
	Duration    int // minutes
	Format      domain.SessionFormat
	Location    string
	MeetingLink string
}

// SessionOverview is the tagged union backing the combined schedule view:
// requests still awaiting approval alongside actual sessions. The two kinds
// stay separate; nothing fabricates session-shaped values for pending
// requests.
type SessionOverview struct {
	PendingRequests []domain.SwapRequest
	Upcoming        []domain.Session
	Ongoing         []domain.Session
	Completed       []domain.Session
	Cancelled       []domain.Session
}

// SessionService owns Session rows, their state machine and timing rules.
type SessionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Scheduler performs conflict checks and slot search.
	Scheduler *Scheduler
	// Events receives notification events after each mutation.
	Events EventSink

	// StartEarlyMargin is how long before scheduled_date a session may be
	// started. The start window closes at scheduled_date + duration.
	StartEarlyMargin time.Duration
	// AutoLead is the default offset of the auto-approval candidate slot.
	AutoLead time.Duration
	// MaxAttempts bounds the auto-approval slot search.
	MaxAttempts int
	// MinDuration and MaxDuration bound session length, in minutes.
	MinDuration int
	MaxDuration int

	// now is a test seam; defaults to time.Now.
	now func() time.Time
}

// NewSessionService constructs a SessionService with default policy: 15
// minute early-start margin, next-day auto-approval candidate, 365 search
// attempts, and 15..480 minute durations.
func NewSessionService(db *gorm.DB, sched *Scheduler, sink EventSink) *SessionService {
	return &SessionService{
		DB:               db,
		Scheduler:        sched,
		Events:           sinkOrDiscard(sink),
		StartEarlyMargin: 15 * time.Minute,
		AutoLead:         24 * time.Hour,
		MaxAttempts:      365,
		MinDuration:      15,
		MaxDuration:      480,
		now:              time.Now,
	}
}

func (s *SessionService) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

// validateSlot applies the input checks shared by Schedule and Reschedule.
func (s *SessionService) validateSlot(in ScheduleInput) error {
	if !in.Date.After(s.clock()) {
		return ErrPastDate
	}
	if in.Duration < s.MinDuration || in.Duration > s.MaxDuration {
		return ErrDurationOutOfRange
	}
	if in.Format == domain.FormatOnline && strings.TrimSpace(in.MeetingLink) == "" {
		return ErrMeetingLinkRequired
	}
	return nil
}

// Schedule creates a session for an accepted request at a caller-chosen time.
//
// Guards: the actor must be a party of the request; the request must be
// accepted; no live session may exist for the request (a cancelled one is
// deleted to make room); the slot must be in the future, within duration
// bounds, carry a meeting link when online, and be conflict-free for both
// teacher and learner. A conflict is surfaced as *ConflictError naming the
// colliding interval.
//
// The other party receives a session_scheduled notification.
func (s *SessionService) Schedule(ctx context.Context, requestID, actorID string, in ScheduleInput) (*domain.Session, error) {
	if err := s.validateSlot(in); err != nil {
		return nil, err
	}

	req, err := repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if actorID != req.RequesterID && actorID != req.RecipientID {
		return nil, ErrNotParticipant
	}
	if req.Status != domain.RequestAccepted {
		return nil, ErrRequestNotAccepted
	}

	teacher, learner := req.RecipientID, req.RequesterID
	unlock := s.Scheduler.LockParticipants([]string{teacher, learner})
	defer unlock()

	var session *domain.Session
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := repo.GetSessionForRequest(ctx, tx, req.ID)
		switch {
		case err == nil && existing.Status != domain.SessionCancelled:
			return ErrSessionExists
		case err == nil:
			// Cancelled predecessor makes room for the replacement.
			if err := repo.DeleteSession(ctx, tx, existing.ID); err != nil {
				return err
			}
		case !errors.Is(err, repo.ErrNotFound):
			return err
		}

		conflict, err := s.Scheduler.Check(ctx, tx, []string{teacher, learner},
			in.Date, time.Duration(in.Duration)*time.Minute, "")
		if err != nil {
			return err
		}
		if conflict != nil {
			busy := teacher
			if !conflict.HasParticipant(teacher) {
				busy = learner
			}
			return &ConflictError{
				UserID: busy,
				Start:  conflict.ScheduledDate,
				End:    conflict.EndsAt(),
			}
		}

		offered, err := repo.GetOfferedSkill(ctx, tx, req.OfferedSkillID)
		if err != nil {
			return err
		}
		session = &domain.Session{
			RequestID:       req.ID,
			TeacherID:       teacher,
			LearnerID:       learner,
			SkillID:         offered.SkillID,
			ScheduledDate:   in.Date.UTC(),
			DurationMinutes: in.Duration,
			Format:          in.Format,
			Location:        in.Location,
			MeetingLink:     in.MeetingLink,
			Status:          domain.SessionScheduled,
		}
		return repo.CreateSession(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}

	s.emitScheduled(ctx, session, actorID, "Session Scheduled!",
		"A session for %s has been scheduled for %s.")
	return session, nil
}

// Reschedule moves a session to a new slot. Either participant may
// reschedule. A scheduled session is updated in place; a cancelled one is
// deleted and replaced by a fresh row tied to the same request. Sessions in
// progress or completed cannot be rescheduled.
func (s *SessionService) Reschedule(ctx context.Context, sessionID, actorID string, in ScheduleInput) (*domain.Session, error) {
	if err := s.validateSlot(in); err != nil {
		return nil, err
	}

	session, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.HasParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if session.Status != domain.SessionScheduled && session.Status != domain.SessionCancelled {
		return nil, ErrInvalidTransition
	}

	unlock := s.Scheduler.LockParticipants([]string{session.TeacherID, session.LearnerID})
	defer unlock()

	var out *domain.Session
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conflict, err := s.Scheduler.Check(ctx, tx, []string{session.TeacherID, session.LearnerID},
			in.Date, time.Duration(in.Duration)*time.Minute, session.ID)
		if err != nil {
			return err
		}
		if conflict != nil {
			return &ConflictError{Start: conflict.ScheduledDate, End: conflict.EndsAt()}
		}

		if session.Status == domain.SessionCancelled {
			// Delete-and-replace keeps the cancelled row out of history
			// instead of mutating it back to life.
			if err := repo.DeleteSession(ctx, tx, session.ID); err != nil {
				return err
			}
			out = &domain.Session{
				RequestID:       session.RequestID,
				TeacherID:       session.TeacherID,
				LearnerID:       session.LearnerID,
				SkillID:         session.SkillID,
				ScheduledDate:   in.Date.UTC(),
				DurationMinutes: in.Duration,
				Format:          in.Format,
				Location:        in.Location,
				MeetingLink:     in.MeetingLink,
				Status:          domain.SessionScheduled,
			}
			return repo.CreateSession(ctx, tx, out)
		}

		if err := repo.UpdateSession(ctx, tx, session.ID, map[string]any{
			"scheduled_date":   in.Date.UTC(),
			"duration_minutes": in.Duration,
			"format":           in.Format,
			"location":         in.Location,
			"meeting_link":     in.MeetingLink,
		}); err != nil {
			return err
		}
		session.ScheduledDate = in.Date.UTC()
		session.DurationMinutes = in.Duration
		session.Format = in.Format
		session.Location = in.Location
		session.MeetingLink = in.MeetingLink
		out = session
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emitScheduled(ctx, out, actorID, "Session Rescheduled!",
		"Your %s session has been rescheduled to %s.")
	return out, nil
}

// CanStart reports whether the session is inside its start window:
// from StartEarlyMargin before the scheduled date until the scheduled end.
func (s *SessionService) CanStart(session *domain.Session) bool {
	now := s.clock()
	return !now.Before(session.ScheduledDate.Add(-s.StartEarlyMargin)) &&
		now.Before(session.EndsAt())
}

// Start moves a scheduled session to in_progress. Only the teacher may
// start, only from scheduled, and only within the start window. The learner
// is notified.
func (s *SessionService) Start(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	session, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if actorID != session.TeacherID {
		return nil, ErrNotTeacher
	}
	if !session.Status.CanTransition(domain.SessionInProgress) {
		return nil, ErrInvalidTransition
	}
	if !s.CanStart(session) {
		return nil, ErrNotStartable
	}

	now := s.clock()
	if err := repo.UpdateSession(ctx, s.DB, session.ID, map[string]any{
		"status":     domain.SessionInProgress,
		"started_at": now,
	}); err != nil {
		return nil, err
	}
	session.Status = domain.SessionInProgress
	session.StartedAt = &now

	teacher, skill := s.lookupNames(ctx, session)
	s.Events.Emit(ctx, domain.Event{
		Recipient:       session.LearnerID,
		Type:            domain.NotifySessionStarted,
		Title:           "Session Started",
		Message:         fmt.Sprintf("Your session for %s with %s has started.", skill, teacher),
		RelatedUser:     session.TeacherID,
		RelatedObjectID: session.ID,
	})
	return session, nil
}

// End moves an in-progress session to completed. Only the teacher may end
// it. The learner is notified.
func (s *SessionService) End(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	session, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if actorID != session.TeacherID {
		return nil, ErrNotTeacher
	}
	if !session.Status.CanTransition(domain.SessionCompleted) {
		return nil, ErrInvalidTransition
	}

	now := s.clock()
	if err := repo.UpdateSession(ctx, s.DB, session.ID, map[string]any{
		"status":   domain.SessionCompleted,
		"ended_at": now,
	}); err != nil {
		return nil, err
	}
	session.Status = domain.SessionCompleted
	session.EndedAt = &now

	teacher, skill := s.lookupNames(ctx, session)
	s.Events.Emit(ctx, domain.Event{
		Recipient:       session.LearnerID,
		Type:            domain.NotifySessionEnded,
		Title:           "Session Ended",
		Message:         fmt.Sprintf("Your session for %s with %s has ended.", skill, teacher),
		RelatedUser:     session.TeacherID,
		RelatedObjectID: session.ID,
	})
	return session, nil
}

// Cancel aborts a scheduled or in-progress session. Either participant may
// cancel. The originating request is reset to accepted so the pair can
// reschedule, and the other participant is notified.
func (s *SessionService) Cancel(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	session, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.HasParticipant(actorID) {
		return nil, ErrNotParticipant
	}
	if !session.Status.CanTransition(domain.SessionCancelled) {
		return nil, ErrInvalidTransition
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.UpdateSession(ctx, tx, session.ID, map[string]any{
			"status": domain.SessionCancelled,
		}); err != nil {
			return err
		}
		// Keep the request accepted so the pair can reschedule.
		return repo.UpdateRequestStatus(ctx, tx, session.RequestID, domain.RequestAccepted, nil)
	})
	if err != nil {
		return nil, err
	}
	session.Status = domain.SessionCancelled

	actor, skill := s.lookupActorAndSkill(ctx, session, actorID)
	s.Events.Emit(ctx, domain.Event{
		Recipient: session.OtherParticipant(actorID),
		Type:      domain.NotifySessionCancelled,
		Title:     "Session Cancelled",
		Message: fmt.Sprintf("%s has cancelled the %s session scheduled for %s. You can reschedule if needed.",
			actor, skill, session.ScheduledDate.Format("January 2, 2006 at 3:04 PM")),
		RelatedUser:     actorID,
		RelatedObjectID: session.ID,
	})
	return session, nil
}

// Approve is the auto-approval path: the recipient accepts a pending request
// and a session is scheduled immediately, starting from now+AutoLead and
// advancing day by day until a slot is free for both participants. The
// session carries the request's proposed format, location, duration and
// meeting link. When the bounded search exhausts, nothing persists and
// ErrNoFreeSlot is returned.
func (s *SessionService) Approve(ctx context.Context, requestID, actorID string) (*domain.Session, error) {
	req, err := repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	if req.RecipientID != actorID {
		return nil, ErrNotRecipient
	}
	if !req.Status.CanTransition(domain.RequestAccepted) {
		return nil, ErrRequestNotPending
	}

	teacher, learner := req.RecipientID, req.RequesterID
	unlock := s.Scheduler.LockParticipants([]string{teacher, learner})
	defer unlock()

	var session *domain.Session
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.clock()
		if err := repo.UpdateRequestStatus(ctx, tx, req.ID, domain.RequestAccepted, map[string]any{
			"responded_at": now,
		}); err != nil {
			return err
		}

		slot, err := s.Scheduler.FindNextFree(ctx, tx, []string{teacher, learner},
			now.Add(s.AutoLead), time.Duration(req.ProposedDuration)*time.Minute, s.MaxAttempts)
		if err != nil {
			return err
		}

		offered, err := repo.GetOfferedSkill(ctx, tx, req.OfferedSkillID)
		if err != nil {
			return err
		}
		session = &domain.Session{
			RequestID:       req.ID,
			TeacherID:       teacher,
			LearnerID:       learner,
			SkillID:         offered.SkillID,
			ScheduledDate:   slot,
			DurationMinutes: req.ProposedDuration,
			Format:          req.ProposedFormat,
			Location:        req.ProposedLocation,
			MeetingLink:     req.ProposedMeetingLink,
			Status:          domain.SessionScheduled,
		}
		return repo.CreateSession(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	req.Status = domain.RequestAccepted

	recipient, skill := s.lookupActorAndSkill(ctx, session, actorID)
	s.Events.Emit(ctx,
		domain.Event{
			Recipient:       req.RequesterID,
			Type:            domain.NotifyRequestAccepted,
			Title:           "Request Accepted!",
			Message:         fmt.Sprintf("%s accepted your request to learn %s.", recipient, skill),
			RelatedUser:     actorID,
			RelatedObjectID: req.ID,
		},
		domain.Event{
			Recipient:       req.RequesterID,
			Type:            domain.NotifySessionScheduled,
			Title:           "Session Scheduled!",
			Message:         fmt.Sprintf("A session for %s has been scheduled for %s.", skill, session.ScheduledDate.Format("January 2, 2006 at 3:04 PM")),
			RelatedUser:     actorID,
			RelatedObjectID: session.ID,
		},
	)
	return session, nil
}

// Get fetches a session the actor participates in.
func (s *SessionService) Get(ctx context.Context, sessionID, actorID string) (*domain.Session, error) {
	session, err := repo.GetSession(ctx, s.DB, sessionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !session.HasParticipant(actorID) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ListPage returns a page of the user's sessions and the total count.
func (s *SessionService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Session, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountSessions(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Session{}, 0, nil
	}

	items, err := repo.ListSessionsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Overview assembles the combined schedule view for a user: pending incoming
// requests plus their sessions bucketed by status.
func (s *SessionService) Overview(ctx context.Context, userID string) (*SessionOverview, error) {
	pending, err := repo.ListPendingReceived(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := repo.ListSessionsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	out := &SessionOverview{PendingRequests: pending}
	for _, sess := range sessions {
		switch sess.Status {
		case domain.SessionScheduled:
			out.Upcoming = append(out.Upcoming, sess)
		case domain.SessionInProgress:
			out.Ongoing = append(out.Ongoing, sess)
		case domain.SessionCompleted:
			out.Completed = append(out.Completed, sess)
		case domain.SessionCancelled:
			out.Cancelled = append(out.Cancelled, sess)
		}
	}
	return out, nil
}

// emitScheduled sends a session_scheduled event to the party that did not
// act. format receives the skill name and the formatted date, in that order.
func (s *SessionService) emitScheduled(ctx context.Context, session *domain.Session, actorID, title, format string) {
	_, skill := s.lookupNames(ctx, session)
	s.Events.Emit(ctx, domain.Event{
		Recipient: session.OtherParticipant(actorID),
		Type:      domain.NotifySessionScheduled,
		Title:     title,
		Message: fmt.Sprintf(format, skill,
			session.ScheduledDate.Format("January 2, 2006 at 3:04 PM")),
		RelatedUser:     actorID,
		RelatedObjectID: session.ID,
	})
}

// lookupNames resolves the teacher display name and skill name for
// notification copy. Lookup failures degrade to empty strings; notification
// text is never worth failing the operation for.
func (s *SessionService) lookupNames(ctx context.Context, session *domain.Session) (teacher, skill string) {
	if u, err := repo.GetUser(ctx, s.DB, session.TeacherID); err == nil {
		teacher = u.DisplayName()
	}
	var sk domain.Skill
	if err := s.DB.WithContext(ctx).Where("id = ?", session.SkillID).First(&sk).Error; err == nil {
		skill = sk.Name
	}
	return teacher, skill
}

// lookupActorAndSkill resolves the acting user's display name and the
// session's skill name for notification copy.
func (s *SessionService) lookupActorAndSkill(ctx context.Context, session *domain.Session, actorID string) (actor, skill string) {
	if u, err := repo.GetUser(ctx, s.DB, actorID); err == nil {
		actor = u.DisplayName()
	}
	var sk domain.Skill
	if err := s.DB.WithContext(ctx).Where("id = ?", session.SkillID).First(&sk).Error; err == nil {
		skill = sk.Name
	}
	return actor, skill
}
