// Package domain defines the persistence models for the skill-swap workflow:
// users and their offered skills (consumed read-only), swap requests, the
// sessions scheduled from accepted requests, post-session reviews, and the
// notification rows emitted as side effects of lifecycle transitions. All
// types are mapped with GORM and form the core data layer of the application.
package domain

import (
	"time"
)

// SessionFormat is how a session is held.
type SessionFormat string

const (
	FormatOnline   SessionFormat = "online"
	FormatInPerson SessionFormat = "in_person"
)

// RequestStatus is the lifecycle state of a SwapRequest.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestAccepted  RequestStatus = "accepted"
	RequestDeclined  RequestStatus = "declined"
	RequestCancelled RequestStatus = "cancelled"
)

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// NotificationType enumerates the notification kinds emitted by the workflow.
type NotificationType string

const (
	NotifySkillRequest     NotificationType = "skill_request"
	NotifyRequestAccepted  NotificationType = "request_accepted"
	NotifyRequestDeclined  NotificationType = "request_declined"
	NotifySessionScheduled NotificationType = "session_scheduled"
	NotifySessionStarted   NotificationType = "session_started"
	NotifySessionEnded     NotificationType = "session_ended"
	NotifySessionCancelled NotificationType = "session_cancelled"
	NotifyReviewReceived   NotificationType = "review_received"
	NotifySystem           NotificationType = "system"
)

// User is the identity record the workflow reads. Registration, profiles and
// authentication live outside this service; the core only needs an id, a
// display name, and equality of actor ids.
type User struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	Username  string    `json:"username"  gorm:"type:varchar(64);not null;uniqueIndex"`
	FullName  string    `json:"full_name" gorm:"type:varchar(128)"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// DisplayName returns the full name, falling back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Skill is a catalog entry. The catalog itself (categories, browsing, search)
// is outside this service; the workflow only reads skill names.
type Skill struct {
	ID        string    `json:"id"   gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(128);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Skill.
func (Skill) TableName() string { return "skills" }

// OfferedSkill links a user to a skill they teach. A swap request must target
// an active offered skill belonging to its recipient.
type OfferedSkill struct {
	ID        string    `json:"id"       gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"  gorm:"type:char(36);not null;index"`
	SkillID   string    `json:"skill_id" gorm:"type:char(36);not null;index"`
	IsActive  bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`

	User  User  `json:"-" gorm:"foreignKey:UserID;references:ID"`
	Skill Skill `json:"-" gorm:"foreignKey:SkillID;references:ID"`
}

// TableName returns the database table name for OfferedSkill.
func (OfferedSkill) TableName() string { return "offered_skills" }

// SwapRequest is a proposal from the requester to learn one of the
// recipient's offered skills. At most one pending request may exist per
// (requester, recipient) pair; that rule is checked at creation time.
//
// A request leaves pending through accept, decline or cancel. Accepted is
// semi-terminal: it changes again only indirectly, when a session derived
// from it is cancelled and the request becomes reschedulable.
type SwapRequest struct {
	ID                  string        `json:"id"             gorm:"type:char(36);primaryKey"`
	RequesterID         string        `json:"requester_id"   gorm:"type:char(36);not null;index:idx_requests_pair,priority:1"`
	RecipientID         string        `json:"recipient_id"   gorm:"type:char(36);not null;index:idx_requests_pair,priority:2"`
	OfferedSkillID      string        `json:"offered_skill_id" gorm:"type:char(36);not null;index"`
	Message             string        `json:"message"        gorm:"type:text"`
	ProposedFormat      SessionFormat `json:"proposed_format" gorm:"type:varchar(16);not null;check:proposed_format IN ('online','in_person')"`
	ProposedLocation    string        `json:"proposed_location" gorm:"type:varchar(200)"`
	ProposedDuration    int           `json:"proposed_duration" gorm:"not null"`
	ProposedMeetingLink string        `json:"proposed_meeting_link" gorm:"type:varchar(500)"`
	Status              RequestStatus `json:"status"         gorm:"type:varchar(16);not null;default:'pending';index"`
	ResponseMessage     string        `json:"response_message" gorm:"type:text"`
	CreatedAt           time.Time     `json:"created_at"`
	RespondedAt         *time.Time    `json:"responded_at,omitempty"`

	Requester    User         `json:"-" gorm:"foreignKey:RequesterID;references:ID"`
	Recipient    User         `json:"-" gorm:"foreignKey:RecipientID;references:ID"`
	OfferedSkill OfferedSkill `json:"-" gorm:"foreignKey:OfferedSkillID;references:ID"`
}

// TableName returns the database table name for SwapRequest.
func (SwapRequest) TableName() string { return "swap_requests" }

// Session is a scheduled teaching meeting derived from an accepted request.
// Teacher is always the request's recipient and learner its requester. Each
// request owns at most one live session; a cancelled session is deleted and
// replaced when the request is rescheduled.
type Session struct {
	ID              string        `json:"id"         gorm:"type:char(36);primaryKey"`
	RequestID       string        `json:"request_id" gorm:"type:char(36);not null;uniqueIndex"`
	TeacherID       string        `json:"teacher_id" gorm:"type:char(36);not null;index"`
	LearnerID       string        `json:"learner_id" gorm:"type:char(36);not null;index"`
	SkillID         string        `json:"skill_id"   gorm:"type:char(36);not null"`
	ScheduledDate   time.Time     `json:"scheduled_date" gorm:"not null;index"`
	DurationMinutes int           `json:"duration_minutes" gorm:"not null"`
	Format          SessionFormat `json:"format"     gorm:"type:varchar(16);not null"`
	Location        string        `json:"location"   gorm:"type:varchar(200)"`
	MeetingLink     string        `json:"meeting_link" gorm:"type:varchar(500)"`
	Status          SessionStatus `json:"status"     gorm:"type:varchar(16);not null;default:'scheduled';index"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Request SwapRequest `json:"-" gorm:"foreignKey:RequestID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Teacher User        `json:"-" gorm:"foreignKey:TeacherID;references:ID"`
	Learner User        `json:"-" gorm:"foreignKey:LearnerID;references:ID"`
	Skill   Skill       `json:"-" gorm:"foreignKey:SkillID;references:ID"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }

// EndsAt returns the exclusive end of the session's scheduled interval.
func (s Session) EndsAt() time.Time {
	return s.ScheduledDate.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps reports whether the half-open interval [start, end) overlaps the
// session's own [ScheduledDate, EndsAt()) interval.
func (s Session) Overlaps(start, end time.Time) bool {
	return start.Before(s.EndsAt()) && end.After(s.ScheduledDate)
}

// HasParticipant reports whether userID is the session's teacher or learner.
func (s Session) HasParticipant(userID string) bool {
	return userID == s.TeacherID || userID == s.LearnerID
}

// OtherParticipant returns the counterpart of userID in the session.
func (s Session) OtherParticipant(userID string) string {
	if userID == s.TeacherID {
		return s.LearnerID
	}
	return s.TeacherID
}

// Review is the learner's rating of a completed session. The learner is
// always the reviewer and the teacher always the reviewee; one review per
// (session, reviewer) is enforced by the unique index and re-checked at
// write time.
type Review struct {
	ID                 string    `json:"id"          gorm:"type:char(36);primaryKey"`
	SessionID          string    `json:"session_id"  gorm:"type:char(36);not null;index;uniqueIndex:ux_reviews_session_reviewer"`
	ReviewerID         string    `json:"reviewer_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_reviews_session_reviewer"`
	RevieweeID         string    `json:"reviewee_id" gorm:"type:char(36);not null;index"`
	OverallRating      int       `json:"overall_rating"      gorm:"not null;check:overall_rating BETWEEN 1 AND 5"`
	CommunicationRating int      `json:"communication_rating" gorm:"not null;check:communication_rating BETWEEN 1 AND 5"`
	KnowledgeRating    int       `json:"knowledge_rating"    gorm:"not null;check:knowledge_rating BETWEEN 1 AND 5"`
	PunctualityRating  int       `json:"punctuality_rating"  gorm:"not null;check:punctuality_rating BETWEEN 1 AND 5"`
	ReviewText         string    `json:"review_text"  gorm:"type:text"`
	WhatLearned        string    `json:"what_learned" gorm:"type:text"`
	Suggestions        string    `json:"suggestions"  gorm:"type:text"`
	WouldRecommend     bool      `json:"would_recommend"`
	IsAnonymous        bool      `json:"is_anonymous"`
	IsPublic           bool      `json:"is_public" gorm:"default:true"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Session Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Review.
func (Review) TableName() string { return "reviews" }

// Notification is the persisted form of an emitted workflow event. The core
// only writes these rows; reading and delivery belong to the surrounding
// application.
type Notification struct {
	ID              string           `json:"id"        gorm:"type:char(36);primaryKey"`
	RecipientID     string           `json:"recipient_id" gorm:"type:char(36);not null;index"`
	Type            NotificationType `json:"type"      gorm:"type:varchar(32);not null"`
	Title           string           `json:"title"     gorm:"type:varchar(200);not null"`
	Message         string           `json:"message"   gorm:"type:text;not null"`
	RelatedUserID   string           `json:"related_user_id" gorm:"type:char(36)"`
	RelatedObjectID string           `json:"related_object_id" gorm:"type:char(36)"`
	IsRead          bool             `json:"is_read" gorm:"not null;default:false"`
	CreatedAt       time.Time        `json:"created_at"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }
