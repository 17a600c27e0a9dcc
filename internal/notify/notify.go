// Package notify turns lifecycle events into persisted in-app notifications.
//
// The Emitter is the single sink the services publish to. Delivery is
// best-effort: a failed write is logged and counted, never propagated, so a
// notification outage cannot fail the state change that produced the event.
package notify

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/skillswap/swap-backend/internal/domain"
	"github.com/skillswap/swap-backend/internal/repo"
)

var (
	// notifEmitted counts notifications written, by type.
	notifEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_emitted_total",
			Help: "Total number of notifications persisted, by type.",
		},
		[]string{"type"},
	)

	// notifFailed counts notification writes that errored, by type.
	notifFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notification writes that failed, by type.",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(notifEmitted, notifFailed)
}

// Emitter persists events as Notification rows.
type Emitter struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

// NewEmitter constructs an Emitter writing through db.
func NewEmitter(db *gorm.DB, log zerolog.Logger) *Emitter {
	return &Emitter{DB: db, Log: log}
}

// Emit writes one Notification row per event. Failures are logged and
// counted; Emit never returns an error to the caller.
func (e *Emitter) Emit(ctx context.Context, events ...domain.Event) {
	for _, ev := range events {
		n := &domain.Notification{
			RecipientID:     ev.Recipient,
			Type:            ev.Type,
			Title:           ev.Title,
			Message:         ev.Message,
			RelatedUserID:   ev.RelatedUser,
			RelatedObjectID: ev.RelatedObjectID,
		}
		if err := repo.CreateNotification(ctx, e.DB, n); err != nil {
			notifFailed.WithLabelValues(string(ev.Type)).Inc()
			e.Log.Error().
				Err(err).
				Str("recipient", ev.Recipient).
				Str("type", string(ev.Type)).
				Msg("notification write failed")
			continue
		}
		notifEmitted.WithLabelValues(string(ev.Type)).Inc()
		e.Log.Debug().
			Str("recipient", ev.Recipient).
			Str("type", string(ev.Type)).
			Str("notification_id", n.ID).
			Msg("notification emitted")
	}
}
