package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
)

// effects are the post-commit side effects shared by mutating services:
// activity entries, domain events and counters. None of them can fail a
// mutation that already committed.
type effects struct {
	activity   ActivityRecorder
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

func newEffects(activity ActivityRecorder, dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) effects {
	return effects{activity: activity, dispatcher: dispatcher, metrics: metrics, logger: nopLogger(logger)}
}

func (e effects) record(ctx context.Context, identity domain.Identity, ticketID, action string, changes map[string]any, description string) {
	if e.activity == nil {
		return
	}
	entry := domain.ActivityLog{
		TicketID: ticketID,
		UserID:   identity.UserID,
		Action:   action,
		Changes:  changes,
	}
	if description != "" {
		entry.Description = strPtr(description)
	}
	e.activity.Record(ctx, entry)
}

func (e effects) emit(ctx context.Context, eventType events.EventType, ticketID string, identity domain.Identity, payload any) {
	publish(ctx, e.dispatcher, e.logger, events.NewEvent(eventType, ticketID, events.ActorFrom(identity), payload))
}

func (e effects) assignmentWritten(action domain.AssignmentAction) {
	e.metrics.AssignmentRecorded(string(action))
}

func (e effects) statusChanged(from, to domain.TicketStatus) {
	if from != to {
		e.metrics.TicketTransition(string(from), string(to))
	}
}
