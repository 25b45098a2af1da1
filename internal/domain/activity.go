package domain

import "time"

// Activity actions written by ticket and comment mutations.
const (
	ActivityCreated        = "created"
	ActivityUpdated        = "updated"
	ActivityStatusChanged  = "status_changed"
	ActivityReassigned     = "reassigned"
	ActivityRevoked        = "revoked"
	ActivityWithdrawn      = "withdrawn"
	ActivityTagsUpdated    = "tags_updated"
	ActivityCommented      = "commented"
	ActivityCommentUpdated = "comment_updated"
	ActivityCommentDeleted = "comment_deleted"
)

// ActivityLog is an immutable, display-only audit trail entry.
type ActivityLog struct {
	ID          string
	TicketID    string
	UserID      string
	Action      string
	Changes     map[string]any
	Description *string
	CreatedAt   time.Time

	User *UserSummary
}
