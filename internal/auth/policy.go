package auth

import (
	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// TicketAction names what a caller wants to do with a ticket.
type TicketAction int

const (
	// TicketView covers reading a ticket and its comments, activity and assignments.
	TicketView TicketAction = iota
	// TicketManage covers editing, status changes, reassignment, withdrawal, tagging and deletion.
	TicketManage
	// TicketRevoke is the assigned user handing the ticket back.
	TicketRevoke
)

// CanAccessTicket is the ownership gate: admins see everything, assignees see the
// tickets they reported, users see the tickets assigned to them.
func CanAccessTicket(identity domain.Identity, ticket *domain.Ticket) bool {
	switch identity.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAssignee:
		return ticket.IsReporter(identity.UserID)
	case domain.RoleUser:
		return ticket.IsAssignee(identity.UserID)
	default:
		return false
	}
}

// CanManageTicket reports whether identity may mutate the ticket as its owner.
func CanManageTicket(identity domain.Identity, ticket *domain.Ticket) bool {
	switch identity.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAssignee:
		return ticket.IsReporter(identity.UserID)
	default:
		return false
	}
}

// CanRevokeTicket reports whether identity is the ticket's current assignee.
func CanRevokeTicket(identity domain.Identity, ticket *domain.Ticket) bool {
	return !identity.Role.IsZero() && ticket.IsAssignee(identity.UserID)
}

// AuthorizeTicket applies the predicate for action and returns a forbidden error on denial.
func AuthorizeTicket(identity domain.Identity, ticket *domain.Ticket, action TicketAction) error {
	switch action {
	case TicketView:
		if CanAccessTicket(identity, ticket) {
			return nil
		}
		return apperrors.NewForbidden("access denied")
	case TicketManage:
		if CanManageTicket(identity, ticket) {
			return nil
		}
		return apperrors.NewForbidden("you can only modify your own tickets")
	case TicketRevoke:
		if CanRevokeTicket(identity, ticket) {
			return nil
		}
		return apperrors.NewForbidden("you can only revoke tickets assigned to you")
	default:
		return apperrors.NewForbidden("access denied")
	}
}

// CanModifyComment reports whether identity may edit or delete a comment.
func CanModifyComment(identity domain.Identity, comment *domain.Comment) bool {
	return identity.Role == domain.RoleAdmin || comment.AuthorID == identity.UserID
}
