package domain

import "time"

// Comment is a message on a ticket thread.
type Comment struct {
	ID        string
	TicketID  string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time

	Author *UserSummary
}
