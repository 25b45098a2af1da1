package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/repository"
)

func seedUser(t *testing.T, s *Store, name string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{Name: name, Email: name + "@example.com", PasswordHash: "x", Role: role}
	require.NoError(t, s.Users().Create(context.Background(), user))
	return user
}

func TestUsers_DuplicateEmailIgnoresCase(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Users().Create(ctx, &domain.User{Name: "a", Email: "A@example.com", Role: domain.RoleUser}))

	err := s.Users().Create(ctx, &domain.User{Name: "b", Email: "a@EXAMPLE.com", Role: domain.RoleUser})

	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUsers_ListOrdersByNameAndFiltersRole(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "zoe", domain.RoleUser)
	seedUser(t, s, "adam", domain.RoleAssignee)
	seedUser(t, s, "mia", domain.RoleUser)

	all, err := s.Users().List(context.Background(), domain.Role{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"adam", "mia", "zoe"}, []string{all[0].Name, all[1].Name, all[2].Name})

	users, err := s.Users().List(context.Background(), domain.RoleUser)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "owner", domain.RoleAssignee)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Store) error {
		ticket := &domain.Ticket{Title: "t", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusPending, ReporterID: owner.ID}
		require.NoError(t, tx.Tickets().Create(ctx, ticket))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	tickets, total, err := s.Tickets().List(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	assert.Empty(t, tickets)
	assert.Zero(t, total)
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "owner", domain.RoleAssignee)
	target := seedUser(t, s, "target", domain.RoleUser)

	var ticketID string
	err := s.WithinTx(ctx, func(tx repository.Store) error {
		ticket := &domain.Ticket{Title: "t", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusPending, ReporterID: owner.ID, AssigneeID: &target.ID}
		if err := tx.Tickets().Create(ctx, ticket); err != nil {
			return err
		}
		ticketID = ticket.ID
		return tx.Assignments().Create(ctx, &domain.Assignment{
			TicketID: ticket.ID, AssignedByUserID: owner.ID, AssignedToUserID: target.ID, Action: domain.AssignmentAssigned,
		})
	})
	require.NoError(t, err)

	rows, err := s.Assignments().ListByTicket(ctx, ticketID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "owner", rows[0].AssignedBy.Name)
	assert.Equal(t, "target", rows[0].AssignedTo.Name)
	assert.Equal(t, "t", rows[0].Ticket.Title)
}

func TestTickets_ListFiltersAndPages(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "owner", domain.RoleAssignee)
	other := seedUser(t, s, "other", domain.RoleAssignee)

	for i, title := range []string{"printer jam", "vpn down", "printer toner"} {
		ticket := &domain.Ticket{Title: title, Priority: domain.TicketPriorityMedium, Status: domain.TicketStatusPending, ReporterID: owner.ID}
		if i == 1 {
			ticket.ReporterID = other.ID
		}
		require.NoError(t, s.Tickets().Create(ctx, ticket))
	}

	term := "PRINTER"
	tickets, total, err := s.Tickets().List(ctx, repository.TicketFilter{SearchTerm: &term})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "printer toner", tickets[0].Title, "newest first")

	tickets, total, err = s.Tickets().List(ctx, repository.TicketFilter{ReporterID: &owner.ID, Page: repository.Page{Limit: 1, Offset: 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, tickets, 1)
	assert.Equal(t, "printer jam", tickets[0].Title)
	assert.Equal(t, "owner", tickets[0].Reporter.Name)
}

func TestTickets_DeleteCascades(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "owner", domain.RoleAssignee)
	ticket := &domain.Ticket{Title: "t", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusPending, ReporterID: owner.ID}
	require.NoError(t, s.Tickets().Create(ctx, ticket))
	require.NoError(t, s.Comments().Create(ctx, &domain.Comment{TicketID: ticket.ID, AuthorID: owner.ID, Body: "hi"}))
	require.NoError(t, s.Activities().Create(ctx, &domain.ActivityLog{TicketID: ticket.ID, UserID: owner.ID, Action: domain.ActivityCreated}))

	require.NoError(t, s.Tickets().Delete(ctx, ticket.ID))

	comments, err := s.Comments().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	logs, err := s.Activities().ListByTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.ErrorIs(t, s.Tickets().Delete(ctx, ticket.ID), repository.ErrNotFound)
}

func TestTags_ReplaceAndDelete(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "owner", domain.RoleAssignee)
	ticket := &domain.Ticket{Title: "t", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusPending, ReporterID: owner.ID}
	require.NoError(t, s.Tickets().Create(ctx, ticket))
	bug := &domain.Tag{Name: "bug"}
	ui := &domain.Tag{Name: "ui"}
	require.NoError(t, s.Tags().Create(ctx, bug))
	require.NoError(t, s.Tags().Create(ctx, ui))
	assert.ErrorIs(t, s.Tags().Create(ctx, &domain.Tag{Name: "BUG"}), repository.ErrDuplicate)

	require.NoError(t, s.Tickets().ReplaceTags(ctx, ticket.ID, []string{ui.ID, bug.ID, ui.ID}))
	assert.ErrorIs(t, s.Tickets().ReplaceTags(ctx, ticket.ID, []string{"missing"}), repository.ErrNotFound)

	loaded, err := s.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tags, 2)
	assert.Equal(t, "bug", loaded.Tags[0].Name)

	require.NoError(t, s.Tags().Delete(ctx, bug.ID))
	loaded, err = s.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, "ui", loaded.Tags[0].Name)
}

func TestAssignments_Stats(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a1 := seedUser(t, s, "alice", domain.RoleAssignee)
	a2 := seedUser(t, s, "bob", domain.RoleAssignee)
	u1 := seedUser(t, s, "carol", domain.RoleUser)
	ticket := &domain.Ticket{Title: "t", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusPending, ReporterID: a1.ID}
	require.NoError(t, s.Tickets().Create(ctx, ticket))

	for _, row := range []struct {
		by     string
		action domain.AssignmentAction
	}{
		{a1.ID, domain.AssignmentAssigned},
		{a1.ID, domain.AssignmentReassigned},
		{a2.ID, domain.AssignmentReassigned},
	} {
		require.NoError(t, s.Assignments().Create(ctx, &domain.Assignment{
			TicketID: ticket.ID, AssignedByUserID: row.by, AssignedToUserID: u1.ID, Action: row.action,
		}))
	}

	stats, err := s.Assignments().Stats(ctx, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.Equal(t, []domain.ActionCount{
		{Action: domain.AssignmentAssigned, Count: 1},
		{Action: domain.AssignmentReassigned, Count: 2},
	}, stats.ByAction)
	require.Len(t, stats.TopAssigners, 2)
	assert.Equal(t, "alice", stats.TopAssigners[0].User.Name)
	assert.EqualValues(t, 2, stats.TopAssigners[0].Count)
	require.Len(t, stats.TopAssignedUsers, 1)
	assert.EqualValues(t, 3, stats.TopAssignedUsers[0].Count)
}

func TestTickets_ColumnScopedWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "owner", domain.RoleAssignee)
	u1 := seedUser(t, s, "ursula", domain.RoleUser)
	u2 := seedUser(t, s, "victor", domain.RoleUser)

	ticket := &domain.Ticket{Title: "vpn down", Priority: domain.TicketPriorityLow, Status: domain.TicketStatusPending, ReporterID: owner.ID, AssigneeID: &u1.ID}
	require.NoError(t, s.Tickets().Create(ctx, ticket))

	stale, err := s.Tickets().GetForUpdate(ctx, ticket.ID)
	require.NoError(t, err)

	require.NoError(t, s.Tickets().UpdateAssignee(ctx, ticket.ID, &u2.ID))
	require.NoError(t, s.Tickets().UpdateStatus(ctx, ticket.ID, domain.TicketStatusApproved))
	stale.Title = "vpn still down"
	stale.Priority = domain.TicketPriorityHigh
	require.NoError(t, s.Tickets().UpdateDetails(ctx, stale))

	got, err := s.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "vpn still down", got.Title)
	assert.Equal(t, domain.TicketPriorityHigh, got.Priority)
	assert.Equal(t, domain.TicketStatusApproved, got.Status)
	require.NotNil(t, got.AssigneeID)
	assert.Equal(t, u2.ID, *got.AssigneeID)

	missing := "00000000-0000-0000-0000-000000000000"
	assert.ErrorIs(t, s.Tickets().UpdateStatus(ctx, missing, domain.TicketStatusApproved), repository.ErrNotFound)
	assert.ErrorIs(t, s.Tickets().UpdateAssignee(ctx, ticket.ID, &missing), repository.ErrNotFound)
	_, err = s.Tickets().GetForUpdate(ctx, missing)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTickets_SearchMatchesWildcardsLiterally(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	owner := seedUser(t, s, "owner", domain.RoleAssignee)
	for _, title := range []string{"disk 100% full", "disk 1000 blocks", "tmp_dir missing", "tmpxdir missing"} {
		require.NoError(t, s.Tickets().Create(ctx, &domain.Ticket{Title: title, Priority: domain.TicketPriorityLow, Status: domain.TicketStatusPending, ReporterID: owner.ID}))
	}

	for term, want := range map[string]string{"100%": "disk 100% full", "tmp_dir": "tmp_dir missing"} {
		term := term
		tickets, total, err := s.Tickets().List(ctx, repository.TicketFilter{SearchTerm: &term})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total, term)
		require.Len(t, tickets, 1)
		assert.Equal(t, want, tickets[0].Title)
	}
}
