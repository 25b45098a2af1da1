package service

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

func TestComments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, "alice", domain.RoleAssignee)
	admin := h.user(t, "root", domain.RoleAdmin)
	target := h.user(t, "ursula", domain.RoleUser)
	outsider := h.user(t, "victor", domain.RoleUser)
	ticket := h.ticket(t, owner, target)

	first, err := h.comments.Add(ctx, target, ticket.ID, "  on it  ")
	require.NoError(t, err)
	assert.Equal(t, "on it", first.Body)
	require.NotNil(t, first.Author)
	assert.Equal(t, "ursula", first.Author.Name)

	second, err := h.comments.Add(ctx, owner, ticket.ID, "thanks")
	require.NoError(t, err)

	_, err = h.comments.Add(ctx, outsider, ticket.ID, "hi")
	assert.True(t, apperrors.IsStatus(err, http.StatusForbidden))
	_, err = h.comments.Add(ctx, owner, ticket.ID, "   ")
	assert.True(t, apperrors.IsStatus(err, http.StatusBadRequest))

	thread, err := h.comments.ListForTicket(ctx, target, ticket.ID)
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, second.ID, thread[0].ID)

	_, err = h.comments.Edit(ctx, owner, first.ID, "hijack")
	assert.True(t, apperrors.IsStatus(err, http.StatusForbidden))
	assert.Contains(t, err.Error(), "you can only modify your own comments")

	edited, err := h.comments.Edit(ctx, target, first.ID, "done")
	require.NoError(t, err)
	assert.Equal(t, "done", edited.Body)

	require.NoError(t, h.comments.Delete(ctx, admin, second.ID))
	thread, err = h.comments.ListForTicket(ctx, admin, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 1)

	err = h.comments.Delete(ctx, admin, second.ID)
	assert.True(t, apperrors.IsStatus(err, http.StatusNotFound))
	assert.Contains(t, h.events.types(), events.EventCommentAdded)

	logs, err := h.activity.ListForTicket(ctx, owner, ticket.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{
		domain.ActivityCommentDeleted,
		domain.ActivityCommentUpdated,
		domain.ActivityCommented,
		domain.ActivityCommented,
		domain.ActivityCreated,
	}, actions)

	mine, err := h.activity.ListForTicketAndUser(ctx, admin, ticket.ID, target.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	_, err = h.activity.ListForTicket(ctx, outsider, ticket.ID)
	assert.True(t, apperrors.IsStatus(err, http.StatusForbidden))
}

func TestStringPreview(t *testing.T) {
	assert.Equal(t, "short", stringPreview(" short ", 10))
	long := strings.Repeat("é", 12)
	assert.Equal(t, strings.Repeat("é", 10)+"...", stringPreview(long, 10))
}
