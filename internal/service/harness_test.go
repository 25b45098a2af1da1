package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/events"
	"github.com/spec-kit/ticket-desk/internal/observability"
	"github.com/spec-kit/ticket-desk/internal/repository"
	"github.com/spec-kit/ticket-desk/internal/repository/memory"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) handler(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	store       *memory.Store
	tickets     *TicketService
	assignments *AssignmentService
	comments    *CommentService
	activity    *ActivityService
	tags        *TagService
	users       *UserService
	auth        *AuthService
	events      *recordedEvents
	revoked     *fakeRevoker
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, memory.NewStore(), nil)
}

// newHarnessWithStore lets tests wrap the store the services see.
func newHarnessWithStore(t *testing.T, store *memory.Store, wrap func(repository.Store) repository.Store) *harness {
	t.Helper()
	var svcStore repository.Store = store
	if wrap != nil {
		svcStore = wrap(store)
	}

	recorded := &recordedEvents{}
	dispatcher := events.NewInMemoryDispatcher()
	for _, et := range events.AllEventTypes() {
		dispatcher.Subscribe(et, recorded.handler)
	}

	activity := NewActivityService(ActivityDependencies{Store: svcStore, Logger: zap.NewNop()})
	deps := TicketDependencies{
		Store:      svcStore,
		Activity:   activity,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
	}

	tokens, err := auth.NewTokenManager("service-test-secret-0123456789", time.Hour)
	require.NoError(t, err)
	revoker := &fakeRevoker{revoked: map[string]time.Duration{}}

	return &harness{
		store:       store,
		tickets:     NewTicketService(deps),
		assignments: NewAssignmentService(deps),
		comments:    NewCommentService(deps),
		activity:    activity,
		tags:        NewTagService(svcStore),
		users:       NewUserService(svcStore, zap.NewNop()),
		auth: NewAuthService(config.AuthConfig{BcryptCost: 4}, AuthDependencies{
			Store: svcStore, Tokens: tokens, Revoker: revoker, Logger: zap.NewNop(),
		}),
		events:  recorded,
		revoked: revoker,
	}
}

func (h *harness) user(t *testing.T, name string, role domain.Role) domain.Identity {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", PasswordHash: "unused", Role: role}
	require.NoError(t, h.store.Users().Create(context.Background(), u))
	return domain.Identity{UserID: u.ID, Email: u.Email, Role: role}
}

func (h *harness) ticket(t *testing.T, owner, assignee domain.Identity) *domain.Ticket {
	t.Helper()
	ticket, err := h.tickets.Create(context.Background(), owner, CreateTicketInput{
		Title:            "Printer on fire",
		Description:      "third floor",
		Priority:         "high",
		AssignedToUserID: assignee.UserID,
	})
	require.NoError(t, err)
	return ticket
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func (f *fakeRevoker) RevokeToken(_ context.Context, tokenID string, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tokenID] = ttl
	return nil
}

// faultyStore wraps a Store and fails selected repositories.
type faultyStore struct {
	repository.Store
	failAssignments bool
	failActivities  bool
}

var errInjected = errors.New("injected failure")

func (f *faultyStore) Assignments() repository.AssignmentRepository {
	if f.failAssignments {
		return failingAssignments{f.Store.Assignments()}
	}
	return f.Store.Assignments()
}

func (f *faultyStore) Activities() repository.ActivityRepository {
	if f.failActivities {
		return failingActivities{f.Store.Activities()}
	}
	return f.Store.Activities()
}

func (f *faultyStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return f.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(&faultyStore{Store: tx, failAssignments: f.failAssignments, failActivities: f.failActivities})
	})
}

type failingAssignments struct{ repository.AssignmentRepository }

func (failingAssignments) Create(context.Context, *domain.Assignment) error { return errInjected }

type failingActivities struct{ repository.ActivityRepository }

func (failingActivities) Create(context.Context, *domain.ActivityLog) error { return errInjected }

// ticketGate pauses the first locked ticket read after arm until release,
// holding whatever the reader holds.
type ticketGate struct {
	armed    atomic.Bool
	reached  chan struct{}
	released chan struct{}
	once     sync.Once
}

func newTicketGate(t *testing.T) *ticketGate {
	g := &ticketGate{reached: make(chan struct{}), released: make(chan struct{})}
	t.Cleanup(g.release)
	return g
}

func (g *ticketGate) arm() { g.armed.Store(true) }

func (g *ticketGate) release() { g.once.Do(func() { close(g.released) }) }

func (g *ticketGate) wrap(s repository.Store) repository.Store {
	return &gatedStore{Store: s, gate: g}
}

type gatedStore struct {
	repository.Store
	gate *ticketGate
}

func (g *gatedStore) Tickets() repository.TicketRepository {
	return gatedTickets{TicketRepository: g.Store.Tickets(), gate: g.gate}
}

func (g *gatedStore) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	return g.Store.WithinTx(ctx, func(tx repository.Store) error {
		return fn(&gatedStore{Store: tx, gate: g.gate})
	})
}

type gatedTickets struct {
	repository.TicketRepository
	gate *ticketGate
}

func (g gatedTickets) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := g.TicketRepository.GetForUpdate(ctx, id)
	if g.gate.armed.CompareAndSwap(true, false) {
		close(g.gate.reached)
		<-g.gate.released
	}
	return ticket, err
}
