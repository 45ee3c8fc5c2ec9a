package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/metrics"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/internal/board/store/drivers/sqlite"
	"github.com/aussiebroadwan/agileboard/pkg/idx"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []service.InvitationMessage
	fail bool
}

func (n *recordingNotifier) SendInvitation(_ context.Context, msg service.InvitationMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	if n.fail {
		return errors.New("smtp down")
	}
	return nil
}

type harness struct {
	t        *testing.T
	store    *sqlite.Store
	now      time.Time
	notifier *recordingNotifier
	metrics  *metrics.Metrics

	invitations *service.InvitationService
	projects    *service.ProjectService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	h := &harness{t: t, store: st, now: t0, notifier: &recordingNotifier{}, metrics: metrics.New()}
	clock := service.Clock(func() time.Time { return h.now })

	h.invitations = &service.InvitationService{Store: st, Notifier: h.notifier, Metrics: h.metrics, Now: clock}
	h.projects = &service.ProjectService{Store: st, Now: clock}
	return h
}

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

// user inserts an account directly, skipping argon2.
func (h *harness) user(email string) domain.User {
	h.t.Helper()
	u := domain.User{
		ID:           idx.NewAt(h.now).String(),
		Email:        email,
		Name:         "User " + email,
		PasswordHash: "unused",
		CreatedAt:    h.now,
		UpdatedAt:    h.now,
	}
	require.NoError(h.t, h.store.Users().CreateUser(context.Background(), u))
	return u
}

func (h *harness) project(owner domain.User) domain.Project {
	h.t.Helper()
	p, err := h.projects.CreateProject(context.Background(), owner.ID, "Sprint board", "Q3 planning")
	require.NoError(h.t, err)
	return p
}

func (h *harness) memberCount(projectID string) int {
	h.t.Helper()
	members, err := h.store.Members().ListMembers(context.Background(), projectID)
	require.NoError(h.t, err)
	return len(members)
}
