package boardsdk_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	boardhttp "github.com/aussiebroadwan/agileboard/internal/board/http"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/internal/board/store/drivers/sqlite"
	"github.com/aussiebroadwan/agileboard/pkg/boardsdk"
	"github.com/aussiebroadwan/agileboard/pkg/cryptox"
	"github.com/aussiebroadwan/agileboard/pkg/jwtx"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const password = "correct horse battery"

type mailbox struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *mailbox) SendInvitation(_ context.Context, msg service.InvitationMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[msg.To] = msg.Token
	return nil
}

func (m *mailbox) token(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[email]
}

type fixture struct {
	client *boardsdk.SDKClient
	mail   *mailbox
	srvURL string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := jwtx.NewSigner(priv)
	require.NoError(t, err)
	verifier := jwtx.NewVerifier(jwtx.VerifyOptions{Issuer: "sdk-test"}, signer.PublicKey())

	mail := &mailbox{tokens: map[string]string{}}

	router := boardhttp.NewRouter(verifier, "test", st, slogx.Discard(), nil)
	router.AuthService = &service.AuthService{
		Store:  st,
		Hasher: cryptox.PasswordHasher{Pepper: "sdk"},
		Signer: signer,
		Issuer: "sdk-test",
	}
	router.ProjectService = &service.ProjectService{Store: st}
	router.InvitationService = &service.InvitationService{Store: st, Notifier: mail}
	router.DisableRateLimit = true
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &fixture{client: boardsdk.NewSDKClient(srv.URL + "/"), mail: mail, srvURL: srv.URL}
}

func (f *fixture) signup(t *testing.T, email string) *boardsdk.Session {
	t.Helper()
	ctx := t.Context()

	_, err := f.client.Register(ctx, boardsdk.RegisterRequest{Email: email, Name: "User " + email, Password: password})
	require.NoError(t, err)

	s, err := f.client.Login(ctx, email, password)
	require.NoError(t, err)
	return s
}

func TestInvitationRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	owner := f.signup(t, "owner@x.com")
	project, err := owner.CreateProject(ctx, boardsdk.ProjectRequest{Title: "Roadmap", Description: "Q3"})
	require.NoError(t, err)

	res, err := owner.SendInvitation(ctx, project.ID, "new@x.com")
	require.NoError(t, err)
	require.Equal(t, boardsdk.SendTypeInvitationSent, res.Type)
	require.Equal(t, boardsdk.NoticeSuccess, boardsdk.NoticeForSend(res).Kind)

	token := f.mail.token("new@x.com")
	require.NotEmpty(t, token)

	info, err := f.client.InvitationInfo(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "Roadmap", info.ProjectTitle)
	require.Equal(t, boardsdk.StatusPending, info.Status)

	invitee := f.signup(t, "new@x.com")

	mine, err := invitee.ListMyInvitations(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	ok, err := invitee.CanRespond(ctx, info)
	require.NoError(t, err)
	require.True(t, ok)

	accepted, err := invitee.AcceptInvitation(ctx, token)
	require.NoError(t, err)
	require.Equal(t, project.ID, accepted.Project.ID)
	require.Equal(t, boardsdk.NoticeSuccess, boardsdk.NoticeForRespond(accepted).Kind)

	members, err := owner.ListMembers(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)

	_, err = invitee.AcceptInvitation(ctx, token)
	require.Equal(t, http.StatusConflict, boardsdk.StatusOf(err))

	hist, err := owner.InvitationHistory(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, hist.Accepted, 1)
}

func TestAcceptInvitation_EmailMismatchIsLocal(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	owner := f.signup(t, "owner@x.com")
	project, err := owner.CreateProject(ctx, boardsdk.ProjectRequest{Title: "Roadmap"})
	require.NoError(t, err)
	_, err = owner.SendInvitation(ctx, project.ID, "new@x.com")
	require.NoError(t, err)

	other := f.signup(t, "other@x.com")
	_, err = other.DeclineInvitation(ctx, f.mail.token("new@x.com"))
	require.ErrorIs(t, err, boardsdk.ErrEmailMismatch)
	require.Equal(t, boardsdk.NoticeError, boardsdk.NoticeForError(err).Kind)

	pending, err := owner.ListPendingInvitations(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestAPIErrors(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	owner := f.signup(t, "owner@x.com")
	project, err := owner.CreateProject(ctx, boardsdk.ProjectRequest{Title: "Roadmap"})
	require.NoError(t, err)

	_, err = owner.SendInvitation(ctx, project.ID, "not-an-email")
	var apiErr *boardsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, boardsdk.CodeValidation, apiErr.Code)
	require.NotEmpty(t, apiErr.Details)
	require.Equal(t, apiErr.Details[0].Message, boardsdk.NoticeForError(err).Message)

	stranger := f.signup(t, "stranger@x.com")
	_, err = stranger.SendInvitation(ctx, project.ID, "new@x.com")
	require.Equal(t, http.StatusForbidden, boardsdk.StatusOf(err))

	err = owner.RemoveMember(ctx, project.ID, "01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.Equal(t, http.StatusNotFound, boardsdk.StatusOf(err))

	_, err = f.client.Login(ctx, "owner@x.com", "wrong password")
	require.Equal(t, http.StatusUnauthorized, boardsdk.StatusOf(err))

	_, err = f.client.InvitationInfo(ctx, "no-such-token")
	require.Equal(t, http.StatusNotFound, boardsdk.StatusOf(err))
}

func TestSessionRefreshAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	first := f.signup(t, "owner@x.com")
	me, err := first.Me(ctx)
	require.NoError(t, err)

	// A resumed session refreshes before its first call.
	resumed := f.client.NewSessionFromTokens("", first.RefreshToken())
	again, err := resumed.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, me.ID, again.ID)
	require.NotEqual(t, first.RefreshToken(), resumed.RefreshToken())

	// The rotated-away token is dead.
	_, err = f.client.RefreshGrant(ctx, first.RefreshToken())
	require.Equal(t, http.StatusUnauthorized, boardsdk.StatusOf(err))

	refresh := resumed.RefreshToken()
	require.NoError(t, resumed.Logout(ctx))
	_, err = f.client.RefreshGrant(ctx, refresh)
	require.Equal(t, http.StatusUnauthorized, boardsdk.StatusOf(err))

	_, err = resumed.ListProjects(ctx)
	require.Error(t, err)
}

func TestProjectCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	owner := f.signup(t, "owner@x.com")
	p, err := owner.CreateProject(ctx, boardsdk.ProjectRequest{Title: "Roadmap"})
	require.NoError(t, err)

	updated, err := owner.UpdateProject(ctx, p.ID, boardsdk.ProjectRequest{Title: "Roadmap 2", Description: "new"})
	require.NoError(t, err)
	require.Equal(t, "Roadmap 2", updated.Title)

	got, err := owner.GetProject(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "new", got.Description)

	list, err := owner.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, owner.DeleteProject(ctx, p.ID))
	_, err = owner.GetProject(ctx, p.ID)
	require.Equal(t, http.StatusNotFound, boardsdk.StatusOf(err))
}

func TestWatcher(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(t.Context())

	owner := f.signup(t, "owner@x.com")
	project, err := owner.CreateProject(ctx, boardsdk.ProjectRequest{Title: "Roadmap"})
	require.NoError(t, err)

	invitee := f.signup(t, "new@x.com")
	updates := boardsdk.NewWatcher(invitee, 20*time.Millisecond).Run(ctx)

	next := func() []boardsdk.UserInvitation {
		select {
		case list, ok := <-updates:
			require.True(t, ok)
			return list
		case <-time.After(5 * time.Second):
			t.Fatal("no update from watcher")
			return nil
		}
	}

	require.Empty(t, next())

	_, err = owner.SendInvitation(ctx, project.ID, "new@x.com")
	require.NoError(t, err)

	list := next()
	require.Len(t, list, 1)
	require.Equal(t, "Roadmap", list[0].ProjectTitle)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-updates:
			return !ok
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := boardsdk.NewSDKClient(srv.URL).GetLiveness(t.Context())
	var apiErr *boardsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	require.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestNoticeForError(t *testing.T) {
	require.Equal(t, boardsdk.Notice{}, boardsdk.NoticeForError(nil))

	n := boardsdk.NoticeForError(errors.New("dial tcp: connection refused"))
	require.Equal(t, boardsdk.NoticeError, n.Kind)
	require.Contains(t, n.Message, "reach the server")

	n = boardsdk.NoticeForError(&boardsdk.APIError{StatusCode: http.StatusGone, Code: boardsdk.CodeGone, Message: "Invitation has expired"})
	require.Equal(t, boardsdk.NoticeWarning, n.Kind)
	require.Equal(t, "Invitation has expired", n.Message)

	n = boardsdk.NoticeForError(&boardsdk.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"})
	require.Equal(t, "Something went wrong. Please try again.", n.Message)

	n = boardsdk.NoticeForSend(&boardsdk.SendInvitationResponse{Type: boardsdk.SendTypeResent})
	require.Equal(t, boardsdk.Notice{Kind: boardsdk.NoticeInfo, Message: "Invitation sent again"}, n)
}
