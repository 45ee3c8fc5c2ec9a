/*
Package boardsdk provides a client SDK for the Agileboard API.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (register, login, invitation
    landing info, health) and session creation
  - Session: authenticated operations with automatic token refresh

	client := boardsdk.NewSDKClient("https://board.example.com")

	session, err := client.Login(ctx, "owner@example.com", password)
	if err != nil {
		return err
	}

	project, err := session.CreateProject(ctx, boardsdk.ProjectRequest{Title: "Sprint 12"})
	res, err := session.SendInvitation(ctx, project.ID, "new@example.com")

# Answering invitations

Invitation links carry an opaque token. The landing page reads the public
details, then the signed-in user answers:

	info, err := client.InvitationInfo(ctx, token)
	ok, err := session.CanRespond(ctx, info)
	res, err := session.AcceptInvitation(ctx, token)

AcceptInvitation and DeclineInvitation perform the CanRespond check
themselves and return ErrEmailMismatch without calling the server.

# Errors

Every non-2xx response becomes an *APIError carrying the status, the
error code and the server's message. NoticeForError and NoticeForSend turn
outcomes into a user-facing Notice so no display logic lives in the data
layer.

# Watching for invitations

	w := boardsdk.NewWatcher(session, time.Minute)
	for pending := range w.Run(ctx) {
		setBadge(len(pending))
	}

Sessions are safe for concurrent use, so a Watcher may share the session
used for other calls.
*/
package boardsdk
