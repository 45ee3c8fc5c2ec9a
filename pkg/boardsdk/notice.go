package boardsdk

import (
	"errors"
	"net/http"
)

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a user-facing message derived from an operation's outcome.
// Data-access calls never display anything themselves; the presentation
// layer maps their results through the NoticeFor functions.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// NoticeForSend maps a send result to a notice.
func NoticeForSend(res *SendInvitationResponse) Notice {
	if res == nil {
		return Notice{}
	}

	kind := NoticeSuccess
	fallback := "Invitation sent"
	switch res.Type {
	case SendTypeDirectAdd:
		fallback = "User added to the project"
	case SendTypeResent:
		kind = NoticeInfo
		fallback = "Invitation sent again"
	}

	if res.Message != "" {
		return Notice{Kind: kind, Message: res.Message}
	}
	return Notice{Kind: kind, Message: fallback}
}

// NoticeForRespond maps an accept or decline result to a notice.
func NoticeForRespond(res *RespondResponse) Notice {
	if res == nil {
		return Notice{}
	}
	return Notice{Kind: NoticeSuccess, Message: res.Message}
}

// NoticeForError maps an error from any SDK call to a notice. Server
// messages are shown as they are; transport failures get a generic text.
func NoticeForError(err error) Notice {
	if err == nil {
		return Notice{}
	}

	if errors.Is(err, ErrEmailMismatch) {
		return Notice{Kind: NoticeError, Message: "This invitation was sent to a different email address. Sign in with that address to respond."}
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return Notice{Kind: NoticeError, Message: "Could not reach the server. Please try again."}
	}

	msg := apiErr.Message
	if apiErr.Code == CodeValidation && len(apiErr.Details) > 0 {
		msg = apiErr.Details[0].Message
	}

	switch apiErr.StatusCode {
	case http.StatusGone:
		return Notice{Kind: NoticeWarning, Message: orDefault(msg, "This invitation has expired. Ask the project owner to send a new one.")}
	case http.StatusUnauthorized:
		return Notice{Kind: NoticeError, Message: orDefault(msg, "Please sign in to continue.")}
	case http.StatusTooManyRequests:
		return Notice{Kind: NoticeWarning, Message: orDefault(msg, "Too many requests. Please wait a moment.")}
	}
	if apiErr.StatusCode >= http.StatusInternalServerError {
		return Notice{Kind: NoticeError, Message: "Something went wrong. Please try again."}
	}
	return Notice{Kind: NoticeError, Message: orDefault(msg, http.StatusText(apiErr.StatusCode))}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
