package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/pkg/httpx"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"
)

// writeServiceError is the one place service errors become HTTP responses.
// Unknown errors are logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		details := make([]httpx.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, httpx.FieldError{Field: f.Field, Message: f.Message})
		}
		msg := "Invalid request"
		if verr.Cause != nil {
			msg = verr.Cause.Error()
		}
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidation, msg, details...)
		return
	}

	status, code := classify(err)
	switch status {
	case http.StatusInternalServerError:
		log.Error("request failed", slog.Any("error", err))
		httpx.WriteError(w, status, code, "Internal server error")
		return
	case http.StatusUnauthorized, http.StatusForbidden:
		log.Warn("request denied",
			slog.String("user_id", httpx.UserIDFromContext(r.Context())),
			slog.String("ip", httpx.IPKeyExtractor(r)),
			slog.String("reason", err.Error()),
		)
	}
	httpx.WriteError(w, status, code, errorMessage(err))
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, httpx.ErrBadJSON), errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, httpx.CodeValidation

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefresh):
		return http.StatusUnauthorized, httpx.CodeUnauthorized

	case errors.Is(err, service.ErrNotProjectOwner),
		errors.Is(err, service.ErrNotProjectMember),
		errors.Is(err, service.ErrEmailMismatch):
		return http.StatusForbidden, httpx.CodeForbidden

	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrInvitationNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, httpx.CodeNotFound

	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrInvitationConflict),
		errors.Is(err, service.ErrInvitationAlreadyResolved),
		errors.Is(err, service.ErrInvitationNotPending),
		errors.Is(err, service.ErrCannotRemoveOwner):
		return http.StatusConflict, httpx.CodeConflict

	case errors.Is(err, service.ErrInvitationExpired):
		return http.StatusGone, httpx.CodeGone

	default:
		return http.StatusInternalServerError, httpx.CodeInternal
	}
}

// errorMessage turns a sentinel into the user-facing sentence.
func errorMessage(err error) string {
	if errors.Is(err, httpx.ErrBadJSON) {
		return "Request body must be valid JSON"
	}
	msg := err.Error()
	if msg == "" {
		return "Request failed"
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
