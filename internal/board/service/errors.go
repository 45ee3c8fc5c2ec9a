package service

import (
	"errors"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")

	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
	ErrUserNotFound       = errors.New("user not found")

	ErrProjectNotFound   = errors.New("project not found")
	ErrNotProjectOwner   = errors.New("only the project owner can do this")
	ErrNotProjectMember  = errors.New("not a member of this project")
	ErrMemberNotFound    = errors.New("member not found")
	ErrCannotRemoveOwner = errors.New("the project owner cannot be removed")

	ErrAlreadyMember             = errors.New("user is already a member of this project")
	ErrInvitationConflict        = errors.New("a pending invitation for this email already exists")
	ErrInvitationNotFound        = errors.New("invitation not found")
	ErrInvitationExpired         = errors.New("invitation has expired")
	ErrInvitationAlreadyResolved = errors.New("invitation has already been accepted or declined")
	ErrInvitationNotPending      = errors.New("invitation is no longer pending")
	ErrEmailMismatch             = errors.New("this invitation was sent to a different email address")
)

// FieldError is one failed input rule, keyed by the JSON field name.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError carries per-field details. It matches ErrValidation and,
// when set, the more specific Cause under errors.Is.
type ValidationError struct {
	Fields []FieldError
	Cause  error
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrValidation, e.Cause}
	}
	return []error{ErrValidation}
}
