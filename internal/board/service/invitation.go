package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/aussiebroadwan/agileboard/internal/board/metrics"
	"github.com/aussiebroadwan/agileboard/internal/board/store"
	"github.com/aussiebroadwan/agileboard/pkg/cryptox"
	"github.com/aussiebroadwan/agileboard/pkg/idx"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"
)

// SendKind tags which branch SendInvitation took.
type SendKind string

const (
	SendDirectAdd      SendKind = "direct_add"
	SendInvitationSent SendKind = "invitation_sent"
	SendResent         SendKind = "resent"
)

// SendResult is a tagged union: Member is set for SendDirectAdd,
// Invitation and Token for SendInvitationSent and SendResent.
type SendResult struct {
	Kind       SendKind
	Member     *domain.Member
	Invitation *domain.Invitation
	Token      string
}

// InvitationHistory partitions resolved invitations. Pending ones are
// excluded and Total counts the three buckets.
type InvitationHistory struct {
	Accepted []domain.Invitation
	Declined []domain.Invitation
	Expired  []domain.Invitation
	Total    int
}

// InvitationInfo is the public view of an invitation link, including its
// status at lookup time so the landing page can explain resolved links.
type InvitationInfo struct {
	domain.InvitationDetail
	Status domain.InvitationStatus
}

type InvitationService struct {
	Store    store.Store
	Notifier Notifier
	Metrics  *metrics.Metrics
	Now      Clock
}

// SendInvitation invites email to the project. A registered user is added
// directly; otherwise a pending invitation is created, or the existing one
// is refreshed with a new token and expiry.
func (s *InvitationService) SendInvitation(ctx context.Context, projectID, email, inviterID string) (SendResult, error) {
	log := slogx.FromContext(ctx)
	now := s.Now.now()

	// 1. Validate the address
	email, err := normalizeInviteEmail(email)
	if err != nil {
		return SendResult{}, err
	}

	// 2. Only the owner may invite
	project, err := requireOwner(ctx, s.Store, projectID, inviterID)
	if err != nil {
		return SendResult{}, err
	}

	inviter, err := s.Store.Users().GetUserByID(ctx, inviterID)
	if err != nil {
		log.Error("failed to fetch inviter", slog.Any("error", err))
		return SendResult{}, err
	}

	// 3. Registered users skip the email round-trip
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return s.directAdd(ctx, project, user, now)
	case !errors.Is(err, store.ErrNotFound):
		log.Error("failed to look up invitee", slog.Any("error", err))
		return SendResult{}, err
	}

	// 4. Fresh raw token; only its fingerprint is stored
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate invitation token", slog.Any("error", err))
		return SendResult{}, err
	}
	hash := cryptox.FingerprintToken(token)
	expiresAt := now.Add(domain.InvitationTTL)

	// 5. Resend, supersede or create under the open-invitation index
	var result SendResult
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		open, err := tx.Invitations().GetOpenInvitation(ctx, project.ID, email)
		switch {
		case err == nil && open.IsPending(now):
			if err := tx.Invitations().RefreshInvitation(ctx, open.ID, hash, expiresAt, now); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrInvitationConflict
				}
				return err
			}
			open.TokenHash = hash
			open.ExpiresAt = expiresAt
			result = SendResult{Kind: SendResent, Invitation: &open, Token: token}
			return nil

		case err == nil:
			// Expired but still holding the slot.
			if err := tx.Invitations().SupersedeInvitation(ctx, open.ID, now); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return ErrInvitationConflict
				}
				return err
			}

		case !errors.Is(err, store.ErrNotFound):
			return err
		}

		inv := domain.Invitation{
			ID:          idx.NewAt(now).String(),
			ProjectID:   project.ID,
			Email:       email,
			InvitedByID: inviterID,
			TokenHash:   hash,
			CreatedAt:   now,
			ExpiresAt:   expiresAt,
		}
		if err := tx.Invitations().CreateInvitation(ctx, inv); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrInvitationConflict
			}
			return err
		}
		result = SendResult{Kind: SendInvitationSent, Invitation: &inv, Token: token}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvitationConflict) {
			log.Warn("concurrent invitation for same address",
				slog.String("project_id", project.ID),
			)
		} else {
			log.Error("failed to store invitation", slog.Any("error", err))
		}
		return SendResult{}, err
	}

	log.Info("invitation issued",
		slog.String("project_id", project.ID),
		slog.String("invitation_id", result.Invitation.ID),
		slog.String("kind", string(result.Kind)),
		slog.Time("expires_at", expiresAt),
	)
	s.Metrics.InvitationOutcome(string(result.Kind))

	// 6. Best-effort email, outside the transaction
	s.notify(ctx, InvitationMessage{
		To:                 email,
		Token:              token,
		ProjectTitle:       project.Title,
		ProjectDescription: project.Description,
		InviterName:        inviter.Name,
		InviterEmail:       inviter.Email,
		ExpiresAt:          expiresAt,
		Resent:             result.Kind == SendResent,
	})

	return result, nil
}

func (s *InvitationService) directAdd(ctx context.Context, project domain.Project, user domain.User, now time.Time) (SendResult, error) {
	log := slogx.FromContext(ctx)

	member := domain.Member{
		ProjectID: project.ID,
		UserID:    user.ID,
		Role:      domain.RoleMember,
		AddedAt:   now,
		Email:     user.Email,
		Name:      user.Name,
	}

	// An invitation sent before the user registered is resolved with the
	// add: a pending one counts as accepted, an expired one is superseded.
	var resolved string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Members().AddMember(ctx, member); err != nil {
			return err
		}

		open, err := tx.Invitations().GetOpenInvitation(ctx, project.ID, user.Email)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil
		case err != nil:
			return err
		}

		resolve := tx.Invitations().SupersedeInvitation
		if open.IsPending(now) {
			resolve = tx.Invitations().MarkInvitationAccepted
		}
		if err := resolve(ctx, open.ID, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvitationConflict
			}
			return err
		}
		resolved = open.ID
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInvitationConflict) {
			log.Warn("open invitation changed during direct add", slog.String("project_id", project.ID))
			return SendResult{}, err
		}
		if errors.Is(err, store.ErrAlreadyExists) {
			log.Info("invitee is already a member",
				slog.String("project_id", project.ID),
				slog.String("user_id", user.ID),
			)
			return SendResult{}, ErrAlreadyMember
		}
		log.Error("failed to add member", slog.Any("error", err))
		return SendResult{}, err
	}

	if resolved != "" {
		log.Info("open invitation resolved by direct add",
			slog.String("project_id", project.ID),
			slog.String("invitation_id", resolved),
		)
	}
	log.Info("registered user added to project",
		slog.String("project_id", project.ID),
		slog.String("user_id", user.ID),
	)
	s.Metrics.InvitationOutcome(string(SendDirectAdd))

	return SendResult{Kind: SendDirectAdd, Member: &member}, nil
}

// ListProjectInvitations returns the pending invitations of a project,
// oldest first.
func (s *InvitationService) ListProjectInvitations(ctx context.Context, projectID, callerID string) ([]domain.Invitation, error) {
	if _, err := requireOwner(ctx, s.Store, projectID, callerID); err != nil {
		return nil, err
	}

	all, err := s.Store.Invitations().ListInvitationsByProject(ctx, projectID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list invitations", slog.Any("error", err))
		return nil, err
	}

	now := s.Now.now()
	pending := make([]domain.Invitation, 0, len(all))
	for _, inv := range all {
		if inv.IsPending(now) {
			pending = append(pending, inv)
		}
	}
	return pending, nil
}

// ProjectInvitationHistory buckets every non-pending invitation by the
// status it has right now.
func (s *InvitationService) ProjectInvitationHistory(ctx context.Context, projectID, callerID string) (InvitationHistory, error) {
	if _, err := requireOwner(ctx, s.Store, projectID, callerID); err != nil {
		return InvitationHistory{}, err
	}

	all, err := s.Store.Invitations().ListInvitationsByProject(ctx, projectID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list invitations", slog.Any("error", err))
		return InvitationHistory{}, err
	}

	now := s.Now.now()
	h := InvitationHistory{
		Accepted: []domain.Invitation{},
		Declined: []domain.Invitation{},
		Expired:  []domain.Invitation{},
	}
	for _, inv := range all {
		switch inv.Status(now) {
		case domain.StatusAccepted:
			h.Accepted = append(h.Accepted, inv)
		case domain.StatusDeclined:
			h.Declined = append(h.Declined, inv)
		case domain.StatusExpired:
			h.Expired = append(h.Expired, inv)
		}
	}
	h.Total = len(h.Accepted) + len(h.Declined) + len(h.Expired)
	return h, nil
}

// InvitationInfo resolves a raw token for the public invite page. Resolved
// and expired invitations are still returned, with their status.
func (s *InvitationService) InvitationInfo(ctx context.Context, token string) (InvitationInfo, error) {
	detail, err := s.lookupToken(ctx, token)
	if err != nil {
		return InvitationInfo{}, err
	}
	return InvitationInfo{InvitationDetail: detail, Status: detail.Status(s.Now.now())}, nil
}

// AcceptInvitation adds the caller to the invited project. The caller's
// email must match the invitation address.
func (s *InvitationService) AcceptInvitation(ctx context.Context, token, userID, userEmail string) (domain.Project, error) {
	return s.respond(ctx, token, userID, userEmail, true)
}

// DeclineInvitation resolves the invitation without touching membership.
func (s *InvitationService) DeclineInvitation(ctx context.Context, token, userID, userEmail string) (domain.Project, error) {
	return s.respond(ctx, token, userID, userEmail, false)
}

func (s *InvitationService) respond(ctx context.Context, token, userID, userEmail string, accept bool) (domain.Project, error) {
	log := slogx.FromContext(ctx)
	now := s.Now.now()

	outcome := "declined"
	if accept {
		outcome = "accepted"
	}

	// 1. Resolve the token
	detail, err := s.lookupToken(ctx, token)
	if err != nil {
		return domain.Project{}, err
	}
	inv := detail.Invitation

	// 2. Resolved, then expired, then addressed to someone else
	if err := checkRespondable(inv, now, userEmail); err != nil {
		log.Warn("invitation response rejected",
			slog.String("invitation_id", inv.ID),
			slog.String("user_id", userID),
			slog.String("reason", err.Error()),
		)
		return domain.Project{}, err
	}

	// 3. Conditional resolve, plus membership on accept
	var project domain.Project
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		mark := tx.Invitations().MarkInvitationDeclined
		if accept {
			mark = tx.Invitations().MarkInvitationAccepted
		}
		if err := mark(ctx, inv.ID, now); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			// Lost a race; report what the row turned into.
			current, gerr := tx.Invitations().GetInvitationByID(ctx, inv.ID)
			switch {
			case errors.Is(gerr, store.ErrNotFound):
				return ErrInvitationNotFound
			case gerr != nil:
				return gerr
			case current.Status(now) == domain.StatusExpired:
				return ErrInvitationExpired
			default:
				return ErrInvitationAlreadyResolved
			}
		}

		if accept {
			if _, err := tx.Members().EnsureMember(ctx, domain.Member{
				ProjectID: inv.ProjectID,
				UserID:    userID,
				Role:      domain.RoleMember,
				AddedAt:   now,
			}); err != nil {
				return err
			}
		}

		p, err := tx.Projects().GetProjectByID(ctx, inv.ProjectID)
		if err != nil {
			return err
		}
		project = p
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvitationNotFound),
			errors.Is(err, ErrInvitationExpired),
			errors.Is(err, ErrInvitationAlreadyResolved):
			log.Warn("invitation resolved concurrently",
				slog.String("invitation_id", inv.ID),
				slog.Any("error", err),
			)
		default:
			log.Error("failed to resolve invitation",
				slog.String("invitation_id", inv.ID),
				slog.Any("error", err),
			)
		}
		return domain.Project{}, err
	}

	log.Info("invitation "+outcome,
		slog.String("invitation_id", inv.ID),
		slog.String("project_id", inv.ProjectID),
		slog.String("user_id", userID),
	)
	s.Metrics.InvitationOutcome(outcome)

	return project, nil
}

// checkRespondable applies the accept/decline preconditions in order.
func checkRespondable(inv domain.Invitation, now time.Time, userEmail string) error {
	switch inv.Status(now) {
	case domain.StatusAccepted, domain.StatusDeclined:
		return ErrInvitationAlreadyResolved
	case domain.StatusExpired:
		return ErrInvitationExpired
	}
	if !domain.EmailsMatch(inv.Email, userEmail) {
		return ErrEmailMismatch
	}
	return nil
}

// DeleteInvitation retracts a pending invitation. The row is removed, so
// its token stops resolving.
func (s *InvitationService) DeleteInvitation(ctx context.Context, projectID, invitationID, callerID string) error {
	log := slogx.FromContext(ctx)

	if _, err := requireOwner(ctx, s.Store, projectID, callerID); err != nil {
		return err
	}

	now := s.Now.now()
	inv, err := s.Store.Invitations().GetInvitationByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotFound
		}
		log.Error("failed to fetch invitation", slog.Any("error", err))
		return err
	}
	if inv.ProjectID != projectID {
		log.Warn("invitation delete across projects",
			slog.String("invitation_id", invitationID),
			slog.String("project_id", projectID),
		)
		return ErrInvitationNotFound
	}
	if !inv.IsPending(now) {
		return ErrInvitationNotPending
	}

	if err := s.Store.Invitations().DeletePendingInvitation(ctx, invitationID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotPending
		}
		log.Error("failed to delete invitation", slog.Any("error", err))
		return err
	}

	log.Info("invitation deleted",
		slog.String("invitation_id", invitationID),
		slog.String("project_id", projectID),
	)
	s.Metrics.InvitationOutcome("deleted")
	return nil
}

// ListUserInvitations returns the invitations still waiting on email.
func (s *InvitationService) ListUserInvitations(ctx context.Context, email string) ([]domain.InvitationDetail, error) {
	email = domain.NormalizeEmail(email)
	if email == "" {
		return []domain.InvitationDetail{}, nil
	}

	list, err := s.Store.Invitations().ListPendingInvitationsByEmail(ctx, email, s.Now.now())
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list user invitations", slog.Any("error", err))
		return nil, err
	}
	return list, nil
}

func (s *InvitationService) lookupToken(ctx context.Context, token string) (domain.InvitationDetail, error) {
	if token == "" {
		return domain.InvitationDetail{}, ErrInvitationNotFound
	}

	detail, err := s.Store.Invitations().GetInvitationDetailByTokenHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.InvitationDetail{}, ErrInvitationNotFound
		}
		slogx.FromContext(ctx).Error("failed to fetch invitation", slog.Any("error", err))
		return domain.InvitationDetail{}, err
	}
	return detail, nil
}

func (s *InvitationService) notify(ctx context.Context, msg InvitationMessage) {
	if s.Notifier == nil {
		return
	}
	err := s.Notifier.SendInvitation(ctx, msg)
	s.Metrics.InvitationEmail(err == nil)
	if err != nil {
		slogx.FromContext(ctx).Warn("invitation email failed", slog.Any("error", err))
	}
}
