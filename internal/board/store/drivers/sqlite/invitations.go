package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
)

type invitationsRepo struct {
	q querier
}

const invitationColumns = `i.id, i.project_id, i.email, i.invited_by_id, i.token_hash,
	i.created_at, i.expires_at, i.accepted_at, i.declined_at, i.superseded_at`

const invitationDetailSelect = `
	SELECT ` + invitationColumns + `, p.title, p.description, u.name, u.email
	FROM project_invitations i
	JOIN projects p ON p.id = i.project_id
	JOIN users u ON u.id = i.invited_by_id`

// pendingAt is the SQL form of domain.Invitation.IsPending.
const pendingAt = `i.accepted_at IS NULL AND i.declined_at IS NULL AND i.superseded_at IS NULL AND i.expires_at > ?`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO project_invitations
			(id, project_id, email, invited_by_id, token_hash, created_at, expires_at,
			 accepted_at, declined_at, superseded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.ProjectID, inv.Email, inv.InvitedByID, inv.TokenHash,
		encodeTime(inv.CreatedAt), encodeTime(inv.ExpiresAt),
		encodeOptionalTime(inv.AcceptedAt), encodeOptionalTime(inv.DeclinedAt), encodeOptionalTime(inv.SupersededAt),
	)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+invitationColumns+`
		FROM project_invitations i WHERE i.id = ?`, id)

	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) GetInvitationDetailByTokenHash(ctx context.Context, hash string) (domain.InvitationDetail, error) {
	row := r.q.QueryRowContext(ctx, invitationDetailSelect+`
	WHERE i.token_hash = ?`, hash)

	d, err := scanInvitationDetail(row)
	if err != nil {
		return domain.InvitationDetail{}, mapNotFound(err)
	}
	return d, nil
}

func (r *invitationsRepo) GetOpenInvitation(ctx context.Context, projectID, email string) (domain.Invitation, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+invitationColumns+`
		FROM project_invitations i
		WHERE i.project_id = ? AND i.email = ?
		  AND i.accepted_at IS NULL AND i.declined_at IS NULL AND i.superseded_at IS NULL`,
		projectID, email)

	inv, err := scanInvitation(row)
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) ListInvitationsByProject(ctx context.Context, projectID string) ([]domain.Invitation, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+invitationColumns+`
		FROM project_invitations i
		WHERE i.project_id = ?
		ORDER BY i.created_at, i.id`, projectID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) ListPendingInvitationsByEmail(ctx context.Context, email string, now time.Time) ([]domain.InvitationDetail, error) {
	rows, err := r.q.QueryContext(ctx, invitationDetailSelect+`
	WHERE i.email = ? AND `+pendingAt+`
	ORDER BY i.created_at DESC, i.id DESC`, email, encodeTime(now))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := []domain.InvitationDetail{}
	for rows.Next() {
		d, err := scanInvitationDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *invitationsRepo) RefreshInvitation(ctx context.Context, id, tokenHash string, expiresAt, now time.Time) error {
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE project_invitations AS i SET token_hash = ?, expires_at = ?
		WHERE i.id = ? AND `+pendingAt,
		tokenHash, encodeTime(expiresAt), id, encodeTime(now)))
}

func (r *invitationsRepo) SupersedeInvitation(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE project_invitations SET superseded_at = ?
		WHERE id = ? AND accepted_at IS NULL AND declined_at IS NULL AND superseded_at IS NULL`,
		encodeTime(at), id))
}

func (r *invitationsRepo) MarkInvitationAccepted(ctx context.Context, id string, now time.Time) error {
	at := encodeTime(now)
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE project_invitations AS i SET accepted_at = ?
		WHERE i.id = ? AND `+pendingAt, at, id, at))
}

func (r *invitationsRepo) MarkInvitationDeclined(ctx context.Context, id string, now time.Time) error {
	at := encodeTime(now)
	return expectOne(r.q.ExecContext(ctx, `
		UPDATE project_invitations AS i SET declined_at = ?
		WHERE i.id = ? AND `+pendingAt, at, id, at))
}

func (r *invitationsRepo) DeletePendingInvitation(ctx context.Context, id string, now time.Time) error {
	return expectOne(r.q.ExecContext(ctx, `
		DELETE FROM project_invitations AS i
		WHERE i.id = ? AND `+pendingAt, id, encodeTime(now)))
}

func scanInvitationInto(row scanner, inv *domain.Invitation, extra ...any) error {
	var (
		created, expires             string
		accepted, declined, replaced sql.NullString
		ts                           timeScanner
	)
	dest := []any{
		&inv.ID, &inv.ProjectID, &inv.Email, &inv.InvitedByID, &inv.TokenHash,
		&created, &expires, &accepted, &declined, &replaced,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	ts.into(&inv.CreatedAt, created)
	ts.into(&inv.ExpiresAt, expires)
	ts.intoPtr(&inv.AcceptedAt, accepted)
	ts.intoPtr(&inv.DeclinedAt, declined)
	ts.intoPtr(&inv.SupersededAt, replaced)
	return ts.err
}

func scanInvitation(row scanner) (domain.Invitation, error) {
	var inv domain.Invitation
	if err := scanInvitationInto(row, &inv); err != nil {
		return domain.Invitation{}, err
	}
	return inv, nil
}

func scanInvitationDetail(row scanner) (domain.InvitationDetail, error) {
	var d domain.InvitationDetail
	if err := scanInvitationInto(row, &d.Invitation,
		&d.ProjectTitle, &d.ProjectDescription, &d.InviterName, &d.InviterEmail); err != nil {
		return domain.InvitationDetail{}, err
	}
	return d, nil
}
