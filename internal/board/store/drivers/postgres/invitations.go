package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/agileboard/internal/board/domain"
	"github.com/jackc/pgx/v5"
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

// openRow matches rows holding the (project, email) slot.
const openRow = `i.accepted_at IS NULL AND i.declined_at IS NULL AND i.superseded_at IS NULL`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO project_invitations
			(id, project_id, email, invited_by_id, token_hash, created_at, expires_at,
			 accepted_at, declined_at, superseded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		inv.ID, inv.ProjectID, inv.Email, inv.InvitedByID, inv.TokenHash,
		inv.CreatedAt, inv.ExpiresAt, inv.AcceptedAt, inv.DeclinedAt, inv.SupersededAt,
	)
	return mapConstraint(err)
}

func (r *invitationsRepo) GetInvitationByID(ctx context.Context, id string) (domain.Invitation, error) {
	inv, err := scanInvitation(r.q.QueryRow(ctx, `SELECT `+invitationColumns+`
		FROM project_invitations i WHERE i.id = $1`, id))
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) GetInvitationDetailByTokenHash(ctx context.Context, hash string) (domain.InvitationDetail, error) {
	d, err := scanInvitationDetail(r.q.QueryRow(ctx, invitationDetailSelect+`
	WHERE i.token_hash = $1`, hash))
	if err != nil {
		return domain.InvitationDetail{}, mapNotFound(err)
	}
	return d, nil
}

func (r *invitationsRepo) GetOpenInvitation(ctx context.Context, projectID, email string) (domain.Invitation, error) {
	inv, err := scanInvitation(r.q.QueryRow(ctx, `SELECT `+invitationColumns+`
		FROM project_invitations i
		WHERE i.project_id = $1 AND i.email = $2 AND `+openRow, projectID, email))
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

func (r *invitationsRepo) ListInvitationsByProject(ctx context.Context, projectID string) ([]domain.Invitation, error) {
	rows, err := r.q.Query(ctx, `SELECT `+invitationColumns+`
		FROM project_invitations i
		WHERE i.project_id = $1
		ORDER BY i.created_at, i.id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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
	rows, err := r.q.Query(ctx, invitationDetailSelect+`
	WHERE i.email = $1 AND `+openRow+` AND i.expires_at > $2
	ORDER BY i.created_at DESC, i.id DESC`, email, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

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
	return expectOne(r.q.Exec(ctx, `
		UPDATE project_invitations AS i SET token_hash = $1, expires_at = $2
		WHERE i.id = $3 AND `+openRow+` AND i.expires_at > $4`,
		tokenHash, expiresAt, id, now))
}

func (r *invitationsRepo) SupersedeInvitation(ctx context.Context, id string, at time.Time) error {
	return expectOne(r.q.Exec(ctx, `
		UPDATE project_invitations AS i SET superseded_at = $1
		WHERE i.id = $2 AND `+openRow, at, id))
}

func (r *invitationsRepo) MarkInvitationAccepted(ctx context.Context, id string, now time.Time) error {
	return expectOne(r.q.Exec(ctx, `
		UPDATE project_invitations AS i SET accepted_at = $1
		WHERE i.id = $2 AND `+openRow+` AND i.expires_at > $1`, now, id))
}

func (r *invitationsRepo) MarkInvitationDeclined(ctx context.Context, id string, now time.Time) error {
	return expectOne(r.q.Exec(ctx, `
		UPDATE project_invitations AS i SET declined_at = $1
		WHERE i.id = $2 AND `+openRow+` AND i.expires_at > $1`, now, id))
}

func (r *invitationsRepo) DeletePendingInvitation(ctx context.Context, id string, now time.Time) error {
	return expectOne(r.q.Exec(ctx, `
		DELETE FROM project_invitations AS i
		WHERE i.id = $1 AND `+openRow+` AND i.expires_at > $2`, id, now))
}

func scanInvitationInto(row pgx.Row, inv *domain.Invitation, extra ...any) error {
	dest := []any{
		&inv.ID, &inv.ProjectID, &inv.Email, &inv.InvitedByID, &inv.TokenHash,
		&inv.CreatedAt, &inv.ExpiresAt, &inv.AcceptedAt, &inv.DeclinedAt, &inv.SupersededAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return err
	}
	utc(&inv.CreatedAt)
	utc(&inv.ExpiresAt)
	inv.AcceptedAt = utcPtr(inv.AcceptedAt)
	inv.DeclinedAt = utcPtr(inv.DeclinedAt)
	inv.SupersededAt = utcPtr(inv.SupersededAt)
	return nil
}

func scanInvitation(row pgx.Row) (domain.Invitation, error) {
	var inv domain.Invitation
	if err := scanInvitationInto(row, &inv); err != nil {
		return domain.Invitation{}, err
	}
	return inv, nil
}

func scanInvitationDetail(row pgx.Row) (domain.InvitationDetail, error) {
	var d domain.InvitationDetail
	if err := scanInvitationInto(row, &d.Invitation,
		&d.ProjectTitle, &d.ProjectDescription, &d.InviterName, &d.InviterEmail); err != nil {
		return domain.InvitationDetail{}, err
	}
	return d, nil
}
