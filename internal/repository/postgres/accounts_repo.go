package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

const accountCols = `id::text, name, mobile_number, email, pin_hash, nid, role, status,
	balance, income, COALESCE(session_id, ''), created_at, updated_at`

type accountsRepo struct{ pool *pgxpool.Pool }

func scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.MobileNumber, &a.Email, &a.PINHash, &a.NID, &a.Role, &a.Status,
		&a.Balance, &a.Income, &a.SessionID, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *accountsRepo) Create(ctx context.Context, n models.NewAccount) (models.Account, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts(id, name, mobile_number, email, pin_hash, nid, role, status, balance)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 RETURNING `+accountCols,
		uuid.NewString(), n.Name, n.MobileNumber, n.Email, n.PINHash, n.NID, n.Role, n.Status, n.Balance,
	)
	a, err := scanAccount(row)
	if isUnique(err, "") {
		return models.Account{}, apperr.Conflict("user already exists")
	}
	if err != nil {
		return models.Account{}, apperr.Wrap(err)
	}
	return a, nil
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (models.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return models.Account{}, apperr.NotFound("account not found")
	}
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE id=$1::uuid`, id))
	if err != nil {
		return models.Account{}, notFound(err, "account not found")
	}
	return a, nil
}

func (r *accountsRepo) GetByMobile(ctx context.Context, mobile string) (models.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountCols+` FROM accounts WHERE mobile_number=$1`, mobile))
	if err != nil {
		return models.Account{}, notFound(err, "user not found")
	}
	return a, nil
}

func (r *accountsRepo) GetByIdentifier(ctx context.Context, identifier string) (models.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE mobile_number=$1 OR email=lower($1) LIMIT 1`, identifier))
	if err != nil {
		return models.Account{}, notFound(err, "user not found")
	}
	return a, nil
}

// ListByStatus filters by status and, when role is non-empty, by role.
func (r *accountsRepo) ListByStatus(ctx context.Context, status models.AccountStatus, role models.Role) ([]models.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountCols+` FROM accounts
		  WHERE status=$1 AND ($2 = '' OR role=$2)
		  ORDER BY created_at DESC LIMIT 500`,
		status, string(role))
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, apperr.Wrap(err)
		}
		out = append(out, a)
	}
	return out, apperr.Wrap(rows.Err())
}

func (r *accountsRepo) SetSession(ctx context.Context, id, sessionID string) error {
	var sid any
	if sessionID != "" {
		sid = sessionID
	}
	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET session_id=$2, updated_at=now() WHERE id=$1::uuid`, id, sid)
	if err != nil {
		return apperr.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("account not found")
	}
	return nil
}
