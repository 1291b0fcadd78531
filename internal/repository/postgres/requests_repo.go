package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

type requestsRepo struct{ pool *pgxpool.Pool }

func (r *requestsRepo) ListPending(ctx context.Context, kind models.RequestKind) ([]models.PendingAgentRequest, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id::text, a.name, a.mobile_number, a.income,
		        q.id::text, q.kind, q.status, q.created_at
		   FROM account_requests q
		   JOIN accounts a ON a.id = q.account_id
		  WHERE q.kind=$1 AND q.status='Pending'
		  ORDER BY q.created_at`,
		kind)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	defer rows.Close()

	out := []models.PendingAgentRequest{}
	for rows.Next() {
		var p models.PendingAgentRequest
		var income models.Money
		if err := rows.Scan(&p.AgentID, &p.Agent.Name, &p.Agent.MobileNumber, &income,
			&p.Request.ID, &p.Request.Kind, &p.Request.Status, &p.Request.CreatedAt); err != nil {
			return nil, apperr.Wrap(err)
		}
		p.Request.AccountID = p.AgentID
		if kind == models.RequestWithdraw {
			p.Income = &income
		}
		out = append(out, p)
	}
	return out, apperr.Wrap(rows.Err())
}
