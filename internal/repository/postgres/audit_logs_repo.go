package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/models"
)

type auditLogsRepo struct{ pool *pgxpool.Pool }

func (r *auditLogsRepo) List(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id::text, entity_type, entity_id, actor_id, action, details, created_at
		   FROM audit_logs WHERE entity_type=$1 AND entity_id=$2 ORDER BY id`,
		entityType, entityID)
	if err != nil {
		return nil, apperr.Wrap(err)
	}
	defer rows.Close()

	var out []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.ActorID, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, apperr.Wrap(err)
		}
		out = append(out, l)
	}
	return out, apperr.Wrap(rows.Err())
}
