package postgres

import (
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Accounts:     &accountsRepo{pool},
		Transactions: &transactionsRepo{pool},
		Requests:     &requestsRepo{pool},
		AuditLogs:    &auditLogsRepo{pool},
		Tx:           &txRunner{pool},
	}
}
