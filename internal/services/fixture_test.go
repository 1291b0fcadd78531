package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/mfs-backend/internal/auth"
	"github.com/baharkarakas/mfs-backend/internal/config"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
	repo "github.com/baharkarakas/mfs-backend/internal/repository"
	"github.com/baharkarakas/mfs-backend/internal/repository/memory"
)

const testPIN = "1234"

var (
	pinOnce sync.Once
	pinHash string
)

func testPINHash(t *testing.T) string {
	pinOnce.Do(func() {
		h, err := auth.HashPIN(testPIN)
		require.NoError(t, err)
		pinHash = h
	})
	return pinHash
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	repos    repo.Repositories
	deps     Deps
	txns     *TransactionService
	accounts *AccountService
	requests *RequestService
	history  *HistoryService
	balances *BalanceService
	admin    models.Account
}

func newFixture(t *testing.T, audit config.SettlementAudit) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := memory.New().Repositories()

	adminID, err := EnsureAdmin(ctx, repos.Accounts, AdminSeed{
		Name: "Admin", MobileNumber: "01700000000", Email: "admin@mfs.local", NID: "0000000000", PIN: testPIN,
	})
	require.NoError(t, err)
	admin, err := repos.Accounts.GetByID(ctx, adminID)
	require.NoError(t, err)

	deps := Deps{Repos: repos, Policy: policy.New(policy.DefaultFeeSchedule()), AdminID: adminID}
	tokens := auth.NewTokenManager("test-secret", "mfs-test", time.Hour)
	return &fixture{
		t:        t,
		ctx:      ctx,
		repos:    repos,
		deps:     deps,
		txns:     NewTransactionService(deps),
		accounts: NewAccountService(deps, tokens),
		requests: NewRequestService(deps, models.FromTaka(100000), audit),
		history:  NewHistoryService(repos.Accounts, repos.Transactions, 20),
		balances: NewBalanceService(repos.Accounts),
		admin:    admin,
	}
}

// account inserts an account directly, bypassing registration rules.
func (f *fixture) account(mobile string, role models.Role, status models.AccountStatus, balance models.Money) models.Account {
	f.t.Helper()
	a, err := f.repos.Accounts.Create(f.ctx, models.NewAccount{
		Name:         "acct-" + mobile,
		MobileNumber: mobile,
		Email:        mobile + "@example.com",
		PINHash:      testPINHash(f.t),
		NID:          "9" + mobile[2:],
		Role:         role,
		Status:       status,
		Balance:      balance,
	})
	require.NoError(f.t, err)
	return a
}

func (f *fixture) user(mobile string, balance models.Money) models.Account {
	return f.account(mobile, models.RoleUser, models.StatusActive, balance)
}

func (f *fixture) agent(mobile string, balance models.Money) models.Account {
	return f.account(mobile, models.RoleAgent, models.StatusActive, balance)
}

func (f *fixture) reload(a models.Account) models.Account {
	f.t.Helper()
	got, err := f.repos.Accounts.GetByID(f.ctx, a.ID)
	require.NoError(f.t, err)
	return got
}

func (f *fixture) ledger(a models.Account) []models.Transaction {
	f.t.Helper()
	items, err := f.repos.Transactions.ListByAccount(f.ctx, a.ID, 1000, 0)
	require.NoError(f.t, err)
	return items
}

// total is the sum of every balance and income in the system.
func (f *fixture) total(accts ...models.Account) models.Money {
	var sum models.Money
	for _, a := range accts {
		a = f.reload(a)
		sum += a.Balance + a.Income
	}
	return sum
}
