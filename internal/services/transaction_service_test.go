package services

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/config"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
)

func TestSendMoney(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	a := f.user("01711111111", models.FromTaka(200))
	b := f.user("01722222222", 0)

	rcpt, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(150), PIN: testPIN})
	require.NoError(t, err)
	assert.Len(t, rcpt.TransactionID, txnIDLength)
	assert.Equal(t, models.FromTaka(5), rcpt.Fee)
	assert.Equal(t, models.FromTaka(45), rcpt.Balance)
	require.NotNil(t, rcpt.Receiver)
	assert.Equal(t, models.Summary{Name: b.Name, MobileNumber: b.MobileNumber}, *rcpt.Receiver)

	assert.Equal(t, models.FromTaka(45), f.reload(a).Balance)
	assert.Equal(t, models.FromTaka(150), f.reload(b).Balance)
	assert.Equal(t, models.FromTaka(5), f.reload(f.admin).Income)

	entries := f.ledger(a)
	require.Len(t, entries, 1)
	assert.Equal(t, models.TxnSend, entries[0].Type)
	assert.Equal(t, models.FromTaka(150), entries[0].Amount)
	assert.Equal(t, models.FromTaka(5), entries[0].Fee)
	assert.Equal(t, a.ID, entries[0].SenderID)
	assert.Equal(t, b.ID, entries[0].ReceiverID)
}

func TestSendConservesValue(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	a := f.user("01711111111", models.FromTaka(1000))
	b := f.user("01722222222", models.FromTaka(10))
	before := f.total(a, b, f.admin)

	for _, amt := range []int64{50, 100, 101, 333} {
		_, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(amt), PIN: testPIN})
		require.NoError(t, err)
	}
	assert.Equal(t, before, f.total(a, b, f.admin))
}

func TestSendRejectionsLeaveNoTrace(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	a := f.user("01711111111", models.FromTaka(200))
	b := f.user("01722222222", 0)

	cases := []struct {
		name string
		in   MoveInput
		kind apperr.Kind
	}{
		{"below minimum", MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(49), PIN: testPIN}, apperr.KindValidation},
		{"wrong pin", MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(60), PIN: "9999"}, apperr.KindAuth},
		{"unknown receiver", MoveInput{Mobile: "01799999999", Amount: models.FromTaka(60), PIN: testPIN}, apperr.KindNotFound},
		{"self", MoveInput{Mobile: a.MobileNumber, Amount: models.FromTaka(60), PIN: testPIN}, apperr.KindNotFound},
		{"amount plus fee exceeds balance", MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(196), PIN: testPIN}, apperr.KindInsufficientBalance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.txns.Send(f.ctx, a, tc.in)
			assert.Equal(t, tc.kind, apperr.KindOf(err))
		})
	}

	assert.Equal(t, models.FromTaka(200), f.reload(a).Balance)
	assert.Zero(t, f.reload(b).Balance)
	assert.Zero(t, f.reload(f.admin).Income)
	assert.Empty(t, f.ledger(a))
}

func TestHugeAmountsCannotMintValue(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	a := f.user("01711111111", 400)
	b := f.user("01722222222", 0)
	ag := f.agent("01833333333", models.FromTaka(1000))
	before := f.total(a, b, ag, f.admin)
	huge := models.Money(math.MaxInt64 - 1)

	_, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: huge, PIN: testPIN})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.txns.CashOut(f.ctx, a, MoveInput{Mobile: ag.MobileNumber, Amount: huge, PIN: testPIN})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.txns.CashIn(f.ctx, ag, MoveInput{Mobile: a.MobileNumber, Amount: huge, PIN: testPIN})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.Equal(t, models.Money(400), f.reload(a).Balance)
	assert.Zero(t, f.reload(b).Balance)
	assert.Equal(t, before, f.total(a, b, ag, f.admin))
	assert.Empty(t, f.ledger(a))
}

func TestCashOut(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	u := f.user("01711111111", models.FromTaka(1000))
	ag := f.agent("01811111111", models.FromTaka(500))

	rcpt, err := f.txns.CashOut(f.ctx, u, MoveInput{Mobile: ag.MobileNumber, Amount: models.FromTaka(100), PIN: testPIN})
	require.NoError(t, err)
	assert.Equal(t, models.Money(150), rcpt.Fee)
	require.NotNil(t, rcpt.Agent)
	assert.Equal(t, ag.MobileNumber, rcpt.Agent.MobileNumber)

	u2, ag2, admin2 := f.reload(u), f.reload(ag), f.reload(f.admin)
	assert.Equal(t, models.Money(89850), u2.Balance)
	assert.Equal(t, models.FromTaka(600), ag2.Balance)
	assert.Equal(t, models.FromTaka(1), ag2.Income)
	assert.Equal(t, models.Money(550), admin2.Income)

	// The flat admin surcharge is the only value created by a cash-out.
	fees := f.deps.Policy.Fees()
	userLoss := u.Balance - u2.Balance
	agentGain := (ag2.Balance - ag.Balance) + (ag2.Income - ag.Income)
	assert.Equal(t, userLoss+fees.CashOutAdminSurcharge, agentGain+admin2.Income)

	entries := f.ledger(u)
	require.Len(t, entries, 1)
	assert.Equal(t, models.TxnCashOut, entries[0].Type)
	assert.Equal(t, models.Money(150), entries[0].Fee)
}

func TestCashOutWithoutSurchargeConserves(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	fees := policy.DefaultFeeSchedule()
	fees.CashOutAdminSurcharge = 0
	f.deps.Policy = policy.New(fees)
	f.txns = NewTransactionService(f.deps)

	u := f.user("01711111111", models.FromTaka(1000))
	ag := f.agent("01811111111", 0)
	before := f.total(u, ag, f.admin)

	_, err := f.txns.CashOut(f.ctx, u, MoveInput{Mobile: ag.MobileNumber, Amount: models.FromTaka(100), PIN: testPIN})
	require.NoError(t, err)
	assert.Equal(t, before, f.total(u, ag, f.admin))
}

func TestCashOutRejections(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	u := f.user("01711111111", models.FromTaka(100))
	ag := f.agent("01811111111", 0)
	pending := f.account("01822222222", models.RoleAgent, models.StatusPending, 0)

	_, err := f.txns.CashOut(f.ctx, u, MoveInput{Mobile: pending.MobileNumber, Amount: models.FromTaka(10), PIN: testPIN})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.txns.CashOut(f.ctx, u, MoveInput{Mobile: ag.MobileNumber, Amount: models.FromTaka(100), PIN: testPIN})
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))

	_, err = f.txns.CashOut(f.ctx, ag, MoveInput{Mobile: ag.MobileNumber, Amount: models.FromTaka(10), PIN: testPIN})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	assert.Equal(t, models.FromTaka(100), f.reload(u).Balance)
	assert.Empty(t, f.ledger(u))
}

func TestCashIn(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	ag := f.agent("01811111111", models.FromTaka(1000))
	u := f.user("01711111111", 0)
	other := f.agent("01822222222", 0)

	rcpt, err := f.txns.CashIn(f.ctx, ag, MoveInput{Mobile: u.MobileNumber, Amount: models.FromTaka(400), PIN: testPIN})
	require.NoError(t, err)
	assert.Zero(t, rcpt.Fee)
	assert.Equal(t, models.FromTaka(600), rcpt.Balance)
	assert.Equal(t, models.FromTaka(400), f.reload(u).Balance)
	assert.Zero(t, f.reload(f.admin).Income)

	_, err = f.txns.CashIn(f.ctx, ag, MoveInput{Mobile: other.MobileNumber, Amount: 100, PIN: testPIN})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.txns.CashIn(f.ctx, u, MoveInput{Mobile: u.MobileNumber, Amount: 100, PIN: testPIN})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = f.txns.CashIn(f.ctx, ag, MoveInput{Mobile: u.MobileNumber, Amount: models.FromTaka(601), PIN: testPIN})
	assert.Equal(t, apperr.KindInsufficientBalance, apperr.KindOf(err))

	_, err = f.txns.CashIn(f.ctx, ag, MoveInput{Mobile: u.MobileNumber, Amount: 100, PIN: "0000"})
	assert.Equal(t, apperr.KindAuth, apperr.KindOf(err))
}

func TestConcurrentSendsNeverOverdraw(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	a := f.user("01711111111", models.FromTaka(1000))
	b := f.user("01722222222", 0)

	const n = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, poor int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(100), PIN: testPIN})
			mu.Lock()
			defer mu.Unlock()
			switch apperr.KindOf(err) {
			case apperr.KindInsufficientBalance:
				poor++
			default:
				if err == nil {
					ok++
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, n-10, poor)
	assert.Zero(t, f.reload(a).Balance)
	assert.Equal(t, models.FromTaka(1000), f.reload(b).Balance)
	assert.Len(t, f.ledger(a), 10)
}

func TestTransactionIDCollisionIsRetried(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	ids := []string{"AAAAAAAAAA", "AAAAAAAAAA", "AAAAAAAAAA", "BBBBBBBBBB"}
	var mu sync.Mutex
	f.deps.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
	f.txns = NewTransactionService(f.deps)
	a := f.user("01711111111", models.FromTaka(1000))
	b := f.user("01722222222", 0)

	first, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(50), PIN: testPIN})
	require.NoError(t, err)
	second, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(50), PIN: testPIN})
	require.NoError(t, err)

	assert.Equal(t, "AAAAAAAAAA", first.TransactionID)
	assert.Equal(t, "BBBBBBBBBB", second.TransactionID)
	assert.Equal(t, models.FromTaka(100), f.reload(b).Balance)
}

func TestTransactionIDExhaustionRollsBack(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	f.deps.NewID = func() string { return "SAMESAMESA" }
	f.txns = NewTransactionService(f.deps)
	a := f.user("01711111111", models.FromTaka(1000))
	b := f.user("01722222222", 0)

	_, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(50), PIN: testPIN})
	require.NoError(t, err)
	_, err = f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(50), PIN: testPIN})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))

	assert.Equal(t, models.FromTaka(950), f.reload(a).Balance)
	assert.Equal(t, models.FromTaka(50), f.reload(b).Balance)
	assert.Len(t, f.ledger(a), 1)
}

func TestNewTransactionID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := NewTransactionID()
		require.Len(t, id, txnIDLength)
		for _, c := range id {
			assert.Contains(t, txnIDAlphabet, string(c))
		}
		assert.False(t, seen[id])
		seen[id] = true
	}
}
