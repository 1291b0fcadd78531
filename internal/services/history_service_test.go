package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/mfs-backend/internal/apperr"
	"github.com/baharkarakas/mfs-backend/internal/config"
	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/statement"
)

func TestHistory(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	a := f.user("01711111111", models.FromTaka(1000))
	b := f.user("01722222222", 0)
	c := f.user("01733333333", 0)

	var ids []string
	for i := 0; i < 3; i++ {
		r, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(60), PIN: testPIN})
		require.NoError(t, err)
		ids = append(ids, r.TransactionID)
	}

	page, err := f.history.History(f.ctx, a, a.ID, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, ids[2], page.Transactions[0].TransactionID)
	assert.Equal(t, ids[1], page.Transactions[1].TransactionID)

	again, err := f.history.History(f.ctx, a, a.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, page, again)

	page, err = f.history.History(f.ctx, b, b.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Limit)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, ids[0], page.Transactions[0].TransactionID)

	_, err = f.history.History(f.ctx, c, a.ID, 10, 0)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = f.history.History(f.ctx, f.admin, a.ID, 10, 0)
	assert.NoError(t, err)
	_, err = f.history.History(f.ctx, a, a.ID, 10, -1)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLookup(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	a := f.user("01711111111", models.FromTaka(1000))
	b := f.user("01722222222", 0)
	c := f.user("01733333333", 0)

	r, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(60), PIN: testPIN})
	require.NoError(t, err)

	for _, who := range []models.Account{a, b, f.admin} {
		got, err := f.history.Lookup(f.ctx, who, r.TransactionID)
		require.NoError(t, err)
		assert.Equal(t, r.TransactionID, got.TransactionID)
	}
	_, err = f.history.Lookup(f.ctx, c, r.TransactionID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = f.history.Lookup(f.ctx, a, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestStatementExport(t *testing.T) {
	f := newFixture(t, config.SettlementAuditLog)
	a := f.user("01711111111", models.FromTaka(1000))
	b := f.user("01722222222", 0)
	_, err := f.txns.Send(f.ctx, a, MoveInput{Mobile: b.MobileNumber, Amount: models.FromTaka(60), PIN: testPIN})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.history.Statement(f.ctx, a, a.ID, statement.FormatPDF, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	err = f.history.Statement(f.ctx, b, a.ID, statement.FormatXLSX, &bytes.Buffer{})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}
