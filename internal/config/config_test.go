package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/mfs-backend/internal/models"
	"github.com/baharkarakas/mfs-backend/internal/policy"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, SettlementAuditLog, cfg.SettlementAudit)

	fees, err := cfg.FeeSchedule()
	require.NoError(t, err)
	def := policy.DefaultFeeSchedule()
	assert.Equal(t, def.SendMinAmount, fees.SendMinAmount)
	assert.Equal(t, def.SendFee, fees.SendFee)
	assert.Equal(t, def.CashOutAdminSurcharge, fees.CashOutAdminSurcharge)
	assert.True(t, def.CashOutFeeRate.Equal(fees.CashOutFeeRate))

	amt, err := cfg.CashRequest()
	require.NoError(t, err)
	assert.Equal(t, models.FromTaka(100000), amt)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("HTTP_PORT=9000\nCASHOUT_ADMIN_SURCHARGE=0\nSETTLEMENT_AUDIT=ledger\n"), 0o600))
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.HTTPPort)
	assert.Equal(t, SettlementAuditLedger, cfg.SettlementAudit)

	fees, err := cfg.FeeSchedule()
	require.NoError(t, err)
	assert.Zero(t, fees.CashOutAdminSurcharge)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"SETTLEMENT_AUDIT":    "sometimes",
		"STORAGE_DRIVER":      "mongo",
		"CASHOUT_FEE_RATE":    "1.5",
		"SEND_FEE":            "-1",
		"SEND_MIN_AMOUNT":     "0.001",
		"CASH_REQUEST_AMOUNT": "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load(t.TempDir())
			assert.Error(t, err)
		})
	}
}

func TestFeeScheduleRates(t *testing.T) {
	cfg := Config{
		SendMinAmount: "50", SendFee: "5", SendFeeThreshold: "100",
		CashOutFeeRate: "0.02", CashOutAgentRate: "0.01", CashOutAdminRate: "0.01",
		CashOutAdminSurcharge: "2.5",
	}
	f, err := cfg.FeeSchedule()
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.02").Equal(f.CashOutFeeRate))
	assert.Equal(t, models.Money(250), f.CashOutAdminSurcharge)
}
