package policy

import (
	"github.com/shopspring/decimal"

	"github.com/baharkarakas/mfs-backend/internal/models"
)

// FeeSchedule holds the pricing rules. Amounts are in poisha.
type FeeSchedule struct {
	SendMinAmount    models.Money
	SendFee          models.Money
	SendFeeThreshold models.Money // fee applies when amount > threshold

	CashOutFeeRate        decimal.Decimal
	CashOutAgentRate      decimal.Decimal
	CashOutAdminRate      decimal.Decimal
	CashOutAdminSurcharge models.Money
}

func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		SendMinAmount:         models.FromTaka(50),
		SendFee:               models.FromTaka(5),
		SendFeeThreshold:      models.FromTaka(100),
		CashOutFeeRate:        decimal.RequireFromString("0.015"),
		CashOutAgentRate:      decimal.RequireFromString("0.01"),
		CashOutAdminRate:      decimal.RequireFromString("0.005"),
		CashOutAdminSurcharge: models.FromTaka(5),
	}
}

// percent applies rate to amount, rounding half away from zero to whole poisha.
func percent(amount models.Money, rate decimal.Decimal) models.Money {
	return models.Money(decimal.NewFromInt(int64(amount)).Mul(rate).Round(0).IntPart())
}

func (f FeeSchedule) sendFee(amount models.Money) models.Money {
	if amount > f.SendFeeThreshold {
		return f.SendFee
	}
	return 0
}

// Quote is the priced outcome of a permitted operation.
type Quote struct {
	Amount          models.Money `json:"amount"`
	Fee             models.Money `json:"fee"`
	AgentCommission models.Money `json:"agent_commission,omitempty"`
	AdminShare      models.Money `json:"admin_share,omitempty"`
}

// Debit is what the paying account loses.
func (q Quote) Debit() models.Money { return q.Amount + q.Fee }
