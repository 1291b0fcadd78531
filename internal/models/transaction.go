package models

import "time"

type TransactionType string

const (
	TxnSend    TransactionType = "SEND"
	TxnCashIn  TransactionType = "CASH_IN"
	TxnCashOut TransactionType = "CASH_OUT"

	// Settlement records, written only when settlement audit is "ledger".
	TxnCashRequest TransactionType = "CASH_REQUEST"
	TxnWithdraw    TransactionType = "WITHDRAW"
)

// Transaction is an append-only ledger record.
type Transaction struct {
	TransactionID string          `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	SenderID      string          `json:"sender_id"`
	ReceiverID    string          `json:"receiver_id"`
	Amount        Money           `json:"amount"`
	Fee           Money           `json:"fee"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (t Transaction) Involves(accountID string) bool {
	return t.SenderID == accountID || t.ReceiverID == accountID
}
