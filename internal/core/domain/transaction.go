package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType classifies a money movement.
type TransactionType string

const (
	TransactionTypeDeposit  TransactionType = "deposit"
	TransactionTypeTransfer TransactionType = "transfer"
	TransactionTypeReversal TransactionType = "reversal"
)

// TransactionStatus is the lifecycle state of a transaction record.
// Transitions: pending -> completed -> reversed. No state may be skipped.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusReversed  TransactionStatus = "reversed"
)

// ErrNonPositiveAmount is returned when a transaction draft carries an amount
// that is zero or negative.
var ErrNonPositiveAmount = errors.New("transaction amount must be positive")

// Transaction is a ledger entry describing one monetary movement. Once a
// record reaches completed, its amount, type and participants are immutable;
// only the status may still advance to reversed, exactly once.
type Transaction struct {
	ID                   uuid.UUID         `json:"id"`
	Type                 TransactionType   `json:"type"`
	Amount               decimal.Decimal   `json:"amount"`
	SenderID             *uuid.UUID        `json:"sender_id,omitempty"`
	ReceiverID           *uuid.UUID        `json:"receiver_id,omitempty"`
	Status               TransactionStatus `json:"status"`
	RelatedTransactionID *uuid.UUID        `json:"related_transaction_id,omitempty"`
	Description          string            `json:"description"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

// TransactionDraft carries the fields needed to open a new pending record.
type TransactionDraft struct {
	Type                 TransactionType
	Amount               decimal.Decimal
	SenderID             *uuid.UUID
	ReceiverID           *uuid.UUID
	Description          string
	RelatedTransactionID *uuid.UUID
}

// NewTransaction opens a pending record from a draft. It rejects non-positive
// amounts and defaults an empty description from the transaction type.
func NewTransaction(draft TransactionDraft) (*Transaction, error) {
	if !draft.Amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}
	desc := draft.Description
	if desc == "" {
		desc = defaultDescription(draft.Type)
	}
	now := time.Now().UTC()
	return &Transaction{
		ID:                   uuid.New(),
		Type:                 draft.Type,
		Amount:               draft.Amount,
		SenderID:             draft.SenderID,
		ReceiverID:           draft.ReceiverID,
		Status:               TransactionStatusPending,
		RelatedTransactionID: draft.RelatedTransactionID,
		Description:          desc,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func defaultDescription(t TransactionType) string {
	switch t {
	case TransactionTypeDeposit:
		return "Deposit"
	case TransactionTypeTransfer:
		return "Transfer"
	case TransactionTypeReversal:
		return "Transaction reversed"
	default:
		return "Transaction"
	}
}

// IsReversible reports whether this record may be the target of a reversal.
// Only completed records qualify, and reversals themselves never do.
func (t *Transaction) IsReversible() bool {
	return t.Status == TransactionStatusCompleted && t.Type != TransactionTypeReversal
}

// Involves reports whether the given user is the sender or receiver.
func (t *Transaction) Involves(userID uuid.UUID) bool {
	if t.SenderID != nil && *t.SenderID == userID {
		return true
	}
	return t.ReceiverID != nil && *t.ReceiverID == userID
}
