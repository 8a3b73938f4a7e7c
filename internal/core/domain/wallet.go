package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet holds the mutable balance for a single owner. There is exactly one
// wallet per owner, created during registration. Balance is a fixed-point
// decimal with two fractional digits and must never be negative. Wallets are
// never deleted, only deactivated.
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	OwnerID   uuid.UUID       `json:"owner_id"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// NewWallet creates an active wallet with a zero balance for the given owner.
func NewWallet(ownerID uuid.UUID) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Balance:   decimal.Zero,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanApply reports whether applying delta keeps the balance non-negative.
func (w *Wallet) CanApply(delta decimal.Decimal) bool {
	return !w.Balance.Add(delta).IsNegative()
}
