/*
Package wallet provides the core wallet ledger engine.

PURPOSE:
  This package contains the domain types and algorithms for tracking
  per-wallet balances: the denormalized balance field maintained as an
  invariant over the transaction ledger, statement computation with
  opening/closing balances and per-transaction running balances, and the
  cross-wallet transaction feed.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A monetary quantity (decimal-backed, never floating point)
  - Wallet: A balance-bearing account owned by one user
  - Transaction: A dated income/expense entry applied to exactly one wallet
  - IDs: Type-safe identifiers for wallets, transactions, and owners

DESIGN PRINCIPLES:
  1. Single mutation path: only the Maintainer writes Wallet.Balance
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Immutability: Transactions are never updated, only deleted and recreated
  4. Explicit ownership: every lookup is scoped by (ownerID, entityID)

SEE ALSO:
  - maintainer.go: The only writer of Wallet.Balance
  - ledger.go: Transaction create/delete and wallet lifecycle
  - statement.go: Opening/closing/running balance computation
  - store.go: Persistence interfaces
*/
package wallet

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Monetary quantity (single currency)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
}

func NewAmount(value float64) Amount {
	return Amount{Value: decimal.NewFromFloat(value)}
}

func NewAmountFromInt(value int64) Amount {
	return Amount{Value: decimal.NewFromInt(value)}
}

func ZeroAmount() Amount {
	return Amount{Value: decimal.Zero}
}

func MustParseAmount(s string) Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ZeroAmount()
	}
	return Amount{Value: d}
}

func (a Amount) Add(b Amount) Amount       { return Amount{Value: a.Value.Add(b.Value)} }
func (a Amount) Sub(b Amount) Amount       { return Amount{Value: a.Value.Sub(b.Value)} }
func (a Amount) Neg() Amount               { return Amount{Value: a.Value.Neg()} }
func (a Amount) IsNegative() bool          { return a.Value.IsNegative() }
func (a Amount) IsPositive() bool          { return a.Value.IsPositive() }
func (a Amount) IsZero() bool              { return a.Value.IsZero() }
func (a Amount) Equal(b Amount) bool       { return a.Value.Equal(b.Value) }
func (a Amount) LessThan(b Amount) bool    { return a.Value.LessThan(b.Value) }
func (a Amount) GreaterThan(b Amount) bool { return a.Value.GreaterThan(b.Value) }
func (a Amount) String() string            { return a.Value.String() }
func (a Amount) Float64() float64          { f, _ := a.Value.Float64(); return f }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WalletID string
type TransactionID string
type OwnerID string

// =============================================================================
// WALLET - Balance-bearing account
// =============================================================================

type WalletType string

const (
	WalletBank       WalletType = "bank"
	WalletCash       WalletType = "cash"
	WalletEWallet    WalletType = "e-wallet"
	WalletCreditCard WalletType = "credit-card"
	WalletOther      WalletType = "other"
)

// ValidWalletType reports whether t is one of the known wallet types.
func ValidWalletType(t WalletType) bool {
	switch t {
	case WalletBank, WalletCash, WalletEWallet, WalletCreditCard, WalletOther:
		return true
	}
	return false
}

// Wallet is a named balance-bearing account owned by one user.
//
// INVARIANTS:
//   - Balance == InitialBalance + sum of signed amounts of all its transactions
//   - Balance >= 0 at all times (mutations that would break this are rejected)
//
// Balance is a materialized view over the transaction ledger, kept for O(1)
// reads. The ledger remains the source of truth; every write to Balance goes
// through the Maintainer.
//
// StartDate anchors opening-balance computation for statements. It does NOT
// filter which transactions belong to the wallet: a transaction dated before
// StartDate is still part of the ledger (and of the balance invariant).
type Wallet struct {
	ID             WalletID
	OwnerID        OwnerID
	Name           string
	Type           WalletType
	InitialBalance Amount
	Balance        Amount
	StartDate      time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// =============================================================================
// TRANSACTION - Dated income/expense entry
// =============================================================================

type TransactionType string

const (
	TxIncome  TransactionType = "income"
	TxExpense TransactionType = "expense"
)

func ValidTransactionType(t TransactionType) bool {
	return t == TxIncome || t == TxExpense
}

// Transaction is an immutable ledger entry. There is no update operation:
// correcting a transaction means delete + recreate, each side going through
// the Maintainer so the balance invariant holds at every step.
type Transaction struct {
	ID       TransactionID
	OwnerID  OwnerID
	WalletID WalletID
	Type     TransactionType
	Amount   Amount // always > 0; sign comes from Type
	Category string
	Date     time.Time // caller-supplied effective date, not necessarily "now"
	Note     string

	// CreatedAt is system-assigned and used only as the ordering tie-breaker
	// for transactions sharing the same effective date.
	CreatedAt time.Time
}

// SignedAmount returns the transaction's contribution to the wallet balance:
// +Amount for income, -Amount for expense.
func (t Transaction) SignedAmount() Amount {
	if t.Type == TxIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// ReversalAmount returns the delta that undoes this transaction's
// contribution. Used when deleting a transaction.
func (t Transaction) ReversalAmount() Amount {
	return t.SignedAmount().Neg()
}

// FeedEntry is a transaction joined with its wallet's display attributes,
// as returned by the cross-wallet feed. No balance computation is attached.
type FeedEntry struct {
	Transaction
	WalletName string
	WalletType WalletType
}

// =============================================================================
// VALIDATION LIMITS
// =============================================================================

const (
	MaxNameLen     = 50
	MaxCategoryLen = 50
	MaxNoteLen     = 500
)
