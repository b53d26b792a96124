/*
ledger.go - Transaction ledger operations and wallet lifecycle

PURPOSE:
  Implements the write side of the engine: transaction create/delete and
  wallet create/update/delete. Every balance-affecting operation pairs a
  Maintainer.ApplyDelta with its transaction row write inside one store
  transaction, so a failed insert never leaves a dangling balance change
  and a rejected balance change never leaves an orphan transaction.

OPERATION ORDER:
  Create: validate -> ApplyDelta(signed amount) -> insert row.
  Delete: load -> ApplyDelta(reversal) -> delete row.
  The reversal path goes through the same guard as every other mutation.
  Under correct invariant maintenance a reversal of income cannot be
  rejected, but the Maintainer remains the single source of truth and the
  check is never special-cased.

  Wallet delete cascades: all transactions, then the wallet, one unit.

IDENTIFIERS:
  IDs are UUIDs (google/uuid). Malformed ids fail with ErrInvalidReference
  before any store access.

SEE ALSO:
  - maintainer.go: Balance accept/reject authority
  - store.go: TxStore atomic unit contract
*/
package wallet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// LEDGER - Write-side service
// =============================================================================

// Ledger performs transaction and wallet mutations against a TxStore.
type Ledger struct {
	Store      TxStore
	maintainer Maintainer
	now        func() time.Time
}

func NewLedger(store TxStore) *Ledger {
	return &Ledger{Store: store, now: time.Now}
}

// =============================================================================
// WALLET LIFECYCLE
// =============================================================================

// CreateWalletInput carries pre-validated primitives from the request layer.
// The core still re-validates business invariants itself.
type CreateWalletInput struct {
	Name           string
	Type           WalletType
	InitialBalance Amount
	StartDate      time.Time // zero value = now
}

// CreateWallet creates a wallet with Balance = InitialBalance.
func (l *Ledger) CreateWallet(ctx context.Context, owner OwnerID, in CreateWalletInput) (Wallet, error) {
	if err := validateWalletInput(in.Name, in.Type); err != nil {
		return Wallet{}, err
	}
	if in.InitialBalance.IsNegative() {
		return Wallet{}, &ValidationError{Field: "initialBalance", Message: "cannot be negative"}
	}

	now := l.now().UTC()
	start := in.StartDate
	if start.IsZero() {
		start = now
	}

	w := Wallet{
		ID:             WalletID(uuid.NewString()),
		OwnerID:        owner,
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		InitialBalance: in.InitialBalance,
		Balance:        in.InitialBalance,
		StartDate:      start.UTC(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := l.Store.InsertWallet(ctx, w); err != nil {
		return Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	return w, nil
}

// GetWallet returns the owner's wallet.
func (l *Ledger) GetWallet(ctx context.Context, id WalletID, owner OwnerID) (Wallet, error) {
	if err := checkReference("walletId", string(id)); err != nil {
		return Wallet{}, err
	}
	return l.Store.GetWallet(ctx, id, owner)
}

// ListWallets returns all wallets for the owner, newest first.
func (l *Ledger) ListWallets(ctx context.Context, owner OwnerID) ([]Wallet, error) {
	return l.Store.ListWallets(ctx, owner)
}

// UpdateWallet changes a wallet's name and/or type. Balance is never
// touched here; that is the Maintainer's exclusive path.
func (l *Ledger) UpdateWallet(ctx context.Context, id WalletID, owner OwnerID, name string, typ WalletType) (Wallet, error) {
	if err := checkReference("walletId", string(id)); err != nil {
		return Wallet{}, err
	}
	if err := validateWalletInput(name, typ); err != nil {
		return Wallet{}, err
	}
	return l.Store.UpdateWalletInfo(ctx, id, owner, strings.TrimSpace(name), typ)
}

// DeleteWallet removes a wallet and its entire transaction history as one
// atomic unit. No orphaned transactions may remain, and a wallet is never
// left with a partially deleted ledger.
func (l *Ledger) DeleteWallet(ctx context.Context, id WalletID, owner OwnerID) error {
	if err := checkReference("walletId", string(id)); err != nil {
		return err
	}
	return l.Store.WithTx(ctx, func(s Store) error {
		if _, err := s.GetWallet(ctx, id, owner); err != nil {
			return err
		}
		if err := s.DeleteWalletTransactions(ctx, id, owner); err != nil {
			return fmt.Errorf("delete wallet transactions: %w", err)
		}
		return s.DeleteWallet(ctx, id, owner)
	})
}

// =============================================================================
// TRANSACTION OPERATIONS
// =============================================================================

// CreateTransactionInput carries pre-validated primitives from the request
// layer for a new transaction.
type CreateTransactionInput struct {
	WalletID WalletID
	Type     TransactionType
	Amount   Amount
	Category string
	Date     time.Time // zero value = now
	Note     string
}

// CreateTransaction records an income/expense against a wallet.
//
// The balance is validated and updated before the row is inserted, and both
// writes commit as one store transaction. An InsufficientBalance rejection
// carries the wallet's current balance and leaves state unchanged.
func (l *Ledger) CreateTransaction(ctx context.Context, owner OwnerID, in CreateTransactionInput) (Transaction, error) {
	if err := checkReference("walletId", string(in.WalletID)); err != nil {
		return Transaction{}, err
	}
	if err := validateTransactionInput(in); err != nil {
		return Transaction{}, err
	}

	now := l.now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	tx := Transaction{
		ID:        TransactionID(uuid.NewString()),
		OwnerID:   owner,
		WalletID:  in.WalletID,
		Type:      in.Type,
		Amount:    in.Amount,
		Category:  strings.TrimSpace(in.Category),
		Date:      date.UTC(),
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: now,
	}

	err := l.Store.WithTx(ctx, func(s Store) error {
		if _, err := l.maintainer.ApplyDelta(ctx, s, in.WalletID, owner, tx.SignedAmount()); err != nil {
			return err
		}
		if err := s.InsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// DeleteTransaction removes a transaction and reverses its balance
// contribution, as one atomic unit.
func (l *Ledger) DeleteTransaction(ctx context.Context, id TransactionID, owner OwnerID) error {
	if err := checkReference("transactionId", string(id)); err != nil {
		return err
	}
	return l.Store.WithTx(ctx, func(s Store) error {
		tx, err := s.GetTransaction(ctx, id, owner)
		if err != nil {
			return err
		}
		if _, err := l.maintainer.ApplyDelta(ctx, s, tx.WalletID, owner, tx.ReversalAmount()); err != nil {
			return err
		}
		return s.DeleteTransaction(ctx, id, owner)
	})
}

// =============================================================================
// VALIDATION
// =============================================================================

func validateWalletInput(name string, typ WalletType) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	if len(name) > MaxNameLen {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("cannot exceed %d characters", MaxNameLen)}
	}
	if !ValidWalletType(typ) {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("%q is not a valid wallet type", typ)}
	}
	return nil
}

func validateTransactionInput(in CreateTransactionInput) error {
	if !ValidTransactionType(in.Type) {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("%q is not a valid transaction type", in.Type)}
	}
	if !in.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		return &ValidationError{Field: "category", Message: "cannot be empty"}
	}
	if len(category) > MaxCategoryLen {
		return &ValidationError{Field: "category", Message: fmt.Sprintf("cannot exceed %d characters", MaxCategoryLen)}
	}
	if len(strings.TrimSpace(in.Note)) > MaxNoteLen {
		return &ValidationError{Field: "note", Message: fmt.Sprintf("cannot exceed %d characters", MaxNoteLen)}
	}
	return nil
}

// checkReference rejects malformed store identifiers before any store
// round-trip.
func checkReference(field, id string) error {
	if uuid.Validate(id) != nil {
		return fmt.Errorf("%w: %s", ErrInvalidReference, field)
	}
	return nil
}
