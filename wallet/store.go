/*
store.go - Persistence interfaces for wallets and transactions

PURPOSE:
  Defines the interface between the domain logic and the database.
  Different implementations can use SQLite or in-memory storage.

KEY INTERFACES:
  Store:   Wallet and transaction persistence
  TxStore: Store plus transactional execution (atomic multi-write units)

OWNERSHIP SCOPING:
  Every lookup takes an owner id alongside the entity id. Implementations
  MUST treat "exists but foreign-owned" exactly like "does not exist"
  (ErrWalletNotFound / ErrTransactionNotFound), so ownership can never
  leak across users.

BALANCE WRITES:
  AdjustBalance is the only way to change Wallet.Balance, and it is
  conditional: the write fails with ErrInsufficientBalance if the
  resulting balance would be negative. The guard is evaluated by the
  store at commit time, which is what makes concurrent mutations against
  the same wallet safe without in-process locks.

ATOMIC UNITS:
  A transaction create/delete pairs a balance adjustment with a row
  insert/delete. TxStore.WithTx wraps both in one store transaction so
  no partial state is ever observable.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - wallet/store/memory.go: In-memory for testing

SEE ALSO:
  - maintainer.go: Sole caller of AdjustBalance
  - ledger.go: Composes operations inside WithTx
*/
package wallet

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Wallet and transaction persistence
// =============================================================================

type Store interface {
	// InsertWallet persists a new wallet.
	InsertWallet(ctx context.Context, w Wallet) error

	// GetWallet returns the wallet scoped to owner.
	// Returns ErrWalletNotFound if absent or foreign-owned.
	GetWallet(ctx context.Context, id WalletID, owner OwnerID) (Wallet, error)

	// ListWallets returns all wallets for an owner, newest first.
	ListWallets(ctx context.Context, owner OwnerID) ([]Wallet, error)

	// UpdateWalletInfo updates mutable display attributes (name, type).
	// It never touches Balance.
	UpdateWalletInfo(ctx context.Context, id WalletID, owner OwnerID, name string, typ WalletType) (Wallet, error)

	// AdjustBalance applies delta to the wallet balance if and only if the
	// result stays non-negative, and returns the updated wallet.
	// Returns ErrWalletNotFound or ErrInsufficientBalance.
	// This is the ONLY write path for Wallet.Balance.
	AdjustBalance(ctx context.Context, id WalletID, owner OwnerID, delta Amount) (Wallet, error)

	// DeleteWallet removes the wallet record. Callers must delete the
	// wallet's transactions in the same store transaction (see Ledger).
	DeleteWallet(ctx context.Context, id WalletID, owner OwnerID) error

	// InsertTransaction persists a new transaction.
	InsertTransaction(ctx context.Context, tx Transaction) error

	// GetTransaction returns the transaction scoped to owner.
	// Returns ErrTransactionNotFound if absent or foreign-owned.
	GetTransaction(ctx context.Context, id TransactionID, owner OwnerID) (Transaction, error)

	// DeleteTransaction removes a single transaction.
	// Returns ErrTransactionNotFound if absent or foreign-owned.
	DeleteTransaction(ctx context.Context, id TransactionID, owner OwnerID) error

	// DeleteWalletTransactions removes every transaction of a wallet.
	// Used by the wallet deletion cascade.
	DeleteWalletTransactions(ctx context.Context, walletID WalletID, owner OwnerID) error

	// WalletTransactionsInRange returns wallet transactions with
	// from <= date <= to, ascending by (date, created_at).
	WalletTransactionsInRange(ctx context.Context, walletID WalletID, owner OwnerID, from, to time.Time) ([]Transaction, error)

	// WalletTransactionsBefore returns wallet transactions with date < cutoff,
	// in no guaranteed order (used for the order-free opening-balance sum).
	WalletTransactionsBefore(ctx context.Context, walletID WalletID, owner OwnerID, cutoff time.Time) ([]Transaction, error)

	// OwnerTransactions returns all transactions of an owner across wallets,
	// descending by (date, created_at), joined with wallet display info.
	// Nil bounds mean unbounded; present bounds are inclusive.
	OwnerTransactions(ctx context.Context, owner OwnerID, from, to *time.Time) ([]FeedEntry, error)
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic multi-write units
// =============================================================================

// TxStore wraps Store with transaction support.
// Use this when a balance adjustment and a row write must commit together.
type TxStore interface {
	Store

	// WithTx executes fn within a store transaction.
	// If fn returns an error, every write made through the passed Store is
	// rolled back; otherwise all writes commit as one unit.
	WithTx(ctx context.Context, fn func(Store) error) error
}
