/*
Package sqlite provides a SQLite-backed implementation of wallet.TxStore.

PURPOSE:
  Implements the persistence interfaces using SQLite via database/sql.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  wallets:      One row per wallet; balance is the denormalized aggregate
  transactions: The wallet ledger, one row per income/expense entry

AMOUNT ENCODING:
  Monetary values are stored as decimal strings (TEXT), never floating
  point, and parsed back through shopspring/decimal. Arithmetic happens
  in Go; the database only stores and compares.

BALANCE GUARD:
  AdjustBalance reads the current balance, rejects a negative result, and
  writes the new value with a compare-and-swap on the previous balance.
  Combined with WithTx (BEGIN/COMMIT) and SQLite's single-writer model,
  conflicting mutations against the same wallet serialize at the store,
  and the non-negativity guard is evaluated against the balance that
  actually commits.

CONCURRENCY:
  Uses sync.RWMutex for in-process thread safety. Methods running inside
  a WithTx unit use the transaction handle and do not re-acquire the lock.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/wallets.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := wallet.NewLedger(store)

SEE ALSO:
  - wallet/store.go: Interface definitions
  - wallet/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/wallet-engine/wallet"
)

// createdAtLayout is fixed-width so lexicographic string order matches
// chronological order down to nanoseconds (the statement tie-breaker).
const createdAtLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements wallet.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		name TEXT NOT NULL,
		wallet_type TEXT NOT NULL,
		initial_balance TEXT NOT NULL,
		balance TEXT NOT NULL,
		start_date TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_wallets_owner
		ON wallets(owner_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		wallet_id TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL,
		date TEXT NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	-- Statement range scans (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_owner_wallet_date
		ON transactions(owner_id, wallet_id, date);

	-- Cross-wallet feed
	CREATE INDEX IF NOT EXISTS idx_transactions_owner_date
		ON transactions(owner_id, date DESC);

	CREATE INDEX IF NOT EXISTS idx_transactions_wallet
		ON transactions(wallet_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// WALLETS (wallet.Store interface)
// =============================================================================

func (s *Store) InsertWallet(ctx context.Context, w wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertWallet(ctx, s.db, w)
}

func (s *Store) insertWallet(ctx context.Context, db dbtx, w wallet.Wallet) error {
	query := `
		INSERT INTO wallets
		(id, owner_id, name, wallet_type, initial_balance, balance, start_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		w.ID,
		w.OwnerID,
		w.Name,
		w.Type,
		w.InitialBalance.String(),
		w.Balance.String(),
		w.StartDate.UTC().Format(time.RFC3339),
		w.CreatedAt.UTC().Format(createdAtLayout),
		w.UpdatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}

func (s *Store) GetWallet(ctx context.Context, id wallet.WalletID, owner wallet.OwnerID) (wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getWallet(ctx, s.db, id, owner)
}

func (s *Store) getWallet(ctx context.Context, db dbtx, id wallet.WalletID, owner wallet.OwnerID) (wallet.Wallet, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, wallet_type, initial_balance, balance, start_date, created_at, updated_at
		FROM wallets
		WHERE id = ? AND owner_id = ?
	`, id, owner)

	w, err := scanWallet(row)
	if errors.Is(err, sql.ErrNoRows) {
		// Absent and foreign-owned are the same answer.
		return wallet.Wallet{}, wallet.ErrWalletNotFound
	}
	return w, err
}

func (s *Store) ListWallets(ctx context.Context, owner wallet.OwnerID) ([]wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listWallets(ctx, s.db, owner)
}

func (s *Store) listWallets(ctx context.Context, db dbtx, owner wallet.OwnerID) ([]wallet.Wallet, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, owner_id, name, wallet_type, initial_balance, balance, start_date, created_at, updated_at
		FROM wallets
		WHERE owner_id = ?
		ORDER BY created_at DESC
	`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []wallet.Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func (s *Store) UpdateWalletInfo(ctx context.Context, id wallet.WalletID, owner wallet.OwnerID, name string, typ wallet.WalletType) (wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateWalletInfo(ctx, s.db, id, owner, name, typ)
}

func (s *Store) updateWalletInfo(ctx context.Context, db dbtx, id wallet.WalletID, owner wallet.OwnerID, name string, typ wallet.WalletType) (wallet.Wallet, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE wallets SET name = ?, wallet_type = ?, updated_at = ?
		WHERE id = ? AND owner_id = ?
	`, name, typ, time.Now().UTC().Format(createdAtLayout), id, owner)
	if err != nil {
		return wallet.Wallet{}, fmt.Errorf("failed to update wallet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wallet.Wallet{}, wallet.ErrWalletNotFound
	}
	return s.getWallet(ctx, db, id, owner)
}

func (s *Store) AdjustBalance(ctx context.Context, id wallet.WalletID, owner wallet.OwnerID, delta wallet.Amount) (wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adjustBalance(ctx, s.db, id, owner, delta)
}

// adjustBalance applies delta if the result stays non-negative. The write is
// a compare-and-swap on the previously read balance: if another writer got
// in between, the swap misses and the conflict surfaces instead of silently
// committing a stale computation.
func (s *Store) adjustBalance(ctx context.Context, db dbtx, id wallet.WalletID, owner wallet.OwnerID, delta wallet.Amount) (wallet.Wallet, error) {
	w, err := s.getWallet(ctx, db, id, owner)
	if err != nil {
		return wallet.Wallet{}, err
	}

	newBalance := w.Balance.Add(delta)
	if newBalance.IsNegative() {
		return wallet.Wallet{}, wallet.ErrInsufficientBalance
	}

	res, err := db.ExecContext(ctx, `
		UPDATE wallets SET balance = ?, updated_at = ?
		WHERE id = ? AND owner_id = ? AND balance = ?
	`, newBalance.String(), time.Now().UTC().Format(createdAtLayout), id, owner, w.Balance.String())
	if err != nil {
		return wallet.Wallet{}, fmt.Errorf("failed to adjust balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wallet.Wallet{}, fmt.Errorf("failed to adjust balance: wallet %s modified concurrently", id)
	}

	w.Balance = newBalance
	return w, nil
}

func (s *Store) DeleteWallet(ctx context.Context, id wallet.WalletID, owner wallet.OwnerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteWallet(ctx, s.db, id, owner)
}

func (s *Store) deleteWallet(ctx context.Context, db dbtx, id wallet.WalletID, owner wallet.OwnerID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM wallets WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wallet.ErrWalletNotFound
	}
	return nil
}

// =============================================================================
// TRANSACTIONS (wallet.Store interface)
// =============================================================================

func (s *Store) InsertTransaction(ctx context.Context, tx wallet.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertTransaction(ctx, s.db, tx)
}

func (s *Store) insertTransaction(ctx context.Context, db dbtx, tx wallet.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, owner_id, wallet_id, tx_type, amount, category, date, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := db.ExecContext(ctx, query,
		tx.ID,
		tx.OwnerID,
		tx.WalletID,
		tx.Type,
		tx.Amount.String(),
		tx.Category,
		tx.Date.UTC().Format(time.RFC3339),
		nullString(tx.Note),
		tx.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id wallet.TransactionID, owner wallet.OwnerID) (wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getTransaction(ctx, s.db, id, owner)
}

func (s *Store) getTransaction(ctx context.Context, db dbtx, id wallet.TransactionID, owner wallet.OwnerID) (wallet.Transaction, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, owner_id, wallet_id, tx_type, amount, category, date, note, created_at
		FROM transactions
		WHERE id = ? AND owner_id = ?
	`, id, owner)

	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return wallet.Transaction{}, wallet.ErrTransactionNotFound
	}
	return tx, err
}

func (s *Store) DeleteTransaction(ctx context.Context, id wallet.TransactionID, owner wallet.OwnerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteTransaction(ctx, s.db, id, owner)
}

func (s *Store) deleteTransaction(ctx context.Context, db dbtx, id wallet.TransactionID, owner wallet.OwnerID) error {
	res, err := db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return wallet.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) DeleteWalletTransactions(ctx context.Context, walletID wallet.WalletID, owner wallet.OwnerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteWalletTransactions(ctx, s.db, walletID, owner)
}

func (s *Store) deleteWalletTransactions(ctx context.Context, db dbtx, walletID wallet.WalletID, owner wallet.OwnerID) error {
	_, err := db.ExecContext(ctx, `DELETE FROM transactions WHERE wallet_id = ? AND owner_id = ?`, walletID, owner)
	if err != nil {
		return fmt.Errorf("failed to delete wallet transactions: %w", err)
	}
	return nil
}

func (s *Store) WalletTransactionsInRange(ctx context.Context, walletID wallet.WalletID, owner wallet.OwnerID, from, to time.Time) ([]wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.walletTransactionsInRange(ctx, s.db, walletID, owner, from, to)
}

func (s *Store) walletTransactionsInRange(ctx context.Context, db dbtx, walletID wallet.WalletID, owner wallet.OwnerID, from, to time.Time) ([]wallet.Transaction, error) {
	query := `
		SELECT id, owner_id, wallet_id, tx_type, amount, category, date, note, created_at
		FROM transactions
		WHERE owner_id = ? AND wallet_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC, created_at ASC
	`
	return s.queryTransactions(ctx, db, query, owner, walletID,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
}

func (s *Store) WalletTransactionsBefore(ctx context.Context, walletID wallet.WalletID, owner wallet.OwnerID, cutoff time.Time) ([]wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.walletTransactionsBefore(ctx, s.db, walletID, owner, cutoff)
}

func (s *Store) walletTransactionsBefore(ctx context.Context, db dbtx, walletID wallet.WalletID, owner wallet.OwnerID, cutoff time.Time) ([]wallet.Transaction, error) {
	query := `
		SELECT id, owner_id, wallet_id, tx_type, amount, category, date, note, created_at
		FROM transactions
		WHERE owner_id = ? AND wallet_id = ? AND date < ?
	`
	return s.queryTransactions(ctx, db, query, owner, walletID, cutoff.UTC().Format(time.RFC3339))
}

func (s *Store) OwnerTransactions(ctx context.Context, owner wallet.OwnerID, from, to *time.Time) ([]wallet.FeedEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerTransactions(ctx, s.db, owner, from, to)
}

func (s *Store) ownerTransactions(ctx context.Context, db dbtx, owner wallet.OwnerID, from, to *time.Time) ([]wallet.FeedEntry, error) {
	query := `
		SELECT t.id, t.owner_id, t.wallet_id, t.tx_type, t.amount, t.category, t.date, t.note, t.created_at,
		       COALESCE(w.name, ''), COALESCE(w.wallet_type, '')
		FROM transactions t
		LEFT JOIN wallets w ON w.id = t.wallet_id
		WHERE t.owner_id = ?
	`
	args := []any{owner}
	if from != nil {
		query += " AND t.date >= ?"
		args = append(args, from.UTC().Format(time.RFC3339))
	}
	if to != nil {
		query += " AND t.date <= ?"
		args = append(args, to.UTC().Format(time.RFC3339))
	}
	query += " ORDER BY t.date DESC, t.created_at DESC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var entries []wallet.FeedEntry
	for rows.Next() {
		var (
			entry      wallet.FeedEntry
			amount     string
			date       string
			note       sql.NullString
			createdAt  string
			walletName string
			walletType string
		)
		err := rows.Scan(
			&entry.ID, &entry.OwnerID, &entry.WalletID, &entry.Type,
			&amount, &entry.Category, &date, &note, &createdAt,
			&walletName, &walletType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		entry.Amount = wallet.MustParseAmount(amount)
		entry.Date, _ = time.Parse(time.RFC3339, date)
		entry.Note = note.String
		entry.CreatedAt, _ = time.Parse(createdAtLayout, createdAt)
		entry.WalletName = walletName
		entry.WalletType = wallet.WalletType(walletType)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) queryTransactions(ctx context.Context, db dbtx, query string, args ...any) ([]wallet.Transaction, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []wallet.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// =============================================================================
// TRANSACTIONAL STORE (wallet.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store wallet.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore routes every call through the transaction handle. It does not
// touch the parent mutex; WithTx already holds it for the whole unit.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) InsertWallet(ctx context.Context, w wallet.Wallet) error {
	return ts.parent.insertWallet(ctx, ts.tx, w)
}

func (ts *txStore) GetWallet(ctx context.Context, id wallet.WalletID, owner wallet.OwnerID) (wallet.Wallet, error) {
	return ts.parent.getWallet(ctx, ts.tx, id, owner)
}

func (ts *txStore) ListWallets(ctx context.Context, owner wallet.OwnerID) ([]wallet.Wallet, error) {
	return ts.parent.listWallets(ctx, ts.tx, owner)
}

func (ts *txStore) UpdateWalletInfo(ctx context.Context, id wallet.WalletID, owner wallet.OwnerID, name string, typ wallet.WalletType) (wallet.Wallet, error) {
	return ts.parent.updateWalletInfo(ctx, ts.tx, id, owner, name, typ)
}

func (ts *txStore) AdjustBalance(ctx context.Context, id wallet.WalletID, owner wallet.OwnerID, delta wallet.Amount) (wallet.Wallet, error) {
	return ts.parent.adjustBalance(ctx, ts.tx, id, owner, delta)
}

func (ts *txStore) DeleteWallet(ctx context.Context, id wallet.WalletID, owner wallet.OwnerID) error {
	return ts.parent.deleteWallet(ctx, ts.tx, id, owner)
}

func (ts *txStore) InsertTransaction(ctx context.Context, tx wallet.Transaction) error {
	return ts.parent.insertTransaction(ctx, ts.tx, tx)
}

func (ts *txStore) GetTransaction(ctx context.Context, id wallet.TransactionID, owner wallet.OwnerID) (wallet.Transaction, error) {
	return ts.parent.getTransaction(ctx, ts.tx, id, owner)
}

func (ts *txStore) DeleteTransaction(ctx context.Context, id wallet.TransactionID, owner wallet.OwnerID) error {
	return ts.parent.deleteTransaction(ctx, ts.tx, id, owner)
}

func (ts *txStore) DeleteWalletTransactions(ctx context.Context, walletID wallet.WalletID, owner wallet.OwnerID) error {
	return ts.parent.deleteWalletTransactions(ctx, ts.tx, walletID, owner)
}

func (ts *txStore) WalletTransactionsInRange(ctx context.Context, walletID wallet.WalletID, owner wallet.OwnerID, from, to time.Time) ([]wallet.Transaction, error) {
	return ts.parent.walletTransactionsInRange(ctx, ts.tx, walletID, owner, from, to)
}

func (ts *txStore) WalletTransactionsBefore(ctx context.Context, walletID wallet.WalletID, owner wallet.OwnerID, cutoff time.Time) ([]wallet.Transaction, error) {
	return ts.parent.walletTransactionsBefore(ctx, ts.tx, walletID, owner, cutoff)
}

func (ts *txStore) OwnerTransactions(ctx context.Context, owner wallet.OwnerID, from, to *time.Time) ([]wallet.FeedEntry, error) {
	return ts.parent.ownerTransactions(ctx, ts.tx, owner, from, to)
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanWallet(row scanner) (wallet.Wallet, error) {
	var (
		w              wallet.Wallet
		initialBalance string
		balance        string
		startDate      string
		createdAt      string
		updatedAt      string
	)
	err := row.Scan(
		&w.ID, &w.OwnerID, &w.Name, &w.Type,
		&initialBalance, &balance, &startDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return w, err
	}

	w.InitialBalance = wallet.MustParseAmount(initialBalance)
	w.Balance = wallet.MustParseAmount(balance)
	w.StartDate, _ = time.Parse(time.RFC3339, startDate)
	w.CreatedAt, _ = time.Parse(createdAtLayout, createdAt)
	w.UpdatedAt, _ = time.Parse(createdAtLayout, updatedAt)
	return w, nil
}

func scanTransaction(row scanner) (wallet.Transaction, error) {
	var (
		tx        wallet.Transaction
		amount    string
		date      string
		note      sql.NullString
		createdAt string
	)
	err := row.Scan(
		&tx.ID, &tx.OwnerID, &tx.WalletID, &tx.Type,
		&amount, &tx.Category, &date, &note, &createdAt,
	)
	if err != nil {
		return tx, err
	}

	tx.Amount = wallet.MustParseAmount(amount)
	tx.Date, _ = time.Parse(time.RFC3339, date)
	tx.Note = note.String
	tx.CreatedAt, _ = time.Parse(createdAtLayout, createdAt)
	return tx, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
