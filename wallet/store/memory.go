// Package store provides wallet.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/wallet-engine/wallet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	wallets      map[wallet.WalletID]wallet.Wallet
	transactions map[wallet.TransactionID]wallet.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		wallets:      make(map[wallet.WalletID]wallet.Wallet),
		transactions: make(map[wallet.TransactionID]wallet.Transaction),
	}
}

// =============================================================================
// WALLETS
// =============================================================================

func (m *Memory) InsertWallet(_ context.Context, w wallet.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[w.ID] = w
	return nil
}

func (m *Memory) GetWallet(_ context.Context, id wallet.WalletID, owner wallet.OwnerID) (wallet.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getWalletLocked(id, owner)
}

func (m *Memory) getWalletLocked(id wallet.WalletID, owner wallet.OwnerID) (wallet.Wallet, error) {
	w, ok := m.wallets[id]
	if !ok || w.OwnerID != owner {
		// Foreign-owned looks exactly like missing.
		return wallet.Wallet{}, wallet.ErrWalletNotFound
	}
	return w, nil
}

func (m *Memory) ListWallets(_ context.Context, owner wallet.OwnerID) ([]wallet.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []wallet.Wallet
	for _, w := range m.wallets {
		if w.OwnerID == owner {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) UpdateWalletInfo(_ context.Context, id wallet.WalletID, owner wallet.OwnerID, name string, typ wallet.WalletType) (wallet.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, err := m.getWalletLocked(id, owner)
	if err != nil {
		return wallet.Wallet{}, err
	}
	w.Name = name
	w.Type = typ
	w.UpdatedAt = time.Now().UTC()
	m.wallets[id] = w
	return w, nil
}

func (m *Memory) AdjustBalance(_ context.Context, id wallet.WalletID, owner wallet.OwnerID, delta wallet.Amount) (wallet.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, err := m.getWalletLocked(id, owner)
	if err != nil {
		return wallet.Wallet{}, err
	}

	newBalance := w.Balance.Add(delta)
	if newBalance.IsNegative() {
		return wallet.Wallet{}, wallet.ErrInsufficientBalance
	}

	w.Balance = newBalance
	w.UpdatedAt = time.Now().UTC()
	m.wallets[id] = w
	return w, nil
}

func (m *Memory) DeleteWallet(_ context.Context, id wallet.WalletID, owner wallet.OwnerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.getWalletLocked(id, owner); err != nil {
		return err
	}
	delete(m.wallets, id)
	return nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (m *Memory) InsertTransaction(_ context.Context, tx wallet.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx
	return nil
}

func (m *Memory) GetTransaction(_ context.Context, id wallet.TransactionID, owner wallet.OwnerID) (wallet.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tx, ok := m.transactions[id]
	if !ok || tx.OwnerID != owner {
		return wallet.Transaction{}, wallet.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id wallet.TransactionID, owner wallet.OwnerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.transactions[id]
	if !ok || tx.OwnerID != owner {
		return wallet.ErrTransactionNotFound
	}
	delete(m.transactions, tx.ID)
	return nil
}

func (m *Memory) DeleteWalletTransactions(_ context.Context, walletID wallet.WalletID, owner wallet.OwnerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, tx := range m.transactions {
		if tx.WalletID == walletID && tx.OwnerID == owner {
			delete(m.transactions, id)
		}
	}
	return nil
}

func (m *Memory) WalletTransactionsInRange(_ context.Context, walletID wallet.WalletID, owner wallet.OwnerID, from, to time.Time) ([]wallet.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []wallet.Transaction
	for _, tx := range m.transactions {
		if tx.WalletID != walletID || tx.OwnerID != owner {
			continue
		}
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		result = append(result, tx)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) WalletTransactionsBefore(_ context.Context, walletID wallet.WalletID, owner wallet.OwnerID, cutoff time.Time) ([]wallet.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []wallet.Transaction
	for _, tx := range m.transactions {
		if tx.WalletID == walletID && tx.OwnerID == owner && tx.Date.Before(cutoff) {
			result = append(result, tx)
		}
	}
	return result, nil
}

func (m *Memory) OwnerTransactions(_ context.Context, owner wallet.OwnerID, from, to *time.Time) ([]wallet.FeedEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []wallet.FeedEntry
	for _, tx := range m.transactions {
		if tx.OwnerID != owner {
			continue
		}
		if from != nil && tx.Date.Before(*from) {
			continue
		}
		if to != nil && tx.Date.After(*to) {
			continue
		}
		entry := wallet.FeedEntry{Transaction: tx}
		if w, ok := m.wallets[tx.WalletID]; ok {
			entry.WalletName = w.Name
			entry.WalletType = w.Type
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.After(result[j].Date)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn against the store, restoring a snapshot if fn fails.
// Units are serialized, which matches the single-writer behavior of the
// production SQLite store.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(wallet.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	walletsCopy := make(map[wallet.WalletID]wallet.Wallet, len(tm.wallets))
	for k, v := range tm.wallets {
		walletsCopy[k] = v
	}
	txsCopy := make(map[wallet.TransactionID]wallet.Transaction, len(tm.transactions))
	for k, v := range tm.transactions {
		txsCopy[k] = v
	}
	return memorySnapshot{wallets: walletsCopy, transactions: txsCopy}
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.wallets = s.wallets
	tm.transactions = s.transactions
}

type memorySnapshot struct {
	wallets      map[wallet.WalletID]wallet.Wallet
	transactions map[wallet.TransactionID]wallet.Transaction
}
