package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wallet-engine/wallet"
)

// =============================================================================
// HELPERS
// =============================================================================

const (
	ownerAlice = wallet.OwnerID("owner-alice")
	ownerBob   = wallet.OwnerID("owner-bob")
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testWallet(owner wallet.OwnerID, balance string) wallet.Wallet {
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	return wallet.Wallet{
		ID:             wallet.WalletID(uuid.NewString()),
		OwnerID:        owner,
		Name:           "Checking",
		Type:           wallet.WalletBank,
		InitialBalance: wallet.MustParseAmount(balance),
		Balance:        wallet.MustParseAmount(balance),
		StartDate:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func testTx(w wallet.Wallet, typ wallet.TransactionType, amount string, date, createdAt time.Time) wallet.Transaction {
	return wallet.Transaction{
		ID:        wallet.TransactionID(uuid.NewString()),
		OwnerID:   w.OwnerID,
		WalletID:  w.ID,
		Type:      typ,
		Amount:    wallet.MustParseAmount(amount),
		Category:  "misc",
		Date:      date,
		Note:      "note",
		CreatedAt: createdAt,
	}
}

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// WALLET PERSISTENCE
// =============================================================================

func TestWalletRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "1234.56")

	require.NoError(t, s.InsertWallet(ctx, w))

	got, err := s.GetWallet(ctx, w.ID, ownerAlice)
	require.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
	assert.Equal(t, "Checking", got.Name)
	assert.Equal(t, wallet.WalletBank, got.Type)
	assert.Equal(t, "1234.56", got.Balance.String(), "decimal text storage must not lose precision")
	assert.True(t, got.StartDate.Equal(w.StartDate))
	assert.True(t, got.CreatedAt.Equal(w.CreatedAt))
}

func TestGetWallet_ForeignOwner_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	_, err := s.GetWallet(ctx, w.ID, ownerBob)

	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestListWallets_OwnerScopedNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	older := testWallet(ownerAlice, "1")
	newer := testWallet(ownerAlice, "2")
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	foreign := testWallet(ownerBob, "3")

	require.NoError(t, s.InsertWallet(ctx, older))
	require.NoError(t, s.InsertWallet(ctx, newer))
	require.NoError(t, s.InsertWallet(ctx, foreign))

	wallets, err := s.ListWallets(ctx, ownerAlice)
	require.NoError(t, err)
	require.Len(t, wallets, 2)
	assert.Equal(t, newer.ID, wallets[0].ID)
	assert.Equal(t, older.ID, wallets[1].ID)
}

func TestUpdateWalletInfo_LeavesBalanceAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "500")
	require.NoError(t, s.InsertWallet(ctx, w))

	updated, err := s.UpdateWalletInfo(ctx, w.ID, ownerAlice, "Renamed", wallet.WalletEWallet)

	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, wallet.WalletEWallet, updated.Type)
	assert.Equal(t, "500", updated.Balance.String())
}

// =============================================================================
// BALANCE ADJUSTMENT
// =============================================================================

func TestAdjustBalance_AppliesAndPersists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	updated, err := s.AdjustBalance(ctx, w.ID, ownerAlice, wallet.MustParseAmount("-40.25"))
	require.NoError(t, err)
	assert.Equal(t, "59.75", updated.Balance.String())

	got, err := s.GetWallet(ctx, w.ID, ownerAlice)
	require.NoError(t, err)
	assert.Equal(t, "59.75", got.Balance.String())
}

func TestAdjustBalance_NegativeResult_Rejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	_, err := s.AdjustBalance(ctx, w.ID, ownerAlice, wallet.MustParseAmount("-100.01"))

	require.ErrorIs(t, err, wallet.ErrInsufficientBalance)

	got, err := s.GetWallet(ctx, w.ID, ownerAlice)
	require.NoError(t, err)
	assert.Equal(t, "100", got.Balance.String(), "rejected adjustment must not write")
}

func TestAdjustBalance_ToExactlyZero_Allowed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	updated, err := s.AdjustBalance(ctx, w.ID, ownerAlice, wallet.MustParseAmount("-100"))

	require.NoError(t, err)
	assert.True(t, updated.Balance.IsZero())
}

func TestAdjustBalance_ForeignOwner_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	_, err := s.AdjustBalance(ctx, w.ID, ownerBob, wallet.MustParseAmount("10"))

	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

// =============================================================================
// TRANSACTION PERSISTENCE AND QUERIES
// =============================================================================

func TestTransactionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	tx := testTx(w, wallet.TxExpense, "12.50", day(5), day(5).Add(9*time.Hour))
	require.NoError(t, s.InsertTransaction(ctx, tx))

	got, err := s.GetTransaction(ctx, tx.ID, ownerAlice)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, wallet.TxExpense, got.Type)
	assert.Equal(t, "12.5", got.Amount.String())
	assert.Equal(t, "note", got.Note)
	assert.True(t, got.Date.Equal(tx.Date))
	assert.True(t, got.CreatedAt.Equal(tx.CreatedAt))
}

func TestTransactionRoundTrip_EmptyNote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	tx := testTx(w, wallet.TxIncome, "1", day(5), day(5))
	tx.Note = ""
	require.NoError(t, s.InsertTransaction(ctx, tx))

	got, err := s.GetTransaction(ctx, tx.ID, ownerAlice)
	require.NoError(t, err)
	assert.Equal(t, "", got.Note)
}

func TestWalletTransactionsInRange_OrderAndBounds(t *testing.T) {
	// GIVEN: Transactions around and inside the window, two sharing a date
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	before := testTx(w, wallet.TxIncome, "1", day(1), day(1))
	sameDayLate := testTx(w, wallet.TxIncome, "2", day(10), day(10).Add(15*time.Hour))
	sameDayEarly := testTx(w, wallet.TxIncome, "3", day(10), day(10).Add(8*time.Hour))
	last := testTx(w, wallet.TxExpense, "4", day(20), day(20))
	after := testTx(w, wallet.TxIncome, "5", day(25), day(25))

	for _, tx := range []wallet.Transaction{before, sameDayLate, sameDayEarly, last, after} {
		require.NoError(t, s.InsertTransaction(ctx, tx))
	}

	// WHEN: Querying [day 5, day 20]
	got, err := s.WalletTransactionsInRange(ctx, w.ID, ownerAlice, day(5), day(20))

	// THEN: Inclusive bounds, ascending (date, created_at)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, sameDayEarly.ID, got[0].ID)
	assert.Equal(t, sameDayLate.ID, got[1].ID)
	assert.Equal(t, last.ID, got[2].ID)
}

func TestWalletTransactionsBefore_StrictCutoff(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	prior := testTx(w, wallet.TxIncome, "1", day(3), day(3))
	atCutoff := testTx(w, wallet.TxIncome, "2", day(10), day(10))
	require.NoError(t, s.InsertTransaction(ctx, prior))
	require.NoError(t, s.InsertTransaction(ctx, atCutoff))

	got, err := s.WalletTransactionsBefore(ctx, w.ID, ownerAlice, day(10))

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, prior.ID, got[0].ID)
}

func TestOwnerTransactions_JoinedDescendingFeed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	checking := testWallet(ownerAlice, "100")
	pocket := testWallet(ownerAlice, "50")
	pocket.Name = "Pocket"
	pocket.Type = wallet.WalletCash
	require.NoError(t, s.InsertWallet(ctx, checking))
	require.NoError(t, s.InsertWallet(ctx, pocket))

	older := testTx(checking, wallet.TxIncome, "10", day(2), day(2))
	newer := testTx(pocket, wallet.TxExpense, "5", day(8), day(8))
	foreignWallet := testWallet(ownerBob, "9")
	require.NoError(t, s.InsertWallet(ctx, foreignWallet))
	require.NoError(t, s.InsertTransaction(ctx, testTx(foreignWallet, wallet.TxIncome, "99", day(5), day(5))))
	require.NoError(t, s.InsertTransaction(ctx, older))
	require.NoError(t, s.InsertTransaction(ctx, newer))

	entries, err := s.OwnerTransactions(ctx, ownerAlice, nil, nil)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer.ID, entries[0].ID)
	assert.Equal(t, "Pocket", entries[0].WalletName)
	assert.Equal(t, wallet.WalletCash, entries[0].WalletType)
	assert.Equal(t, older.ID, entries[1].ID)
	assert.Equal(t, "Checking", entries[1].WalletName)
}

func TestOwnerTransactions_InclusiveBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	inside := testTx(w, wallet.TxIncome, "1", day(10), day(10))
	require.NoError(t, s.InsertTransaction(ctx, testTx(w, wallet.TxIncome, "2", day(1), day(1))))
	require.NoError(t, s.InsertTransaction(ctx, inside))
	require.NoError(t, s.InsertTransaction(ctx, testTx(w, wallet.TxIncome, "3", day(20), day(20))))

	from, to := day(10), day(10)
	entries, err := s.OwnerTransactions(ctx, ownerAlice, &from, &to)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, inside.ID, entries[0].ID)
}

func TestDeleteTransaction_ForeignOwner_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))
	tx := testTx(w, wallet.TxIncome, "1", day(1), day(1))
	require.NoError(t, s.InsertTransaction(ctx, tx))

	err := s.DeleteTransaction(ctx, tx.ID, ownerBob)

	assert.ErrorIs(t, err, wallet.ErrTransactionNotFound)
}

func TestDeleteWalletTransactions_RemovesOnlyThatWallet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := testWallet(ownerAlice, "100")
	b := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, a))
	require.NoError(t, s.InsertWallet(ctx, b))

	doomed := testTx(a, wallet.TxIncome, "1", day(1), day(1))
	kept := testTx(b, wallet.TxIncome, "2", day(2), day(2))
	require.NoError(t, s.InsertTransaction(ctx, doomed))
	require.NoError(t, s.InsertTransaction(ctx, kept))

	require.NoError(t, s.DeleteWalletTransactions(ctx, a.ID, ownerAlice))

	_, err := s.GetTransaction(ctx, doomed.ID, ownerAlice)
	assert.ErrorIs(t, err, wallet.ErrTransactionNotFound)
	_, err = s.GetTransaction(ctx, kept.ID, ownerAlice)
	assert.NoError(t, err)
}

// =============================================================================
// ATOMIC UNITS
// =============================================================================

func TestWithTx_CommitsAllWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	tx := testTx(w, wallet.TxExpense, "30", day(5), day(5))
	err := s.WithTx(ctx, func(st wallet.Store) error {
		if _, err := st.AdjustBalance(ctx, w.ID, ownerAlice, wallet.MustParseAmount("-30")); err != nil {
			return err
		}
		return st.InsertTransaction(ctx, tx)
	})
	require.NoError(t, err)

	got, err := s.GetWallet(ctx, w.ID, ownerAlice)
	require.NoError(t, err)
	assert.Equal(t, "70", got.Balance.String())
	_, err = s.GetTransaction(ctx, tx.ID, ownerAlice)
	assert.NoError(t, err)
}

func TestWithTx_RollsBackEveryWriteOnError(t *testing.T) {
	// GIVEN: A unit that adjusts the balance, inserts a row, then fails
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	tx := testTx(w, wallet.TxExpense, "30", day(5), day(5))
	err := s.WithTx(ctx, func(st wallet.Store) error {
		if _, err := st.AdjustBalance(ctx, w.ID, ownerAlice, wallet.MustParseAmount("-30")); err != nil {
			return err
		}
		if err := st.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	// THEN: Neither the balance write nor the row survives
	got, err := s.GetWallet(ctx, w.ID, ownerAlice)
	require.NoError(t, err)
	assert.Equal(t, "100", got.Balance.String())
	_, err = s.GetTransaction(ctx, tx.ID, ownerAlice)
	assert.ErrorIs(t, err, wallet.ErrTransactionNotFound)
}

func TestWithTx_GuardInsideUnit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	w := testWallet(ownerAlice, "100")
	require.NoError(t, s.InsertWallet(ctx, w))

	err := s.WithTx(ctx, func(st wallet.Store) error {
		_, err := st.AdjustBalance(ctx, w.ID, ownerAlice, wallet.MustParseAmount("-150"))
		return err
	})

	assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
}
