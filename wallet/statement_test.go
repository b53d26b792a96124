package wallet_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wallet-engine/wallet"
	"github.com/warp/wallet-engine/wallet/store"
)

// =============================================================================
// HELPERS
// =============================================================================

// seedWallet inserts a wallet directly, bypassing the Ledger, so tests can
// pin StartDate and balances without the service layer in the way.
func seedWallet(t *testing.T, mem *store.TxMemory, owner wallet.OwnerID, initial float64, start time.Time) wallet.Wallet {
	t.Helper()
	w := wallet.Wallet{
		ID:             wallet.WalletID(uuid.NewString()),
		OwnerID:        owner,
		Name:           "Checking",
		Type:           wallet.WalletBank,
		InitialBalance: amount(initial),
		Balance:        amount(initial),
		StartDate:      start,
		CreatedAt:      start,
		UpdatedAt:      start,
	}
	require.NoError(t, mem.InsertWallet(context.Background(), w))
	return w
}

// seedTx inserts a transaction row directly with an explicit creation
// timestamp. It does not touch the wallet balance; statement computation
// never reads it.
func seedTx(t *testing.T, mem *store.TxMemory, w wallet.Wallet, typ wallet.TransactionType, v float64, day, createdAt time.Time) wallet.Transaction {
	t.Helper()
	tx := wallet.Transaction{
		ID:        wallet.TransactionID(uuid.NewString()),
		OwnerID:   w.OwnerID,
		WalletID:  w.ID,
		Type:      typ,
		Amount:    amount(v),
		Category:  "misc",
		Date:      day,
		CreatedAt: createdAt,
	}
	require.NoError(t, mem.InsertTransaction(context.Background(), tx))
	return tx
}

func at(day time.Time, hour, min, sec int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, sec, 0, time.UTC)
}

// =============================================================================
// OPENING BALANCE
// =============================================================================

func TestStatement_OpeningAtWalletStart_IsInitialBalance(t *testing.T) {
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	start := date(2024, time.January, 1)
	w := seedWallet(t, mem, ownerAlice, 1_000_000, start)
	seedTx(t, mem, w, wallet.TxIncome, 500_000, date(2024, time.January, 5), at(start, 9, 0, 0))

	st, err := calc.Statement(context.Background(), w.ID, ownerAlice, start, date(2024, time.January, 31))

	require.NoError(t, err)
	assert.Equal(t, "1000000", st.OpeningBalance.String())
}

func TestStatement_OpeningBeforeWalletStart_IsInitialBalance(t *testing.T) {
	// A window starting before the wallet existed has nothing to replay.
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	w := seedWallet(t, mem, ownerAlice, 800, date(2024, time.March, 15))

	st, err := calc.Statement(context.Background(), w.ID, ownerAlice, date(2024, time.January, 1), date(2024, time.December, 31))

	require.NoError(t, err)
	assert.Equal(t, "800", st.OpeningBalance.String())
}

func TestStatement_OpeningAfterWalletStart_ReplaysPriorLedger(t *testing.T) {
	// GIVEN: Activity before and at the window boundary
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	start := date(2024, time.January, 1)
	w := seedWallet(t, mem, ownerAlice, 1000, start)
	seedTx(t, mem, w, wallet.TxIncome, 300, date(2024, time.January, 3), at(start, 9, 0, 0))
	seedTx(t, mem, w, wallet.TxExpense, 120, date(2024, time.January, 5), at(start, 10, 0, 0))
	// Dated exactly at the window start: belongs IN the window, not the opening.
	boundary := seedTx(t, mem, w, wallet.TxIncome, 50, date(2024, time.January, 10), at(start, 11, 0, 0))

	// WHEN: Window starts mid-history
	st, err := calc.Statement(context.Background(), w.ID, ownerAlice, date(2024, time.January, 10), date(2024, time.January, 31))

	// THEN: Opening = 1000 + 300 - 120; the boundary transaction is in range
	require.NoError(t, err)
	assert.Equal(t, "1180", st.OpeningBalance.String())
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, boundary.ID, st.Transactions[0].ID)
	assert.Equal(t, "1230", st.ClosingBalance.String())
}

func TestStatement_TransactionPredatingWalletStart_CountsInReplay(t *testing.T) {
	// Backdated entries are part of the ledger like any other; the replay
	// sums them as stored.
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	w := seedWallet(t, mem, ownerAlice, 1000, date(2024, time.June, 1))
	seedTx(t, mem, w, wallet.TxIncome, 200, date(2024, time.May, 20), date(2024, time.June, 2))

	st, err := calc.Statement(context.Background(), w.ID, ownerAlice, date(2024, time.July, 1), date(2024, time.July, 31))

	require.NoError(t, err)
	assert.Equal(t, "1200", st.OpeningBalance.String())
}

// =============================================================================
// RUNNING BALANCES AND TOTALS
// =============================================================================

func TestStatement_RunningBalancesAndClosingIdentity(t *testing.T) {
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	start := date(2024, time.January, 1)
	w := seedWallet(t, mem, ownerAlice, 1000, start)
	seedTx(t, mem, w, wallet.TxIncome, 500, date(2024, time.January, 2), at(start, 9, 0, 0))
	seedTx(t, mem, w, wallet.TxExpense, 200, date(2024, time.January, 4), at(start, 10, 0, 0))
	seedTx(t, mem, w, wallet.TxIncome, 75, date(2024, time.January, 6), at(start, 11, 0, 0))

	st, err := calc.Statement(context.Background(), w.ID, ownerAlice, start, date(2024, time.January, 31))

	require.NoError(t, err)
	require.Len(t, st.Transactions, 3)
	assert.Equal(t, "1500", st.Transactions[0].BalanceAfter.String())
	assert.Equal(t, "1300", st.Transactions[1].BalanceAfter.String())
	assert.Equal(t, "1375", st.Transactions[2].BalanceAfter.String())

	assert.Equal(t, "575", st.TotalIncome.String())
	assert.Equal(t, "200", st.TotalExpense.String())

	// closing == opening + income - expense == last line's running balance
	assert.Equal(t, "1375", st.ClosingBalance.String())
	assert.True(t, st.ClosingBalance.Equal(st.Transactions[2].BalanceAfter))
}

func TestStatement_EmptyWindow_ClosingEqualsOpening(t *testing.T) {
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	w := seedWallet(t, mem, ownerAlice, 950, date(2024, time.January, 1))

	st, err := calc.Statement(context.Background(), w.ID, ownerAlice, date(2024, time.February, 1), date(2024, time.February, 28))

	require.NoError(t, err)
	assert.Empty(t, st.Transactions)
	assert.Equal(t, "950", st.OpeningBalance.String())
	assert.Equal(t, "950", st.ClosingBalance.String())
	assert.True(t, st.TotalIncome.IsZero())
	assert.True(t, st.TotalExpense.IsZero())
}

func TestStatement_SameDateOrderedByCreationTime(t *testing.T) {
	// GIVEN: Three same-dated transactions created out of insertion order
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	start := date(2024, time.January, 1)
	day := date(2024, time.January, 15)
	w := seedWallet(t, mem, ownerAlice, 100, start)

	third := seedTx(t, mem, w, wallet.TxIncome, 3, day, at(day, 12, 0, 0))
	first := seedTx(t, mem, w, wallet.TxIncome, 1, day, at(day, 8, 0, 0))
	second := seedTx(t, mem, w, wallet.TxIncome, 2, day, at(day, 10, 0, 0))

	// WHEN
	st, err := calc.Statement(context.Background(), w.ID, ownerAlice, start, date(2024, time.January, 31))

	// THEN: Creation time breaks the tie, so running balances are deterministic
	require.NoError(t, err)
	require.Len(t, st.Transactions, 3)
	assert.Equal(t, first.ID, st.Transactions[0].ID)
	assert.Equal(t, second.ID, st.Transactions[1].ID)
	assert.Equal(t, third.ID, st.Transactions[2].ID)
	assert.Equal(t, "101", st.Transactions[0].BalanceAfter.String())
	assert.Equal(t, "103", st.Transactions[1].BalanceAfter.String())
	assert.Equal(t, "106", st.Transactions[2].BalanceAfter.String())
}

// =============================================================================
// RANGE HANDLING AND ERRORS
// =============================================================================

func TestStatement_DefaultsWindowToWalletStartAndNow(t *testing.T) {
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	start := date(2024, time.January, 1)
	w := seedWallet(t, mem, ownerAlice, 500, start)
	seedTx(t, mem, w, wallet.TxIncome, 100, date(2024, time.February, 1), at(start, 9, 0, 0))

	st, err := calc.Statement(context.Background(), w.ID, ownerAlice, time.Time{}, time.Time{})

	require.NoError(t, err)
	assert.True(t, st.StartDate.Equal(start))
	assert.Equal(t, "500", st.OpeningBalance.String())
	require.Len(t, st.Transactions, 1)
	assert.Equal(t, "600", st.ClosingBalance.String())
}

func TestStatement_StartAfterEnd_InvalidRange(t *testing.T) {
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	w := seedWallet(t, mem, ownerAlice, 500, date(2024, time.January, 1))

	_, err := calc.Statement(context.Background(), w.ID, ownerAlice, date(2024, time.March, 1), date(2024, time.February, 1))

	assert.ErrorIs(t, err, wallet.ErrInvalidRange)
}

func TestStatement_ForeignWallet_NotFound(t *testing.T) {
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)
	w := seedWallet(t, mem, ownerAlice, 500, date(2024, time.January, 1))

	_, err := calc.Statement(context.Background(), w.ID, ownerBob, time.Time{}, time.Time{})

	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestStatement_MalformedWalletID_InvalidReference(t *testing.T) {
	mem := store.NewTxMemory()
	calc := wallet.NewCalculator(mem)

	_, err := calc.Statement(context.Background(), "bogus", ownerAlice, time.Time{}, time.Time{})

	assert.ErrorIs(t, err, wallet.ErrInvalidReference)
}

// =============================================================================
// END TO END
// =============================================================================

func TestStatement_FullLifecycleScenario(t *testing.T) {
	// A month in the life of one wallet, driven through the Ledger so every
	// number is produced by the real mutation path.
	mem := store.NewTxMemory()
	ledger := wallet.NewLedger(mem)
	calc := wallet.NewCalculator(mem)
	ctx := context.Background()

	w, err := ledger.CreateWallet(ctx, ownerAlice, wallet.CreateWalletInput{
		Name:           "Savings",
		Type:           wallet.WalletBank,
		InitialBalance: amount(1_000_000),
		StartDate:      date(2024, time.January, 1),
	})
	require.NoError(t, err)

	_, err = ledger.CreateTransaction(ctx, ownerAlice, income(w.ID, 500_000, date(2024, time.January, 5)))
	require.NoError(t, err)

	// An over-budget expense bounces and must leave no trace.
	_, err = ledger.CreateTransaction(ctx, ownerAlice, expense(w.ID, 2_000_000, date(2024, time.January, 8)))
	require.ErrorIs(t, err, wallet.ErrInsufficientBalance)

	spent, err := ledger.CreateTransaction(ctx, ownerAlice, expense(w.ID, 300_000, date(2024, time.January, 10)))
	require.NoError(t, err)

	st, err := calc.Statement(ctx, w.ID, ownerAlice, date(2024, time.January, 1), date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, "1000000", st.OpeningBalance.String())
	assert.Equal(t, "500000", st.TotalIncome.String())
	assert.Equal(t, "300000", st.TotalExpense.String())
	assert.Equal(t, "1200000", st.ClosingBalance.String())
	require.Len(t, st.Transactions, 2)
	assert.Equal(t, "1500000", st.Transactions[0].BalanceAfter.String())
	assert.Equal(t, "1200000", st.Transactions[1].BalanceAfter.String())

	// Deleting the expense restores the balance and the statement follows.
	require.NoError(t, ledger.DeleteTransaction(ctx, spent.ID, ownerAlice))

	current, err := ledger.GetWallet(ctx, w.ID, ownerAlice)
	require.NoError(t, err)
	assert.Equal(t, "1500000", current.Balance.String())

	st, err = calc.Statement(ctx, w.ID, ownerAlice, date(2024, time.January, 6), date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, "1500000", st.OpeningBalance.String())
	assert.Empty(t, st.Transactions)
	assert.Equal(t, "1500000", st.ClosingBalance.String())

	_, err = calc.Statement(ctx, w.ID, ownerAlice, date(2024, time.February, 1), date(2024, time.January, 1))
	assert.ErrorIs(t, err, wallet.ErrInvalidRange)
}
