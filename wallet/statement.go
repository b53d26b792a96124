/*
statement.go - Statement computation (opening/closing/running balances)

PURPOSE:
  Reconstructs a wallet statement for a date window: the opening balance
  as of the window start, the chronological in-window transactions each
  annotated with the balance immediately after it, and aggregate totals.

OPENING BALANCE:
  If the window starts at or before the wallet's start date, the opening
  balance is simply the initial balance - no replay needed. Otherwise it
  is the initial balance plus the signed sum of every transaction dated
  strictly before the window start. Addition is commutative, so the replay
  sum has no ordering dependency.

  Transactions dated before the wallet's start date are a boundary anomaly
  not expected in normal use; they are included in the replay sum exactly
  as stored and never crash the calculation.

RUNNING BALANCE:
  A fold over the in-window transactions ordered ascending by
  (date, created-at). The creation timestamp tie-break makes the running
  balance deterministic for same-dated transactions.

CLOSING IDENTITY:
  closing == opening + totalIncome - totalExpense, and equals the last
  transaction's BalanceAfter (or the opening balance for an empty window).

This calculator never mutates stored state. It is a projection over the
store as of call time; there is no caching.

SEE ALSO:
  - store.go: Range and replay queries
  - feed.go: Cross-wallet listing without balance computation
*/
package wallet

import (
	"context"
	"time"
)

// =============================================================================
// STATEMENT - Calculator output shape
// =============================================================================

// StatementLine is a transaction annotated with the wallet balance
// immediately after it.
type StatementLine struct {
	Transaction
	BalanceAfter Amount
}

// Statement is the full output consumed by the presentation layer.
type Statement struct {
	WalletID       WalletID
	WalletName     string
	StartDate      time.Time
	EndDate        time.Time
	OpeningBalance Amount
	TotalIncome    Amount
	TotalExpense   Amount
	ClosingBalance Amount
	Transactions   []StatementLine
}

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes wallet statements. Read-only.
type Calculator struct {
	Store Store
	now   func() time.Time
}

func NewCalculator(store Store) *Calculator {
	return &Calculator{Store: store, now: time.Now}
}

// Statement computes the statement for [start, end]. A zero start defaults
// to the wallet's start date; a zero end defaults to now.
func (c *Calculator) Statement(ctx context.Context, walletID WalletID, owner OwnerID, start, end time.Time) (Statement, error) {
	if err := checkReference("walletId", string(walletID)); err != nil {
		return Statement{}, err
	}

	w, err := c.Store.GetWallet(ctx, walletID, owner)
	if err != nil {
		return Statement{}, err
	}

	if start.IsZero() {
		start = w.StartDate
	}
	if end.IsZero() {
		end = c.now().UTC()
	}
	if start.After(end) {
		return Statement{}, ErrInvalidRange
	}

	opening, err := c.openingBalance(ctx, w, start)
	if err != nil {
		return Statement{}, err
	}

	txs, err := c.Store.WalletTransactionsInRange(ctx, walletID, owner, start, end)
	if err != nil {
		return Statement{}, err
	}

	var (
		lines        = make([]StatementLine, 0, len(txs))
		running      = opening
		totalIncome  = ZeroAmount()
		totalExpense = ZeroAmount()
	)
	for _, tx := range txs {
		running = running.Add(tx.SignedAmount())
		lines = append(lines, StatementLine{Transaction: tx, BalanceAfter: running})
		if tx.Type == TxIncome {
			totalIncome = totalIncome.Add(tx.Amount)
		} else {
			totalExpense = totalExpense.Add(tx.Amount)
		}
	}

	return Statement{
		WalletID:       w.ID,
		WalletName:     w.Name,
		StartDate:      start,
		EndDate:        end,
		OpeningBalance: opening,
		TotalIncome:    totalIncome,
		TotalExpense:   totalExpense,
		ClosingBalance: opening.Add(totalIncome).Sub(totalExpense),
		Transactions:   lines,
	}, nil
}

// openingBalance derives the wallet balance as of start by replaying the
// pre-window ledger.
func (c *Calculator) openingBalance(ctx context.Context, w Wallet, start time.Time) (Amount, error) {
	if !start.After(w.StartDate) {
		return w.InitialBalance, nil
	}

	prior, err := c.Store.WalletTransactionsBefore(ctx, w.ID, w.OwnerID, start)
	if err != nil {
		return Amount{}, err
	}

	balance := w.InitialBalance
	for _, tx := range prior {
		balance = balance.Add(tx.SignedAmount())
	}
	return balance, nil
}
