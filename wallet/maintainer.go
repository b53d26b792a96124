/*
maintainer.go - Balance invariant maintenance

PURPOSE:
  The Maintainer is the single authority for accept/reject decisions on
  balance-changing operations, and the only component permitted to write
  Wallet.Balance. Every mutation path (transaction create, transaction
  delete) funnels through ApplyDelta.

WHY ONE FUNNEL?
  The denormalized balance is a cached aggregate over the ledger. The
  classic bug-class with cached aggregates is ad-hoc increment/decrement
  call sites drifting out of sync with the source of truth. Concentrating
  the write in one place makes that class of bug impossible by
  construction.

ATOMICITY:
  ApplyDelta on its own only adjusts the balance. Callers that pair the
  adjustment with a transaction row write run both inside TxStore.WithTx
  so the pair commits as one unit (see ledger.go).

SEE ALSO:
  - ledger.go: Calls ApplyDelta for creates, deletes, and reversals
  - store.go: AdjustBalance contract
*/
package wallet

import (
	"context"
	"errors"
)

// Maintainer keeps Wallet.Balance consistent with the transaction ledger.
type Maintainer struct{}

// ApplyDelta validates and applies a signed balance change to a wallet.
//
// Preconditions: the wallet exists and belongs to owner, else
// ErrWalletNotFound. If balance+delta would be negative the operation fails
// with *InsufficientBalanceError carrying the current balance, and no
// mutation occurs.
//
// The store evaluates the non-negativity guard again at commit time
// (AdjustBalance is conditional), so two concurrent deltas against the same
// wallet cannot both commit a result that breaks the invariant: whichever
// serializes second re-checks against the latest balance.
func (Maintainer) ApplyDelta(ctx context.Context, s Store, id WalletID, owner OwnerID, delta Amount) (Wallet, error) {
	w, err := s.GetWallet(ctx, id, owner)
	if err != nil {
		return Wallet{}, err
	}

	if w.Balance.Add(delta).IsNegative() {
		return Wallet{}, &InsufficientBalanceError{
			WalletID:  id,
			Balance:   w.Balance,
			Requested: delta,
		}
	}

	updated, err := s.AdjustBalance(ctx, id, owner, delta)
	if err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			// A concurrent mutation won the race; report the balance the
			// store rejected against.
			current, gerr := s.GetWallet(ctx, id, owner)
			if gerr != nil {
				return Wallet{}, gerr
			}
			return Wallet{}, &InsufficientBalanceError{
				WalletID:  id,
				Balance:   current.Balance,
				Requested: delta,
			}
		}
		return Wallet{}, err
	}

	return updated, nil
}
