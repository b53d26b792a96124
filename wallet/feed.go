/*
feed.go - Cross-wallet transaction feed

PURPOSE:
  Merges transactions across all wallets of an owner into a unified feed
  for display, newest first. No balance computation happens here; each
  entry carries its wallet's name and type for rendering.
*/
package wallet

import (
	"context"
	"time"
)

// Aggregator lists transactions across all of an owner's wallets.
type Aggregator struct {
	Store Store
}

func NewAggregator(store Store) *Aggregator {
	return &Aggregator{Store: store}
}

// AllTransactions returns the owner's transactions across every wallet,
// descending by (date, created-at). Bounds are inclusive when present;
// nil bounds return the full history.
func (a *Aggregator) AllTransactions(ctx context.Context, owner OwnerID, from, to *time.Time) ([]FeedEntry, error) {
	return a.Store.OwnerTransactions(ctx, owner, from, to)
}
