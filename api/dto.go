/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

FIELD NAMES:
  JSON fields are camelCase; the statement shape in particular is consumed
  verbatim by the presentation layer (rendering and export) and must not
  change without coordinating with it.

AMOUNTS:
  Domain amounts are decimals; DTOs expose them as JSON numbers (float64).

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/warp/wallet-engine/wallet"
)

// =============================================================================
// WALLET TYPES
// =============================================================================

// WalletDTO represents a wallet in API responses.
type WalletDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	InitialBalance float64 `json:"initialBalance"`
	Balance        float64 `json:"balance"`
	StartDate      string  `json:"startDate"`
	CreatedAt      string  `json:"createdAt,omitempty"`
}

// CreateWalletRequest is the request to create a wallet.
type CreateWalletRequest struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	InitialBalance float64 `json:"initialBalance"`
	StartDate      string  `json:"startDate,omitempty"`
}

// UpdateWalletRequest is the request to change a wallet's display attributes.
type UpdateWalletRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

// TransactionDTO represents a transaction in API responses. WalletName and
// WalletType are present only in the cross-wallet feed.
type TransactionDTO struct {
	ID         string  `json:"id"`
	WalletID   string  `json:"walletId"`
	Type       string  `json:"type"`
	Amount     float64 `json:"amount"`
	Category   string  `json:"category"`
	Date       string  `json:"date"`
	Note       string  `json:"note,omitempty"`
	CreatedAt  string  `json:"createdAt,omitempty"`
	WalletName string  `json:"walletName,omitempty"`
	WalletType string  `json:"walletType,omitempty"`
}

// CreateTransactionRequest is the request to record an income/expense.
type CreateTransactionRequest struct {
	WalletID string  `json:"walletId"`
	Type     string  `json:"type"`
	Amount   float64 `json:"amount"`
	Category string  `json:"category"`
	Date     string  `json:"date,omitempty"`
	Note     string  `json:"note,omitempty"`
}

// =============================================================================
// STATEMENT TYPES
// =============================================================================

// StatementLineDTO is a transaction with the running balance after it.
type StatementLineDTO struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Amount       float64 `json:"amount"`
	Category     string  `json:"category"`
	Date         string  `json:"date"`
	Note         string  `json:"note,omitempty"`
	BalanceAfter float64 `json:"balanceAfter"`
}

// StatementDTO is the full statement response.
type StatementDTO struct {
	WalletID       string             `json:"walletId"`
	WalletName     string             `json:"walletName"`
	StartDate      string             `json:"startDate"`
	EndDate        string             `json:"endDate"`
	OpeningBalance float64            `json:"openingBalance"`
	TotalIncome    float64            `json:"totalIncome"`
	TotalExpense   float64            `json:"totalExpense"`
	ClosingBalance float64            `json:"closingBalance"`
	Transactions   []StatementLineDTO `json:"transactions"`
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toWalletDTO(w wallet.Wallet) WalletDTO {
	return WalletDTO{
		ID:             string(w.ID),
		Name:           w.Name,
		Type:           string(w.Type),
		InitialBalance: w.InitialBalance.Float64(),
		Balance:        w.Balance.Float64(),
		StartDate:      w.StartDate.UTC().Format(time.RFC3339),
		CreatedAt:      w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionDTO(tx wallet.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:        string(tx.ID),
		WalletID:  string(tx.WalletID),
		Type:      string(tx.Type),
		Amount:    tx.Amount.Float64(),
		Category:  tx.Category,
		Date:      tx.Date.UTC().Format(time.RFC3339),
		Note:      tx.Note,
		CreatedAt: tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toFeedDTO(e wallet.FeedEntry) TransactionDTO {
	dto := toTransactionDTO(e.Transaction)
	dto.WalletName = e.WalletName
	dto.WalletType = string(e.WalletType)
	return dto
}

func toStatementDTO(st wallet.Statement) StatementDTO {
	lines := make([]StatementLineDTO, len(st.Transactions))
	for i, line := range st.Transactions {
		lines[i] = StatementLineDTO{
			ID:           string(line.ID),
			Type:         string(line.Type),
			Amount:       line.Amount.Float64(),
			Category:     line.Category,
			Date:         line.Date.UTC().Format(time.RFC3339),
			Note:         line.Note,
			BalanceAfter: line.BalanceAfter.Float64(),
		}
	}
	return StatementDTO{
		WalletID:       string(st.WalletID),
		WalletName:     st.WalletName,
		StartDate:      st.StartDate.UTC().Format(time.RFC3339),
		EndDate:        st.EndDate.UTC().Format(time.RFC3339),
		OpeningBalance: st.OpeningBalance.Float64(),
		TotalIncome:    st.TotalIncome.Float64(),
		TotalExpense:   st.TotalExpense.Float64(),
		ClosingBalance: st.ClosingBalance.Float64(),
		Transactions:   lines,
	}
}
