/*
handlers.go - HTTP API handlers for the wallet ledger engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Wallets:
    POST   /api/wallets                  Create wallet
    GET    /api/wallets                  List wallets
    GET    /api/wallets/{id}             Get wallet
    PUT    /api/wallets/{id}             Update name/type
    DELETE /api/wallets/{id}             Delete wallet + history
    GET    /api/wallets/{id}/statement   Statement for a date range

  Transactions:
    POST   /api/transactions             Record income/expense
    GET    /api/transactions             Cross-wallet feed
    DELETE /api/transactions/{id}        Delete transaction

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed ids, invalid ranges,
         insufficient balance (message carries the current balance)
  - 404: Wallet or transaction not found (or foreign-owned)
  - 500: Internal errors

DATES:
  Query/body dates accept YYYY-MM-DD or full RFC 3339.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/wallet-engine/wallet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger     *wallet.Ledger
	Statements *wallet.Calculator
	Feed       *wallet.Aggregator
}

// NewHandler creates a handler wired to the given store.
func NewHandler(store wallet.TxStore) *Handler {
	return &Handler{
		Ledger:     wallet.NewLedger(store),
		Statements: wallet.NewCalculator(store),
		Feed:       wallet.NewAggregator(store),
	}
}

// =============================================================================
// WALLET HANDLERS
// =============================================================================

// CreateWallet creates a wallet for the authenticated user.
// POST /api/wallets
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := wallet.CreateWalletInput{
		Name:           req.Name,
		Type:           wallet.WalletType(req.Type),
		InitialBalance: wallet.NewAmount(req.InitialBalance),
	}
	if req.StartDate != "" {
		start, err := parseDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid startDate (use YYYY-MM-DD)", err)
			return
		}
		in.StartDate = start
	}

	created, err := h.Ledger.CreateWallet(r.Context(), owner, in)
	if err != nil {
		writeDomainError(w, "Failed to create wallet", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWalletDTO(created))
}

// ListWallets returns the authenticated user's wallets.
// GET /api/wallets
func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	wallets, err := h.Ledger.ListWallets(r.Context(), owner)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list wallets", err)
		return
	}

	dtos := make([]WalletDTO, len(wallets))
	for i, wl := range wallets {
		dtos[i] = toWalletDTO(wl)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetWallet returns one wallet.
// GET /api/wallets/{id}
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	id := wallet.WalletID(chi.URLParam(r, "id"))
	wl, err := h.Ledger.GetWallet(r.Context(), id, owner)
	if err != nil {
		writeDomainError(w, "Failed to get wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletDTO(wl))
}

// UpdateWallet changes a wallet's name/type.
// PUT /api/wallets/{id}
func (h *Handler) UpdateWallet(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req UpdateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := wallet.WalletID(chi.URLParam(r, "id"))
	updated, err := h.Ledger.UpdateWallet(r.Context(), id, owner, req.Name, wallet.WalletType(req.Type))
	if err != nil {
		writeDomainError(w, "Failed to update wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, toWalletDTO(updated))
}

// DeleteWallet removes a wallet and its full transaction history.
// DELETE /api/wallets/{id}
func (h *Handler) DeleteWallet(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	id := wallet.WalletID(chi.URLParam(r, "id"))
	if err := h.Ledger.DeleteWallet(r.Context(), id, owner); err != nil {
		writeDomainError(w, "Failed to delete wallet", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetStatement computes a wallet statement.
// GET /api/wallets/{id}/statement?startDate=...&endDate=...
func (h *Handler) GetStatement(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var start, end time.Time
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid startDate (use YYYY-MM-DD)", err)
			return
		}
		start = t
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid endDate (use YYYY-MM-DD)", err)
			return
		}
		end = t
	}

	id := wallet.WalletID(chi.URLParam(r, "id"))
	st, err := h.Statements.Statement(r.Context(), id, owner, start, end)
	if err != nil {
		writeDomainError(w, "Failed to compute statement", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatementDTO(st))
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// CreateTransaction records an income/expense against a wallet.
// POST /api/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := wallet.CreateTransactionInput{
		WalletID: wallet.WalletID(req.WalletID),
		Type:     wallet.TransactionType(req.Type),
		Amount:   wallet.NewAmount(req.Amount),
		Category: req.Category,
		Note:     req.Note,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date (use YYYY-MM-DD)", err)
			return
		}
		in.Date = date
	}

	created, err := h.Ledger.CreateTransaction(r.Context(), owner, in)
	if err != nil {
		writeDomainError(w, "Failed to create transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

// ListTransactions returns the cross-wallet feed, newest first.
// GET /api/transactions?startDate=...&endDate=...
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	var from, to *time.Time
	if raw := r.URL.Query().Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid startDate (use YYYY-MM-DD)", err)
			return
		}
		from = &t
	}
	if raw := r.URL.Query().Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid endDate (use YYYY-MM-DD)", err)
			return
		}
		to = &t
	}

	entries, err := h.Feed.AllTransactions(r.Context(), owner, from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transactions", err)
		return
	}

	dtos := make([]TransactionDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toFeedDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// DeleteTransaction removes a transaction and reverses its balance effect.
// DELETE /api/transactions/{id}
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	owner, ok := ownerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated", nil)
		return
	}

	id := wallet.TransactionID(chi.URLParam(r, "id"))
	if err := h.Ledger.DeleteTransaction(r.Context(), id, owner); err != nil {
		writeDomainError(w, "Failed to delete transaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to HTTP statuses. InsufficientBalance
// responses surface the structured error message, which carries the wallet's
// current balance for display.
func writeDomainError(w http.ResponseWriter, fallback string, err error) {
	switch {
	case wallet.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, wallet.ErrInsufficientBalance):
		var ib *wallet.InsufficientBalanceError
		if errors.As(err, &ib) {
			writeError(w, http.StatusBadRequest, ib.Error(), nil)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case wallet.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, fallback, err)
	}
}

// parseDate accepts YYYY-MM-DD or full RFC 3339.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
