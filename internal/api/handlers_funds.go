package api

import (
	"math"
	"net/http"

	"github.com/stackvest/backend/internal/domain"
)

func (h *Handler) handleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.CreateDepositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	deposit, err := h.svc.CreateDeposit(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deposit)
}

func (h *Handler) handleListMyDeposits(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListMyDeposits(r.Context(), userID, listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleRequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.CreateWithdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	withdrawal, err := h.svc.RequestWithdrawal(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, withdrawal)
}

func (h *Handler) handleListMyWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListMyWithdrawals(r.Context(), userID, listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.TransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	transfer, err := h.svc.Transfer(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transfer)
}

// handleTransferQuote previews the fee for an amount without moving funds.
func (h *Handler) handleTransferQuote(w http.ResponseWriter, r *http.Request) {
	amount, err := domain.ParseAmount(r.URL.Query().Get("amount"))
	if err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be a positive decimal with at most two fraction digits")
		return
	}
	fee := h.svc.TransferFee(amount)
	if amount > math.MaxInt64-fee {
		writeError(w, http.StatusBadRequest, "amount is too large")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount, "fee": fee, "total": amount + fee})
}

func (h *Handler) handleListTransfers(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListTransfers(r.Context(), userID, listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
