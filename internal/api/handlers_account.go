package api

import (
	"net/http"

	"github.com/stackvest/backend/internal/domain"
)

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	dashboard, err := h.svc.Dashboard(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *Handler) handleBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	balances, err := h.svc.GetBalances(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	page := listOptions(r)
	items, err := h.svc.ListTransactions(r.Context(), userID, domain.TransactionListOptions{
		Type:   domain.TransactionType(r.URL.Query().Get("type")),
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListActivity(r.Context(), userID, listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleInvest(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.InvestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.Invest(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

func (h *Handler) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListInvestments(r.Context(), userID, domain.InvestmentStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	investmentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.svc.GetInvestment(r.Context(), userID, investmentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (h *Handler) handleReferrals(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.ReferralSummary(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleRedeemReferral(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.RedeemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	balances, err := h.svc.RedeemReferral(r.Context(), userID, req.Amount)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	page := listOptions(r)
	q := r.URL.Query()
	items, err := h.svc.ListNotifications(r.Context(), userID, domain.NotificationListOptions{
		Limit:    page.Limit,
		Offset:   page.Offset,
		Category: domain.NotificationCategory(q.Get("category")),
		Status:   q.Get("status"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	count, err := h.svc.UnreadNotificationCount(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	notificationID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkNotificationRead(r.Context(), userID, notificationID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	updated, err := h.svc.MarkAllNotificationsRead(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": updated})
}

func (h *Handler) handleSubmitTicket(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req domain.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.svc.SubmitTicket(r.Context(), userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *Handler) handleListMyTickets(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	items, err := h.svc.ListMyTickets(r.Context(), userID, listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
