package api

import (
	"net/http"

	"github.com/stackvest/backend/internal/domain"
)

type userStatusRequest struct {
	Status domain.UserStatus `json:"status"`
}

type planActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context(), r.URL.Query().Get("search"), listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.svc.GetUserDetail(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) handleAdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req userStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SetUserStatus(r.Context(), adminID, userID, req.Status); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)})
}

func (h *Handler) handleAdminAdjustBalance(w http.ResponseWriter, r *http.Request) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}
	userID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.BalanceAdjustment
	if !decodeJSON(w, r, &req) {
		return
	}
	balances, err := h.svc.AdjustBalance(r.Context(), adminID, userID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (h *Handler) handleAdminFixBalances(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.FixBalances(r.Context())
	if err != nil && report == nil {
		h.fail(w, r, err)
		return
	}
	if err != nil {
		h.logger.Warn("balance reconcile finished with failures", "error", err)
		writeJSON(w, http.StatusMultiStatus, report)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAdminListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context(), true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *Handler) handleAdminCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req domain.PlanInput
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := h.svc.CreatePlan(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

func (h *Handler) handleAdminUpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.PlanInput
	if !decodeJSON(w, r, &req) {
		return
	}
	plan, err := h.svc.UpdatePlan(r.Context(), planID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleAdminSetPlanActive(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req planActiveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.SetPlanActive(r.Context(), planID, req.Active); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func (h *Handler) handleAdminListDeposits(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListDeposits(r.Context(), domain.DepositStatus(r.URL.Query().Get("status")), listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAdminApproveDeposit(w http.ResponseWriter, r *http.Request) {
	h.reviewDeposit(w, r, true)
}

func (h *Handler) handleAdminRejectDeposit(w http.ResponseWriter, r *http.Request) {
	h.reviewDeposit(w, r, false)
}

func (h *Handler) reviewDeposit(w http.ResponseWriter, r *http.Request, approve bool) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}
	depositID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.ReviewRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	var (
		deposit *domain.DepositRequest
		err     error
	)
	if approve {
		deposit, err = h.svc.ApproveDeposit(r.Context(), adminID, depositID, req.Note)
	} else {
		deposit, err = h.svc.RejectDeposit(r.Context(), adminID, depositID, req.Note)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deposit)
}

func (h *Handler) handleAdminListWithdrawals(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListWithdrawals(r.Context(), domain.WithdrawalStatus(r.URL.Query().Get("status")), listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAdminCompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.reviewWithdrawal(w, r, true)
}

func (h *Handler) handleAdminRejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.reviewWithdrawal(w, r, false)
}

func (h *Handler) reviewWithdrawal(w http.ResponseWriter, r *http.Request, complete bool) {
	adminID, ok := callerID(w, r)
	if !ok {
		return
	}
	withdrawalID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.ReviewRequest
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}

	var (
		withdrawal *domain.WithdrawalRequest
		err        error
	)
	if complete {
		withdrawal, err = h.svc.CompleteWithdrawal(r.Context(), adminID, withdrawalID, req.Note)
	} else {
		withdrawal, err = h.svc.RejectWithdrawal(r.Context(), adminID, withdrawalID, req.Note)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawal)
}

func (h *Handler) handleAdminSendNotification(w http.ResponseWriter, r *http.Request) {
	var req domain.SendNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.SendNotification(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAdminSendNewsletter(w http.ResponseWriter, r *http.Request) {
	var req domain.NewsletterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.svc.SendNewsletter(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

func (h *Handler) handleAdminListTickets(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListTickets(r.Context(), domain.SupportStatus(r.URL.Query().Get("status")), listOptions(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) handleAdminReplyTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req domain.ReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.svc.ReplyTicket(r.Context(), ticketID, req.Reply)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *Handler) handleAdminCloseTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.CloseTicket(r.Context(), ticketID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
