/**
 * @description
 * HTTP handlers for the Stackvest API. Handlers decode requests, call the service and map
 * errors onto status codes; business rules live in internal/app.
 */
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/stackvest/backend/internal/app"
	"github.com/stackvest/backend/internal/domain"
)

type Handler struct {
	svc    *app.Service
	logger *slog.Logger
}

func NewHandler(svc *app.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.Register(r.Context(), req, clientIP(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.svc.Login(r.Context(), req, clientIP(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleForgotPassword always answers 202 so the endpoint cannot reveal which addresses
// have accounts.
func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		h.logger.Error("forgot password failed", "error", err)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "if the address is registered, a reset link is on its way"})
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.svc.ListPlans(r.Context(), false)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	plan, err := h.svc.GetPlan(r.Context(), planID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !plan.Active {
		writeError(w, http.StatusNotFound, "investment plan not found")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.svc.Subscribe(r.Context(), req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "subscribed"})
}

func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		var body struct {
			Token string `json:"token"`
		}
		if r.ContentLength > 0 && !decodeJSON(w, r, &body) {
			return
		}
		token = body.Token
	}
	if err := h.svc.Unsubscribe(r.Context(), strings.TrimSpace(token)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "unsubscribed"})
}

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var req domain.ContactRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, err := h.svc.SubmitContact(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": msg.ID.String(), "status": string(msg.Status)})
}

func (h *Handler) handleRunDailyGains(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RunDailyGains(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleRunMaturity(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.RunMaturity(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
