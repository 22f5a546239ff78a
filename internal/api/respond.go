package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stackvest/backend/internal/app"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// statusFor maps service and store errors onto HTTP status codes. Zero means the error is
// unexpected.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, app.ErrInvalidReferralCode),
		errors.Is(err, app.ErrSelfTransfer),
		errors.Is(err, store.ErrResetTokenInvalid):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrInvalidCredentials),
		errors.Is(err, app.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, app.ErrAccountSuspended):
		return http.StatusForbidden
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrBalanceNotFound),
		errors.Is(err, store.ErrPlanNotFound),
		errors.Is(err, store.ErrInvestmentNotFound),
		errors.Is(err, store.ErrDepositNotFound),
		errors.Is(err, store.ErrWithdrawalNotFound),
		errors.Is(err, store.ErrNotificationNotFound),
		errors.Is(err, store.ErrSubscriberNotFound),
		errors.Is(err, store.ErrSupportMessageNotFound),
		errors.Is(err, app.ErrRecipientNotFound),
		errors.Is(err, store.ErrUnknownRecipient):
		return http.StatusNotFound
	case errors.Is(err, store.ErrEmailTaken),
		errors.Is(err, store.ErrUsernameTaken),
		errors.Is(err, store.ErrPlanNameTaken),
		errors.Is(err, store.ErrPlanInactive),
		errors.Is(err, store.ErrInvestmentNotActive),
		errors.Is(err, store.ErrInvestmentNotMatured),
		errors.Is(err, store.ErrInvalidStatusTransition),
		errors.Is(err, app.ErrRecipientSuspended),
		errors.Is(err, app.ErrSweepInProgress):
		return http.StatusConflict
	}
	return 0
}

// fail writes err as a JSON error. Unexpected errors are logged and hidden behind a 500.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := statusFor(err); status != 0 {
		writeError(w, status, err.Error())
		return
	}
	h.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func listOptions(r *http.Request) domain.ListOptions {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return domain.ListOptions{Limit: limit, Offset: offset}.Normalize()
}
