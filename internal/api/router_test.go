package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stackvest/backend/internal/app"
	"github.com/stackvest/backend/internal/domain"
	"github.com/stackvest/backend/internal/store"
)

type apiRepoStub struct {
	store.Repository

	users     map[string]*domain.User
	transfer  error
	stats     *domain.PlatformStats
	forgotErr error
}

func (s *apiRepoStub) FindUserByHandle(_ context.Context, handle string) (*domain.User, error) {
	if u, ok := s.users[handle]; ok {
		return u, nil
	}
	return nil, store.ErrUserNotFound
}

func (s *apiRepoStub) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	if s.forgotErr != nil {
		return nil, s.forgotErr
	}
	return s.FindUserByHandle(context.Background(), email)
}

func (s *apiRepoStub) CreateTransfer(context.Context, *domain.Transfer) error {
	return s.transfer
}

func (s *apiRepoStub) GetPlatformStats(context.Context, time.Time) (*domain.PlatformStats, error) {
	return s.stats, nil
}

func (s *apiRepoStub) ListActiveInvestments(context.Context) ([]domain.Investment, error) {
	return nil, nil
}

func (s *apiRepoStub) RecordActivity(context.Context, domain.ActivityLog) error {
	return nil
}

type testServer struct {
	router http.Handler
	svc    *app.Service
}

func newTestServer(repo store.Repository, counter app.WindowCounter, authPerMinute int) *testServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := app.NewTokenIssuer("test-secret", "stackvest", time.Hour)
	svc := app.NewService(repo, tokens, app.Settings{
		MinTransfer:        100,
		TransferFeePercent: decimal.RequireFromString("1.5"),
	}, logger)
	router := NewRouter(NewHandler(svc, logger), RouterConfig{
		AllowedOrigins:         []string{"https://stackvest.test"},
		InternalAPIKey:         "internal-key",
		RateLimiter:            app.NewRateLimiter(counter, logger),
		AuthRateLimitPerMinute: authPerMinute,
		Logger:                 logger,
	})
	return &testServer{router: router, svc: svc}
}

func (ts *testServer) token(t *testing.T, role domain.Role) (string, uuid.UUID) {
	t.Helper()
	user := &domain.User{ID: uuid.New(), Role: role}
	token, _, err := ts.svc.Tokens().Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token, user.ID
}

func (ts *testServer) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.7:4242"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON error body, got %q", rec.Body.String())
	}
	return body["error"]
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(&apiRepoStub{stats: &domain.PlatformStats{}}, nil, 0)
	userToken, _ := ts.token(t, domain.RoleUser)
	adminToken, _ := ts.token(t, domain.RoleAdmin)

	tests := []struct {
		name   string
		token  string
		header []string
		want   int
	}{
		{"missing header", "", nil, http.StatusUnauthorized},
		{"wrong scheme", "", []string{"Authorization", "Basic abc"}, http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", nil, http.StatusUnauthorized},
		{"user on admin route", userToken, nil, http.StatusForbidden},
		{"admin on admin route", adminToken, nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/admin/stats", tt.token, "", tt.header...)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestInternalSweepRequiresKey(t *testing.T) {
	ts := newTestServer(&apiRepoStub{}, nil, 0)

	if rec := ts.do(http.MethodPost, "/internal/sweeps/daily-gains", "", "{}"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rec.Code)
	}
	if rec := ts.do(http.MethodPost, "/internal/sweeps/daily-gains", "", "{}", "X-Internal-API-Key", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong key, got %d", rec.Code)
	}

	rec := ts.do(http.MethodPost, "/internal/sweeps/daily-gains", "", "{}", "X-Internal-API-Key", "internal-key")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.SweepResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Sweep != app.SweepDailyGains {
		t.Fatalf("unexpected sweep result: %+v", result)
	}
}

func TestTransferErrorStatuses(t *testing.T) {
	recipient := &domain.User{ID: uuid.New(), Username: "bob", Status: domain.UserStatusActive}
	repo := &apiRepoStub{users: map[string]*domain.User{"bob": recipient}, transfer: store.ErrInsufficientFunds}
	ts := newTestServer(repo, nil, 0)
	token, _ := ts.token(t, domain.RoleUser)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"insufficient funds", `{"recipient":"bob","amount":5000}`, http.StatusPaymentRequired},
		{"unknown recipient", `{"recipient":"eve","amount":5000}`, http.StatusNotFound},
		{"below minimum", `{"recipient":"bob","amount":5}`, http.StatusBadRequest},
		{"malformed body", `{"recipient":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/transfers", token, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if errorMessage(t, rec) == "" {
				t.Fatal("expected error message in envelope")
			}
		})
	}
}

func TestTransferQuote(t *testing.T) {
	ts := newTestServer(&apiRepoStub{}, nil, 0)
	token, _ := ts.token(t, domain.RoleUser)

	rec := ts.do(http.MethodGet, "/transfers/quote?amount=100.00", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var quote map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if quote["amount"] != 10000 || quote["fee"] != 150 || quote["total"] != 10150 {
		t.Fatalf("unexpected quote: %v", quote)
	}

	for _, amount := range []string{"1.234", "100000000000000000", "1e30", "92233720368547758.07"} {
		if rec := ts.do(http.MethodGet, "/transfers/quote?amount="+amount, token, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for amount %s, got %d", amount, rec.Code)
		}
	}
}

func TestLoginSuspendedIsForbidden(t *testing.T) {
	hash, err := app.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &apiRepoStub{users: map[string]*domain.User{
		"bob@example.com": {ID: uuid.New(), Email: "bob@example.com", PasswordHash: hash, Status: domain.UserStatusSuspended},
	}}
	ts := newTestServer(repo, nil, 0)

	rec := ts.do(http.MethodPost, "/auth/login", "", `{"email":"bob@example.com","password":"correct horse"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = ts.do(http.MethodPost, "/auth/login", "", `{"email":"bob@example.com","password":"wrong password"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestForgotPasswordAlwaysAccepted(t *testing.T) {
	ts := newTestServer(&apiRepoStub{forgotErr: errors.New("db down")}, nil, 0)
	rec := ts.do(http.MethodPost, "/auth/forgot-password", "", `{"email":"ghost@example.com"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	ts := newTestServer(&apiRepoStub{users: map[string]*domain.User{
		"bob": {ID: uuid.New(), Username: "bob", Status: domain.UserStatusActive},
	}, transfer: fmt.Errorf("pq: relation does not exist")}, nil, 0)
	token, _ := ts.token(t, domain.RoleUser)

	rec := ts.do(http.MethodPost, "/transfers", token, `{"recipient":"bob","amount":5000}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); strings.Contains(msg, "relation") {
		t.Fatalf("internal error leaked: %q", msg)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(&apiRepoStub{}, nil, 0)
	if rec := ts.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected healthy, got %d", rec.Code)
	}
	ts.do(http.MethodGet, "/plans/not-a-uuid", "", "")
	rec := ts.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "stackvest_http_requests_total") {
		t.Fatalf("expected request metrics, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad email", app.ErrInvalidInput), http.StatusBadRequest},
		{store.ErrResetTokenInvalid, http.StatusBadRequest},
		{app.ErrInvalidCredentials, http.StatusUnauthorized},
		{store.ErrInsufficientFunds, http.StatusPaymentRequired},
		{app.ErrAccountSuspended, http.StatusForbidden},
		{store.ErrDepositNotFound, http.StatusNotFound},
		{fmt.Errorf("approve: %w", store.ErrInvalidStatusTransition), http.StatusConflict},
		{store.ErrEmailTaken, http.StatusConflict},
		{app.ErrSweepInProgress, http.StatusConflict},
		{store.ErrInvestmentNotMatured, http.StatusConflict},
		{store.ErrUnknownRecipient, http.StatusNotFound},
		{errors.New("boom"), 0},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
