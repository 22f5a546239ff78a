package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentHandlerLabelsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(InstrumentHandler)
	router.Get("/plans/{planID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/plans/{planID}", "418"))
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/plans/"+strings.Repeat("a", i+1), nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/plans/{planID}", "418"))
	if after-before != 3 {
		t.Fatalf("expected 3 requests recorded under the route pattern, got %v", after-before)
	}
}

func TestRecordSweep(t *testing.T) {
	before := testutil.ToFloat64(sweepRecords.WithLabelValues("test-sweep", "credited"))
	RecordSweep("test-sweep", 4, 1, 0, 1200, 50*time.Millisecond)
	if got := testutil.ToFloat64(sweepRecords.WithLabelValues("test-sweep", "credited")) - before; got != 4 {
		t.Fatalf("expected 4 credited records, got %v", got)
	}
	if got := testutil.ToFloat64(sweepAmount.WithLabelValues("test-sweep")); got < 1200 {
		t.Fatalf("expected sweep amount recorded, got %v", got)
	}
}

func TestHandlerServesRegistry(t *testing.T) {
	RecordOutbox("published")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "stackvest_outbox_messages_total") {
		t.Fatal("expected outbox counter in exposition")
	}
}
