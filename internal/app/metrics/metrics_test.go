package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                        "/",
		"/":                       "/",
		"/api/books":              "/api/books",
		"/api/books/12":           "/api/books/:id",
		"/api/loans/user/3/":      "/api/loans/user/:id",
		"/api/wishlist/check":     "/api/wishlist/check",
		"/api/loans/return/99999": "/api/loans/return/:id",
	}
	for in, want := range cases {
		if got := canonicalPath(in); got != want {
			t.Fatalf("canonicalPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecordLoanAction(t *testing.T) {
	before := testutil.ToFloat64(loanActions.WithLabelValues("borrow"))
	RecordLoanAction("borrow")
	after := testutil.ToFloat64(loanActions.WithLabelValues("borrow"))
	if after-before != 1 {
		t.Fatalf("expected borrow counter to increase by 1, got %v", after-before)
	}
}

func TestInstrumentHandlerAndExposition(t *testing.T) {
	h := InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/books/1", nil))

	resp := httptest.NewRecorder()
	Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `puskata_http_requests_total{method="GET",path="/api/books/:id",status="418"}`) {
		t.Fatalf("request counter missing from exposition")
	}
}
