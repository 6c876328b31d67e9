package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveAnswerCountsByStatus(t *testing.T) {
	before := testutil.ToFloat64(answersTotal.WithLabelValues("error"))
	ObserveAnswer("error")
	ObserveAnswer("error")
	if got := testutil.ToFloat64(answersTotal.WithLabelValues("error")) - before; got != 2 {
		t.Fatalf("error answers delta = %v, want 2", got)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	ObserveAnswer("success")
	ObserveCompletion(20 * time.Millisecond)
	ObserveExecution("success", 5*time.Millisecond)
	ObserveHTTP(http.MethodGet, "/health", http.StatusOK, time.Millisecond)

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, name := range []string{
		"nl2sql_answers_total",
		"nl2sql_completion_duration_seconds",
		"nl2sql_execution_duration_seconds",
		"nl2sql_http_requests_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
