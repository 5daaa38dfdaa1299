package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	PoolSize.Set(7)
	PDURequestsTotal.WithLabelValues("get", "ok").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "snmpsim_pool_size 7") {
		t.Fatalf("expected pool size in output, got:\n%s", body)
	}
	if !strings.Contains(body, `snmpsim_pdu_requests_total{operation="get",result="ok"}`) {
		t.Fatalf("expected pdu requests counter in output, got:\n%s", body)
	}
}
