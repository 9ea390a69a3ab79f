package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit(t *testing.T) {
	// Call Init multiple times to test idempotency.
	Init()
	Init()

	if httpRequestsTotal == nil || httpRequestDurationSeconds == nil || monitorProbesTotal == nil ||
		systemMode == nil || emailSentTotal == nil || companySearchDurationSeconds == nil ||
		rateLimitedRequestsTotal == nil {
		t.Fatal("Init() did not initialize metrics collectors")
	}
}

func TestObserveProbe(t *testing.T) {
	Init()
	before := testutil.ToFloat64(monitorProbesTotal.WithLabelValues("failure"))
	ObserveProbe(false)
	ObserveProbe(false)
	ObserveProbe(true)
	if got := testutil.ToFloat64(monitorProbesTotal.WithLabelValues("failure")) - before; got != 2 {
		t.Errorf("expected 2 failed probes, got %f", got)
	}
}

func TestSetMode(t *testing.T) {
	Init()
	SetMode(true)
	if val := testutil.ToFloat64(systemMode); val != 1 {
		t.Errorf("expected system_mode 1, got %f", val)
	}
	SetMode(false)
	if val := testutil.ToFloat64(systemMode); val != 0 {
		t.Errorf("expected system_mode 0, got %f", val)
	}
}

func TestObserveEmail(t *testing.T) {
	Init()
	before := testutil.ToFloat64(emailSentTotal.WithLabelValues("resend", "success"))
	ObserveEmail("resend", true)
	if got := testutil.ToFloat64(emailSentTotal.WithLabelValues("resend", "success")) - before; got != 1 {
		t.Errorf("expected 1 resend success, got %f", got)
	}
}

func TestObserveSearchAndRateLimit(t *testing.T) {
	Init()
	ObserveSearch("RAILWAY_DATABASE", 120*time.Millisecond)
	if n := testutil.CollectAndCount(companySearchDurationSeconds); n < 1 {
		t.Errorf("expected company_search_duration_seconds to be observed, got %d", n)
	}
	before := testutil.ToFloat64(rateLimitedRequestsTotal.WithLabelValues("/api/auth/login"))
	ObserveRateLimited("/api/auth/login")
	if got := testutil.ToFloat64(rateLimitedRequestsTotal.WithLabelValues("/api/auth/login")) - before; got != 1 {
		t.Errorf("expected 1 rate limited request, got %f", got)
	}
}
