package metrics

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/notify"
)

var _ notify.Observer = (*Metrics)(nil)

func TestObserverCounters(t *testing.T) {
	m := New()

	m.PollCompleted(notify.PollOK)
	m.PollCompleted(notify.PollOK)
	m.PollCompleted(notify.PollError)
	m.AlertSuppressed(model.AlertTypeSigma)
	m.ToastAdmitted()
	m.ToastDismissed(notify.DismissExpired)
	m.ToastsActive(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PollsTotal.WithLabelValues(notify.PollOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PollsTotal.WithLabelValues(notify.PollError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsSuppressedTotal.WithLabelValues("sigma")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToastsAdmittedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToastsDismissedTotal.WithLabelValues(notify.DismissExpired)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActiveToasts))
}

func TestRouter(t *testing.T) {
	m := New()
	m.ToastAdmitted()
	router := NewRouter(m)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "threat_console_toasts_admitted_total 1")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServe(t *testing.T) {
	assert.NoError(t, Serve(context.Background(), "off", New(), zap.NewNop()))

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, addr, New(), zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
