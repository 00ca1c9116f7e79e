package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMonitor() *Monitor {
	reg := prometheus.NewRegistry()
	return NewMonitorWithRegistry("modernart", reg, reg)
}

func TestMonitorCounts(t *testing.T) {
	m := newTestMonitor()
	m.ObserveCommand("action_bid", "ok", 3*time.Millisecond)
	m.ObserveCommand("action_bid", "ok", time.Millisecond)
	m.ObserveCommand("action_bid", "rejected", time.Millisecond)
	m.IncAuctionSettled("sealed", "sold")
	m.GameStarted()
	m.GameStarted()
	m.GameFinished()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.Commands.WithLabelValues("action_bid", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.Commands.WithLabelValues("action_bid", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.AuctionsSettled.WithLabelValues("sealed", "sold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.ActiveGames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.GamesFinished))
}

func TestMonitorHandler(t *testing.T) {
	m := newTestMonitor()
	m.IncRoundsEnded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "modernart_rounds_ended_total 1"))
}

func TestNilMonitorIsSafe(t *testing.T) {
	var m *Monitor
	assert.NotPanics(t, func() {
		m.ObserveCommand("action_offer", "ok", time.Millisecond)
		m.IncAuctionSettled("open", "void")
		m.GameStarted()
		m.GameFinished()
		m.IncWSConnections()
		m.DecWSConnections()
		m.IncPublishFailures()
	})
}
