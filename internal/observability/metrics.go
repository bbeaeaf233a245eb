// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Staking panel metrics
	StakingActions        *prometheus.CounterVec
	StakingActionDuration *prometheus.HistogramVec
	RewardTicks           prometheus.Counter

	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsExpired prometheus.Counter
	MountedPanels   prometheus.Gauge

	// Live channel metrics
	LiveConnections prometheus.Gauge
	LiveMessages    *prometheus.CounterVec

	// Wallet metrics
	WalletConnects   *prometheus.CounterVec
	BalanceUpdates   *prometheus.CounterVec
	WalletsConnected prometheus.Gauge

	// Solana RPC metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// HTTP metrics
	PageRenders      *prometheus.CounterVec
	BoundaryFailures *prometheus.CounterVec
	RequestsInFlight prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "mlm_landing"
	}
	f := promauto.With(reg)

	return &Metrics{
		StakingActions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "actions_total",
			Help:      "Staking panel actions by action and result",
		}, []string{"action", "result"}),
		StakingActionDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "action_duration_seconds",
			Help:      "Wall time of staking actions including the simulated delay",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 1.5, 2, 5},
		}, []string{"action"}),
		RewardTicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "reward_ticks_total",
			Help:      "Reward accrual ticks applied across all panels",
		}),

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "active",
			Help:      "Sessions currently held in memory",
		}),
		SessionsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "created_total",
			Help:      "Sessions created",
		}),
		SessionsExpired: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "expired_total",
			Help:      "Sessions removed by the idle sweep",
		}),
		MountedPanels: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "mounted_panels",
			Help:      "Staking panels currently mounted",
		}),

		LiveConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "connections",
			Help:      "Open live-update WebSocket connections",
		}),
		LiveMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "live",
			Name:      "messages_total",
			Help:      "Live channel messages by direction",
		}, []string{"direction"}),

		WalletConnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "connects_total",
			Help:      "Wallet connect attempts by result",
		}, []string{"result"}),
		BalanceUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "balance_updates_total",
			Help:      "Balance refreshes by source",
		}, []string{"source"}),
		WalletsConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "connected",
			Help:      "Wallets currently connected",
		}),

		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Failed Solana RPC calls by method",
		}, []string{"method"}),

		PageRenders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "page_renders_total",
			Help:      "Rendered pages by page name",
		}, []string{"page"}),
		BoundaryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "boundary_failures_total",
			Help:      "Requests replaced by the failure page, by cause",
		}, []string{"cause"}),
		RequestsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests currently being served",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordStakingAction records one staking panel action.
func RecordStakingAction(action, result string, seconds float64) {
	DefaultMetrics.StakingActions.WithLabelValues(action, result).Inc()
	DefaultMetrics.StakingActionDuration.WithLabelValues(action).Observe(seconds)
}

// RecordRewardTick counts one reward accrual.
func RecordRewardTick() {
	DefaultMetrics.RewardTicks.Inc()
}

// RecordSessionCreated counts a new session.
func RecordSessionCreated() {
	DefaultMetrics.SessionsCreated.Inc()
	DefaultMetrics.ActiveSessions.Inc()
}

// RecordSessionsExpired counts sessions dropped by the sweep.
func RecordSessionsExpired(n int) {
	DefaultMetrics.SessionsExpired.Add(float64(n))
	DefaultMetrics.ActiveSessions.Sub(float64(n))
}

// RecordPanelMounted tracks panel mount (+1) and unmount (-1).
func RecordPanelMounted(delta int) {
	DefaultMetrics.MountedPanels.Add(float64(delta))
}

// RecordLiveConnection tracks live channel open (+1) and close (-1).
func RecordLiveConnection(delta int) {
	DefaultMetrics.LiveConnections.Add(float64(delta))
}

// RecordLiveMessage counts a live channel message ("in" or "out").
func RecordLiveMessage(direction string) {
	DefaultMetrics.LiveMessages.WithLabelValues(direction).Inc()
}

// RecordWalletConnect counts a wallet connect attempt.
func RecordWalletConnect(result string) {
	DefaultMetrics.WalletConnects.WithLabelValues(result).Inc()
	if result == "success" {
		DefaultMetrics.WalletsConnected.Inc()
	}
}

// RecordWalletDisconnect decrements the connected wallets gauge.
func RecordWalletDisconnect() {
	DefaultMetrics.WalletsConnected.Dec()
}

// RecordBalanceUpdate counts a balance refresh ("rpc" or "subscription").
func RecordBalanceUpdate(source string) {
	DefaultMetrics.BalanceUpdates.WithLabelValues(source).Inc()
}

// RecordRPCCall records RPC call latency and failures.
func RecordRPCCall(method string, seconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordPageRender counts a rendered page.
func RecordPageRender(page string) {
	DefaultMetrics.PageRenders.WithLabelValues(page).Inc()
}

// RecordBoundaryFailure counts a request replaced by the failure page.
func RecordBoundaryFailure(cause string) {
	DefaultMetrics.BoundaryFailures.WithLabelValues(cause).Inc()
}

// TrackRequest increments the in-flight gauge and returns its release.
func TrackRequest() func() {
	DefaultMetrics.RequestsInFlight.Inc()
	return DefaultMetrics.RequestsInFlight.Dec
}
