// monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wfunc/tetris/game"
	"github.com/wfunc/tetris/logger"
)

type Metrics struct {
	ActiveSessions  prometheus.Gauge
	GamesStarted    prometheus.Counter
	GamesOver       prometheus.Counter
	PiecesLocked    prometheus.Counter
	LinesCleared    prometheus.Counter
	CommandsHandled *prometheus.CounterVec
	CommandLatency  prometheus.Histogram
	FinalScore      prometheus.Histogram
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of open play sessions",
		}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Total number of games started",
		}),
		GamesOver: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_over_total",
			Help:      "Total number of games that ended",
		}),
		PiecesLocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pieces_locked_total",
			Help:      "Total number of pieces frozen into a board",
		}),
		LinesCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_cleared_total",
			Help:      "Total number of rows removed",
		}),
		CommandsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands handled, by name",
		}, []string{"command"}),
		CommandLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_seconds",
			Help:      "Command processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 2, 12),
		}),
		FinalScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "final_score",
			Help:      "Score at game over",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	reg.MustRegister(
		m.ActiveSessions,
		m.GamesStarted,
		m.GamesOver,
		m.PiecesLocked,
		m.LinesCleared,
		m.CommandsHandled,
		m.CommandLatency,
		m.FinalScore,
	)

	return m
}

var publishOnce sync.Once

type Monitor struct {
	metrics      *Metrics
	gatherer     prometheus.Gatherer
	startTime    time.Time
	commandCount int64
	mutex        sync.Mutex
}

// NewMonitor registers its metrics with reg, or with the default registry
// when reg is nil.
func NewMonitor(namespace string, reg *prometheus.Registry) *Monitor {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	return &Monitor{
		metrics:   NewMetrics(namespace, registerer),
		gatherer:  gatherer,
		startTime: time.Now(),
	}
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// Handler serves /metrics and /debug/vars.
func (m *Monitor) Handler() http.Handler {
	// 添加expvar指标
	publishOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))
		expvar.Publish("commands", expvar.Func(func() interface{} {
			return m.CommandCount()
		}))
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	return mux
}

// StartServer serves Handler on addr in the background. Stop it with
// Shutdown on the returned server.
func (m *Monitor) StartServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("monitor server on %s: %v", addr, err)
		}
	}()
	logger.Log.Infof("monitor listening on %s", addr)
	return srv
}

// Shutdown is a convenience for main's deferred cleanup.
func Shutdown(srv *http.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Warnf("monitor shutdown: %v", err)
	}
}

// OnEvent feeds game events into the counters.
func (m *Monitor) OnEvent(e game.Event) {
	switch e.Kind {
	case game.EventStarted:
		m.metrics.GamesStarted.Inc()
	case game.EventLocked:
		m.metrics.PiecesLocked.Inc()
	case game.EventLinesCleared:
		m.metrics.LinesCleared.Add(float64(len(e.Rows)))
	case game.EventGameOver:
		m.metrics.GamesOver.Inc()
		m.metrics.FinalScore.Observe(float64(e.Score))
	}
}

func (m *Monitor) IncActiveSessions() {
	m.metrics.ActiveSessions.Inc()
}

func (m *Monitor) DecActiveSessions() {
	m.metrics.ActiveSessions.Dec()
}

func (m *Monitor) ObserveCommand(cmd game.Command, duration time.Duration) {
	m.metrics.CommandsHandled.WithLabelValues(string(cmd)).Inc()
	m.metrics.CommandLatency.Observe(duration.Seconds())
	m.mutex.Lock()
	m.commandCount++
	m.mutex.Unlock()
}

func (m *Monitor) CommandCount() int64 {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.commandCount
}
