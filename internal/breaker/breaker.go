// Package breaker provides a per-key circuit breaker manager, one gobreaker
// instance per market/sentiment provider or persistence backend, each with
// its own failure budget so one vendor outage cannot block the others.
package breaker

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/signalforge/equityedge/internal/errkind"
)

// Settings configures a single breaker's trip/cooldown behavior.
type Settings struct {
	// ConsecutiveFailures is N: the breaker opens after this many
	// consecutive failures inside Window.
	ConsecutiveFailures uint32
	// Window is the cyclic interval after which a closed breaker clears its
	// failure counts (gobreaker's Interval).
	Window time.Duration
	// Cooldown is how long the breaker stays open before allowing a single
	// half-open probe.
	Cooldown time.Duration
}

// Default matches spec §4.1: N=5 consecutive failures / 60s window, 30s cooldown.
func Default() Settings {
	return Settings{ConsecutiveFailures: 5, Window: 60 * time.Second, Cooldown: 30 * time.Second}
}

var (
	metricsOnce sync.Once
	stateGauge  *prometheus.GaugeVec
	reqCounter  *prometheus.CounterVec
)

func initMetrics() {
	metricsOnce.Do(func() {
		stateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "equityedge_breaker_state",
			Help: "Circuit breaker state per key (0=closed, 1=open, 2=half_open)",
		}, []string{"key"})
		reqCounter = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "equityedge_breaker_requests_total",
			Help: "Requests observed by a circuit breaker, by key and result",
		}, []string{"key", "result"})
	})
}

// Manager owns one gobreaker.CircuitBreaker per key, created lazily on first use.
type Manager struct {
	settings Settings
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewManager builds a Manager with the given per-breaker settings.
func NewManager(settings Settings) *Manager {
	initMetrics()
	return &Manager{settings: settings, breakers: make(map[string]*gobreaker.CircuitBreaker)}
}

func (m *Manager) breakerFor(key string) *gobreaker.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, ok := m.breakers[key]; ok {
		return cb
	}

	k := key
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        k,
		MaxRequests: 1, // single probe in half-open
		Interval:    m.settings.Window,
		Timeout:     m.settings.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= m.settings.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			stateGauge.WithLabelValues(k).Set(stateValue(to))
			log.Info().Str("breaker", k).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	m.breakers[key] = cb
	stateGauge.WithLabelValues(k).Set(stateValue(cb.State()))
	return cb
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// Execute runs fn through the breaker for key. If the breaker is open, it
// short-circuits with an Unavailable error without calling fn.
func (m *Manager) Execute(key string, fn func() (any, error)) (any, error) {
	cb := m.breakerFor(key)

	result, err := cb.Execute(fn)
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			reqCounter.WithLabelValues(key, "short_circuited").Inc()
			return nil, errkind.Unavailablef("breaker."+key, "circuit breaker open for %s", key)
		}
		reqCounter.WithLabelValues(key, "failure").Inc()
		return nil, err
	}
	reqCounter.WithLabelValues(key, "success").Inc()
	return result, nil
}

// State returns the current state name for key ("closed", "open", "half_open"),
// without creating a breaker if one does not yet exist for that key.
func (m *Manager) State(key string) string {
	m.mu.Lock()
	cb, ok := m.breakers[key]
	m.mu.Unlock()
	if !ok {
		return "closed"
	}
	switch cb.State() {
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}
