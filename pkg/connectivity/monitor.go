package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pasearch/trackd/pkg/events"
	"github.com/pasearch/trackd/pkg/log"
	"github.com/pasearch/trackd/pkg/metrics"
	"github.com/pasearch/trackd/pkg/types"
)

const (
	// DefaultPeriod is the interval between reachability probes
	DefaultPeriod = 60 * time.Second

	// DefaultBannerWindow is how long the UI shows a reconnected notice;
	// further reconnected signals inside the window are suppressed
	DefaultBannerWindow = 3 * time.Second
)

// Config configures a Monitor
type Config struct {
	Period       time.Duration
	BannerWindow time.Duration
}

// Monitor periodically probes backend reachability and reports
// transitions. It never raises errors; it only reports state.
type Monitor struct {
	prober Prober
	broker *events.Broker
	period time.Duration
	banner time.Duration

	mu              sync.RWMutex
	state           types.ConnectivityState
	lastReconnected time.Time

	cancel context.CancelFunc
	done   chan struct{}
	logger zerolog.Logger
}

// NewMonitor creates a monitor in the Unknown state
func NewMonitor(prober Prober, broker *events.Broker, cfg Config) *Monitor {
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}
	if cfg.BannerWindow <= 0 {
		cfg.BannerWindow = DefaultBannerWindow
	}
	return &Monitor{
		prober: prober,
		broker: broker,
		period: cfg.Period,
		banner: cfg.BannerWindow,
		state:  types.ConnUnknown,
		logger: log.WithComponent("connectivity"),
	}
}

// Start probes once immediately, then on every period tick
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx)
}

// Stop cancels the probe timer and any in-flight probe
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// State returns the current reachability state
func (m *Monitor) State() types.ConnectivityState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.period)
	defer ticker.Stop()

	m.evaluate(ctx)

	for {
		select {
		case <-ticker.C:
			m.evaluate(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) evaluate(ctx context.Context) {
	timer := metrics.NewTimer()
	result := m.prober.Probe(ctx)
	timer.ObserveDuration(metrics.ProbeDuration)

	next := types.ConnOffline
	outcome := "failure"
	if result.Online {
		next = types.ConnOnline
		outcome = "success"
	}
	metrics.ProbesTotal.WithLabelValues(outcome).Inc()

	m.transition(next, result.Message)
}

func (m *Monitor) transition(next types.ConnectivityState, message string) {
	m.mu.Lock()
	prev := m.state
	m.state = next

	reconnected := false
	if prev == types.ConnOffline && next == types.ConnOnline {
		// One notice per banner window, even if the link flaps
		if time.Since(m.lastReconnected) >= m.banner {
			m.lastReconnected = time.Now()
			reconnected = true
		}
	}
	m.mu.Unlock()

	if prev == next {
		return
	}

	m.logger.Info().
		Str("from", string(prev)).
		Str("to", string(next)).
		Str("probe", message).
		Msg("connectivity transition")

	if m.broker == nil {
		return
	}
	switch next {
	case types.ConnOnline:
		m.broker.Publish(events.New(events.EventConnectivityOnline, message))
	case types.ConnOffline:
		m.broker.Publish(events.New(events.EventConnectivityOffline, message))
	}
	if reconnected {
		m.broker.Publish(events.New(events.EventReconnected, "backend connection restored"))
	}
}
