package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasearch/trackd/pkg/events"
	"github.com/pasearch/trackd/pkg/types"
)

// scriptedProber blocks until the test feeds it the next probe outcome,
// making monitor transitions fully deterministic
type scriptedProber struct {
	results chan bool
}

func newScriptedProber() *scriptedProber {
	return &scriptedProber{results: make(chan bool)}
}

func (p *scriptedProber) Probe(ctx context.Context) Result {
	select {
	case online := <-p.results:
		return Result{Online: online, CheckedAt: time.Now()}
	case <-ctx.Done():
		return Result{CheckedAt: time.Now()}
	}
}

func collectEvents(sub events.Subscriber, window time.Duration) []*events.Event {
	var collected []*events.Event
	deadline := time.After(window)
	for {
		select {
		case ev := <-sub:
			collected = append(collected, ev)
		case <-deadline:
			return collected
		}
	}
}

func TestHTTPProber(t *testing.T) {
	tests := []struct {
		name   string
		status int
		online bool
	}{
		{name: "healthy", status: http.StatusOK, online: true},
		{name: "no content", status: http.StatusNoContent, online: true},
		{name: "server error", status: http.StatusInternalServerError, online: false},
		{name: "not found", status: http.StatusNotFound, online: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			result := NewHTTPProber(srv.URL).Probe(context.Background())
			assert.Equal(t, tt.online, result.Online)
			assert.NotEmpty(t, result.Message)
		})
	}
}

func TestHTTPProberUnreachable(t *testing.T) {
	// Nothing listens here
	prober := NewHTTPProber("http://127.0.0.1:1").WithTimeout(500 * time.Millisecond)

	result := prober.Probe(context.Background())
	assert.False(t, result.Online)
}

func TestMonitorStartsUnknown(t *testing.T) {
	monitor := NewMonitor(newScriptedProber(), nil, Config{})
	assert.Equal(t, types.ConnUnknown, monitor.State())
}

func TestMonitorTransitions(t *testing.T) {
	prober := newScriptedProber()
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	monitor := NewMonitor(prober, broker, Config{
		Period:       5 * time.Millisecond,
		BannerWindow: time.Hour,
	})
	monitor.Start()
	defer monitor.Stop()

	// Immediate startup probe succeeds
	prober.results <- true
	require.Eventually(t, func() bool {
		return monitor.State() == types.ConnOnline
	}, time.Second, time.Millisecond)

	prober.results <- false
	require.Eventually(t, func() bool {
		return monitor.State() == types.ConnOffline
	}, time.Second, time.Millisecond)

	prober.results <- true
	require.Eventually(t, func() bool {
		return monitor.State() == types.ConnOnline
	}, time.Second, time.Millisecond)

	evs := collectEvents(sub, 50*time.Millisecond)
	var kinds []events.EventType
	for _, ev := range evs {
		kinds = append(kinds, ev.Type)
	}
	assert.Equal(t, []events.EventType{
		events.EventConnectivityOnline,
		events.EventConnectivityOffline,
		events.EventConnectivityOnline,
		events.EventReconnected,
	}, kinds)
}

// TestReconnectedDebounce verifies a link flap inside the banner window
// produces exactly one reconnected notice
func TestReconnectedDebounce(t *testing.T) {
	prober := newScriptedProber()
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	monitor := NewMonitor(prober, broker, Config{
		Period:       time.Millisecond,
		BannerWindow: time.Hour,
	})
	monitor.Start()
	defer monitor.Stop()

	// Offline, online, offline, online: two recoveries inside the window
	prober.results <- false
	prober.results <- true
	prober.results <- false
	prober.results <- true

	evs := collectEvents(sub, 100*time.Millisecond)
	reconnects := 0
	for _, ev := range evs {
		if ev.Type == events.EventReconnected {
			reconnects++
		}
	}
	assert.Equal(t, 1, reconnects, "flapping must not stack reconnected notices")
}

// TestReconnectedAfterWindow verifies a recovery after the banner window
// has elapsed notifies again
func TestReconnectedAfterWindow(t *testing.T) {
	prober := newScriptedProber()
	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	monitor := NewMonitor(prober, broker, Config{
		Period:       time.Millisecond,
		BannerWindow: 30 * time.Millisecond,
	})
	monitor.Start()
	defer monitor.Stop()

	prober.results <- false
	prober.results <- true

	time.Sleep(50 * time.Millisecond)

	prober.results <- false
	prober.results <- true

	evs := collectEvents(sub, 100*time.Millisecond)
	reconnects := 0
	for _, ev := range evs {
		if ev.Type == events.EventReconnected {
			reconnects++
		}
	}
	assert.Equal(t, 2, reconnects)
}

func TestMonitorStopCancelsProbe(t *testing.T) {
	prober := newScriptedProber()
	monitor := NewMonitor(prober, nil, Config{Period: time.Hour})
	monitor.Start()

	// The startup probe is blocked in the prober; Stop must cancel it
	// and return promptly
	done := make(chan struct{})
	go func() {
		monitor.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the in-flight probe")
	}
}
