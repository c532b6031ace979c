package tracking

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pasearch/trackd/pkg/events"
	"github.com/pasearch/trackd/pkg/log"
	"github.com/pasearch/trackd/pkg/metrics"
	"github.com/pasearch/trackd/pkg/registry"
)

const (
	// DefaultReconnectMin is the initial retry delay after a drop
	DefaultReconnectMin = 1 * time.Second

	// DefaultReconnectMax caps the retry delay
	DefaultReconnectMax = 30 * time.Second
)

// Config configures a Channel
type Config struct {
	// URL is the websocket endpoint of the tracking push channel
	URL string

	ReconnectMin time.Duration
	ReconnectMax time.Duration
}

// Channel maintains a live subscription to the tracking push channel,
// normalizes inbound messages, and feeds the device registry. Connection
// errors are non-fatal; the channel retries until Close.
type Channel struct {
	cfg      Config
	registry *registry.Registry
	broker   *events.Broker
	dialer   *websocket.Dialer

	mu        sync.Mutex
	conn      *websocket.Conn
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewChannel creates a channel that merges updates into reg and publishes
// advisory signals on broker
func NewChannel(cfg Config, reg *registry.Registry, broker *events.Broker) *Channel {
	if cfg.ReconnectMin <= 0 {
		cfg.ReconnectMin = DefaultReconnectMin
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = DefaultReconnectMax
	}
	return &Channel{
		cfg:      cfg,
		registry: reg,
		broker:   broker,
		dialer:   websocket.DefaultDialer,
		logger:   log.WithComponent("tracking"),
	}
}

// Connect starts the subscription loop. The channel dials, reads until the
// connection drops, then redials with backoff, indefinitely, until Close
// or ctx cancellation.
func (c *Channel) Connect(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(ctx)
}

// Close tears the channel down deterministically: it stops reconnection
// attempts, closes the socket, and waits for the read loop to exit.
// Safe to call more than once.
func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		cancel := c.cancel
		conn := c.conn
		done := c.done
		c.mu.Unlock()

		if cancel == nil {
			return
		}
		cancel()
		if conn != nil {
			conn.Close()
		}
		<-done
	})
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)

	backoff := c.cfg.ReconnectMin
	first := true

	for {
		if ctx.Err() != nil {
			return
		}
		if !first {
			metrics.ChannelReconnects.Inc()
		}
		first = false

		conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			c.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("dial failed")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff = nextBackoff(backoff, c.cfg.ReconnectMax)
			continue
		}

		// Close may have run between the dial and this store; it saw a nil
		// conn and closed nothing, so the fresh socket is ours to tear down.
		// The closed flag and the conn store are serialized by mu: whichever
		// side runs second closes the socket.
		c.mu.Lock()
		stopped := c.closed || ctx.Err() != nil
		if !stopped {
			c.conn = conn
		}
		c.mu.Unlock()
		if stopped {
			conn.Close()
			return
		}

		backoff = c.cfg.ReconnectMin
		c.logger.Info().Str("url", c.cfg.URL).Msg("channel connected")
		if c.broker != nil {
			c.broker.Publish(events.New(events.EventTrackingConnected, "tracking channel connected"))
		}

		err = c.readLoop(conn)

		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		conn.Close()

		if ctx.Err() != nil {
			return
		}

		c.logger.Warn().Err(err).Msg("channel dropped")
		if c.broker != nil {
			c.broker.Publish(events.New(events.EventTrackingDisconnected, "tracking channel disconnected"))
		}
	}
}

// readLoop consumes messages until the connection fails
func (c *Channel) readLoop(conn *websocket.Conn) error {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(payload)
	}
}

func (c *Channel) dispatch(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		metrics.MessagesDropped.WithLabelValues("unparseable").Inc()
		return
	}

	switch env.Event {
	case msgTrackingUpdate:
		ev, ok := normalizeUpdate(env.Data, time.Now())
		if !ok {
			// Malformed updates are dropped silently, never surfaced
			metrics.MessagesDropped.WithLabelValues("malformed").Inc()
			return
		}
		c.registry.Merge(ev)

	case msgDeviceFrozen:
		var frozen deviceFrozen
		if err := json.Unmarshal(env.Data, &frozen); err != nil || frozen.IMEI == "" {
			metrics.MessagesDropped.WithLabelValues("malformed").Inc()
			return
		}
		// Advisory only: notify, no registry mutation
		logger := log.WithIMEI(frozen.IMEI)
		logger.Info().Msg("freeze advisory received")
		if c.broker != nil {
			ev := events.New(events.EventDeviceFrozen, "device reported frozen")
			ev.Metadata = map[string]string{"imei": frozen.IMEI}
			c.broker.Publish(ev)
		}

	default:
		metrics.MessagesDropped.WithLabelValues("unknown_event").Inc()
	}
}

func nextBackoff(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
