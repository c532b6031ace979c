package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/pasearch/trackd/pkg/events"
	"github.com/pasearch/trackd/pkg/log"
	"github.com/pasearch/trackd/pkg/metrics"
	"github.com/pasearch/trackd/pkg/types"
)

const (
	// DefaultGuardPeriod is how often the guard re-evaluates the session
	DefaultGuardPeriod = 180 * time.Second

	// DefaultGraceBuffer absorbs clock drift between client and issuer
	DefaultGraceBuffer = 10 * time.Second
)

// Decision is the outcome of an authorization check
type Decision string

const (
	Allow         Decision = "allow"
	DenyNoSession Decision = "deny_no_session"
	DenyWrongRole Decision = "deny_wrong_role"
)

// Guard evaluates session validity without a network round-trip and forces
// logout on expiry. It is the only actor that clears the session on expiry
// grounds; Logout is the separate explicit path.
type Guard struct {
	store    *Store
	broker   *events.Broker
	period   time.Duration
	grace    time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   zerolog.Logger
}

// GuardConfig configures a Guard
type GuardConfig struct {
	Period time.Duration
	Grace  time.Duration
}

// NewGuard creates a session guard over the given store
func NewGuard(store *Store, broker *events.Broker, cfg GuardConfig) *Guard {
	if cfg.Period <= 0 {
		cfg.Period = DefaultGuardPeriod
	}
	if cfg.Grace <= 0 {
		cfg.Grace = DefaultGraceBuffer
	}
	return &Guard{
		store:  store,
		broker: broker,
		period: cfg.Period,
		grace:  cfg.Grace,
		stopCh: make(chan struct{}),
		logger: log.WithComponent("session-guard"),
	}
}

// Start begins periodic expiry enforcement
func (g *Guard) Start() {
	go g.run()
}

// Stop cancels the enforcement timer. Safe to call more than once.
func (g *Guard) Stop() {
	g.stopOnce.Do(func() {
		close(g.stopCh)
	})
}

func (g *Guard) run() {
	ticker := time.NewTicker(g.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.enforce()
		case <-g.stopCh:
			return
		}
	}
}

func (g *Guard) enforce() {
	sess, _ := g.store.Load()
	if !g.IsExpired(sess) {
		return
	}

	if err := g.store.Clear(); err != nil {
		g.logger.Error().Err(err).Msg("failed to clear expired session")
	}
	metrics.SessionsExpired.Inc()
	g.logger.Info().Msg("session expired, forcing logout")
	if g.broker != nil {
		g.broker.Publish(events.New(events.EventSessionExpired, "session expired, please log in again"))
	}
}

// Logout clears the session immediately on explicit user request
func (g *Guard) Logout() error {
	if err := g.store.Clear(); err != nil {
		return err
	}
	if g.broker != nil {
		g.broker.Publish(events.New(events.EventSessionLogout, "logged out"))
	}
	return nil
}

// IsExpired reports whether the session is unusable.
//
// A missing session or token fails closed. A token whose payload cannot be
// decoded fails closed. A decodable token without an exp claim fails open:
// it is assumed session-scoped, not time-scoped.
func (g *Guard) IsExpired(s *types.Session) bool {
	return g.isExpiredAt(s, time.Now())
}

func (g *Guard) isExpiredAt(s *types.Session, now time.Time) bool {
	if s == nil || s.Token == "" {
		return true
	}

	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(s.Token, jwt.MapClaims{})
	if err != nil {
		// Corrupt token is untrustworthy
		return true
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil {
		return true
	}
	if exp == nil {
		// No exp claim: session-scoped token
		return false
	}

	return now.After(exp.Time.Add(-g.grace))
}

// Authorize checks the session's role against the roles a view requires
func (g *Guard) Authorize(s *types.Session, required ...types.Role) Decision {
	if g.IsExpired(s) {
		metrics.AuthDenials.WithLabelValues(string(DenyNoSession)).Inc()
		return DenyNoSession
	}

	for _, role := range required {
		if s.User.Role == role {
			return Allow
		}
	}

	metrics.AuthDenials.WithLabelValues(string(DenyWrongRole)).Inc()
	return DenyWrongRole
}
