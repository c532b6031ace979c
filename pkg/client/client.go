package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/pasearch/trackd/pkg/log"
	"github.com/pasearch/trackd/pkg/metrics"
	"github.com/pasearch/trackd/pkg/session"
	"github.com/pasearch/trackd/pkg/types"
)

// DefaultTimeout bounds every backend request
const DefaultTimeout = 15 * time.Second

// Config configures a Client
type Config struct {
	BaseURL    string
	HealthPath string
	Timeout    time.Duration
}

// Client is the backend REST API client. It attaches the stored bearer
// token to every request and clears the session when the backend rejects
// the token with a 401.
type Client struct {
	baseURL    string
	healthPath string
	http       *http.Client
	store      *session.Store
	logger     zerolog.Logger
}

// New creates a client backed by the given session store
func New(cfg Config, store *session.Store) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HealthPath == "" {
		cfg.HealthPath = "/health"
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		healthPath: cfg.HealthPath,
		http:       &http.Client{Timeout: cfg.Timeout},
		store:      store,
		logger:     log.WithComponent("client"),
	}
}

// apiResponse is the backend's standard response envelope
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// loginResponse is the payload of a successful login
type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
}

// DeviceReport is a lost/stolen device report submission
type DeviceReport struct {
	IMEI        string `json:"imei"`
	DeviceType  string `json:"deviceType,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Model       string `json:"model,omitempty"`
	Description string `json:"description,omitempty"`
	LostAt      string `json:"lostAt,omitempty"`
	Location    string `json:"location,omitempty"`
}

// TrackSubmission is a manually reported device sighting
type TrackSubmission struct {
	IMEI      string  `json:"imei"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// PoliceUpdate is one entry in the police case log
type PoliceUpdate struct {
	ID        string    `json:"id"`
	IMEI      string    `json:"imei"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	UpdatedBy string    `json:"updated_by"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CaseUpdate carries police case detail changes
type CaseUpdate struct {
	Status string `json:"status,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Login authenticates and persists the resulting session
func (c *Client) Login(ctx context.Context, username, password string) (*types.Session, error) {
	body := map[string]string{"username": username, "password": password}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}

	sess := types.Session{
		Token: resp.Token,
		User: types.User{
			ID:       resp.User.ID,
			Name:     resp.User.Name,
			Username: resp.User.Username,
			Email:    resp.User.Email,
			Role:     types.ParseRole(resp.User.Role),
		},
	}
	if err := c.store.Save(sess); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	logger := log.WithUser(sess.User.Username)
	logger.Info().Str("role", string(sess.User.Role)).Msg("session established")
	return &sess, nil
}

// Register creates a new reporter account
func (c *Client) Register(ctx context.Context, user map[string]string) error {
	return c.do(ctx, http.MethodPost, "/auth/register", user, nil)
}

// ForgotPassword starts the password reset flow
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// VerifyOTP confirms the one-time code sent for a reset
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) error {
	return c.do(ctx, http.MethodPost, "/auth/verify-otp", map[string]string{"email": email, "otp": otp}, nil)
}

// ResetPassword completes the password reset flow
func (c *Client) ResetPassword(ctx context.Context, email, newPassword string) error {
	body := map[string]string{"email": email, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", body, nil)
}

// DeviceByIMEI looks up a reported device
func (c *Client) DeviceByIMEI(ctx context.Context, imei string) (*types.TrackedDevice, error) {
	var dev types.TrackedDevice
	if err := c.do(ctx, http.MethodGet, "/devices/"+imei, nil, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

// ReportDevice submits a lost/stolen device report
func (c *Client) ReportDevice(ctx context.Context, report DeviceReport) error {
	return c.do(ctx, http.MethodPost, "/report-device", report, nil)
}

// TrackDevice submits a device sighting
func (c *Client) TrackDevice(ctx context.Context, sub TrackSubmission) error {
	return c.do(ctx, http.MethodPost, "/track-device", sub, nil)
}

// AllDevices lists every reported device (admin)
func (c *Client) AllDevices(ctx context.Context) ([]types.TrackedDevice, error) {
	var devices []types.TrackedDevice
	if err := c.do(ctx, http.MethodGet, "/devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// UpdateDeviceStatus changes a device's case status (admin)
func (c *Client) UpdateDeviceStatus(ctx context.Context, id string, status types.DeviceStatus, updatedBy string) error {
	body := map[string]string{"status": string(status), "updated_by": updatedBy}
	return c.do(ctx, http.MethodPut, "/admin/update-device/"+id, body, nil)
}

// RecentPoliceUpdates returns the police case log (admin/police)
func (c *Client) RecentPoliceUpdates(ctx context.Context) ([]PoliceUpdate, error) {
	var updates []PoliceUpdate
	if err := c.do(ctx, http.MethodGet, "/admin/police-updates", nil, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// UpdateCase changes case details (police)
func (c *Client) UpdateCase(ctx context.Context, id string, update CaseUpdate) error {
	return c.do(ctx, http.MethodPut, "/admin/update-case/"+id, update, nil)
}

// Ping probes the backend health endpoint. It returns nil only on a
// success response; the connectivity monitor treats anything else as
// unreachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.healthPath, nil, nil)
}

// do performs one request against the backend, decoding the standard
// response envelope into out when out is non-nil
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.APIRequestDuration, method)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.APIRequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusUnauthorized {
		// Backend rejected the token; the stored session is no longer usable
		if err := c.store.Clear(); err != nil {
			c.logger.Error().Err(err).Msg("failed to clear rejected session")
		}
		return fmt.Errorf("session rejected by backend (401)")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Responses arrive either bare or wrapped in the success envelope
	var env apiResponse
	if err := json.Unmarshal(data, &env); err == nil && env.Data != nil {
		if !env.Success {
			return fmt.Errorf("backend error: %s", env.Message)
		}
		data = env.Data
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
