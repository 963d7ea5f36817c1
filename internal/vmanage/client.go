// Package vmanage implements the Cisco vManage REST API client used as
// the monitor's live data source. Authentication is the two-step
// controller flow: a form POST to j_security_check establishes the
// session cookie, then /dataservice/client/token yields the XSRF token
// sent on every subsequent request.
package vmanage

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/tamersaid2022/sdwan-health-monitor/internal/fabric"
)

// Config holds the controller connection settings.
type Config struct {
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Username  string        `mapstructure:"username"`
	Password  string        `mapstructure:"password"`
	VerifySSL bool          `mapstructure:"verify_ssl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Client wraps the vManage dataservice REST API. All fetch methods
// re-authenticate transparently when the controller invalidates the
// session, and a circuit breaker stops hammering a controller that is
// failing hard.
type Client struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	logger     *zap.Logger
	breaker    *gobreaker.CircuitBreaker

	loginAttempts uint
	loginDelay    time.Duration

	mu            sync.Mutex
	authenticated bool
	xsrfToken     string
}

var _ fabric.DataSource = (*Client)(nil)

// NewClient creates a vManage API client. The returned client holds no
// session yet; the first request authenticates lazily.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("vmanage host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 443
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	// Session auth rides on the JSESSIONID cookie.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	// Lab controllers routinely run self-signed certificates.
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifySSL},
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "vmanage",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		httpClient:    &http.Client{Timeout: cfg.Timeout, Jar: jar, Transport: transport},
		baseURL:       fmt.Sprintf("https://%s:%d", cfg.Host, cfg.Port),
		username:      cfg.Username,
		password:      cfg.Password,
		logger:        logger,
		breaker:       breaker,
		loginAttempts: 3,
		loginDelay:    time.Second,
	}, nil
}

// FetchDevices returns the raw edge-device inventory.
func (c *Client) FetchDevices(ctx context.Context) ([]map[string]any, error) {
	return c.getData(ctx, "/device")
}

// FetchDeviceStatus returns the raw device status feed. Status fields
// are fresher than the inventory and overlay it during normalization.
func (c *Client) FetchDeviceStatus(ctx context.Context) ([]map[string]any, error) {
	return c.getData(ctx, "/device/monitor")
}

// FetchTunnelSessions returns the raw BFD session list, one record per
// data-plane tunnel.
func (c *Client) FetchTunnelSessions(ctx context.Context) ([]map[string]any, error) {
	return c.getData(ctx, "/device/bfd/sessions")
}

// FetchAlarms returns raw alarms. With activeOnly only uncleared alarms
// are returned.
func (c *Client) FetchAlarms(ctx context.Context, activeOnly bool) ([]map[string]any, error) {
	path := "/alarms"
	if activeOnly {
		path += "?cleared=false"
	}
	return c.getData(ctx, path)
}

// Acknowledge marks an alarm acknowledged on the controller.
func (c *Client) Acknowledge(ctx context.Context, alarmID string) error {
	body := map[string]string{"alarmId": alarmID}
	if err := c.doJSON(ctx, http.MethodPost, "/alarms/acknowledge", body, nil); err != nil {
		return fmt.Errorf("acknowledge alarm %s: %w", alarmID, err)
	}
	return nil
}

// Logout terminates the controller session. Errors are ignored; the
// session expires on its own either way.
func (c *Client) Logout(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/logout", nil)
	if err != nil {
		return
	}
	resp, err := c.httpClient.Do(req)
	if err == nil {
		resp.Body.Close()
	}
	c.mu.Lock()
	c.authenticated = false
	c.xsrfToken = ""
	c.mu.Unlock()
}

// dataEnvelope is the {"data": [...]} wrapper vManage puts around every
// collection response.
type dataEnvelope struct {
	Data []map[string]any `json:"data"`
}

func (c *Client) getData(ctx context.Context, path string) ([]map[string]any, error) {
	var envelope dataEnvelope
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	return envelope.Data, nil
}

// login runs the two-step authentication flow. Transient failures are
// retried with backoff before giving up.
func (c *Client) login(ctx context.Context) error {
	r := retry.New(
		retry.Context(ctx),
		retry.Attempts(c.loginAttempts),
		retry.Delay(c.loginDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn("vmanage login retry",
				zap.Uint("attempt", attempt+1),
				zap.Error(err),
			)
		}),
	)
	return r.Do(func() error {
		return c.loginOnce(ctx)
	})
}

func (c *Client) loginOnce(ctx context.Context) error {
	form := url.Values{
		"j_username": {c.username},
		"j_password": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/j_security_check", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}

	// Success is an empty 200; bad credentials come back as the HTML
	// login page with the same 200 status.
	if resp.StatusCode != http.StatusOK || strings.Contains(strings.ToLower(string(body)), "html") {
		return fmt.Errorf("authentication rejected by %s", c.baseURL)
	}

	token, err := c.fetchToken(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.xsrfToken = token
	c.authenticated = true
	c.mu.Unlock()

	c.logger.Info("authenticated to vmanage", zap.String("controller", c.baseURL))
	return nil
}

// fetchToken retrieves the XSRF token required on mutating requests.
// Older controllers do not serve one; that is not an error.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/dataservice/client/token", nil)
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch xsrf token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}
	token, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read xsrf token: %w", err)
	}
	return strings.TrimSpace(string(token)), nil
}

func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	ok := c.authenticated
	c.mu.Unlock()
	if ok {
		return nil
	}
	return c.login(ctx)
}

// doJSON performs a dataservice request with JSON serialization. A 401
// or 403 response invalidates the session and the request is replayed
// once after re-authenticating.
func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	if err := c.ensureSession(ctx); err != nil {
		return err
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		err := c.doOnce(ctx, method, path, body, result)
		if isSessionExpired(err) {
			c.mu.Lock()
			c.authenticated = false
			c.mu.Unlock()
			if loginErr := c.login(ctx); loginErr != nil {
				return nil, loginErr
			}
			err = c.doOnce(ctx, method, path, body, result)
		}
		return nil, err
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/dataservice"+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	if c.xsrfToken != "" {
		req.Header.Set("X-XSRF-TOKEN", c.xsrfToken)
	}
	c.mu.Unlock()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errSessionExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("vmanage API %s %s returned %d: %s", method, path, resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

var errSessionExpired = errors.New("vmanage session expired")

func isSessionExpired(err error) bool {
	return errors.Is(err, errSessionExpired)
}
