// Package commerce is the HTTP transport to the external commerce platform.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/amoghku/marketplace-pim/internal/config"
)

const (
	// SyncNamespace is the admin route prefix the commerce platform exposes for catalog pushes.
	SyncNamespace = "strapi-sync"

	ResourceCategories  = "categories"
	ResourceCollections = "collections"

	DefaultTimeout = config.SyncTimeout

	ErrMissingSecret = "Missing MEDUSA_STRAPI_SYNC_SECRET configuration"
	ErrTimedOut      = "Sync request timed out"
)

// Result is the uniform outcome of one sync call. Status is 0 when no HTTP
// response was received.
type Result struct {
	OK      bool
	Status  int
	Body    map[string]interface{}
	Error   string
	Details map[string]interface{}
}

// Client posts catalog payloads to the commerce platform. It holds no state
// besides its immutable configuration and the one-shot configuration log.
type Client struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     logrus.FieldLogger
	production bool

	configLogged sync.Once
}

func NewClient(cfg config.SyncConfig, logger logrus.FieldLogger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    config.ResolveBaseURL(cfg.BaseURL),
		secret:     cfg.Secret,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithField("component", "commerce_sync"),
	}
}

// LogConfiguration reports the resolved sync target at startup without the secret.
func LogConfiguration(cfg config.SyncConfig, logger logrus.FieldLogger) {
	logger = logger.WithField("component", "commerce_sync")
	logger.WithFields(logrus.Fields{
		"base_url":      config.ResolveBaseURL(cfg.BaseURL),
		"secret_length": len(cfg.Secret),
		"sync_disabled": cfg.Disabled,
		"timeout":       cfg.Timeout.String(),
	}).Info("Sync configuration")

	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}
}

// WithProduction silences the missing-secret warning, which is only useful during development.
func (c *Client) WithProduction(production bool) *Client {
	c.production = production
	return c
}

func (c *Client) SyncCategories(ctx context.Context, items interface{}) Result {
	return c.PostResource(ctx, ResourceCategories, map[string]interface{}{"items": items})
}

func (c *Client) SyncCollections(ctx context.Context, items interface{}) Result {
	return c.PostResource(ctx, ResourceCollections, map[string]interface{}{"items": items})
}

// PostResource sends payload to {base}/admin/strapi-sync/{resource}. The secret
// travels in x-sync-secret, in a bearer authorization header and in the body.
func (c *Client) PostResource(ctx context.Context, resource string, payload map[string]interface{}) Result {
	if c.secret == "" {
		c.configLogged.Do(func() {
			if !c.production {
				c.logger.Warn("Missing sync secret configuration; skipping commerce sync calls")
			}
		})
		return Result{OK: false, Status: 0, Error: ErrMissingSecret}
	}

	c.configLogged.Do(func() {
		c.logger.WithFields(logrus.Fields{
			"base_url":      c.baseURL,
			"secret_length": len(c.secret),
		}).Info("Configured commerce sync target")
	})

	url := fmt.Sprintf("%s/admin/%s/%s", c.baseURL, SyncNamespace, resource)
	logger := c.logger.WithField("resource", resource)

	body := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	body["__sync_secret"] = c.secret

	encoded, err := json.Marshal(body)
	if err != nil {
		return Result{OK: false, Status: 0, Error: fmt.Sprintf("failed to encode payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return Result{OK: false, Status: 0, Error: fmt.Sprintf("failed to build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sync-Secret", c.secret)
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Error("Commerce sync request failed")
		if isTimeout(err) {
			return Result{OK: false, Status: 0, Error: ErrTimedOut}
		}
		return Result{OK: false, Status: 0, Error: err.Error()}
	}
	defer resp.Body.Close()

	parsed := parseJSONBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.WithField("status", resp.StatusCode).
			Warn("Commerce sync rejected (headers sent: x-sync-secret, authorization)")

		message := fmt.Sprintf("Request failed with status %d", resp.StatusCode)
		if msg, ok := parsed["error"].(string); ok && msg != "" {
			message = msg
		}
		return Result{OK: false, Status: resp.StatusCode, Error: message, Details: parsed}
	}

	return Result{OK: true, Status: resp.StatusCode, Body: parsed}
}

// parseJSONBody returns nil for empty or non-object bodies.
func parseJSONBody(r io.Reader) map[string]interface{} {
	raw, err := io.ReadAll(r)
	if err != nil || len(raw) == 0 {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
