package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HTTPClient implements Client against the alert server's REST API.
type HTTPClient struct {
	baseURL string
	token   func() string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTPClient creates an HTTPClient. token is called per request so a
// re-login picks up the fresh token without rebuilding the client.
func NewHTTPClient(baseURL string, timeout time.Duration, token func() string, log *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// envelope is the server's uniform response wrapper.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *HTTPClient) postForm(ctx context.Context, path string, form url.Values) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Token "+tok)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("server error response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}

// SendAlert implements Client.
func (c *HTTPClient) SendAlert(ctx context.Context, to, message string) (string, error) {
	form := url.Values{}
	form.Set("to", to)
	form.Set("message", message)

	env, err := c.postForm(ctx, "/send_alert/", form)
	if err != nil {
		return "", err
	}

	var data struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("decode alert id: %w", err)
	}
	return data.ID, nil
}

// SendDeliveredReceipt implements Client.
func (c *HTTPClient) SendDeliveredReceipt(ctx context.Context, from, alertID string) error {
	form := url.Values{}
	form.Set("from", from)
	form.Set("alert_id", alertID)
	_, err := c.postForm(ctx, "/alert_delivered/", form)
	return err
}

// SendReadReceipt implements Client.
func (c *HTTPClient) SendReadReceipt(ctx context.Context, from, alertID string) error {
	form := url.Values{}
	form.Set("from", from)
	form.Set("alert_id", alertID)
	_, err := c.postForm(ctx, "/alert_read/", form)
	return err
}

// RegisterDevice implements Client.
func (c *HTTPClient) RegisterDevice(ctx context.Context, pushToken string) error {
	form := url.Values{}
	form.Set("fcm_token", pushToken)
	_, err := c.postForm(ctx, "/register_device/", form)
	return err
}

// UnregisterDevice implements Client.
func (c *HTTPClient) UnregisterDevice(ctx context.Context, pushToken string) error {
	form := url.Values{}
	form.Set("fcm_token", pushToken)
	_, err := c.postForm(ctx, "/unregister_device/", form)
	return err
}

// AddFriend implements Client.
func (c *HTTPClient) AddFriend(ctx context.Context, username string) error {
	form := url.Values{}
	form.Set("username", username)
	_, err := c.postForm(ctx, "/add_friend/", form)
	return err
}
