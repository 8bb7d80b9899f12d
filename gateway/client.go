// Package gateway talks to the outbound WhatsApp gateway (a WPPConnect-style
// HTTP server) and to Twilio. Every call goes through the same retry and
// error classification policy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"salonpro-notifier/apperrors"
	"salonpro-notifier/utils"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	ProviderWhatsApp = "whatsapp"
	ProviderTwilio   = "twilio"

	defaultTimeout  = 15 * time.Second
	maxResponseBody = 1 << 20
)

// Client is bound to one configuration snapshot for its whole lifetime.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	retry   RetryPolicy
	log     zerolog.Logger
}

func NewClient(cfg Config, log zerolog.Logger, opts ...Option) *Client {
	o := buildOptions(opts)
	httpClient := o.httpClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: o.limiter,
		retry:   o.retry,
		log:     log.With().Str("component", "gateway").Str("session", cfg.Session).Logger(),
	}
}

func (c *Client) Provider() string { return ProviderWhatsApp }

// EnsureAuthenticated fails fast when the session or token is missing.
func (c *Client) EnsureAuthenticated() error {
	if c.cfg.BaseURL == "" || c.cfg.Session == "" {
		return apperrors.Configuration("gateway url or session is not configured", "set GATEWAY_URL and GATEWAY_SESSION")
	}
	if c.cfg.Token == "" {
		return apperrors.Configuration("gateway token is not configured", "set GATEWAY_TOKEN or run `gateway token`")
	}
	return nil
}

// GenerateToken asks the gateway for a bearer token for this session. It
// authenticates with the shared secret instead of a token.
func (c *Client) GenerateToken(ctx context.Context) (string, Result) {
	if c.cfg.BaseURL == "" || c.cfg.Session == "" || c.cfg.SecretKey == "" {
		return "", Result{Err: apperrors.Configuration("gateway secret key is not configured", "set GATEWAY_SECRET_KEY")}
	}
	path := fmt.Sprintf("/api/%s/%s/generate-token", url.PathEscape(c.cfg.Session), url.PathEscape(c.cfg.SecretKey))
	res := c.call(ctx, "generate-token", http.MethodPost, path, nil, false)
	if !res.Success {
		return "", res
	}
	token, _ := res.Body["token"].(string)
	if token == "" {
		res.Success = false
		res.Err = apperrors.Terminal(errors.New("gateway: generate-token response has no token"))
		return "", res
	}
	return token, res
}

func (c *Client) StartSession(ctx context.Context) Result {
	return c.sessionCall(ctx, "start-session", http.MethodPost, map[string]interface{}{"waitQrCode": false})
}

func (c *Client) SessionStatus(ctx context.Context) Result {
	return c.sessionCall(ctx, "status-session", http.MethodGet, nil)
}

func (c *Client) CloseSession(ctx context.Context) Result {
	return c.sessionCall(ctx, "close-session", http.MethodPost, nil)
}

func (c *Client) LogoutSession(ctx context.Context) Result {
	return c.sessionCall(ctx, "logout-session", http.MethodPost, nil)
}

func (c *Client) sessionCall(ctx context.Context, op, method string, payload interface{}) Result {
	if err := c.EnsureAuthenticated(); err != nil {
		return Result{Err: err}
	}
	return c.call(ctx, op, method, c.sessionPath(op), payload, true)
}

// SendMessage delivers a text message. phone may be in any common format;
// it is normalized before sending.
func (c *Client) SendMessage(ctx context.Context, phone, message string) Result {
	if err := c.EnsureAuthenticated(); err != nil {
		return Result{Err: err}
	}
	normalized, err := utils.NormalizePhone(phone, c.cfg.DefaultCountryCode)
	if err != nil {
		return Result{Err: apperrors.Terminal(errors.Wrapf(err, "phone %q", phone))}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{Err: apperrors.Terminal(errors.Wrap(err, "gateway: rate limiter"))}
		}
	}

	payload := map[string]interface{}{
		"phone":   normalized,
		"message": message,
		"isGroup": false,
	}
	return c.call(ctx, "send-message", http.MethodPost, c.sessionPath("send-message"), payload, true)
}

func (c *Client) sessionPath(op string) string {
	return fmt.Sprintf("/api/%s/%s", url.PathEscape(c.cfg.Session), op)
}

func (c *Client) call(ctx context.Context, op, method, path string, payload interface{}, auth bool) Result {
	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return Result{Err: apperrors.Terminal(errors.Wrapf(err, "%s: encode request", op))}
		}
	}
	return c.retry.Do(ctx, c.log, op, func(ctx context.Context, attempt int) Result {
		return c.attempt(ctx, method, path, body, auth)
	})
}

func (c *Client) attempt(ctx context.Context, method, path string, body []byte, auth bool) Result {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return Result{Err: apperrors.Terminal(errors.Wrap(err, "build request"))}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{Err: classifyTransportError(ctx, err)}
	}
	defer resp.Body.Close()

	res := Result{HTTPStatus: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		res.Err = classifyTransportError(ctx, errors.Wrap(err, "read response"))
		return res
	}
	jsonErr := json.Unmarshal(raw, &res.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if jsonErr != nil {
			res.Err = apperrors.Terminal(errors.Wrapf(jsonErr, "malformed gateway response (status %d)", resp.StatusCode))
			return res
		}
		res.Success = true
		return res
	}

	statusErr := errors.Newf("gateway returned %d: %s", resp.StatusCode, res.Message())
	if IsRetryableStatus(resp.StatusCode) {
		res.Err = apperrors.Transient(statusErr)
	} else {
		res.Err = apperrors.Terminal(statusErr)
	}
	return res
}
