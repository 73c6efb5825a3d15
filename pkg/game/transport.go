package game

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"
)

// DefaultTimeout is the per-call network timeout.
const DefaultTimeout = 15 * time.Second

// Options configures HTTPTransport.
type Options struct {
	Endpoint     string
	Host         string
	UserAgent    string
	UnityVersion string
	Timeout      time.Duration
	ProxyURL     string
}

// HTTPTransport posts envelopes to the single vendor endpoint.
type HTTPTransport struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
	logger   *log.Helper
}

// NewHTTPTransport creates the transport. An invalid proxy URL is a configuration error.
func NewHTTPTransport(opts Options, logger log.Logger) (*HTTPTransport, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client, err := NewHTTPClient(opts.ProxyURL, timeout)
	if err != nil {
		return nil, err
	}

	return &HTTPTransport{
		endpoint: opts.Endpoint,
		headers: map[string]string{
			"Host":            opts.Host,
			"User-Agent":      opts.UserAgent,
			"Accept":          "*/*",
			"Accept-Encoding": "identity",
			"Content-Type":    "application/x-www-form-urlencoded",
			"X-Unity-Version": opts.UnityVersion,
		},
		client: client,
		logger: log.NewHelper(logger),
	}, nil
}

// Send posts one envelope and decodes the reply. Every failure wraps ErrNoReply.
func (t *HTTPTransport) Send(ctx context.Context, env Envelope) (Response, error) {
	body, err := env.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoReply, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrNoReply, err)
	}
	for key, value := range t.headers {
		if value == "" {
			continue
		}
		if key == "Host" {
			req.Host = value
			continue
		}
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to send msg %d: %v", ErrNoReply, env.MsgID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read reply of msg %d: %v", ErrNoReply, env.MsgID, err)
	}

	t.logger.Debugw("msg", "game request finished",
		"msg_id", env.MsgID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: msg %d returned HTTP %d", ErrNoReply, env.MsgID, resp.StatusCode)
	}

	r, err := ParseResponse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: msg %d: %v", ErrNoReply, env.MsgID, err)
	}
	return r, nil
}
