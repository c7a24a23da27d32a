package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/shuliakovsky/trg-remote/pkg/metrics"
	"github.com/shuliakovsky/trg-remote/pkg/secrets"
)

type Options struct {
	Timeout time.Duration
	// Socks5 routes daemon traffic through a SOCKS5 proxy (host:port) when set.
	Socks5 string
}

type Client struct {
	url    string
	http   *http.Client
	logger *zap.Logger

	mu        sync.Mutex
	sessionID string
	tag       atomic.Int64
}

func New(url string, opts Options, logger *zap.Logger) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	hc, err := httpClient(opts)
	if err != nil {
		return nil, err
	}
	return &Client{url: url, http: hc, logger: logger}, nil
}

func httpClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		MaxIdleConns:        10,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 8 * time.Second,
	}
	if opts.Socks5 != "" {
		dialer, err := proxy.SOCKS5("tcp", opts.Socks5, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("socks5 dialer: %w", err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	}
	return &http.Client{Transport: transport, Timeout: opts.Timeout}, nil
}

// Call sends one request and decodes the reply arguments into out (if non-nil).
// A 409 reply carries a fresh session id; the request is retried once with it.
func (c *Client) Call(ctx context.Context, method string, args any, out any) error {
	body, err := json.Marshal(Request{Method: method, Arguments: args, Tag: c.tag.Add(1)})
	if err != nil {
		return fmt.Errorf("%s: encode: %w", method, err)
	}

	start := time.Now()
	resp, err := c.post(ctx, body)
	if err == nil && resp.StatusCode == http.StatusConflict {
		resp.Body.Close()
		c.setSessionID(resp.Header.Get(SessionIDHeader))
		c.logger.Debug("rpc_session_id_renewed", zap.String("method", method))
		resp, err = c.post(ctx, body)
	}
	if err != nil {
		metrics.RPCRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	metrics.RPCRequests.WithLabelValues(method, status).Inc()
	if resp.StatusCode == http.StatusConflict {
		return fmt.Errorf("%s: %w", method, ErrSessionConflict)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: http %d: %s", method, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	c.logger.Debug("rpc_call",
		zap.String("method", method),
		zap.String("result", r.Result),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)
	if r.Result != "success" {
		return &Error{Method: method, Result: r.Result}
	}
	if out != nil && len(r.Arguments) > 0 {
		if err := json.Unmarshal(r.Arguments, out); err != nil {
			return fmt.Errorf("%s: decode arguments: %w", method, err)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if id := c.getSessionID(); id != "" {
		req.Header.Set(SessionIDHeader, id)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("rpc_request_error",
			zap.String("url", secrets.RedactURL(c.url)),
			zap.Error(err),
		)
	}
	return resp, err
}

func (c *Client) getSessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) setSessionID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = id
}

// TorrentGet fetches fields for ids; nil ids means every torrent.
func (c *Client) TorrentGet(ctx context.Context, ids []int64, fields []string) ([]Torrent, error) {
	var res torrentGetResult
	if err := c.Call(ctx, MethodTorrentGet, torrentGetArgs{IDs: ids, Fields: fields}, &res); err != nil {
		return nil, err
	}
	return res.Torrents, nil
}

func (c *Client) SessionGet(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Call(ctx, MethodSessionGet, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) SessionSet(ctx context.Context, args map[string]any) error {
	return c.Call(ctx, MethodSessionSet, args, nil)
}
