package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"mtf_bot/internal/models"
)

type Config struct {
	BaseURL    string
	APIKey     string
	APISecret  string
	RecvWindow time.Duration
	Timeout    time.Duration
	FiltersTTL time.Duration
}

// Client talks to the Binance spot REST API.
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow time.Duration
	filtersTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	filters map[string]models.ExchangeFilters
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		recvWindow: cfg.RecvWindow,
		filtersTTL: cfg.FiltersTTL,
		now:        time.Now,
		filters:    make(map[string]models.ExchangeFilters),
	}
}

type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// do sends one request. Signed requests get timestamp, recvWindow and signature
// appended to the query string.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, signed bool, out any) error {
	if q == nil {
		q = url.Values{}
	}
	if signed {
		if c.recvWindow > 0 {
			q.Set("recvWindow", strconv.FormatInt(c.recvWindow.Milliseconds(), 10))
		}
		q.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	}
	query := q.Encode()
	if signed {
		query += "&signature=" + c.sign(query)
	}

	u := c.baseURL + path
	if query != "" {
		u += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", models.ErrExchangeRequestFailed, method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %s %s: read body: %v", models.ErrExchangeRequestFailed, method, path, err)
	}

	if resp.StatusCode/100 != 2 {
		var ae apiError
		if sonic.Unmarshal(body, &ae) == nil && ae.Msg != "" {
			return fmt.Errorf("%w: %s %s: http %d code %d: %s", models.ErrExchangeRequestFailed, method, path, resp.StatusCode, ae.Code, ae.Msg)
		}
		return fmt.Errorf("%w: %s %s: http %d: %s", models.ErrExchangeRequestFailed, method, path, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s %s: decode: %v", models.ErrExchangeRequestFailed, method, path, err)
	}
	return nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
