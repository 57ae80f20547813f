package service

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"mtf_bot/pkg/logger"
)

// StatusSink is told when the stream connects or drops.
type StatusSink interface {
	SetStreamConnected(v bool)
}

// Stream subscribes to Binance miniTicker streams and feeds a PriceBook.
type Stream struct {
	baseURL string
	dialer  *websocket.Dialer
	book    *PriceBook
	status  StatusSink

	mu      sync.Mutex
	symbols []string
	conn    *websocket.Conn
}

func NewStream(baseURL string, book *PriceBook, status StatusSink) *Stream {
	return &Stream{
		baseURL: baseURL,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		book:    book,
		status:  status,
	}
}

// SetSymbols replaces the subscription. A live connection is dropped so the
// run loop reconnects with the new stream list.
func (s *Stream) SetSymbols(symbols []string) {
	uniq := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if _, ok := uniq[sym]; ok || sym == "" {
			continue
		}
		uniq[sym] = struct{}{}
		out = append(out, sym)
	}
	sort.Strings(out)

	s.mu.Lock()
	s.symbols = out
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

func (s *Stream) Symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.symbols...)
}

func (s *Stream) streamURL(symbols []string) string {
	names := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		names = append(names, strings.ToLower(sym)+"@miniTicker")
	}
	return s.baseURL + "?streams=" + url.PathEscape(strings.Join(names, "/"))
}

// Run keeps the stream connected until ctx is done.
func (s *Stream) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		symbols := s.Symbols()
		if len(symbols) == 0 {
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}

		u := s.streamURL(symbols)
		conn, _, err := s.dialer.DialContext(ctx, u, nil)
		if err != nil {
			logger.Warn("[WS] dial %s: %v", u, err)
			if !sleepCtx(ctx, backoff) {
				return
			}
			backoff = minDuration(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.setStatus(true)
		logger.Info("[WS] connected, %d symbols", len(symbols))

		s.readLoop(ctx, conn)

		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		s.setStatus(false)
		_ = conn.Close()

		if !sleepCtx(ctx, 200*time.Millisecond) {
			return
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) {
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		t := time.NewTicker(20 * time.Second)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-stopPing:
				return
			case <-t.C:
				_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			}
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(time.Minute))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("[WS] read: %v", err)
			}
			return
		}
		sym, px, ok := parseMiniTicker(msg)
		if !ok {
			continue
		}
		s.book.Set(sym, px)
	}
}

func (s *Stream) setStatus(v bool) {
	if s.status != nil {
		s.status.SetStreamConnected(v)
	}
}

type miniTickerFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		Event  string `json:"e"`
		Symbol string `json:"s"`
		Close  string `json:"c"`
	} `json:"data"`
}

func parseMiniTicker(msg []byte) (string, float64, bool) {
	var f miniTickerFrame
	if err := sonic.Unmarshal(msg, &f); err != nil {
		return "", 0, false
	}
	if f.Data.Event != "24hrMiniTicker" || f.Data.Symbol == "" {
		return "", 0, false
	}
	px, err := strconv.ParseFloat(f.Data.Close, 64)
	if err != nil || px <= 0 {
		return "", 0, false
	}
	return f.Data.Symbol, px, true
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
