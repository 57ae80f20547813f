package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	streamConnected atomic.Bool
	lastTickUnix    atomic.Int64 // unix seconds
	instruments     atomic.Int64
	lastError       atomic.Value // string
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	s.lastError.Store("")
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetStreamConnected(v bool) { s.streamConnected.Store(v) }
func (s *State) StreamConnected() bool     { return s.streamConnected.Load() }

func (s *State) SetInstruments(n int) { s.instruments.Store(int64(n)) }
func (s *State) Instruments() int     { return int(s.instruments.Load()) }

func (s *State) SetLastError(msg string) { s.lastError.Store(msg) }
func (s *State) LastError() string       { return s.lastError.Load().(string) }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

// Report is the /healthz body.
type Report struct {
	Ready           bool   `json:"ready"`
	Stale           bool   `json:"stale"`
	StreamConnected bool   `json:"streamConnected"`
	Instruments     int    `json:"instruments"`
	LastError       string `json:"lastError"`
	UptimeSec       int64  `json:"uptimeSec"`
	LastTickUnix    int64  `json:"lastTickUnix"`
}

// Stale reports whether the scheduler has not ticked for longer than maxAge.
// A zero maxAge disables the check.
func (s *State) Stale(now time.Time, maxAge time.Duration) bool {
	last := s.LastTick()
	if maxAge <= 0 || last.IsZero() {
		return false
	}
	return now.Sub(last) > maxAge
}

func (s *State) Report(now time.Time, maxAge time.Duration) Report {
	return Report{
		Ready:           s.Ready(),
		Stale:           s.Stale(now, maxAge),
		StreamConnected: s.StreamConnected(),
		Instruments:     s.Instruments(),
		LastError:       s.LastError(),
		UptimeSec:       int64(s.Uptime().Seconds()),
		LastTickUnix:    s.lastTickUnix.Load(),
	}
}
