package position

import (
	"time"

	"mtf_bot/internal/models"
)

// ring is a fixed size buffer of the latest decisions, oldest first.
type ring struct {
	buf  []models.Decision
	next int
	full bool
}

func newRing(size int) *ring {
	if size <= 0 {
		size = 1
	}
	return &ring{buf: make([]models.Decision, size)}
}

func (r *ring) push(d models.Decision) {
	r.buf[r.next] = d
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
}

func (r *ring) list() []models.Decision {
	if !r.full {
		return append([]models.Decision(nil), r.buf[:r.next]...)
	}
	out := make([]models.Decision, 0, len(r.buf))
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

func (r *ring) last() (models.Decision, bool) {
	if !r.full && r.next == 0 {
		return models.Decision{}, false
	}
	i := (r.next - 1 + len(r.buf)) % len(r.buf)
	return r.buf[i], true
}

// unresolvedBuy reports a BUY entry inside window that no later exit resolved.
func (r *ring) unresolvedBuy(now time.Time, window time.Duration) bool {
	ds := r.list()
	for i := len(ds) - 1; i >= 0; i-- {
		d := ds[i]
		switch d.Action {
		case models.ActionExited, models.ActionClosedExt:
			return false
		case models.ActionEntered:
			return window <= 0 || now.Sub(d.At) < window
		}
	}
	return false
}
