package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recorder struct{ msgs []string }

func (r *recorder) Send(msg string)                  { r.msgs = append(r.msgs, msg) }
func (r *recorder) Sendf(format string, args ...any) { r.Send(format) }

func TestThrottle(t *testing.T) {
	now := time.Unix(0, 0)
	th := NewThrottle(time.Minute)
	th.now = func() time.Time { return now }

	assert.True(t, th.Allow("BTCUSDT:exchange_request_failed"))
	assert.False(t, th.Allow("BTCUSDT:exchange_request_failed"))
	assert.True(t, th.Allow("ETHUSDT:exchange_request_failed"))

	now = now.Add(61 * time.Second)
	assert.True(t, th.Allow("BTCUSDT:exchange_request_failed"))

	th.Reset("BTCUSDT:exchange_request_failed")
	assert.True(t, th.Allow("BTCUSDT:exchange_request_failed"))
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, nil, b}

	m.Sendf("entered %s", "BTCUSDT")

	assert.Equal(t, []string{"entered BTCUSDT"}, a.msgs)
	assert.Equal(t, []string{"entered BTCUSDT"}, b.msgs)
}
