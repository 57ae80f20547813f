package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	_, added := r.Add("eth/usdt", 0)
	assert.True(t, added)
	_, added = r.Add("BTCUSDT", 25)
	assert.True(t, added)
	ins, added := r.Add("ETHUSDT", 15)
	assert.False(t, added)
	assert.Equal(t, 15.0, ins.Spend)

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, r.Symbols())

	got, ok := r.Get("btc-usdt")
	assert.True(t, ok)
	assert.Equal(t, 25.0, got.Spend)

	assert.True(t, r.Remove("ethusdt"))
	assert.False(t, r.Remove("ETHUSDT"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryOnChange(t *testing.T) {
	r := NewRegistry()
	var calls [][]string
	r.OnChange(func(symbols []string) { calls = append(calls, symbols) })

	r.Add("BTCUSDT", 0)
	r.Add("BTCUSDT", 5)
	r.Add("ETHUSDT", 0)
	r.Remove("SOLUSDT")
	r.Remove("BTCUSDT")

	assert.Equal(t, [][]string{{"BTCUSDT"}, {"BTCUSDT", "ETHUSDT"}, {"ETHUSDT"}}, calls)
}
