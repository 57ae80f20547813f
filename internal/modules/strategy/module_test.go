package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtf_bot/internal/modules/config"
	"mtf_bot/internal/modules/strategy/service"
)

func TestEngineConfigMatchesDefaults(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	got, err := NewEngineConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, service.DefaultConfig(), got)
}

func TestEngineConfigRejectsUnknownTimeframe(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	cfg.Strategy.DecisionTimeframe = "2d"

	_, err = NewEngineConfig(cfg)
	assert.Error(t, err)
}
