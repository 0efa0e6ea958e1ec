package debug

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhd2015/pdb-mcp/config"
)

func TestNewSessionManager(t *testing.T) {
	m, err := NewSessionManager(nil, nil)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Registry().Len())
}

func TestNewSessionManagerRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.CommandTimeout = -time.Second

	_, err := NewSessionManager(cfg, nil)
	assert.Error(t, err)
}
