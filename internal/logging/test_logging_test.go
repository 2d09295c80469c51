package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	prod, err := New(Options{Env: "production"})
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))

	local, err := New(Options{Env: "local"})
	require.NoError(t, err)
	assert.False(t, local.Core().Enabled(zapcore.DebugLevel))

	verbose, err := New(Options{Env: "production", Verbose: true})
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}
