package muteagent

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imran-siddique/mute-agent/core"
	"github.com/imran-siddique/mute-agent/handshake"
)

func TestParsePolicy(t *testing.T) {
	cfg, err := ParsePolicy([]byte(`
deadline: 10s
max_retries: 5
backoff_base: 250ms
backoff_max: 2s
max_concurrent_sessions: 8
outcome_dimension: temporal
`))
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Deadline)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.BackoffBase)
	assert.Equal(t, 2*time.Second, cfg.BackoffMax)
	assert.Equal(t, int64(8), cfg.MaxConcurrentSessions)
	assert.Equal(t, core.DimensionTemporal, cfg.OutcomeDimension)
}

func TestParsePolicy_DefaultsForUnsetFields(t *testing.T) {
	cfg, err := ParsePolicy([]byte(`deadline: 1s`))
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.Deadline)
	assert.Equal(t, handshake.DefaultConfig.MaxRetries, cfg.MaxRetries)
	assert.Equal(t, handshake.DefaultConfig.BackoffBase, cfg.BackoffBase)
	assert.Equal(t, handshake.DefaultConfig.OutcomeDimension, cfg.OutcomeDimension)
}

func TestParsePolicy_Invalid(t *testing.T) {
	_, err := ParsePolicy([]byte(`deadline: [not, a, duration]`))
	assert.Error(t, err)

	_, err = ParsePolicy([]byte(`deadline: soon`))
	assert.ErrorContains(t, err, "invalid deadline")

	_, err = ParsePolicy([]byte(`backoff_base: never`))
	assert.ErrorContains(t, err, "invalid backoff_base")
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("deadline: 3s\nmax_retries: 1\n"), 0o600))

	cfg, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Deadline)
	assert.Equal(t, 1, cfg.MaxRetries)

	_, err = LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
