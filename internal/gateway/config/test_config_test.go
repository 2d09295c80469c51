package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("UPSTREAM_TIMEOUT", "")
	t.Setenv("DEDUP_EXCLUDE", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, ":8081", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"/system/permissions/tree"}, cfg.Upstream.DedupExclude)
	assert.Equal(t, SourceHTTP, cfg.Menu.Source)
	assert.Equal(t, "minio:9000", cfg.Menu.Object.Endpoint)
	assert.False(t, cfg.Menu.Object.UseSSL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9000")
	t.Setenv("UPSTREAM_TIMEOUT", "5s")
	t.Setenv("DEDUP_EXCLUDE", " /a , ,/b ")
	t.Setenv("SESSION_MAX", "nope")
	t.Setenv("MENU_SOURCE", "SQL")
	t.Setenv("ENVELOPE_STRICT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, []string{"/a", "/b"}, cfg.Upstream.DedupExclude)
	assert.Equal(t, 1024, cfg.Session.Max)
	assert.Equal(t, SourceSQL, cfg.Menu.Source)
	assert.True(t, cfg.Upstream.StrictEnvelope)
	assert.True(t, cfg.Menu.Object.UseSSL)

	cfg.SetPort("127.0.0.1:7000")
	assert.Equal(t, "127.0.0.1:7000", cfg.Port)
}

func TestLoadUnitlessDurationIsSeconds(t *testing.T) {
	t.Setenv("UPSTREAM_TIMEOUT", "30")
	t.Setenv("SESSION_TTL", "-5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoadLocalObjectConfigHonorsEnv(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("MENU_S3_ENDPOINT", "s3.example.com")
	t.Setenv("MENU_S3_BUCKET", "menus")
	t.Setenv("MENU_S3_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3.example.com", cfg.Menu.Object.Endpoint)
	assert.Equal(t, "menus", cfg.Menu.Object.Bucket)
	assert.True(t, cfg.Menu.Object.UseSSL)
}
