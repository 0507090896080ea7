package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fazenda-socios/portal-bfa-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_IDLE_TIMEOUT", "")
	t.Setenv("USE_SUPABASE", "")

	cfg := config.Load()

	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
	assert.True(t, cfg.UseSupabase)
	assert.Equal(t, "supabase", cfg.StorageBackend)
	assert.Equal(t, "0 3 * * *", cfg.EventCleanupSchedule)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USE_SUPABASE", "false")
	t.Setenv("SUPABASE_URL", "https://xyz.supabase.co/")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := config.Load()

	assert.Equal(t, 9090, cfg.Port)
	assert.False(t, cfg.UseSupabase)
	assert.Equal(t, "https://xyz.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("SUPER_ADMIN_EMAIL=file@fazenda.com\nLOG_LEVEL=debug\n"), 0o600))

	t.Setenv("SUPER_ADMIN_EMAIL", "env@fazenda.com")
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	require.NoError(t, config.LoadDotEnv(path))
	t.Cleanup(func() { os.Unsetenv("LOG_LEVEL") })

	assert.Equal(t, "env@fazenda.com", os.Getenv("SUPER_ADMIN_EMAIL"))
	assert.Equal(t, "debug", os.Getenv("LOG_LEVEL"))
}
