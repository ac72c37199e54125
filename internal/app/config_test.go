package app

import (
	"testing"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func load(t *testing.T) (*Config, error) {
	t.Helper()
	return loadConfig(aconfig.Config{SkipFlags: true, SkipFiles: true})
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("GREENBITE_DATABASE_URL", "postgres://localhost/greenbite")
	t.Setenv("GREENBITE_JWT_SECRET", "s3cret")
}

// --- Tests ---

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	setRequired(t)

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "greenbite", cfg.JWT.Issuer)
	assert.Equal(t, 30*24*time.Hour, cfg.Catalog.ExpiryWindow)
	assert.Equal(t, 100, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 3*time.Second, cfg.Graceful.ReadinessDelay)
	assert.Equal(t, 15*time.Second, cfg.Graceful.ShutdownTimeout)
}

func TestLoadConfig_PlatformVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GREENBITE_JWT_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://platform/db")
	t.Setenv("PORT", "9000")

	cfg, err := load(t)
	require.NoError(t, err)
	assert.Equal(t, "postgres://platform/db", cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
}

func TestLoadConfig_Required(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "database url",
			env:  map[string]string{"GREENBITE_JWT_SECRET": "s3cret"},
			want: "database URL is required",
		},
		{
			name: "jwt secret",
			env:  map[string]string{"GREENBITE_DATABASE_URL": "postgres://localhost/greenbite"},
			want: "JWT secret is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			t.Setenv("DATABASE_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(t)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
