package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, []string{"agileboard"}, cfg.Audience)
	require.Equal(t, 15*time.Minute, cfg.AccessTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	require.Equal(t, time.Hour, cfg.HousekeepingInterval)
	require.Empty(t, cfg.SMTPHost)
}

func TestLoadConfig_DotEnvAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=9090\nSMTP_HOST=mail.internal\nAUTH_AUDIENCE=web,cli\n"), 0o600))

	// Real environment wins over the file.
	t.Setenv("PORT", "7070")
	t.Setenv("HOUSEKEEPING_INTERVAL", "5m")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Unsetenv("SMTP_HOST")
		_ = os.Unsetenv("AUTH_AUDIENCE")
	})

	require.Equal(t, 7070, cfg.Port)
	require.Equal(t, "mail.internal", cfg.SMTPHost)
	require.Equal(t, []string{"web", "cli"}, cfg.Audience)
	require.Equal(t, 5*time.Minute, cfg.HousekeepingInterval)
}

func TestLoadConfig_Invalid(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.env")

	t.Setenv("DATABASE_DRIVER", "postgres")
	_, err := LoadConfig(missing)
	require.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_DRIVER", "mysql")
	_, err = LoadConfig(missing)
	require.ErrorContains(t, err, "mysql")

	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("PORT", "not-a-number")
	_, err = LoadConfig(missing)
	require.Error(t, err)
}
