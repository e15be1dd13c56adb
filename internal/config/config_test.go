package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "commissionbot", cfg.AppName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "Asia/Shanghai", cfg.Timezone)
	assert.True(t, cfg.AllowBasicInviter)
	assert.Zero(t, cfg.BasicInviteCommission)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "sqlite", cfg.DBType)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("ALLOW_BASIC_INVITER", "off")
	t.Setenv("BASIC_INVITE_COMMISSION", "500")
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("DATABASE_TYPE", "postgres")

	cfg := Load()

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.AllowBasicInviter)
	assert.Equal(t, int64(500), cfg.BasicInviteCommission)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, "postgres", cfg.DBType)
}

func TestGetenvBool(t *testing.T) {
	t.Setenv("FLAG", "yes")
	assert.True(t, getenvBool("FLAG", false))

	t.Setenv("FLAG", "0")
	assert.False(t, getenvBool("FLAG", true))

	// garbage falls back to the default
	t.Setenv("FLAG", "maybe")
	assert.True(t, getenvBool("FLAG", true))
}

func TestGetenvInt64(t *testing.T) {
	t.Setenv("NUM", "250")
	assert.Equal(t, int64(250), getenvInt64("NUM", 0))

	t.Setenv("NUM", "2.5")
	assert.Equal(t, int64(9), getenvInt64("NUM", 9))
}

func TestProvideDBConfig(t *testing.T) {
	cfg := Config{
		DBType:        "sqlite",
		DBPath:        "test.db",
		DBMaxOpenConn: 4,
	}
	dbCfg := ProvideDBConfig(cfg)
	assert.Equal(t, "sqlite", dbCfg.Type)
	assert.Equal(t, "test.db", dbCfg.Path)
	assert.Equal(t, 4, dbCfg.MaxOpenConn)
}

func TestLoadTierLevels(t *testing.T) {
	dir := t.TempDir()
	content := `tiers:
  - name: Monthly
    tier: 1
    roleIds: [100]
    commission: 20
    price: "10"
  - name: Annual
    tier: 2
    roleIds: [200, 201]
    commission: 40
    price: "99.50"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiers.yml"), []byte(content), 0o600))
	chdir(t, dir)

	levels := LoadTierLevels(zap.NewNop())
	require.Len(t, levels, 2)
	assert.Equal(t, "Monthly", levels[0].Name)
	assert.Equal(t, 1, levels[0].Tier)
	assert.Equal(t, []int64{100}, levels[0].RoleIDs)
	assert.Equal(t, int64(20), levels[0].Commission)
	assert.Equal(t, "99.50", levels[1].Price)
}

func TestLoadTierLevelsMissingFile(t *testing.T) {
	chdir(t, t.TempDir())
	assert.Nil(t, LoadTierLevels(zap.NewNop()))
}

func TestLoadTierLevelsMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiers.yml"), []byte("tiers: 12\n"), 0o600))
	chdir(t, dir)

	assert.Nil(t, LoadTierLevels(zap.NewNop()))
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
