package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdbank/gdb/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 8001, cfg.Server.Port)
	assert.Equal(t, int32(5), cfg.Database.MinConns)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.False(t, cfg.IsProduction())
}

func TestPrivilegeTable(t *testing.T) {
	table, err := NewDefaultConfig().Rules.PrivilegeTable()
	require.NoError(t, err)

	gold := table[models.PrivilegeGold]
	assert.Equal(t, models.Money(50000000), gold.DailyAmount)
	assert.Equal(t, 20, gold.DailyCount)
	assert.Len(t, table, 3)
}

func TestPrivilegeTableRejectsUnknownTier(t *testing.T) {
	rules := NewDefaultConfig().Rules
	rules.Limits["PLATINUM"] = LimitConfig{DailyAmount: "1.00", DailyCount: 1}
	_, err := rules.PrivilegeTable()
	assert.Error(t, err)
}

func TestPrivilegeTableRejectsMissingTier(t *testing.T) {
	rules := NewDefaultConfig().Rules
	delete(rules.Limits, "GOLD")
	_, err := rules.PrivilegeTable()
	assert.Error(t, err)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gdb.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment = "production"

[server]
port = 9001
`), 0o644))

	t.Setenv("GDB_PORT", "9002")
	t.Setenv("GDB_DATABASE_URL", "postgres://env:env@db:5432/accounts_db")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9002, cfg.Server.Port, "env override wins over file")
	assert.Equal(t, "postgres://env:env@db:5432/accounts_db", cfg.Database.URL)
	// Untouched sections keep their defaults.
	assert.Equal(t, 4, cfg.Rules.PinMin)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.Server.Port)
}

func TestDurationAccessors(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, "30m0s", cfg.Auth.GetTokenExpiry().String())
	assert.Equal(t, 3*cfg.Accounts.GetTimeout(), cfg.Accounts.CompensationTimeout())

	bad := AuthConfig{TokenExpiry: "nope"}
	assert.Equal(t, "30m0s", bad.GetTokenExpiry().String())
}
