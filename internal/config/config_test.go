package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000, cfg.ImportMaxValidRows)
	assert.Equal(t, 500, cfg.ImportMaxErrorRows)
	assert.Equal(t, 20, cfg.ImportPreviewRows)
	assert.Equal(t, 100, cfg.ImportErrorPreviewRows)
	assert.Equal(t, "queue", cfg.AuditMode)
	assert.True(t, cfg.AuditEnabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("IMPORT_MAX_VALID_ROWS", "50")
	t.Setenv("IMPORT_COMMIT_LEASE", "90s")
	t.Setenv("AUDIT_MODE", "DIRECT")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_DATABASE", "sites")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.ImportMaxValidRows)
	assert.Equal(t, 90*time.Second, cfg.ImportCommitLease)
	assert.Equal(t, "direct", cfg.AuditMode)
	assert.Contains(t, cfg.GetDSN(), "@tcp(db.internal:3306)/sites?")
	assert.Contains(t, cfg.GetDSN(), "multiStatements=true")
}

func TestLoadRejectsUnknownAuditMode(t *testing.T) {
	t.Setenv("AUDIT_MODE", "syslog")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUDIT_MODE")
}

func TestImportOptionsDisablesAuditWhenModeOff(t *testing.T) {
	cfg := &Config{
		ImportMaxValidRows: 10,
		ImportMaxErrorRows: 5,
		AuditEnabled:       true,
		AuditMode:          "off",
	}

	opts := cfg.ImportOptions()
	assert.False(t, opts.AuditEnabled)
	assert.Equal(t, 10, opts.MaxValidRows)
	assert.Equal(t, 5, opts.MaxErrorRows)
}
