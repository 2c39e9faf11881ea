package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ProfileLite, cfg.Profile)
	assert.Equal(t, ArchiveBackendSQLite, cfg.Archive.Backend)
	assert.Equal(t, "moldctl-archive.db", cfg.Archive.SQLitePath)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestValidate_LiteRequiresSQLiteBackend(t *testing.T) {
	cfg := &Config{
		Profile: ProfileLite,
		Archive: ArchiveConfig{Backend: ArchiveBackendPostgres},
		Server:  ServerConfig{Port: 8080},
		Log:     LogConfig{Level: "info"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lite profile requires archive.backend")
}

func TestValidate_StandardRequiresPostgresDatabase(t *testing.T) {
	cfg := &Config{
		Profile: ProfileStandard,
		Archive: ArchiveConfig{Backend: ArchiveBackendPostgres},
		Server:  ServerConfig{Port: 8080},
		Log:     LogConfig{Level: "info"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive.postgres.database")
}

func TestValidate_RejectsBadPort(t *testing.T) {
	cfg := &Config{
		Profile: ProfileLite,
		Archive: ArchiveConfig{Backend: ArchiveBackendSQLite, SQLitePath: "x.db"},
		Server:  ServerConfig{Port: 0},
		Log:     LogConfig{Level: "info"},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid server port")
}

func TestIsStandardProfile(t *testing.T) {
	cfg := &Config{Profile: ProfileStandard}
	assert.True(t, cfg.IsStandardProfile())
	cfg.Profile = ProfileLite
	assert.False(t, cfg.IsStandardProfile())
}
