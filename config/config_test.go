package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "blockchain", cfg.DBPath)
	assert.Equal(t, "wallets", cfg.WalletsPath)
	assert.Equal(t, ":8855", cfg.ListenAddr)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "db_path: /var/lib/pennychain\nlisten_addr: :9000\n"
	require.NoError(t, ioutil.WriteFile(path, []byte(yaml), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/pennychain", cfg.DBPath)
	assert.Equal(t, ":9000", cfg.ListenAddr)

	// untouched keys keep their defaults
	assert.Equal(t, "wallets", cfg.WalletsPath)
}

func TestLoadMissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("{not yaml"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}
