package gamefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "main", cfg.BaseGame)
	assert.Equal(t, "pak0", cfg.TrustedArchive)
	assert.Equal(t, "mod.ff", cfg.AuxiliaryContent)
	assert.Equal(t, "usermaps/", cfg.UserContentPrefix)
	assert.Equal(t, []string{"*.iwd", "*.pk3"}, cfg.ArchivePatterns)
	assert.Equal(t, 64, cfg.MaxHandles)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "gamefs.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
base_path: /opt/game
home_path: /home/game
game: mods/test
restricted: true
archive_patterns:
  - "*.iwd"
max_handles: 16
`), 0644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "/opt/game", cfg.BasePath)
	assert.Equal(t, "/home/game", cfg.HomePath)
	assert.Equal(t, "mods/test", cfg.Game)
	assert.True(t, cfg.Restricted)
	assert.Equal(t, []string{"*.iwd"}, cfg.ArchivePatterns)
	assert.Equal(t, 16, cfg.MaxHandles)
	// defaults survive fields the file leaves out
	assert.Equal(t, "main", cfg.BaseGame)
	assert.Equal(t, "mods/test", cfg.CurrentNamespace())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(file, []byte("base_path: [unterminated"), 0644))
	_, err = LoadConfig(file)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"no base path", func(c *Config) { c.BasePath = "" }, true},
		{"traversal in game", func(c *Config) { c.Game = "mods/../../etc" }, true},
		{"drive chaining in base mod", func(c *Config) { c.BaseMod = "c::x" }, true},
		{"absolute game", func(c *Config) { c.Game = "/mods/x" }, true},
		{"negative handles", func(c *Config) { c.MaxHandles = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := memConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := Config{BasePath: "/opt/game"}.withDefaults()
	assert.Equal(t, "/opt/game", cfg.HomePath)
	assert.Equal(t, "main", cfg.BaseGame)
	assert.Equal(t, "main", cfg.CurrentNamespace())
	assert.Equal(t, DefaultMaxHandles, cfg.MaxHandles)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{}, WithHostFS(mustNewMemFS()), WithLogger(quietLogger()))
	assert.Error(t, err)
}
