package gamefs

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by DefaultConfig and by New for zero-valued fields.
const (
	DefaultBaseGame         = "main"
	DefaultTrustedArchive   = "pak0"
	DefaultAuxiliaryContent = "mod.ff"
	DefaultUserContent      = "usermaps/"
	DefaultMaxHandles       = 64
)

// DefaultArchivePatterns selects the pak files mounted from each namespace
// directory.
var DefaultArchivePatterns = []string{"*.iwd", "*.pk3"}

// Config carries the process configuration this filesystem reads. It is
// treated as read-only once handed to New or Restart.
type Config struct {
	// HomePath is the writable, user specific root. Every write lands here.
	HomePath string `yaml:"home_path"`
	// BasePath is the primary install root.
	BasePath string `yaml:"base_path"`
	// CdPath is an optional secondary read-only root.
	CdPath string `yaml:"cd_path"`

	// Game is the current mod namespace, e.g. "mods/mymod". Empty means the
	// base game is the current namespace.
	Game string `yaml:"game"`
	// BaseMod is an optional mod that Game builds upon.
	BaseMod string `yaml:"base_mod"`
	// BaseGame is the hardcoded base game namespace.
	BaseGame string `yaml:"base_game"`

	// Restricted narrows read resolution to TrustedArchive in BaseGame.
	Restricted bool `yaml:"restricted"`
	// Debug enables per-operation debug logging.
	Debug bool `yaml:"debug"`

	// TrustedArchive is the basename (without extension) of the single pak
	// served in restricted mode.
	TrustedArchive string `yaml:"trusted_archive"`
	// AuxiliaryContent is the well-known file accepted by
	// VerifyReferencedArchive when prefixed by the current namespace.
	AuxiliaryContent string `yaml:"auxiliary_content"`
	// UserContentPrefix is the namespace prefix of user supplied content.
	UserContentPrefix string `yaml:"user_content_prefix"`
	// ArchivePatterns are include rules selecting mountable pak files.
	ArchivePatterns []string `yaml:"archive_patterns"`
	// MaxHandles is the handle table capacity.
	MaxHandles int `yaml:"max_handles"`
}

// DefaultConfig returns a configuration with every optional field populated.
// Roots are left empty; callers must supply at least BasePath.
func DefaultConfig() Config {
	return Config{
		BaseGame:          DefaultBaseGame,
		TrustedArchive:    DefaultTrustedArchive,
		AuxiliaryContent:  DefaultAuxiliaryContent,
		UserContentPrefix: DefaultUserContent,
		ArchivePatterns:   append([]string(nil), DefaultArchivePatterns...),
		MaxHandles:        DefaultMaxHandles,
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// withDefaults fills zero-valued optional fields.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseGame == "" {
		c.BaseGame = def.BaseGame
	}
	if c.TrustedArchive == "" {
		c.TrustedArchive = def.TrustedArchive
	}
	if c.AuxiliaryContent == "" {
		c.AuxiliaryContent = def.AuxiliaryContent
	}
	if c.UserContentPrefix == "" {
		c.UserContentPrefix = def.UserContentPrefix
	}
	if len(c.ArchivePatterns) == 0 {
		c.ArchivePatterns = def.ArchivePatterns
	}
	if c.MaxHandles <= 0 {
		c.MaxHandles = def.MaxHandles
	}
	if c.HomePath == "" {
		c.HomePath = c.BasePath
	}
	return c
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error

	if c.BasePath == "" {
		errs = append(errs, errors.New("base_path is required"))
	}
	for _, ns := range []struct{ key, value string }{
		{"game", c.Game},
		{"base_mod", c.BaseMod},
		{"base_game", c.BaseGame},
	} {
		if err := validateNamespace(ns.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ns.key, err))
		}
	}
	if c.MaxHandles < 0 {
		errs = append(errs, fmt.Errorf("max_handles must not be negative, got %d", c.MaxHandles))
	}

	return errors.Join(errs...)
}

// CurrentNamespace returns the namespace writes are directed to.
func (c Config) CurrentNamespace() string {
	if c.Game != "" {
		return c.Game
	}
	return c.BaseGame
}

func validateNamespace(ns string) error {
	if ns == "" {
		return nil
	}
	if hasTraversal(ns) {
		return fmt.Errorf("%w: %q", ErrPathRejected, ns)
	}
	if strings.HasPrefix(ns, "/") || strings.HasPrefix(ns, `\`) {
		return fmt.Errorf("namespace %q must be relative", ns)
	}
	return nil
}
