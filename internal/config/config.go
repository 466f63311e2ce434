// Package config resolves leaf's directories and settings. Values come from
// built-in defaults, then <installDir>/config.json, then LEAF_* environment
// variables; the resolved Config is passed explicitly to every component.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ZebulonRouseFrantzich/leaf/internal/cache"
	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
	"github.com/ZebulonRouseFrantzich/leaf/internal/transaction"
)

const (
	// Version is the config schema version written to config.json.
	Version = "1.0.0"

	// FileName is the config file inside the install directory.
	FileName = "config.json"
	// ManifestFileName is the local copy of the remote manifest.
	ManifestFileName = "packages.json"

	envPrefix  = "LEAF"
	envHome    = "LEAF_HOME"
	envBinDir  = "LEAF_BIN_DIR"
	defaultDir = ".local"
)

// Config holds resolved paths and settings.
type Config struct {
	Version     string `mapstructure:"version" json:"version"`
	InstallDir  string `mapstructure:"install_dir" json:"install_dir"`
	BinDir      string `mapstructure:"bin_dir" json:"bin_dir"`
	PackagesDir string `mapstructure:"packages_dir" json:"packages_dir"`
	CacheDir    string `mapstructure:"cache_dir" json:"cache_dir"`
	TmpDir      string `mapstructure:"tmp_dir" json:"tmp_dir"`
	LogDir      string `mapstructure:"log_dir" json:"log_dir"`
	LocalDir    string `mapstructure:"local_dir" json:"local_dir"`
	KeyringDir  string `mapstructure:"keyring_dir" json:"keyring_dir"`
	ManifestURL string `mapstructure:"manifest_url" json:"manifest_url"`
	UserAgent   string `mapstructure:"user_agent" json:"user_agent"`
	AutoUpdate  bool   `mapstructure:"auto_update" json:"auto_update"`
}

// ManifestPath returns the local manifest copy.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.InstallDir, ManifestFileName)
}

// ConfigPath returns the config file location.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.InstallDir, FileName)
}

// LogFile returns the structured log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, "leaf.log")
}

// Defaults returns the configuration rooted at installDir, with the bin
// directory under home.
func Defaults(installDir, home string) *Config {
	return &Config{
		Version:     Version,
		InstallDir:  installDir,
		BinDir:      filepath.Join(home, defaultDir, "bin"),
		PackagesDir: filepath.Join(installDir, "packages"),
		CacheDir:    filepath.Join(installDir, "cache"),
		TmpDir:      filepath.Join(installDir, "tmp"),
		LogDir:      filepath.Join(installDir, "logs"),
		LocalDir:    filepath.Join(installDir, "local.d"),
		KeyringDir:  filepath.Join(installDir, "keyrings"),
		ManifestURL: manifest.DefaultURL,
		UserAgent:   cache.DefaultUserAgent,
		AutoUpdate:  true,
	}
}

// InstallDir returns $LEAF_HOME, or ~/.local/leaf.
func InstallDir() (string, error) {
	if dir := os.Getenv(envHome); dir != "" {
		return absPath(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultDir, "leaf"), nil
}

// Load resolves the configuration. On first run config.json is created
// with the resolved values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	installDir, err := InstallDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	defaults := Defaults(installDir, home)
	setDefaults(v, defaults)

	v.SetConfigFile(defaults.ConfigPath())
	v.SetConfigType("json")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("install_dir", envHome); err != nil {
		return nil, fmt.Errorf("bind %s: %w", envHome, err)
	}

	created := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", defaults.ConfigPath(), err)
		}
		created = true
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// The file always lives in the resolved install dir.
	cfg.InstallDir = installDir
	if err := cfg.expand(); err != nil {
		return nil, err
	}

	if created {
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("version", c.Version)
	v.SetDefault("install_dir", c.InstallDir)
	v.SetDefault("bin_dir", c.BinDir)
	v.SetDefault("packages_dir", c.PackagesDir)
	v.SetDefault("cache_dir", c.CacheDir)
	v.SetDefault("tmp_dir", c.TmpDir)
	v.SetDefault("log_dir", c.LogDir)
	v.SetDefault("local_dir", c.LocalDir)
	v.SetDefault("keyring_dir", c.KeyringDir)
	v.SetDefault("manifest_url", c.ManifestURL)
	v.SetDefault("user_agent", c.UserAgent)
	v.SetDefault("auto_update", c.AutoUpdate)
}

// expand resolves "~/" prefixes and makes every path absolute, so symlink
// targets written under BinDir do not depend on the working directory.
func (c *Config) expand() error {
	for _, p := range []*string{&c.InstallDir, &c.BinDir, &c.PackagesDir, &c.CacheDir, &c.TmpDir, &c.LogDir, &c.LocalDir, &c.KeyringDir} {
		expanded, err := absPath(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Save writes the configuration to config.json atomically.
func (c *Config) Save() error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := transaction.WriteFileAtomic(c.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// EnsureDirs creates every directory leaf writes to. It is idempotent.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.InstallDir, c.PackagesDir, c.CacheDir, c.TmpDir, c.LogDir, c.LocalDir, c.KeyringDir, c.BinDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func absPath(path string) (string, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}
