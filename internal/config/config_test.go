package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
	"github.com/ZebulonRouseFrantzich/leaf/internal/testutil"
)

func TestLoad_Defaults(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	os.Unsetenv("LEAF_BIN_DIR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := map[string][2]string{
		"InstallDir":  {cfg.InstallDir, env.InstallDir},
		"BinDir":      {cfg.BinDir, filepath.Join(env.Home, ".local", "bin")},
		"PackagesDir": {cfg.PackagesDir, filepath.Join(env.InstallDir, "packages")},
		"CacheDir":    {cfg.CacheDir, filepath.Join(env.InstallDir, "cache")},
		"TmpDir":      {cfg.TmpDir, filepath.Join(env.InstallDir, "tmp")},
		"LocalDir":    {cfg.LocalDir, filepath.Join(env.InstallDir, "local.d")},
		"ManifestURL": {cfg.ManifestURL, manifest.DefaultURL},
	}
	for field, pair := range checks {
		if pair[0] != pair[1] {
			t.Errorf("%s = %q, want %q", field, pair[0], pair[1])
		}
	}
	if !cfg.AutoUpdate {
		t.Error("AutoUpdate should default to true")
	}
	if cfg.ManifestPath() != filepath.Join(env.InstallDir, "packages.json") {
		t.Errorf("ManifestPath() = %q", cfg.ManifestPath())
	}

	// First run writes config.json.
	data, err := os.ReadFile(filepath.Join(env.InstallDir, FileName))
	if err != nil {
		t.Fatalf("config.json not created: %v", err)
	}
	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("config.json is not valid JSON: %v", err)
	}
	if saved.CacheDir != cfg.CacheDir || saved.Version != Version {
		t.Errorf("saved = %+v", saved)
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	os.Unsetenv("LEAF_BIN_DIR")

	if err := os.MkdirAll(env.InstallDir, 0755); err != nil {
		t.Fatal(err)
	}
	custom := `{"cache_dir": "~/custom-cache", "auto_update": false, "manifest_url": "https://mirror.example/packages.json"}`
	if err := os.WriteFile(filepath.Join(env.InstallDir, FileName), []byte(custom), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheDir != filepath.Join(env.Home, "custom-cache") {
		t.Errorf("CacheDir = %q, want expanded ~/custom-cache", cfg.CacheDir)
	}
	if cfg.AutoUpdate {
		t.Error("AutoUpdate = true, want false from file")
	}
	if cfg.ManifestURL != "https://mirror.example/packages.json" {
		t.Errorf("ManifestURL = %q", cfg.ManifestURL)
	}
	if cfg.PackagesDir != filepath.Join(env.InstallDir, "packages") {
		t.Errorf("PackagesDir = %q, want default", cfg.PackagesDir)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	t.Setenv("LEAF_AUTO_UPDATE", "false")
	t.Setenv("LEAF_USER_AGENT", "leaf-test/2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BinDir != env.BinDir {
		t.Errorf("BinDir = %q, want LEAF_BIN_DIR %q", cfg.BinDir, env.BinDir)
	}
	if cfg.AutoUpdate {
		t.Error("AutoUpdate = true, want false from env")
	}
	if cfg.UserAgent != "leaf-test/2" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
}

func TestLoad_RelativePaths(t *testing.T) {
	testutil.SetupTestEnv(t)
	work := t.TempDir()
	t.Chdir(work)
	t.Setenv("LEAF_HOME", "leafroot")
	t.Setenv("LEAF_BIN_DIR", "bin")
	t.Setenv("LEAF_CACHE_DIR", filepath.Join("..", "shared-cache"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := map[string][2]string{
		"InstallDir":  {cfg.InstallDir, filepath.Join(work, "leafroot")},
		"PackagesDir": {cfg.PackagesDir, filepath.Join(work, "leafroot", "packages")},
		"BinDir":      {cfg.BinDir, filepath.Join(work, "bin")},
		"CacheDir":    {cfg.CacheDir, filepath.Join(filepath.Dir(work), "shared-cache")},
	}
	for field, pair := range checks {
		if pair[0] != pair[1] {
			t.Errorf("%s = %q, want %q", field, pair[0], pair[1])
		}
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	env := testutil.SetupTestEnv(t)
	os.MkdirAll(env.InstallDir, 0755)
	if err := os.WriteFile(filepath.Join(env.InstallDir, FileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed config.json")
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := Defaults(filepath.Join(root, "leaf"), filepath.Join(root, "home"))

	for i := 0; i < 2; i++ {
		if err := cfg.EnsureDirs(); err != nil {
			t.Fatalf("EnsureDirs() #%d error = %v", i+1, err)
		}
	}

	for _, dir := range []string{cfg.PackagesDir, cfg.CacheDir, cfg.TmpDir, cfg.LogDir, cfg.LocalDir, cfg.KeyringDir, cfg.BinDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}

func TestInstallDir(t *testing.T) {
	env := testutil.SetupTestEnv(t)

	got, err := InstallDir()
	if err != nil || got != env.InstallDir {
		t.Errorf("InstallDir() = %q, %v; want %q", got, err, env.InstallDir)
	}

	os.Unsetenv("LEAF_HOME")
	got, err = InstallDir()
	if err != nil || got != filepath.Join(env.Home, ".local", "leaf") {
		t.Errorf("InstallDir() without LEAF_HOME = %q, %v", got, err)
	}

	t.Setenv("LEAF_HOME", "~/elsewhere")
	got, _ = InstallDir()
	if got != filepath.Join(env.Home, "elsewhere") {
		t.Errorf("InstallDir() = %q, want expanded ~", got)
	}
}
