// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cfg "github.com/toeirei/fieldviewer/internal/config"
)

// isolate points the user config dir at an empty temp dir and runs in a
// fresh working directory so no real fieldviewer.yaml is picked up.
func isolate(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "xdg"))
	t.Setenv("HOME", tmp)
	t.Chdir(tmp)
	return tmp
}

func TestLoadConfig_DefaultsWhenNoFile(t *testing.T) {
	isolate(t)
	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	var notFound viper.ConfigFileNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ConfigFileNotFoundError, got %T %v", err, err)
	}
	if c.Database.Type != "sqlite" || c.Server.Addr != ":8080" || c.DefaultViewer != "3dviewer" {
		t.Errorf("defaults not applied: %+v", c)
	}
	if c.Auth.SessionTTL != 12*time.Hour || c.Fetch.Timeout != 30*time.Second {
		t.Errorf("durations = %v %v", c.Auth.SessionTTL, c.Fetch.Timeout)
	}
	if len(c.IFC.CountTypes) != 6 || c.IFC.CountTypes[0] != "IfcWall" {
		t.Errorf("count types = %v", c.IFC.CountTypes)
	}
}

func TestLoadConfig_ReadsExplicitFile(t *testing.T) {
	tmp := isolate(t)
	path := filepath.Join(tmp, "custom.yaml")
	content := `
language: es
models:
  dir: /srv/modelos
auth:
  enabled: true
  users:
    ana: "$2a$10$abcdefghijklmnopqrstuu"
  session_ttl: 1h
viewers:
  - name: xeokit
    title: xeokit
    kinds: [ifc]
    link: "https://xeokit.io/viewer/?load={url}"
projects:
  - name: Torre
    url: https://example.com/torre.ifc
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), &path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Language != "es" || c.Models.Dir != "/srv/modelos" {
		t.Errorf("file values not applied: %+v", c)
	}
	if !c.Auth.Enabled || c.Auth.Users["ana"] == "" || c.Auth.SessionTTL != time.Hour {
		t.Errorf("auth = %+v", c.Auth)
	}
	if len(c.Viewers) != 1 || c.Viewers[0].Kinds[0] != "ifc" || !strings.Contains(c.Viewers[0].Link, "{url}") {
		t.Errorf("viewers = %+v", c.Viewers)
	}
	if len(c.Projects) != 1 || c.Projects[0].Name != "Torre" {
		t.Errorf("projects = %+v", c.Projects)
	}
	if c.Database.Type != "sqlite" {
		t.Errorf("unset keys should keep defaults, database.type = %q", c.Database.Type)
	}
}

func TestLoadConfig_EnvAndFlagsOverride(t *testing.T) {
	isolate(t)
	t.Setenv("FIELDVIEWER_DATABASE_DSN", "/tmp/env.db")
	t.Setenv("FIELDVIEWER_SERVER_ADDR", ":9000")

	cmd := &cobra.Command{}
	cmd.Flags().String("server.addr", ":8080", "")
	c, err := cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil)
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Database.Dsn != "/tmp/env.db" {
		t.Errorf("env override: dsn = %q", c.Database.Dsn)
	}
	if c.Server.Addr != ":9000" {
		t.Errorf("unchanged flag must not beat env: addr = %q", c.Server.Addr)
	}

	if err := cmd.Flags().Set("server.addr", ":7000"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	c, _ = cfg.LoadConfig[cfg.Config](cmd, cfg.Defaults(), nil)
	if c.Server.Addr != ":7000" {
		t.Errorf("flag override: addr = %q", c.Server.Addr)
	}
}

func TestWriteConfigFile_RoundTrip(t *testing.T) {
	isolate(t)
	c := cfg.Config{}
	c.Database.Type = "postgres"
	c.Database.Dsn = "postgres://localhost/fieldviewer"
	c.Auth.SessionTTL = 2 * time.Hour

	path, err := cfg.WriteConfigFile(&c, false)
	if err != nil {
		t.Fatalf("WriteConfigFile: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	got, err := cfg.LoadConfig[cfg.Config](&cobra.Command{}, cfg.Defaults(), nil)
	if err != nil {
		t.Fatalf("LoadConfig after write: %v", err)
	}
	if got.Database.Type != "postgres" || got.Database.Dsn != c.Database.Dsn || got.Auth.SessionTTL != 2*time.Hour {
		t.Errorf("round trip = %+v", got.Database)
	}
}

func TestLoadDotEnv(t *testing.T) {
	tmp := isolate(t)
	if err := cfg.LoadDotEnv(); err != nil {
		t.Fatalf("missing .env must not fail: %v", err)
	}
	envFile := filepath.Join(tmp, "test.env")
	if err := os.WriteFile(envFile, []byte("FIELDVIEWER_TEST_DOTENV=hola\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FIELDVIEWER_TEST_DOTENV", "")
	os.Unsetenv("FIELDVIEWER_TEST_DOTENV")
	if err := cfg.LoadDotEnv(envFile); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("FIELDVIEWER_TEST_DOTENV"); got != "hola" {
		t.Errorf("env = %q, want hola", got)
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	c := cfg.Config{Files: cfg.FilesConfig{PublicBaseURL: "https://cdn.example.com/models/"}}
	c.Normalize()
	if c.Database.Type != "sqlite" || c.Language != "en" || c.Auth.SessionTTL <= 0 {
		t.Errorf("Normalize did not fill defaults: %+v", c)
	}
	if c.Files.PublicBaseURL != "https://cdn.example.com/models" {
		t.Errorf("trailing slash kept: %q", c.Files.PublicBaseURL)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	testCases := []struct {
		name   string
		mutate func(*cfg.Config)
	}{
		{"bad db type", func(c *cfg.Config) { c.Database.Type = "oracle" }},
		{"auth without users", func(c *cfg.Config) { c.Auth.Enabled = true }},
		{"project without url", func(c *cfg.Config) { c.Projects = []cfg.ProjectSeed{{Name: "x"}} }},
		{"project url not http", func(c *cfg.Config) {
			c.Projects = []cfg.ProjectSeed{{Name: "x", URL: "file:///tmp/x.ifc"}}
		}},
		{"project url without model extension", func(c *cfg.Config) {
			c.Projects = []cfg.ProjectSeed{{Name: "x", URL: "https://example.com/x"}}
		}},
		{"negative size", func(c *cfg.Config) { c.Fetch.MaxBytes = -1 }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bad := c
			tc.mutate(&bad)
			if err := bad.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestFilesBaseURL(t *testing.T) {
	testCases := []struct {
		name string
		cfg  cfg.Config
		want string
	}{
		{"public base wins", cfg.Config{Files: cfg.FilesConfig{PublicBaseURL: "https://cdn.example.com/m"}, Server: cfg.ServerConfig{PublicURL: "https://view.example.com"}}, "https://cdn.example.com/m"},
		{"public server url", cfg.Config{Server: cfg.ServerConfig{PublicURL: "https://view.example.com", Addr: ":8080"}}, "https://view.example.com/files"},
		{"port only", cfg.Config{Server: cfg.ServerConfig{Addr: ":9000"}}, "http://localhost:9000/files"},
		{"host and port", cfg.Config{Server: cfg.ServerConfig{Addr: "10.0.0.5:8080"}}, "http://10.0.0.5:8080/files"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.FilesBaseURL(); got != tc.want {
				t.Errorf("FilesBaseURL() = %q, want %q", got, tc.want)
			}
		})
	}
}
