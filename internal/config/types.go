// Copyright (c) 2026 Fieldviewer Team
// Fieldviewer - BIM/3D model catalog and viewer links
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads fieldviewer settings from defaults, fieldviewer.yaml,
// a .env file, FIELDVIEWER_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/toeirei/fieldviewer/internal/ifc"
	"github.com/toeirei/fieldviewer/internal/model"
	"github.com/toeirei/fieldviewer/internal/viewer"
)

// Config is the complete application configuration.
type Config struct {
	Language      string          `mapstructure:"language" yaml:"language"`
	Log           LogConfig       `mapstructure:"log" yaml:"log"`
	Models        ModelsConfig    `mapstructure:"models" yaml:"models"`
	Files         FilesConfig     `mapstructure:"files" yaml:"files"`
	Server        ServerConfig    `mapstructure:"server" yaml:"server"`
	Database      DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Auth          AuthConfig      `mapstructure:"auth" yaml:"auth"`
	IFC           IFCConfig       `mapstructure:"ifc" yaml:"ifc"`
	Fetch         FetchConfig     `mapstructure:"fetch" yaml:"fetch"`
	Sentry        SentryConfig    `mapstructure:"sentry" yaml:"sentry"`
	DefaultViewer string          `mapstructure:"default_viewer" yaml:"default_viewer"`
	Viewers       []viewer.Viewer `mapstructure:"viewers" yaml:"viewers,omitempty"`
	Projects      []ProjectSeed   `mapstructure:"projects" yaml:"projects,omitempty"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type ModelsConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// FilesConfig controls the raw URLs handed to viewers. When PublicBaseURL
// is empty the server's own /files/ endpoint is used.
type FilesConfig struct {
	PublicBaseURL string `mapstructure:"public_base_url" yaml:"public_base_url"`
}

type ServerConfig struct {
	Addr      string `mapstructure:"addr" yaml:"addr"`
	PublicURL string `mapstructure:"public_url" yaml:"public_url"`
	// TrustProxy honours X-Forwarded-Proto when public_url is unset.
	TrustProxy bool `mapstructure:"trust_proxy" yaml:"trust_proxy"`
}

type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	Dsn  string `mapstructure:"dsn" yaml:"dsn"`
}

// AuthConfig gates the web viewer. Users maps user names (case
// insensitive) to bcrypt hashes, or to plaintext passwords when
// AllowPlaintext is set.
type AuthConfig struct {
	Enabled        bool              `mapstructure:"enabled" yaml:"enabled"`
	Users          map[string]string `mapstructure:"users" yaml:"users,omitempty"`
	AllowPlaintext bool              `mapstructure:"allow_plaintext" yaml:"allow_plaintext"`
	SessionTTL     time.Duration     `mapstructure:"session_ttl" yaml:"session_ttl"`
}

type IFCConfig struct {
	CountTypes []string `mapstructure:"count_types" yaml:"count_types"`
}

type FetchConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxBytes int64         `mapstructure:"max_bytes" yaml:"max_bytes"`
}

type SentryConfig struct {
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// ProjectSeed is a project inserted on startup when missing.
type ProjectSeed struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url" yaml:"url"`
}

// Defaults returns the default value of every key. Every key is listed so
// that FIELDVIEWER_* environment variables can override it.
func Defaults() map[string]any {
	return map[string]any{
		"language":              "en",
		"log.level":             "info",
		"models.dir":            "./models",
		"files.public_base_url": "",
		"server.addr":           ":8080",
		"server.public_url":     "",
		"server.trust_proxy":    false,
		"database.type":         "sqlite",
		"database.dsn":          "./fieldviewer.db",
		"auth.enabled":          false,
		"auth.users":            map[string]string{},
		"auth.allow_plaintext":  false,
		"auth.session_ttl":      "12h",
		"ifc.count_types":       append([]string(nil), ifc.DefaultCountTypes...),
		"fetch.timeout":         "30s",
		"fetch.max_bytes":       int64(200 << 20),
		"sentry.dsn":            "",
		"sentry.environment":    "",
		"default_viewer":        "3dviewer",
	}
}

// Normalize fills empty values that must never be empty.
func (c *Config) Normalize() {
	d := Defaults()
	if c.Language == "" {
		c.Language = d["language"].(string)
	}
	if c.Database.Type == "" {
		c.Database.Type = d["database.type"].(string)
	}
	if c.Database.Dsn == "" {
		c.Database.Dsn = d["database.dsn"].(string)
	}
	if c.Models.Dir == "" {
		c.Models.Dir = d["models.dir"].(string)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d["server.addr"].(string)
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 12 * time.Hour
	}
	if len(c.IFC.CountTypes) == 0 {
		c.IFC.CountTypes = append([]string(nil), ifc.DefaultCountTypes...)
	}
	c.Files.PublicBaseURL = strings.TrimRight(c.Files.PublicBaseURL, "/")
	c.Server.PublicURL = strings.TrimRight(c.Server.PublicURL, "/")
}

// Validate reports configuration mistakes that would only surface later.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Type {
	case "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.type %q is not one of sqlite, postgres, mysql", c.Database.Type))
	}
	if c.Auth.Enabled && len(c.Auth.Users) == 0 {
		errs = append(errs, errors.New("auth.enabled is set but auth.users is empty"))
	}
	for i, p := range c.Projects {
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.URL) == "" {
			errs = append(errs, fmt.Errorf("projects[%d]: name and url are required", i))
			continue
		}
		if _, err := model.ProjectKind(p.URL); err != nil {
			errs = append(errs, fmt.Errorf("projects[%d] %s: %w", i, p.Name, err))
		}
	}
	if c.Fetch.MaxBytes < 0 {
		errs = append(errs, errors.New("fetch.max_bytes must not be negative"))
	}
	return errors.Join(errs...)
}

// FilesBaseURL is the base of raw model URLs handed to viewers: the public
// file host when set, else the /files endpoint of this server.
func (c *Config) FilesBaseURL() string {
	if c.Files.PublicBaseURL != "" {
		return c.Files.PublicBaseURL
	}
	if c.Server.PublicURL != "" {
		return c.Server.PublicURL + "/files"
	}
	host := c.Server.Addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/files"
}
