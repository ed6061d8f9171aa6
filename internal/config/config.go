/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration of gamedialog from a YAML file
// and applies environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	applog "gamedialog/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are read-only overrides applied at load time; the
// variable for each field is declared in its env tag.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Logging       LoggingConfig  `yaml:"logging"`
	Playback      PlaybackConfig `yaml:"playback"`
	Export        ExportConfig   `yaml:"export"`
	Catalog       CatalogConfig  `yaml:"catalog"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"GDL_LOG_LEVEL"`
	Format string `yaml:"format" env:"GDL_LOG_FORMAT"`
	Source bool   `yaml:"source" env:"GDL_LOG_SOURCE"`
	File   string `yaml:"file" env:"GDL_LOG_FILE"`
}

type PlaybackConfig struct {
	// MaxHops bounds directives and stage crossings per step; see script.WithMaxHops.
	MaxHops      int      `yaml:"max_hops" env:"GDL_MAX_HOPS"`
	HistoryDepth int      `yaml:"history_depth" env:"GDL_HISTORY_DEPTH"`
	Flags        []string `yaml:"flags" env:"GDL_FLAGS" envSeparator:","` // flags that start out true
	Prelude      string   `yaml:"prelude" env:"GDL_PRELUDE"`             // Lua file with tag functions
	TUI          bool     `yaml:"tui" env:"GDL_TUI"`
}

type ExportConfig struct {
	PageSize string  `yaml:"page_size" env:"GDL_EXPORT_PAGE_SIZE"` // A4, Letter, ...
	FontSize float64 `yaml:"font_size" env:"GDL_EXPORT_FONT_SIZE"`
}

type CatalogConfig struct {
	DBPath string `yaml:"db_path" env:"GDL_CATALOG_DB"` // empty: <dir>/.gamedialog/catalog.sqlite
}

// EnvConfigPath overrides the location of the config file.
const EnvConfigPath = "GDL_CONFIG"

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Logging:       LoggingConfig{Level: "info", Format: "console"},
		Playback:      PlaybackConfig{MaxHops: 1024, HistoryDepth: 256},
		Export:        ExportConfig{PageSize: "A4", FontSize: 11},
	}
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GameDialog")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GameDialog")
	default:
		base = filepath.Join(os.Getenv("HOME"), ".config", "gamedialog")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present) from ConfigPath, applies
// defaults and merges environment overrides.
func Load() (AppConfig, error) {
	path, err := ConfigPath()
	if err != nil {
		cfg := Defaults()
		return cfg, err
	}
	return LoadFile(path)
}

// LoadFile is Load for an explicit path. A missing file is not an error.
// A file that cannot be parsed yields the defaults plus env overrides and
// the parse error.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	var fileErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			fileErr = fmt.Errorf("parse %s: %w", path, err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		fileErr = fmt.Errorf("read %s: %w", path, err)
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, errors.Join(fileErr, err)
	}
	return cfg, fileErr
}

// Save writes cfg as YAML to ConfigPath.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveFile(path, cfg)
}

func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
	// playback
	if src.Playback.MaxHops > 0 {
		dst.Playback.MaxHops = src.Playback.MaxHops
	}
	if src.Playback.HistoryDepth > 0 {
		dst.Playback.HistoryDepth = src.Playback.HistoryDepth
	}
	if len(src.Playback.Flags) > 0 {
		dst.Playback.Flags = append([]string(nil), src.Playback.Flags...)
	}
	if v := strings.TrimSpace(src.Playback.Prelude); v != "" {
		dst.Playback.Prelude = v
	}
	dst.Playback.TUI = src.Playback.TUI
	// export
	if v := strings.TrimSpace(src.Export.PageSize); v != "" {
		dst.Export.PageSize = v
	}
	if src.Export.FontSize > 0 {
		dst.Export.FontSize = src.Export.FontSize
	}
	if v := strings.TrimSpace(src.Catalog.DBPath); v != "" {
		dst.Catalog.DBPath = v
	}
}

func applyEnvOverrides(cfg *AppConfig) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	return nil
}

// EnvOverrideFor returns the env var name if the field at the dotted YAML key
// (e.g. "logging.level") is currently overridden by the environment.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envNameFor(reflect.TypeOf(AppConfig{}), strings.Split(key, "."))
	if !ok {
		return "", false
	}
	if _, set := os.LookupEnv(name); !set {
		return "", false
	}
	return name, true
}

func envNameFor(t reflect.Type, path []string) (string, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if strings.Split(f.Tag.Get("yaml"), ",")[0] != path[0] {
			continue
		}
		if len(path) == 1 {
			name := f.Tag.Get("env")
			return name, name != ""
		}
		if f.Type.Kind() == reflect.Struct {
			return envNameFor(f.Type, path[1:])
		}
		return "", false
	}
	return "", false
}

// LogOptions converts the logging section into logger options.
func (c LoggingConfig) LogOptions() applog.Options {
	return applog.Options{Level: c.Level, Format: c.Format, AddSource: c.Source, File: c.File}
}
