/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

// isolate points the config path at a temp file so tests never read the real user config.
func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Defaults()) {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	isolate(t)
	cfg := Defaults()
	cfg.Playback.Flags = []string{"met_mary", "has_key"}
	cfg.Playback.Prelude = "hooks.lua"
	cfg.Export.PageSize = "Letter"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("loaded %#v, want %#v", got, cfg)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = " DEBUG "
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "/tmp/gdl.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/gdl.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestMergeKeepsDefaultsForZeroValues(t *testing.T) {
	dst := Defaults()
	mergeInto(&dst, &AppConfig{})
	if dst.Playback.MaxHops != 1024 || dst.Export.PageSize != "A4" || dst.Export.FontSize != 11 {
		t.Fatalf("zero values overwrote defaults: %#v", dst)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv("GDL_LOG_LEVEL", "ERROR")
	t.Setenv("GDL_LOG_FORMAT", "json")
	t.Setenv("GDL_LOG_SOURCE", "1")
	t.Setenv("GDL_LOG_FILE", "/var/log/gdl.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/var/log/gdl.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("playback:\n  max_hops: 10\n  flags: [a]\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GDL_FLAGS", "x,y")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Playback.MaxHops != 10 {
		t.Fatalf("MaxHops = %d, want 10 from file", cfg.Playback.MaxHops)
	}
	if !reflect.DeepEqual(cfg.Playback.Flags, []string{"x", "y"}) {
		t.Fatalf("Flags = %v, want env value", cfg.Playback.Flags)
	}
}

func TestBadEnvValueIsReported(t *testing.T) {
	isolate(t)
	t.Setenv("GDL_MAX_HOPS", "lots")
	if _, err := Load(); err == nil {
		t.Fatalf("expected an error for a non-numeric GDL_MAX_HOPS")
	}
}

func TestInvalidYAMLFallsBackToDefaults(t *testing.T) {
	path := isolate(t)
	if err := os.WriteFile(path, []byte("logging: [unclosed"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load()
	if err == nil {
		t.Fatalf("expected a parse error")
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("defaults not kept on parse error: %#v", cfg.Logging)
	}
}

func TestEnvOverrideFor(t *testing.T) {
	t.Setenv("GDL_CATALOG_DB", "/tmp/c.sqlite")
	if name, ok := EnvOverrideFor("catalog.db_path"); !ok || name != "GDL_CATALOG_DB" {
		t.Fatalf("EnvOverrideFor(catalog.db_path) = %q %v", name, ok)
	}
	if _, ok := EnvOverrideFor("export.page_size"); ok {
		t.Fatalf("page_size is not overridden")
	}
	if _, ok := EnvOverrideFor("nope.key"); ok {
		t.Fatalf("unknown key reported as overridden")
	}
}

func TestLogOptions(t *testing.T) {
	o := LoggingConfig{Level: "debug", Format: "json", Source: true, File: "f.log"}.LogOptions()
	if o.Level != "debug" || o.Format != "json" || !o.AddSource || o.File != "f.log" {
		t.Fatalf("LogOptions = %+v", o)
	}
}
