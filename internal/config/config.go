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
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	applog "gangsheet/internal/log"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type SheetConfig struct {
	WidthIn  float64 `yaml:"width_in"`
	HeightIn float64 `yaml:"height_in"`
	Preset   string  `yaml:"preset"` // named preset; wins over width/height when set
}

type ExportConfig struct {
	OutDir        string   `yaml:"out_dir"`
	Formats       []string `yaml:"formats"`       // "png", "pdf"
	Interpolation string   `yaml:"interpolation"` // "nearest" | "bilinear" | "bicubic"
}

type ViewportConfig struct {
	DefaultZoom int `yaml:"default_zoom"` // percent
	ContainerW  int `yaml:"container_w"`
	ContainerH  int `yaml:"container_h"`
}

type SnapConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"` // preview px
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"` // empty: <config dir>/history.sqlite
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Sheet         SheetConfig    `yaml:"sheet"`
	Export        ExportConfig   `yaml:"export"`
	Viewport      ViewportConfig `yaml:"viewport"`
	Snap          SnapConfig     `yaml:"snap"`
	Logging       LoggingConfig  `yaml:"logging"`
	History       HistoryConfig  `yaml:"history"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Sheet:         SheetConfig{WidthIn: 22, HeightIn: 60},
		Export:        ExportConfig{OutDir: ".", Formats: []string{"png"}, Interpolation: "bicubic"},
		Viewport:      ViewportConfig{DefaultZoom: 100, ContainerW: 1280, ContainerH: 800},
		Snap:          SnapConfig{Enabled: false, Threshold: 6},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
		History:       HistoryConfig{Enabled: true},
	}
}

// Env var names used as overrides.
const (
	EnvSheetWidth    = "GSD_SHEET_WIDTH_IN"
	EnvSheetHeight   = "GSD_SHEET_HEIGHT_IN"
	EnvSheetPreset   = "GSD_SHEET_PRESET"
	EnvExportDir     = "GSD_EXPORT_DIR"
	EnvExportFormats = "GSD_EXPORT_FORMATS" // comma separated
	EnvDefaultZoom   = "GSD_ZOOM"
	EnvSnap          = "GSD_SNAP"
	EnvHistory       = "GSD_HISTORY"
	EnvHistoryPath   = "GSD_HISTORY_PATH"
	// EnvLogLevel Logging envs, shared with internal/log
	EnvLogLevel  = applog.EnvLevel
	EnvLogFormat = applog.EnvFormat
	EnvLogSource = applog.EnvSource
	EnvLogFile   = applog.EnvFile
)

// appDir resolves the per-user application directory below the platform config root.
func appDir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "GangSheet")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "GangSheet")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "gangsheet")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return base, nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// PresetDir is where user preset packs are installed.
func PresetDir() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "presets"), nil
}

// HistoryPath returns the export history database path, honouring History.Path.
func (c AppConfig) HistoryPath() (string, error) {
	if p := strings.TrimSpace(c.History.Path); p != "" {
		return p, nil
	}
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.sqlite"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		} else {
			applog.WithComponent("config").Warn("ignoring malformed config file", slog.String("path", path), slog.Any("err", err))
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Options bridges the logging section to logger options.
func (l LoggingConfig) Options() applog.Options {
	return applog.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// sheet
	if src.Sheet.WidthIn > 0 {
		dst.Sheet.WidthIn = src.Sheet.WidthIn
	}
	if src.Sheet.HeightIn > 0 {
		dst.Sheet.HeightIn = src.Sheet.HeightIn
	}
	if p := strings.TrimSpace(src.Sheet.Preset); p != "" {
		dst.Sheet.Preset = p
	}
	// export
	if d := strings.TrimSpace(src.Export.OutDir); d != "" {
		dst.Export.OutDir = d
	}
	if len(src.Export.Formats) > 0 {
		dst.Export.Formats = normalizeFormats(src.Export.Formats)
	}
	if i := strings.TrimSpace(src.Export.Interpolation); i != "" {
		dst.Export.Interpolation = strings.ToLower(i)
	}
	// viewport
	if src.Viewport.DefaultZoom > 0 {
		dst.Viewport.DefaultZoom = src.Viewport.DefaultZoom
	}
	if src.Viewport.ContainerW > 0 {
		dst.Viewport.ContainerW = src.Viewport.ContainerW
	}
	if src.Viewport.ContainerH > 0 {
		dst.Viewport.ContainerH = src.Viewport.ContainerH
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.Snap.Enabled = src.Snap.Enabled
	if src.Snap.Threshold > 0 {
		dst.Snap.Threshold = src.Snap.Threshold
	}
	dst.History.Enabled = src.History.Enabled
	if p := strings.TrimSpace(src.History.Path); p != "" {
		dst.History.Path = p
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvSheetWidth)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Sheet.WidthIn = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSheetHeight)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Sheet.HeightIn = f
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSheetPreset)); v != "" {
		cfg.Sheet.Preset = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportDir)); v != "" {
		cfg.Export.OutDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvExportFormats)); v != "" {
		cfg.Export.Formats = normalizeFormats(strings.Split(v, ","))
	}
	if v := strings.TrimSpace(os.Getenv(EnvDefaultZoom)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Viewport.DefaultZoom = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSnap)); v != "" {
		lv := strings.ToLower(v)
		cfg.Snap.Enabled = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistory)); v != "" {
		lv := strings.ToLower(v)
		cfg.History.Enabled = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryPath)); v != "" {
		cfg.History.Path = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func normalizeFormats(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, f := range in {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	env := map[string]string{
		"sheet.width_in":        EnvSheetWidth,
		"sheet.height_in":       EnvSheetHeight,
		"sheet.preset":          EnvSheetPreset,
		"export.out_dir":        EnvExportDir,
		"export.formats":        EnvExportFormats,
		"viewport.default_zoom": EnvDefaultZoom,
		"snap.enabled":          EnvSnap,
		"history.enabled":       EnvHistory,
		"history.path":          EnvHistoryPath,
		"logging.level":         EnvLogLevel,
		"logging.format":        EnvLogFormat,
		"logging.source":        EnvLogSource,
		"logging.file":          EnvLogFile,
	}[key]
	if env != "" && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
