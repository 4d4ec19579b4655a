/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package preset holds named sheet sizes and the default styles new objects
// start with. Packs are JSON documents validated against an embedded schema;
// the built-in pack is always loaded first and user packs extend it.
package preset

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	applog "gangsheet/internal/log"
	"gangsheet/internal/vector"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed preset.schema.json
var schemaJSON []byte

//go:embed builtin.json
var builtinJSON []byte

var ErrInvalidPack = errors.New("preset: invalid pack")

// Pack is a set of sheet sizes plus default styles.
type Pack struct {
	Version      int     `json:"version"`
	DefaultSheet string  `json:"default_sheet,omitempty"`
	Sheets       []Sheet `json:"sheets,omitempty"`
	Styles       Styles  `json:"styles"`
}

type Sheet struct {
	Name     string  `json:"name"`
	Label    string  `json:"label,omitempty"`
	WidthIn  float64 `json:"width_in"`
	HeightIn float64 `json:"height_in"`
}

type Styles struct {
	Text  TextStyle  `json:"text"`
	Shape ShapeStyle `json:"shape"`
}

// TextStyle is where and how a new text object appears (preview px, points).
type TextStyle struct {
	Content  string  `json:"content,omitempty"`
	Left     float64 `json:"left,omitempty"`
	Top      float64 `json:"top,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
	Fill     string  `json:"fill,omitempty"`
}

// ShapeStyle applies to rectangles and triangles; Radius is for circles.
type ShapeStyle struct {
	Left   float64 `json:"left,omitempty"`
	Top    float64 `json:"top,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Radius float64 `json:"radius,omitempty"`
	Fill   string  `json:"fill,omitempty"`
}

func (t TextStyle) Color() vector.Color  { return parseOr(t.Fill, vector.MustHex("#ffffff")) }
func (s ShapeStyle) Color() vector.Color { return parseOr(s.Fill, vector.MustHex("#3b82f6")) }

func parseOr(hex string, def vector.Color) vector.Color {
	if c, err := vector.ParseHex(hex); err == nil {
		return c
	}
	return def
}

// Validate checks raw JSON against the pack schema.
func Validate(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPack, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidPack, strings.Join(msgs, "; "))
	}
	return nil
}

// Parse validates and decodes a pack.
func Parse(data []byte) (Pack, error) {
	if err := Validate(data); err != nil {
		return Pack{}, err
	}
	var p Pack
	if err := json.Unmarshal(data, &p); err != nil {
		return Pack{}, fmt.Errorf("decode pack: %w", err)
	}
	return p, nil
}

// Builtin returns the pack shipped with the binary.
func Builtin() Pack {
	p, err := Parse(builtinJSON)
	if err != nil {
		panic(fmt.Sprintf("builtin preset pack: %v", err))
	}
	return p
}

// LoadFile reads one pack from disk.
func LoadFile(path string) (Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Pack{}, fmt.Errorf("read pack: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Pack{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return p, nil
}

// LoadDir returns the built-in pack extended by every *.json pack in dir, in
// file name order. Invalid files are logged and skipped; a missing dir is
// not an error.
func LoadDir(dir string) (Pack, error) {
	l := applog.WithOperation(applog.WithComponent("preset"), "load").With(slog.String("dir", dir))
	p := Builtin()
	if strings.TrimSpace(dir) == "" {
		return p, nil
	}
	names, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return p, fmt.Errorf("list packs: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		over, err := LoadFile(name)
		if err != nil {
			l.Warn("skip pack", slog.Any("err", err))
			continue
		}
		p = Merge(p, over)
		l.Debug("pack loaded", slog.String("file", filepath.Base(name)), slog.Int("sheets", len(over.Sheets)))
	}
	return p, nil
}

// Merge overlays over on base: sheets replace same-named ones or are
// appended, non-zero style fields win.
func Merge(base, over Pack) Pack {
	out := base
	out.Sheets = append([]Sheet(nil), base.Sheets...)
	for _, s := range over.Sheets {
		replaced := false
		for i := range out.Sheets {
			if out.Sheets[i].Name == s.Name {
				out.Sheets[i] = s
				replaced = true
				break
			}
		}
		if !replaced {
			out.Sheets = append(out.Sheets, s)
		}
	}
	if over.DefaultSheet != "" {
		out.DefaultSheet = over.DefaultSheet
	}
	t, ot := &out.Styles.Text, over.Styles.Text
	if ot.Content != "" {
		t.Content = ot.Content
	}
	if ot.Left != 0 {
		t.Left = ot.Left
	}
	if ot.Top != 0 {
		t.Top = ot.Top
	}
	if ot.FontSize != 0 {
		t.FontSize = ot.FontSize
	}
	if ot.Fill != "" {
		t.Fill = ot.Fill
	}
	sp, op := &out.Styles.Shape, over.Styles.Shape
	if op.Left != 0 {
		sp.Left = op.Left
	}
	if op.Top != 0 {
		sp.Top = op.Top
	}
	if op.Width != 0 {
		sp.Width = op.Width
	}
	if op.Height != 0 {
		sp.Height = op.Height
	}
	if op.Radius != 0 {
		sp.Radius = op.Radius
	}
	if op.Fill != "" {
		sp.Fill = op.Fill
	}
	return out
}

// Sheet looks up a sheet size by name.
func (p Pack) Sheet(name string) (Sheet, bool) {
	for _, s := range p.Sheets {
		if strings.EqualFold(s.Name, name) {
			return s, true
		}
	}
	return Sheet{}, false
}

// Install validates src and copies it into dir under its base name. Existing
// packs are not overwritten.
func Install(dir, src string) (string, error) {
	l := applog.WithOperation(applog.WithComponent("preset"), "install")
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("read pack: %w", err)
	}
	if err := Validate(data); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure preset dir: %w", err)
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if _, err := os.Stat(dst); err == nil {
		return "", fmt.Errorf("pack %s already installed", filepath.Base(src))
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write pack: %w", err)
	}
	l.Info("pack installed", slog.String("path", dst))
	return dst, nil
}
