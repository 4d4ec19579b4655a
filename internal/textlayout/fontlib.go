/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// DefaultFamily is the family text objects use unless told otherwise.
const DefaultFamily = "Go"

// FontLibrary stores loaded OpenType fonts mapped by family/weight/italic.
// It keeps the raw font bytes next to the parsed font so rasterisers that
// need their own parser can share the same source.

type FontLibrary struct {
	mu    sync.RWMutex
	fonts map[fontKey]*loadedFont
}

type fontKey struct {
	family string
	weight int
	italic bool
}

type loadedFont struct {
	font *opentype.Font
	data []byte
}

func NewFontLibrary() *FontLibrary { return &FontLibrary{fonts: make(map[fontKey]*loadedFont)} }

var (
	defaultOnce sync.Once
	defaultLib  *FontLibrary
)

// DefaultLibrary returns a shared library with the Go Regular font registered
// as DefaultFamily.
func DefaultLibrary() *FontLibrary {
	defaultOnce.Do(func() {
		defaultLib = NewFontLibrary()
		if err := defaultLib.LoadBytes(DefaultFamily, 400, false, goregular.TTF); err != nil {
			panic(fmt.Sprintf("embedded font: %v", err))
		}
	})
	return defaultLib
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	if err := fl.LoadBytes(family, weight, italic, data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// LoadBytes registers an in-memory font.
func (fl *FontLibrary) LoadBytes(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*loadedFont)
	}
	fl.fonts[fontKey{family: family, weight: weight, italic: italic}] = &loadedFont{font: f, data: data}
	return nil
}

func (fl *FontLibrary) find(spec FontSpec) *loadedFont {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	// Exact match first
	if f, ok := fl.fonts[fontKey{family: spec.Family, weight: spec.Weight, italic: spec.Italic}]; ok {
		return f
	}
	// Same family, any weight/italic; lowest weight wins so the pick is stable.
	var best *loadedFont
	bestW := 1 << 30
	for k, f := range fl.fonts {
		if k.family == spec.Family && k.weight < bestW {
			best, bestW = f, k.weight
		}
	}
	return best
}

// Data returns the raw bytes of the font resolved for spec, or nil.
func (fl *FontLibrary) Data(spec FontSpec) []byte {
	if f := fl.find(spec); f != nil {
		return f.data
	}
	return nil
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// It uses kerning as provided by opentype.Face and font.Drawer.

type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics) {
	if spec.SizePt <= 0 {
		spec.SizePt = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}

	if f := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f.font, &opentype.FaceOptions{Size: spec.SizePt, DPI: dpi, Hinting: font.HintingNone})
		if err == nil {
			m := face.Metrics()
			return face, Metrics{
				Ascent:  fixedToFloat(m.Ascent),
				Descent: fixedToFloat(m.Descent),
				LineGap: fixedToFloat(m.Height - m.Ascent - m.Descent),
			}
		}
	}
	fb := p.Fallback
	if fb == nil {
		fb = BasicProvider{}
	}
	return fb.Resolve(spec)
}

// DefaultProvider resolves against DefaultLibrary at 72 DPI, so one point is
// one preview pixel.
func DefaultProvider() Provider { return OTProvider{Lib: DefaultLibrary()} }
