/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package sheet models the physical print sheet and its clip region.
package sheet

import (
	"fmt"
	"math"

	"gangsheet/internal/resolution"
	"gangsheet/internal/vector"
)

const (
	MinInches       = 1.0
	MaxWidthInches  = 100.0
	MaxHeightInches = 200.0
)

// ScreenMapper maps sheet space to screen space. *viewport.Viewport implements it.
type ScreenMapper interface {
	SheetToScreen(p vector.Pt) vector.Pt
	Zoom() float64
}

// Clip is the region outside which scene content is not drawn. It has the
// sheet's dimensions and sits where the sheet is currently shown on screen.
type Clip struct {
	Left, Top     float64 // screen px
	Width, Height float64 // sheet preview px
	Zoom          float64
}

// ScreenRect is the clip in screen pixels.
func (c Clip) ScreenRect() vector.Rect {
	return vector.R(c.Left, c.Top, c.Width*c.Zoom, c.Height*c.Zoom)
}

// Sheet is the printable area, anchored at the sheet-space origin.
type Sheet struct {
	widthIn, heightIn float64
	clip              Clip
}

// New returns a sheet of the given size in inches, clamped like SetDimensions.
func New(widthIn, heightIn float64) *Sheet {
	s := &Sheet{}
	s.SetDimensions(widthIn, heightIn)
	s.clip.Zoom = 1
	return s
}

// SetDimensions resizes the sheet in place. Each side is clamped to at least
// one inch and at most MaxWidthInches by MaxHeightInches; non-finite input
// becomes the minimum. It reports whether the size changed. The clip keeps its
// screen position and takes the new dimensions.
func (s *Sheet) SetDimensions(widthIn, heightIn float64) bool {
	w := clampInches(widthIn, MaxWidthInches)
	h := clampInches(heightIn, MaxHeightInches)
	changed := w != s.widthIn || h != s.heightIn
	s.widthIn, s.heightIn = w, h
	s.clip.Width, s.clip.Height = s.WidthPx(), s.HeightPx()
	return changed
}

func clampInches(v, hi float64) float64 {
	if !vector.Finite(v) || v < MinInches {
		return MinInches
	}
	return math.Min(v, hi)
}

func (s *Sheet) WidthInches() float64  { return s.widthIn }
func (s *Sheet) HeightInches() float64 { return s.heightIn }

// WidthPx is the sheet width in preview pixels.
func (s *Sheet) WidthPx() float64 { return resolution.InchesToPreview(s.widthIn) }

// HeightPx is the sheet height in preview pixels.
func (s *Sheet) HeightPx() float64 { return resolution.InchesToPreview(s.heightIn) }

// Bounds is the sheet rectangle in sheet space.
func (s *Sheet) Bounds() vector.Rect { return vector.R(0, 0, s.WidthPx(), s.HeightPx()) }

// ExportSize is the raster size at the target print DPI.
func (s *Sheet) ExportSize() (int, int) {
	return resolution.ExportPixels(s.widthIn), resolution.ExportPixels(s.heightIn)
}

// Clip returns the current clip region.
func (s *Sheet) Clip() Clip { return s.clip }

// SyncClip moves the clip to where the sheet origin lands on screen.
func (s *Sheet) SyncClip(m ScreenMapper) {
	o := m.SheetToScreen(vector.Pt{})
	s.clip.Left, s.clip.Top = o.X, o.Y
	s.clip.Width, s.clip.Height = s.WidthPx(), s.HeightPx()
	s.clip.Zoom = m.Zoom()
}

func (s *Sheet) String() string {
	return fmt.Sprintf("%gx%g in", s.widthIn, s.heightIn)
}
