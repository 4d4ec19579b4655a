/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image"

	"gangsheet/internal/vector"

	"github.com/gogpu/gg"
)

// Surface is the drawing target the preview is painted on. Besides the
// pixels it carries the view matrix, an optional clip rectangle (screen
// pixels) and the background colour; together these are the state an
// export has to put back exactly.
type Surface struct {
	dc         *gg.Context
	matrix     gg.Matrix
	clip       vector.Rect
	clipped    bool
	background gg.RGBA
}

// SurfaceState is a comparable snapshot of a Surface's mutable state.
type SurfaceState struct {
	Matrix        gg.Matrix
	Width, Height int
	Clip          vector.Rect
	Clipped       bool
	Background    gg.RGBA
}

// NewSurface allocates a surface of w by h pixels with an identity matrix.
func NewSurface(w, h int, background gg.RGBA) (*Surface, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("surface size %dx%d: both sides must be positive", w, h)
	}
	return &Surface{dc: gg.NewContext(w, h), matrix: gg.Identity(), background: background}, nil
}

func (s *Surface) Context() *gg.Context { return s.dc }

func (s *Surface) Size() (int, int) { return s.dc.Width(), s.dc.Height() }

// Resize reallocates the pixels. Contents are lost until the next redraw.
func (s *Surface) Resize(w, h int) error { return s.dc.Resize(w, h) }

func (s *Surface) Matrix() gg.Matrix     { return s.matrix }
func (s *Surface) SetMatrix(m gg.Matrix) { s.matrix = m }

// Clip returns the clip rectangle in surface pixels and whether one is set.
func (s *Surface) Clip() (vector.Rect, bool) { return s.clip, s.clipped }

func (s *Surface) SetClip(r vector.Rect) { s.clip, s.clipped = r, true }

func (s *Surface) ClearClip() { s.clip, s.clipped = vector.Rect{}, false }

func (s *Surface) Background() gg.RGBA { return s.background }

func (s *Surface) SetBackground(c gg.RGBA) { s.background = c }

// State captures everything Restore puts back.
func (s *Surface) State() SurfaceState {
	w, h := s.Size()
	return SurfaceState{
		Matrix: s.matrix, Width: w, Height: h,
		Clip: s.clip, Clipped: s.clipped, Background: s.background,
	}
}

// Restore reinstates a captured state. The pixel size is restored first so a
// failed resize leaves the remaining fields untouched.
func (s *Surface) Restore(st SurfaceState) error {
	if err := s.dc.Resize(st.Width, st.Height); err != nil {
		return fmt.Errorf("restore surface size: %w", err)
	}
	s.matrix = st.Matrix
	s.clip, s.clipped = st.Clip, st.Clipped
	s.background = st.Background
	return nil
}

// Image returns the current pixels.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// Close releases the underlying context.
func (s *Surface) Close() error {
	if s == nil || s.dc == nil {
		return nil
	}
	err := s.dc.Close()
	s.dc = nil
	return err
}
