/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"image"
	"log/slog"
	"strings"

	"gangsheet/internal/inspect"
	"gangsheet/internal/placement"
	"gangsheet/internal/preset"
	"gangsheet/internal/scene"
	"gangsheet/internal/vector"

	"github.com/google/uuid"
)

// ImageDisplayWidth is the preview width a newly added image is scaled to.
const ImageDisplayWidth = 200.0

// AddImage appends a decoded raster scaled to ImageDisplayWidth and selects
// it. drop is a screen point mapped through the viewport; nil places the
// image at the sheet origin.
func (s *Session) AddImage(img image.Image, nativeW, nativeH int, drop *vector.Pt) (uuid.UUID, error) {
	if err := s.lock(); err != nil {
		return uuid.Nil, err
	}
	defer s.unlock()
	return s.addImage(img, nativeW, nativeH, drop, "")
}

func (s *Session) addImage(img image.Image, nativeW, nativeH int, drop *vector.Pt, name string) (uuid.UUID, error) {
	if img == nil || nativeW <= 0 || nativeH <= 0 {
		return uuid.Nil, ErrNoRaster
	}
	o := scene.NewImage(img, nativeW, nativeH)
	o.Name = name
	k := ImageDisplayWidth / float64(nativeW)
	o.ScaleX, o.ScaleY = k, k
	if drop != nil {
		p := s.view.ScreenToSheet(*drop)
		o.Left, o.Top = p.X, p.Y
	}
	id := s.scene.Add(o)
	s.scene.Select(id)
	s.log.Debug("image added", slog.String("id", id.String()), slog.String("name", name),
		slog.Int("w", nativeW), slog.Int("h", nativeH))
	return id, nil
}

// AddText appends a text object at sheet point at, or at the preset's default
// position when at is nil. Zero style fields take the preset defaults.
func (s *Session) AddText(content string, style preset.TextStyle, at *vector.Pt) (uuid.UUID, error) {
	if err := s.lock(); err != nil {
		return uuid.Nil, err
	}
	defer s.unlock()
	def := s.presets.Styles.Text
	if strings.TrimSpace(content) == "" {
		content = def.Content
	}
	if style.FontSize <= 0 {
		style.FontSize = def.FontSize
	}
	if style.Fill == "" {
		style.Fill = def.Fill
	}
	o := scene.NewText(content, style.FontSize, style.Color())
	o.Left, o.Top = placeAt(at, def.Left, def.Top)
	id := s.scene.Add(o)
	s.scene.Select(id)
	return id, nil
}

// AddShape appends a rectangle, ellipse or triangle at sheet point at, or at
// the preset's default position when at is nil. Zero geometry fields take the
// preset defaults; an ellipse is a circle of the style's radius.
func (s *Session) AddShape(kind scene.Kind, style preset.ShapeStyle, at *vector.Pt) (uuid.UUID, error) {
	if err := s.lock(); err != nil {
		return uuid.Nil, err
	}
	defer s.unlock()
	def := s.presets.Styles.Shape
	if style.Width <= 0 {
		style.Width = def.Width
	}
	if style.Height <= 0 {
		style.Height = def.Height
	}
	if style.Radius <= 0 {
		style.Radius = def.Radius
	}
	if style.Fill == "" {
		style.Fill = def.Fill
	}
	var o scene.Object
	switch kind {
	case scene.Rect:
		o = scene.NewRect(style.Width, style.Height, style.Color())
	case scene.Ellipse:
		o = scene.NewEllipse(style.Radius, style.Radius, style.Color())
	case scene.Triangle:
		o = scene.NewTriangle(style.Width, style.Height, style.Color())
	default:
		return uuid.Nil, ErrNotAShape
	}
	o.Left, o.Top = placeAt(at, def.Left, def.Top)
	id := s.scene.Add(o)
	s.scene.Select(id)
	return id, nil
}

func placeAt(at *vector.Pt, defLeft, defTop float64) (left, top float64) {
	if at == nil {
		return defLeft, defTop
	}
	return at.X, at.Y
}

// SetFill recolors the active text object. Anything else is left alone and
// false is returned.
func (s *Session) SetFill(c vector.Color) bool {
	if s.lock() != nil {
		return false
	}
	defer s.unlock()
	o, ok := s.scene.Active()
	if !ok || !o.Kind.IsText() {
		return false
	}
	return s.scene.Update(o.ID, func(o *scene.Object) { o.Fill = c })
}

// SetSheetDimensions resizes the sheet; each side is clamped to at least one
// inch. Objects keep their positions.
func (s *Session) SetSheetDimensions(widthIn, heightIn float64) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	if s.sheet.SetDimensions(widthIn, heightIn) {
		s.sceneDirty = true
		s.log.Info("sheet resized", slog.String("sheet", s.sheet.String()))
	}
	return nil
}

// Sheet returns the sheet size in inches.
func (s *Session) Sheet() (widthIn, heightIn float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet.WidthInches(), s.sheet.HeightInches()
}

// SheetClip returns the clip rectangle in screen pixels.
func (s *Session) SheetClip() vector.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sheet.Clip().ScreenRect()
}

// MoveActive shifts the active object by (dx, dy) preview px and applies the
// placement constraint.
func (s *Session) MoveActive(dx, dy float64) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	o, ok := s.scene.Active()
	if !ok {
		return ErrNoSelected
	}
	s.moveTo(o, o.Bounds().Translate(dx, dy), false)
	return nil
}

// moveTo places o so its bounding box lands on target, after optional
// snapping and the placement constraint.
func (s *Session) moveTo(o scene.Object, target vector.Rect, snap bool) {
	s.guides = nil
	if snap && s.cfg.Snap.Enabled {
		target, s.guides = vector.ComputeSmartGuides(target, s.anchors(o.ID), vector.SnapOptions{
			Threshold:     s.cfg.Snap.Threshold,
			SnapToEdges:   true,
			SnapToCenters: true,
		})
	}
	cx, cy := placement.Correction(target, s.sheet.Bounds(), placement.DefaultMargin)
	cur := o.Bounds()
	dx, dy := target.X+cx-cur.X, target.Y+cy-cur.Y
	if dx == 0 && dy == 0 {
		return
	}
	s.scene.Update(o.ID, func(o *scene.Object) {
		o.Left += dx
		o.Top += dy
	})
}

func (s *Session) anchors(skip uuid.UUID) []vector.Anchor {
	out := []vector.Anchor{{Rect: s.sheet.Bounds(), Weight: 2}}
	for _, o := range s.scene.Objects() {
		if o.ID != skip {
			out = append(out, vector.Anchor{Rect: o.Bounds(), Weight: 1})
		}
	}
	return out
}

// ScaleActive sets the active object's scale factors.
func (s *Session) ScaleActive(sx, sy float64) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	o, ok := s.scene.Active()
	if !ok {
		return ErrNoSelected
	}
	if !vector.Finite(sx) || !vector.Finite(sy) || sx == 0 || sy == 0 {
		return nil
	}
	s.scene.Update(o.ID, func(o *scene.Object) { o.ScaleX, o.ScaleY = sx, sy })
	return nil
}

// DeleteActive removes the active object and reports whether one existed.
func (s *Session) DeleteActive() bool {
	if s.lock() != nil {
		return false
	}
	defer s.unlock()
	o, ok := s.scene.Active()
	if !ok {
		return false
	}
	if !s.scene.Remove(o.ID) {
		return false
	}
	s.renderer.Forget(s.scene.Objects())
	return true
}

// Select makes id the active object and raises it to the front.
func (s *Session) Select(id uuid.UUID) bool {
	if s.lock() != nil {
		return false
	}
	defer s.unlock()
	if !s.scene.Select(id) {
		return false
	}
	s.scene.BringToFront(id)
	return true
}

func (s *Session) ClearSelection() {
	if s.lock() != nil {
		return
	}
	defer s.unlock()
	s.scene.ClearSelection()
}

// Objects returns the scene content in draw order.
func (s *Session) Objects() []scene.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scene.Objects()
}

// Selection is the properties panel read interface.
func (s *Session) Selection() (inspect.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspect.Snapshot()
}

// Warning returns the DPI warning for the active object, if any.
func (s *Session) Warning() (inspect.Warning, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inspect.Warning()
}

// DismissWarning hides the banner until the selection or the selected
// object changes.
func (s *Session) DismissWarning() {
	if s.lock() != nil {
		return
	}
	defer s.unlock()
	s.inspect.Dismiss()
}
