/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"gangsheet/internal/scene"
	"gangsheet/internal/vector"
	"gangsheet/internal/viewport"

	"github.com/google/uuid"
)

// FitPadding is the screen margin FitSheet leaves around the sheet.
const FitPadding = 24.0

// drag is an object move in progress.
type drag struct {
	id   uuid.UUID
	grab vector.Pt // pointer minus the object's bounding box origin, sheet px
}

// SetZoom zooms around the centre of the container. percent is clamped to
// [10, 400].
func (s *Session) SetZoom(percent float64) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	s.view.SetZoomPercent(percent)
	return nil
}

// StepZoom moves one entry along the zoom step table, in when in is true.
func (s *Session) StepZoom(in bool) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	if in {
		s.view.StepIn()
	} else {
		s.view.StepOut()
	}
	return nil
}

// Zoom returns the zoom factor and the rounded percentage.
func (s *Session) Zoom() (factor float64, percent int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Zoom(), s.view.Percent()
}

// Viewport returns the zoom and pan.
func (s *Session) Viewport() viewport.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.State()
}

// RulerLabelGap is the minimum spacing between labelled ruler ticks.
const RulerLabelGap = 40

// RulerTicks returns the inch marks for the top (horizontal) or side ruler in
// preview container pixels.
func (s *Session) RulerTicks(horizontal bool) []viewport.Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	length := s.sheet.HeightInches()
	if horizontal {
		length = s.sheet.WidthInches()
	}
	return s.view.RulerTicks(horizontal, length, RulerLabelGap)
}

// Wheel zooms towards the screen point at. Ignored while panning.
func (s *Session) Wheel(at vector.Pt, dy float64) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	if s.view.Mode() == viewport.Panning {
		return nil
	}
	s.view.Wheel(at, dy)
	return nil
}

// FitSheet zooms and pans so the whole sheet is visible.
func (s *Session) FitSheet() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	s.view.FitSheet(s.sheet.WidthPx(), s.sheet.HeightPx(), FitPadding)
	return nil
}

// PointerDown starts a pan (secondary button, or primary with the pan
// modifier) or, with the primary button, selects the top-most object under
// the pointer and starts dragging it. A press on empty space clears the
// selection.
func (s *Session) PointerDown(at vector.Pt, b viewport.Button, mods viewport.Modifiers) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	s.drag = nil
	if s.view.PointerDown(at, b, mods) {
		return nil
	}
	if b != viewport.Primary {
		return nil
	}
	p := s.view.ScreenToSheet(at)
	o, ok := s.scene.ObjectAt(p)
	if !ok {
		s.scene.ClearSelection()
		return nil
	}
	s.scene.Select(o.ID)
	s.scene.BringToFront(o.ID)
	bb := o.Bounds()
	s.drag = &drag{id: o.ID, grab: vector.Pt{X: p.X - bb.X, Y: p.Y - bb.Y}}
	return nil
}

// PointerMove continues a pan or an object drag.
func (s *Session) PointerMove(at vector.Pt) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	if s.view.PointerMove(at) || s.drag == nil {
		return nil
	}
	o, ok := s.scene.Get(s.drag.id)
	if !ok {
		s.drag = nil
		return nil
	}
	p := s.view.ScreenToSheet(at)
	bb := o.Bounds()
	target := vector.Rect{X: p.X - s.drag.grab.X, Y: p.Y - s.drag.grab.Y, W: bb.W, H: bb.H}
	s.moveTo(o, target, true)
	s.sceneDirty = s.sceneDirty || len(s.guides) > 0
	return nil
}

// PointerUp ends a pan or drag.
func (s *Session) PointerUp() error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	s.view.PointerUp()
	if s.drag != nil || len(s.guides) > 0 {
		s.sceneDirty = true
	}
	s.drag = nil
	s.guides = nil
	return nil
}

// Dragging reports the object being dragged, if any.
func (s *Session) Dragging() (scene.Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag == nil {
		return scene.Object{}, false
	}
	return s.scene.Get(s.drag.id)
}
