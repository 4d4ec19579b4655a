/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package viewport maps between screen pixels and sheet space under pan and
// zoom, and runs the small pointer state machine that drives panning.
//
// Screen position of a sheet point p is origin + pan + p*zoom, where origin is
// the top-left of the container the sheet is shown in.
package viewport

import (
	"math"
	"sort"

	"gangsheet/internal/vector"

	"github.com/gogpu/gg"
)

const (
	MinZoom = 0.1
	MaxZoom = 4.0

	wheelIn  = 1.1
	wheelOut = 0.9
)

// ZoomSteps are the discrete percentages offered by zoom controls.
var ZoomSteps = []int{10, 25, 50, 75, 100, 125, 150, 200, 300, 400}

// Mode is the current interaction kind.
type Mode int

const (
	Idle Mode = iota
	Panning
)

func (m Mode) String() string {
	if m == Panning {
		return "panning"
	}
	return "idle"
}

// Button identifies the pointer button of a press.
type Button int

const (
	Primary Button = iota
	Secondary
	Tertiary
)

// Modifiers is a bit set of held keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
	ModSuper
)

// Viewport owns zoom and pan. It is not safe for concurrent use; the session
// serialises access.
type Viewport struct {
	originX, originY float64
	containerW       float64
	containerH       float64

	zoom       float64
	panX, panY float64

	mode Mode
	last vector.Pt

	// PanModifier together with the primary button starts panning.
	PanModifier Modifiers

	listeners map[int]func()
	nextID    int
}

// New returns a viewport at 100% with no pan for a container of the given size.
func New(containerW, containerH float64) *Viewport {
	return &Viewport{
		zoom:        1,
		containerW:  math.Max(0, containerW),
		containerH:  math.Max(0, containerH),
		PanModifier: ModAlt,
		listeners:   map[int]func(){},
	}
}

// OnChange registers fn to run after every zoom or pan change and returns
// a function that removes it.
func (v *Viewport) OnChange(fn func()) (unsubscribe func()) {
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() { delete(v.listeners, id) }
}

func (v *Viewport) changed() {
	ids := make([]int, 0, len(v.listeners))
	for id := range v.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := v.listeners[id]; ok {
			fn()
		}
	}
}

// SetContainer places the container on screen. Origin moves do not change pan.
func (v *Viewport) SetContainer(originX, originY, w, h float64) {
	if !vector.Finite(originX) || !vector.Finite(originY) {
		return
	}
	v.originX, v.originY = originX, originY
	if vector.Finite(w) && w >= 0 {
		v.containerW = w
	}
	if vector.Finite(h) && h >= 0 {
		v.containerH = h
	}
	v.changed()
}

// Container returns origin and size of the container.
func (v *Viewport) Container() vector.Rect {
	return vector.R(v.originX, v.originY, v.containerW, v.containerH)
}

func (v *Viewport) Zoom() float64 { return v.zoom }

// Percent is the zoom as a rounded percentage.
func (v *Viewport) Percent() int { return int(math.Round(v.zoom * 100)) }

func (v *Viewport) Pan() (x, y float64) { return v.panX, v.panY }

func (v *Viewport) Mode() Mode { return v.mode }

// ScreenToSheet maps a screen pixel to sheet space.
func (v *Viewport) ScreenToSheet(p vector.Pt) vector.Pt {
	return vector.Pt{
		X: (p.X - v.originX - v.panX) / v.zoom,
		Y: (p.Y - v.originY - v.panY) / v.zoom,
	}
}

// SheetToScreen maps a sheet point to screen pixels.
func (v *Viewport) SheetToScreen(p vector.Pt) vector.Pt {
	return vector.Pt{
		X: p.X*v.zoom + v.originX + v.panX,
		Y: p.Y*v.zoom + v.originY + v.panY,
	}
}

// Affine is the sheet-to-screen transform.
func (v *Viewport) Affine() vector.Affine2D {
	return vector.Translate(v.originX+v.panX, v.originY+v.panY).Mul(vector.Scale(v.zoom, v.zoom))
}

// Matrix is the sheet-to-screen transform for a gg.Context.
func (v *Viewport) Matrix() gg.Matrix {
	return gg.Matrix{A: v.zoom, B: 0, C: v.originX + v.panX, D: 0, E: v.zoom, F: v.originY + v.panY}
}

// State captures zoom and pan so they can be restored exactly.
type State struct {
	Zoom, PanX, PanY float64
}

func (v *Viewport) State() State { return State{Zoom: v.zoom, PanX: v.panX, PanY: v.panY} }

// Restore reinstates a captured state. Invalid values are ignored.
func (v *Viewport) Restore(s State) {
	if !vector.Finite(s.Zoom) || !vector.Finite(s.PanX) || !vector.Finite(s.PanY) {
		return
	}
	v.zoom = clampZoom(s.Zoom)
	v.panX, v.panY = s.PanX, s.PanY
	v.changed()
}

func clampZoom(z float64) float64 { return math.Min(MaxZoom, math.Max(MinZoom, z)) }

// ZoomAt sets the zoom factor while keeping the sheet point under the screen
// point at fixed. The factor is clamped to [MinZoom, MaxZoom]; non-finite
// input is ignored.
func (v *Viewport) ZoomAt(at vector.Pt, factor float64) {
	if !vector.Finite(factor) || !vector.Finite(at.X) || !vector.Finite(at.Y) {
		return
	}
	anchor := v.ScreenToSheet(at)
	v.zoom = clampZoom(factor)
	v.panX = at.X - v.originX - anchor.X*v.zoom
	v.panY = at.Y - v.originY - anchor.Y*v.zoom
	v.changed()
}

// Center is the screen point at the middle of the container.
func (v *Viewport) Center() vector.Pt {
	return vector.Pt{X: v.originX + v.containerW/2, Y: v.originY + v.containerH/2}
}

// SetZoom sets the zoom factor around the container centre.
func (v *Viewport) SetZoom(factor float64) { v.ZoomAt(v.Center(), factor) }

// SetZoomPercent sets the zoom from a percentage, clamped to [10, 400].
func (v *Viewport) SetZoomPercent(percent float64) { v.SetZoom(percent / 100) }

// Wheel applies one wheel notch at the cursor: negative dy zooms in, positive
// zooms out. It is ignored while panning.
func (v *Viewport) Wheel(at vector.Pt, dy float64) {
	if v.mode != Idle || dy == 0 || !vector.Finite(dy) {
		return
	}
	f := wheelIn
	if dy > 0 {
		f = wheelOut
	}
	v.ZoomAt(at, v.zoom*f)
}

// StepIn moves to the next larger entry of ZoomSteps.
func (v *Viewport) StepIn() {
	cur := v.Percent()
	for _, s := range ZoomSteps {
		if s > cur {
			v.SetZoomPercent(float64(s))
			return
		}
	}
	v.SetZoomPercent(float64(ZoomSteps[len(ZoomSteps)-1]))
}

// StepOut moves to the next smaller entry of ZoomSteps.
func (v *Viewport) StepOut() {
	cur := v.Percent()
	for i := len(ZoomSteps) - 1; i >= 0; i-- {
		if ZoomSteps[i] < cur {
			v.SetZoomPercent(float64(ZoomSteps[i]))
			return
		}
	}
	v.SetZoomPercent(float64(ZoomSteps[0]))
}

// PanBy adds a screen-space delta to the pan offset.
func (v *Viewport) PanBy(dx, dy float64) {
	if !vector.Finite(dx) || !vector.Finite(dy) || (dx == 0 && dy == 0) {
		return
	}
	v.panX += dx
	v.panY += dy
	v.changed()
}

// Reset returns to 100% with no pan.
func (v *Viewport) Reset() {
	v.zoom, v.panX, v.panY = 1, 0, 0
	v.mode = Idle
	v.changed()
}

// FitSheet zooms and pans so a sheet of w by h preview pixels fits the
// container with padding on every side, centred.
func (v *Viewport) FitSheet(w, h, padding float64) {
	if w <= 0 || h <= 0 || v.containerW <= 0 || v.containerH <= 0 {
		return
	}
	availW := math.Max(1, v.containerW-2*padding)
	availH := math.Max(1, v.containerH-2*padding)
	v.zoom = clampZoom(math.Min(availW/w, availH/h))
	v.panX = (v.containerW - w*v.zoom) / 2
	v.panY = (v.containerH - h*v.zoom) / 2
	v.changed()
}

// PointerDown starts panning for the secondary button or for the primary
// button with PanModifier held. It reports whether the press was consumed.
func (v *Viewport) PointerDown(at vector.Pt, b Button, mods Modifiers) bool {
	pan := b == Secondary || (b == Primary && v.PanModifier != 0 && mods&v.PanModifier == v.PanModifier)
	if !pan {
		return false
	}
	v.mode = Panning
	v.last = at
	return true
}

// PointerMove pans by the raw screen delta while panning and reports whether
// the move was consumed.
func (v *Viewport) PointerMove(at vector.Pt) bool {
	if v.mode != Panning {
		return false
	}
	dx, dy := at.X-v.last.X, at.Y-v.last.Y
	v.last = at
	v.PanBy(dx, dy)
	return true
}

// PointerUp returns to Idle and reports whether a pan ended.
func (v *Viewport) PointerUp() bool {
	was := v.mode == Panning
	v.mode = Idle
	return was
}
