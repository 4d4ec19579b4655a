//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"image"
	"math"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	applog "gangsheet/internal/log"
	"gangsheet/internal/session"
	"gangsheet/internal/vector"
	"gangsheet/internal/viewport"
)

// SheetCanvas shows the session preview and forwards pointer, drag and
// wheel input to it. Widget coordinates are used as screen pixels.
type SheetCanvas struct {
	widget.BaseWidget
	sess    *session.Session
	pressed bool
}

var (
	_ desktop.Mouseable = (*SheetCanvas)(nil)
	_ fyne.Draggable    = (*SheetCanvas)(nil)
	_ fyne.Scrollable   = (*SheetCanvas)(nil)
)

func NewSheetCanvas(sess *session.Session) *SheetCanvas {
	c := &SheetCanvas{sess: sess}
	c.ExtendBaseWidget(c)
	return c
}

func (c *SheetCanvas) CreateRenderer() fyne.WidgetRenderer {
	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillStretch
	img.ScaleMode = canvas.ImageScalePixels
	return &sheetCanvasRenderer{c: c, img: img, objects: []fyne.CanvasObject{img}}
}

func (c *SheetCanvas) MinSize() fyne.Size { return fyne.NewSize(320, 240) }

func toPt(p fyne.Position) vector.Pt { return vector.Pt{X: float64(p.X), Y: float64(p.Y)} }

func buttonOf(b desktop.MouseButton) viewport.Button {
	switch b {
	case desktop.MouseButtonSecondary:
		return viewport.Secondary
	case desktop.MouseButtonTertiary:
		return viewport.Tertiary
	default:
		return viewport.Primary
	}
}

func modifiersOf(m fyne.KeyModifier) viewport.Modifiers {
	var out viewport.Modifiers
	if m&fyne.KeyModifierShift != 0 {
		out |= viewport.ModShift
	}
	if m&fyne.KeyModifierControl != 0 {
		out |= viewport.ModCtrl
	}
	if m&fyne.KeyModifierAlt != 0 {
		out |= viewport.ModAlt
	}
	if m&fyne.KeyModifierSuper != 0 {
		out |= viewport.ModSuper
	}
	return out
}

func (c *SheetCanvas) MouseDown(e *desktop.MouseEvent) {
	c.pressed = true
	_ = c.sess.PointerDown(toPt(e.Position), buttonOf(e.Button), modifiersOf(e.Modifier))
}

func (c *SheetCanvas) MouseUp(*desktop.MouseEvent) {
	if c.pressed {
		c.pressed = false
		_ = c.sess.PointerUp()
	}
}

func (c *SheetCanvas) Dragged(e *fyne.DragEvent) {
	_ = c.sess.PointerMove(toPt(e.Position))
}

func (c *SheetCanvas) DragEnd() {
	c.pressed = false
	_ = c.sess.PointerUp()
}

// Scrolled zooms towards the cursor.
func (c *SheetCanvas) Scrolled(e *fyne.ScrollEvent) {
	_ = c.sess.Wheel(toPt(e.Position), -float64(e.Scrolled.DY))
}

type sheetCanvasRenderer struct {
	c       *SheetCanvas
	img     *canvas.Image
	objects []fyne.CanvasObject
	w, h    int
}

func (r *sheetCanvasRenderer) Destroy()                     {}
func (r *sheetCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }
func (r *sheetCanvasRenderer) MinSize() fyne.Size           { return r.c.MinSize() }

func (r *sheetCanvasRenderer) Layout(size fyne.Size) {
	r.img.Move(fyne.NewPos(0, 0))
	r.img.Resize(size)
	w, h := int(math.Round(float64(size.Width))), int(math.Round(float64(size.Height)))
	if w <= 0 || h <= 0 || (w == r.w && h == r.h) {
		return
	}
	r.w, r.h = w, h
	if err := r.c.sess.Resize(w, h); err != nil {
		applog.WithComponent("ui").Warn("preview resize failed", "err", err)
	}
}

func (r *sheetCanvasRenderer) Refresh() {
	img, err := r.c.sess.Render()
	if err != nil {
		return
	}
	r.img.Image = img
	canvas.Refresh(r.img)
}
