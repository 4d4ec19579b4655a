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
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"gangsheet/internal/session"
)

const (
	rulerThickness = 20
	majorTick      = 10
	minorTick      = 5
)

// Ruler shows inch marks along the top or left edge of the sheet canvas.
type Ruler struct {
	widget.BaseWidget
	sess       *session.Session
	horizontal bool
}

func NewRuler(sess *session.Session, horizontal bool) *Ruler {
	r := &Ruler{sess: sess, horizontal: horizontal}
	r.ExtendBaseWidget(r)
	return r
}

func (r *Ruler) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(theme.Color(theme.ColorNameInputBackground))
	return &rulerRenderer{r: r, bg: bg}
}

func (r *Ruler) MinSize() fyne.Size {
	if r.horizontal {
		return fyne.NewSize(0, rulerThickness)
	}
	return fyne.NewSize(rulerThickness, 0)
}

type rulerRenderer struct {
	r     *Ruler
	bg    *canvas.Rectangle
	marks []fyne.CanvasObject
	size  fyne.Size
}

func (rr *rulerRenderer) Destroy()           {}
func (rr *rulerRenderer) MinSize() fyne.Size { return rr.r.MinSize() }

func (rr *rulerRenderer) Objects() []fyne.CanvasObject {
	return append([]fyne.CanvasObject{rr.bg}, rr.marks...)
}

func (rr *rulerRenderer) Layout(size fyne.Size) {
	rr.size = size
	rr.bg.Resize(size)
	rr.Refresh()
}

func (rr *rulerRenderer) Refresh() {
	fg := theme.Color(theme.ColorNameForeground)
	rr.marks = rr.marks[:0]
	for _, tk := range rr.r.sess.RulerTicks(rr.r.horizontal) {
		pos := float32(tk.Pos)
		length := float32(minorTick)
		if tk.Label {
			length = majorTick
		}
		line := canvas.NewLine(fg)
		line.StrokeWidth = 1
		if rr.r.horizontal {
			line.Position1 = fyne.NewPos(pos, rr.size.Height-length)
			line.Position2 = fyne.NewPos(pos, rr.size.Height)
		} else {
			line.Position1 = fyne.NewPos(rr.size.Width-length, pos)
			line.Position2 = fyne.NewPos(rr.size.Width, pos)
		}
		rr.marks = append(rr.marks, line)
		if tk.Label {
			rr.marks = append(rr.marks, rr.label(tk.Inch, pos, fg))
		}
	}
	canvas.Refresh(rr.r)
}

func (rr *rulerRenderer) label(inch int, pos float32, fg color.Color) *canvas.Text {
	t := canvas.NewText(strconv.Itoa(inch), fg)
	t.TextSize = 9
	if rr.r.horizontal {
		t.Move(fyne.NewPos(pos+2, 0))
	} else {
		t.Move(fyne.NewPos(1, pos+1))
	}
	return t
}
