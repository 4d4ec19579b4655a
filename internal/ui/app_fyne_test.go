//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne-based UI components. They are gated behind the
// "fyne" build tag so CI (which is headless) does not need Fyne or a display.
// To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"gangsheet/internal/config"
	"gangsheet/internal/preset"
	"gangsheet/internal/scene"
	"gangsheet/internal/session"
	"gangsheet/internal/viewport"
)

func newTestCanvas(t *testing.T) (*SheetCanvas, *session.Session) {
	t.Helper()
	test.NewApp()
	cfg := config.Defaults()
	cfg.Export.OutDir = t.TempDir()
	sess, err := session.New(session.Options{Config: &cfg})
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	t.Cleanup(func() { _ = sess.Dispose() })
	c := NewSheetCanvas(sess)
	w := test.NewWindow(c)
	t.Cleanup(w.Close)
	w.Resize(fyne.NewSize(640, 480))
	return c, sess
}

func TestSheetCanvas_MouseSelectsAndDrags(t *testing.T) {
	c, sess := newTestCanvas(t)
	if _, err := sess.AddShape(scene.Rect, preset.ShapeStyle{}, nil); err != nil {
		t.Fatalf("AddShape: %v", err)
	}
	sess.ClearSelection()

	c.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(150, 150)},
		Button:     desktop.MouseButtonPrimary,
	})
	if _, ok := sess.Selection(); !ok {
		t.Fatalf("click did not select the rectangle")
	}
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(170, 160)}})
	c.DragEnd()
	o := sess.Objects()[0]
	if o.Left != 120 || o.Top != 110 {
		t.Fatalf("rect at %v,%v, want 120,110", o.Left, o.Top)
	}
}

func TestSheetCanvas_SecondaryButtonPans(t *testing.T) {
	c, sess := newTestCanvas(t)
	before := sess.Viewport()
	c.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)},
		Button:     desktop.MouseButtonSecondary,
	})
	c.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(40, 30)}})
	c.MouseUp(&desktop.MouseEvent{})
	after := sess.Viewport()
	if after.PanX-before.PanX != 30 || after.PanY-before.PanY != 20 {
		t.Fatalf("pan %+v -> %+v", before, after)
	}
}

func TestSheetCanvas_ScrollZooms(t *testing.T) {
	c, sess := newTestCanvas(t)
	c.Scrolled(&fyne.ScrollEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(100, 100)},
		Scrolled:   fyne.Delta{DY: 1},
	})
	if f, _ := sess.Zoom(); f <= 1 {
		t.Fatalf("zoom = %v, want > 1", f)
	}
}

func TestModifiersOf(t *testing.T) {
	got := modifiersOf(fyne.KeyModifierAlt | fyne.KeyModifierShift)
	if got != viewport.ModAlt|viewport.ModShift {
		t.Fatalf("modifiers = %v", got)
	}
	if buttonOf(desktop.MouseButtonSecondary) != viewport.Secondary {
		t.Fatalf("secondary button not mapped")
	}
}

func TestRulerDrawsInchMarks(t *testing.T) {
	_, sess := newTestCanvas(t)
	if err := sess.Resize(1280, 800); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	r := NewRuler(sess, true)
	rr := test.TempWidgetRenderer(t, r)
	rr.Layout(fyne.NewSize(1280, rulerThickness))

	// 22 in sheet at 100%: inches 0..17 fit in 1280 px, each labelled.
	objs := rr.Objects()
	if len(objs) != 1+18*2 {
		t.Fatalf("objects = %d, want 37", len(objs))
	}
	line, ok := objs[1+2*3].(*canvas.Line)
	if !ok {
		t.Fatalf("object 7 is %T, want *canvas.Line", objs[7])
	}
	if line.Position1.X != 216 || line.Position2.Y != rulerThickness {
		t.Fatalf("3 in mark at %v-%v", line.Position1, line.Position2)
	}
	if txt, ok := objs[2+2*3].(*canvas.Text); !ok || txt.Text != "3" {
		t.Fatalf("3 in label = %#v", objs[8])
	}
}
