/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gangsheet/internal/config"
	"gangsheet/internal/history"
	"gangsheet/internal/imageio"
	"gangsheet/internal/preset"
	"gangsheet/internal/scene"
	"gangsheet/internal/vector"
	"gangsheet/internal/viewport"

	"gonum.org/v1/gonum/floats/scalar"
)

func near(a, b float64) bool { return scalar.EqualWithinAbs(a, b, 1e-9) }

func newSession(t *testing.T, mutate func(*config.AppConfig)) *Session {
	t.Helper()
	cfg := config.Defaults()
	cfg.Export.OutDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(Options{Config: &cfg})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Dispose() })
	return s
}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 0xff, 0xff
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(w, h)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestLowResolutionImageWarns(t *testing.T) {
	s := newSession(t, nil)
	var events []SelectionEvent
	s.OnSelectionChanged(func(ev SelectionEvent) {
		// Reading back from inside a callback must not deadlock.
		if _, ok := s.Selection(); ok != ev.Selected {
			t.Errorf("Selection() disagrees with event")
		}
		events = append(events, ev)
	})

	if _, err := s.AddImage(solid(400, 400), 400, 400, nil); err != nil {
		t.Fatalf("AddImage: %v", err)
	}
	snap, ok := s.Selection()
	if !ok || snap.Kind != "image" || snap.Width != 200 || snap.DPI != 144 {
		t.Fatalf("snapshot = %+v, %v", snap, ok)
	}
	w, ok := s.Warning()
	if !ok || w.DPI != 144 {
		t.Fatalf("warning = %+v, %v", w, ok)
	}
	if len(events) != 1 || !events[0].HasWarning || events[0].Warning.DPI != 144 {
		t.Fatalf("events = %+v", events)
	}

	// 96 preview px for 400 native px is exactly the target density.
	k := 96.0 / 400
	if err := s.ScaleActive(k, k); err != nil {
		t.Fatalf("ScaleActive: %v", err)
	}
	if _, ok := s.Warning(); ok {
		t.Fatalf("warning at 300 DPI")
	}
	if snap, _ := s.Selection(); snap.DPI != 300 {
		t.Fatalf("dpi = %d", snap.DPI)
	}
	if len(events) != 2 || events[1].HasWarning {
		t.Fatalf("events = %+v", events)
	}
}

func TestDismissedWarningReturnsOnTransform(t *testing.T) {
	s := newSession(t, nil)
	var events []SelectionEvent
	s.OnSelectionChanged(func(ev SelectionEvent) { events = append(events, ev) })
	img, _ := s.AddImage(solid(400, 400), 400, 400, nil)
	if err := s.ScaleActive(0.5, 0.5); err != nil {
		t.Fatalf("ScaleActive: %v", err)
	}
	if w, ok := s.Warning(); !ok || w.DPI != 144 {
		t.Fatalf("warning = %+v %v", w, ok)
	}
	s.DismissWarning()
	if _, ok := s.Warning(); ok {
		t.Fatalf("dismissed warning still shown")
	}
	_, _ = s.Render()
	if _, ok := s.Warning(); ok {
		t.Fatalf("repaint brought the warning back")
	}

	if err := s.ScaleActive(2, 2); err != nil {
		t.Fatalf("ScaleActive: %v", err)
	}
	w, ok := s.Warning()
	if !ok || w.DPI != 36 {
		t.Fatalf("scale after dismiss: warning = %+v %v, want 36 DPI", w, ok)
	}
	if last := events[len(events)-1]; !last.HasWarning || last.Warning.DPI != 36 {
		t.Fatalf("last event = %+v", last)
	}

	s.DismissWarning()
	if err := s.MoveActive(5, 0); err != nil {
		t.Fatalf("MoveActive: %v", err)
	}
	if _, ok := s.Warning(); !ok {
		t.Fatalf("move after dismiss did not re-raise the warning")
	}

	s.DismissWarning()
	s.ClearSelection()
	s.Select(img)
	if _, ok := s.Warning(); !ok {
		t.Fatalf("warning not restored on reselect")
	}
}

func TestSheetResizeKeepsObjects(t *testing.T) {
	s := newSession(t, nil)
	id, err := s.AddShape(scene.Rect, preset.ShapeStyle{}, nil)
	if err != nil {
		t.Fatalf("AddShape: %v", err)
	}
	if err := s.SetSheetDimensions(30, 60); err != nil {
		t.Fatalf("SetSheetDimensions: %v", err)
	}
	if w, h := s.Sheet(); w != 30 || h != 60 {
		t.Fatalf("sheet = %vx%v", w, h)
	}
	if c := s.SheetClip(); !near(c.W, 2160) || !near(c.H, 4320) {
		t.Fatalf("clip = %+v", c)
	}
	for _, o := range s.Objects() {
		if o.ID == id && (o.Left != 100 || o.Top != 100) {
			t.Fatalf("object moved to %v,%v", o.Left, o.Top)
		}
	}
	_ = s.SetSheetDimensions(0.2, -3)
	if w, h := s.Sheet(); w != 1 || h != 1 {
		t.Fatalf("clamped sheet = %vx%v", w, h)
	}
}

func TestSetZoomKeepsContainerCentre(t *testing.T) {
	s := newSession(t, nil) // 1280x800 container
	centre := func() (float64, float64) {
		st := s.Viewport()
		return (640 - st.PanX) / st.Zoom, (400 - st.PanY) / st.Zoom
	}
	_ = s.SetZoom(200)
	x0, y0 := centre()
	_ = s.SetZoom(50)
	x1, y1 := centre()
	if !near(x0, x1) || !near(y0, y1) {
		t.Fatalf("centre moved from %v,%v to %v,%v", x0, y0, x1, y1)
	}
	if _, pct := s.Zoom(); pct != 50 {
		t.Fatalf("percent = %d", pct)
	}
	_ = s.SetZoom(1000)
	if _, pct := s.Zoom(); pct != 400 {
		t.Fatalf("percent = %d", pct)
	}
	_ = s.StepZoom(false)
	if _, pct := s.Zoom(); pct != 300 {
		t.Fatalf("step out = %d", pct)
	}
}

func TestAddAtSheetOrigin(t *testing.T) {
	s := newSession(t, nil)
	origin := &vector.Pt{}
	if _, err := s.AddText("corner", preset.TextStyle{}, origin); err != nil {
		t.Fatalf("AddText: %v", err)
	}
	if snap, _ := s.Selection(); snap.Left != 0 || snap.Top != 0 {
		t.Fatalf("text at %d,%d, want 0,0", snap.Left, snap.Top)
	}
	if _, err := s.AddShape(scene.Triangle, preset.ShapeStyle{}, origin); err != nil {
		t.Fatalf("AddShape: %v", err)
	}
	if snap, _ := s.Selection(); snap.Left != 0 || snap.Top != 0 {
		t.Fatalf("triangle at %d,%d, want 0,0", snap.Left, snap.Top)
	}
	if _, err := s.AddShape(scene.Rect, preset.ShapeStyle{}, &vector.Pt{X: 0, Y: 250}); err != nil {
		t.Fatalf("AddShape: %v", err)
	}
	if snap, _ := s.Selection(); snap.Left != 0 || snap.Top != 250 {
		t.Fatalf("rect at %d,%d, want 0,250", snap.Left, snap.Top)
	}
}

func TestAddTextAndShapesUseStyleDefaults(t *testing.T) {
	s := newSession(t, nil)
	if _, err := s.AddText("", preset.TextStyle{}, nil); err != nil {
		t.Fatalf("AddText: %v", err)
	}
	snap, _ := s.Selection()
	if snap.Kind != "text" || snap.Left != 100 || snap.Top != 100 || snap.Fill != "#ffffff" {
		t.Fatalf("text snapshot = %+v", snap)
	}
	if !s.SetFill(vector.MustHex("#ff0000")) {
		t.Fatalf("SetFill on text returned false")
	}
	if snap, _ := s.Selection(); snap.Fill != "#ff0000" {
		t.Fatalf("fill = %s", snap.Fill)
	}

	if _, err := s.AddShape(scene.Ellipse, preset.ShapeStyle{}, nil); err != nil {
		t.Fatalf("AddShape: %v", err)
	}
	snap, _ = s.Selection()
	if snap.Kind != "ellipse" || snap.Width != 100 || snap.Height != 100 || snap.Fill != "#3b82f6" {
		t.Fatalf("ellipse snapshot = %+v", snap)
	}
	if s.SetFill(vector.MustHex("#000000")) {
		t.Fatalf("SetFill changed a shape")
	}
	if _, err := s.AddShape(scene.Image, preset.ShapeStyle{}, nil); !errors.Is(err, ErrNotAShape) {
		t.Fatalf("AddShape(image) err = %v", err)
	}
	if n := len(s.Objects()); n != 2 {
		t.Fatalf("objects = %d", n)
	}
}

func TestDragIsConstrainedToSheet(t *testing.T) {
	s := newSession(t, nil)
	id, _ := s.AddShape(scene.Rect, preset.ShapeStyle{}, nil)
	s.ClearSelection()

	if err := s.PointerDown(vector.Pt{X: 150, Y: 150}, viewport.Primary, 0); err != nil {
		t.Fatalf("PointerDown: %v", err)
	}
	if o, ok := s.Dragging(); !ok || o.ID != id {
		t.Fatalf("not dragging the rect")
	}
	_ = s.PointerMove(vector.Pt{X: -400, Y: -400})
	_ = s.PointerUp()
	if _, ok := s.Dragging(); ok {
		t.Fatalf("drag survived PointerUp")
	}
	o := s.Objects()[0]
	if o.Left != -80 || o.Top != -80 {
		t.Fatalf("rect at %v,%v, want -80,-80", o.Left, o.Top)
	}

	// Empty space clears the selection.
	_ = s.PointerDown(vector.Pt{X: 900, Y: 700}, viewport.Primary, 0)
	_ = s.PointerUp()
	if _, ok := s.Selection(); ok {
		t.Fatalf("selection not cleared")
	}
}

func TestDragSnapsWhenEnabled(t *testing.T) {
	s := newSession(t, func(c *config.AppConfig) {
		c.Snap.Enabled = true
		c.Snap.Threshold = 6
	})
	_, _ = s.AddShape(scene.Rect, preset.ShapeStyle{}, nil)
	_ = s.PointerDown(vector.Pt{X: 150, Y: 150}, viewport.Primary, 0)
	_ = s.PointerMove(vector.Pt{X: 53, Y: 250})
	_ = s.PointerUp()
	o := s.Objects()[0]
	if o.Left != 0 || o.Top != 200 {
		t.Fatalf("rect at %v,%v, want 0,200", o.Left, o.Top)
	}
}

func TestRulerTicksTrackSheetAndZoom(t *testing.T) {
	s := newSession(t, func(c *config.AppConfig) {
		c.Viewport.ContainerW, c.Viewport.ContainerH = 2000, 1000
	})
	top := s.RulerTicks(true)
	if n := len(top); n != 23 || top[22].Inch != 22 || !near(top[22].Pos, 22*72) {
		t.Fatalf("top ruler: %d ticks, last %+v", n, top[n-1])
	}
	if err := s.SetSheetDimensions(10, 10); err != nil {
		t.Fatalf("SetSheetDimensions: %v", err)
	}
	if n := len(s.RulerTicks(true)); n != 11 {
		t.Fatalf("top ruler after resize: %d ticks", n)
	}
	if err := s.SetZoom(10); err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	side := s.RulerTicks(false)
	if len(side) != 11 {
		t.Fatalf("side ruler at 10%%: %d ticks", len(side))
	}
	for _, tk := range side {
		if tk.Label != (tk.Inch%10 == 0) {
			t.Fatalf("tick %+v labelled wrongly at 10%%", tk)
		}
	}
}

func TestPanningIgnoresWheelAndObjects(t *testing.T) {
	s := newSession(t, nil)
	_, _ = s.AddShape(scene.Rect, preset.ShapeStyle{}, nil)
	s.ClearSelection()

	_ = s.PointerDown(vector.Pt{X: 150, Y: 150}, viewport.Primary, viewport.ModAlt)
	_ = s.Wheel(vector.Pt{X: 10, Y: 10}, -100)
	_ = s.PointerMove(vector.Pt{X: 170, Y: 140})
	_ = s.PointerUp()

	st := s.Viewport()
	if st.Zoom != 1 || st.PanX != 20 || st.PanY != -10 {
		t.Fatalf("viewport = %+v", st)
	}
	if _, ok := s.Selection(); ok {
		t.Fatalf("pan selected an object")
	}
	if c := s.SheetClip(); c.X != 20 || c.Y != -10 {
		t.Fatalf("clip did not follow pan: %+v", c)
	}
}

func TestDeleteActive(t *testing.T) {
	s := newSession(t, nil)
	_, _ = s.AddImage(solid(10, 10), 10, 10, nil)
	if !s.DeleteActive() {
		t.Fatalf("DeleteActive = false")
	}
	if s.DeleteActive() {
		t.Fatalf("second DeleteActive = true")
	}
	if len(s.Objects()) != 0 {
		t.Fatalf("scene not empty")
	}
	if _, ok := s.Warning(); ok {
		t.Fatalf("warning outlived its object")
	}
}

func TestSceneChangedFiresAfterUnlock(t *testing.T) {
	s := newSession(t, nil)
	calls := 0
	stop := s.OnSceneChanged(func() {
		calls++
		_, _ = s.Zoom()
	})
	_ = s.SetZoom(150)
	_, _ = s.AddText("hi", preset.TextStyle{}, nil)
	if calls != 2 {
		t.Fatalf("calls = %d", calls)
	}
	stop()
	_ = s.SetZoom(100)
	if calls != 2 {
		t.Fatalf("called after unsubscribe")
	}
}

func TestExportRestoresPreviewAndRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	store, err := history.Open(filepath.Join(dir, history.FileName))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Defaults()
	cfg.Sheet = config.SheetConfig{WidthIn: 2, HeightIn: 1}
	cfg.Export.OutDir = filepath.Join(dir, "out")
	cfg.Export.Formats = []string{"png", "pdf"}
	cfg.Viewport.ContainerW, cfg.Viewport.ContainerH = 200, 100
	s, err := New(Options{Config: &cfg, History: store})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Dispose() })

	_, _ = s.AddShape(scene.Rect, preset.ShapeStyle{Width: 20, Height: 20}, &vector.Pt{X: 10, Y: 10})
	_, _ = s.AddImage(solid(100, 100), 100, 100, &vector.Pt{X: 40, Y: 5})
	_ = s.SetZoom(50)

	before, err := s.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	clip := s.SheetClip()

	results, err := s.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	for _, r := range results {
		if r.Width != 600 || r.Height != 300 {
			t.Fatalf("%s raster = %dx%d", r.Format, r.Width, r.Height)
		}
		if _, err := os.Stat(r.Path); err != nil {
			t.Fatalf("missing %s: %v", r.Path, err)
		}
	}

	after, err := s.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !bytes.Equal(before.(*image.RGBA).Pix, after.(*image.RGBA).Pix) {
		t.Fatalf("preview differs after export")
	}
	if s.SheetClip() != clip {
		t.Fatalf("clip changed: %+v -> %+v", clip, s.SheetClip())
	}

	ctx := context.Background()
	if n, _ := store.Count(ctx); n != 2 {
		t.Fatalf("history count = %d", n)
	}
	recent, err := store.Recent(ctx, 1)
	if err != nil || len(recent) != 1 {
		t.Fatalf("Recent: %v %v", recent, err)
	}
	if e := recent[0]; e.Objects != 2 || e.LowDPI != 1 || e.WidthIn != 2 || e.SHA256 == "" {
		t.Fatalf("entry = %+v", e)
	}
}

func TestWritePNGStreams(t *testing.T) {
	s := newSession(t, func(c *config.AppConfig) { c.Sheet = config.SheetConfig{WidthIn: 1, HeightIn: 1} })
	var buf bytes.Buffer
	res, err := s.WritePNG(&buf)
	if err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 300 || b.Dy() != 300 || res.Path != "" {
		t.Fatalf("bounds %v path %q", b, res.Path)
	}
	if r, g, b, _ := img.At(150, 150).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Fatalf("sheet not white: %v", color.RGBA64Model.Convert(img.At(150, 150)))
	}
}

func TestUploadImageAppendsWhenDecoded(t *testing.T) {
	s := newSession(t, nil)
	u := s.UploadImage("photo.png", bytes.NewReader(pngBytes(t, 400, 200)), &vector.Pt{X: 300, Y: 250})
	id, err := u.Result()
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	objs := s.Objects()
	if len(objs) != 1 || objs[0].ID != id {
		t.Fatalf("objects = %+v", objs)
	}
	o := objs[0]
	if o.Name != "photo.png" || !near(o.ScaledWidth(), 200) || o.Left != 300 || o.Top != 250 {
		t.Fatalf("object = %+v", o)
	}
	if snap, _ := s.Selection(); snap.DPI != 144 {
		t.Fatalf("dpi = %d", snap.DPI)
	}
}

func TestUploadIgnoresNonImages(t *testing.T) {
	s := newSession(t, nil)
	u := s.UploadImage("notes.txt", bytes.NewReader([]byte("just some text")), nil)
	if _, err := u.Result(); !errors.Is(err, imageio.ErrUnsupportedKind) {
		t.Fatalf("err = %v", err)
	}
	if len(s.Objects()) != 0 {
		t.Fatalf("non-image added")
	}
}

func TestDisposeCancelsUploads(t *testing.T) {
	s := newSession(t, nil)
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	u := s.UploadImage("slow.png", pr, nil)
	if err := s.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	select {
	case <-u.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("upload did not finish after Dispose")
	}
	if _, err := u.Result(); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if _, err := s.AddText("x", preset.TextStyle{}, nil); !errors.Is(err, ErrDisposed) {
		t.Fatalf("AddText after Dispose: %v", err)
	}
	if _, err := s.UploadImage("late.png", bytes.NewReader(nil), nil).Result(); !errors.Is(err, ErrDisposed) {
		t.Fatalf("upload after Dispose: %v", err)
	}
	if err := s.Dispose(); err != nil {
		t.Fatalf("second Dispose: %v", err)
	}
}

func TestUnknownPresetFallsBackToConfiguredSize(t *testing.T) {
	s := newSession(t, func(c *config.AppConfig) {
		c.Sheet = config.SheetConfig{WidthIn: 10, HeightIn: 20, Preset: "nope"}
	})
	if w, h := s.Sheet(); w != 10 || h != 20 {
		t.Fatalf("sheet = %vx%v", w, h)
	}
	s2 := newSession(t, func(c *config.AppConfig) { c.Sheet.Preset = "22x120" })
	if w, h := s2.Sheet(); w != 22 || h != 120 {
		t.Fatalf("preset sheet = %vx%v", w, h)
	}
}
