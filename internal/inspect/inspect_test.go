/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package inspect

import (
	"image"
	"strings"
	"testing"

	"gangsheet/internal/scene"
	"gangsheet/internal/vector"
)

func imageObject(nativeW, nativeH int, displayW float64) scene.Object {
	o := scene.NewImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), nativeW, nativeH)
	s := displayW / float64(nativeW)
	o.ScaleX, o.ScaleY = s, s
	return o
}

// 400px wide image shown 200 preview px wide prints at 144 DPI.
func TestLowDPIRaisesWarning(t *testing.T) {
	snap, w := Inspect(imageObject(400, 300, 200))
	if !snap.HasDPI || snap.DPI != 144 {
		t.Fatalf("dpi = %d (%v), want 144", snap.DPI, snap.HasDPI)
	}
	if w == nil || w.DPI != 144 {
		t.Fatalf("warning = %+v, want dpi 144", w)
	}
	if !strings.Contains(w.Message(), "144 DPI") {
		t.Fatalf("message = %q", w.Message())
	}
	if snap.Width != 200 || snap.Height != 150 || snap.ScaleX != 0.5 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.HasFill {
		t.Fatalf("images carry no fill")
	}
}

// 96 preview px is exactly 300 DPI, which is safe.
func TestBoundaryDPIIsSafe(t *testing.T) {
	snap, w := Inspect(imageObject(400, 300, 96))
	if snap.DPI != 300 || w != nil {
		t.Fatalf("dpi = %d warning = %+v", snap.DPI, w)
	}
}

func TestShapeSnapshot(t *testing.T) {
	o := scene.NewRect(100, 100, vector.MustHex("#3b82f6"))
	o.Left, o.Top = 100.4, 99.5
	o.ScaleX, o.ScaleY = 1.234, 0.996
	snap, w := Inspect(o)
	if w != nil || snap.HasDPI {
		t.Fatalf("shapes have no dpi")
	}
	if snap.Kind != "rect" || snap.Left != 100 || snap.Top != 100 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.ScaleX != 1.23 || snap.ScaleY != 1.0 {
		t.Fatalf("scale = %v x %v", snap.ScaleX, snap.ScaleY)
	}
	if snap.Width != 123 || snap.Height != 100 {
		t.Fatalf("size = %dx%d", snap.Width, snap.Height)
	}
	if !snap.HasFill || snap.Fill != "#3b82f6" {
		t.Fatalf("fill = %q", snap.Fill)
	}
}

func TestNonUniformScaleFlagged(t *testing.T) {
	o := imageObject(400, 300, 96)
	o.ScaleY = 1
	snap, w := Inspect(o)
	if !snap.NonUniformScale {
		t.Fatalf("expected non-uniform flag")
	}
	// width alone decides
	if w != nil || snap.DPI != 300 {
		t.Fatalf("dpi = %d warning = %+v", snap.DPI, w)
	}
}

func TestZeroWidthImage(t *testing.T) {
	o := imageObject(400, 300, 100)
	o.ScaleX = 0
	snap, w := Inspect(o)
	if snap.DPI != 0 || w == nil || w.DPI != 0 {
		t.Fatalf("degenerate width should report 0 dpi and warn: %+v %+v", snap, w)
	}
}

func TestStateClearAndDismiss(t *testing.T) {
	var st State
	st.Update(imageObject(400, 300, 200), true, true)
	if _, ok := st.Warning(); !ok {
		t.Fatalf("expected warning")
	}
	st.Dismiss()
	if _, ok := st.Warning(); ok {
		t.Fatalf("dismissed warning still visible")
	}
	// re-deriving an unchanged object keeps it dismissed
	st.Update(imageObject(400, 300, 200), true, false)
	if _, ok := st.Warning(); ok {
		t.Fatalf("dismissal lost without a change")
	}
	// a transform of the same selection raises it again
	st.Update(imageObject(400, 300, 250), true, false)
	if w, ok := st.Warning(); !ok || w.DPI != 115 {
		t.Fatalf("transform should re-raise the warning: %+v %v", w, ok)
	}
	st.Dismiss()
	st.Update(imageObject(400, 300, 250), true, true)
	if _, ok := st.Warning(); !ok {
		t.Fatalf("new selection should show warning again")
	}
	st.Update(scene.Object{}, false, true)
	if _, ok := st.Snapshot(); ok {
		t.Fatalf("cleared selection must clear snapshot")
	}
	if _, ok := st.Warning(); ok {
		t.Fatalf("cleared selection must clear warning")
	}
}
