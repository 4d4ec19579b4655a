/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import "testing"

func TestWordWrap_Naive(t *testing.T) {
	l := NewWordWrap(BasicProvider{})
	box := l.Layout("Hello world from Go", FontSpec{}, 50)
	if len(box.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(box.Lines))
	}
	if box.Width <= 0 || box.Height <= 0 {
		t.Fatalf("expected positive box size: %+v", box)
	}
}

func TestMeasure_BasicFace(t *testing.T) {
	// Face7x13 advances 7px per glyph.
	w, h := Measure(BasicProvider{}, FontSpec{}, "ABC")
	if w != 21 {
		t.Fatalf("width = %v, want 21", w)
	}
	w2, h2 := Measure(BasicProvider{}, FontSpec{}, "ABC\nA")
	if w2 != w || h2 != 2*h {
		t.Fatalf("two lines = %vx%v, want %vx%v", w2, h2, w, 2*h)
	}
}

func TestDefaultProviderScalesWithSize(t *testing.T) {
	p := DefaultProvider()
	w24, h24 := Measure(p, FontSpec{Family: DefaultFamily, SizePt: 24}, "Double-click to edit")
	w48, h48 := Measure(p, FontSpec{Family: DefaultFamily, SizePt: 48}, "Double-click to edit")
	if w24 <= 0 || h24 <= 0 {
		t.Fatalf("empty measure: %vx%v", w24, h24)
	}
	if w48 < 1.9*w24 || w48 > 2.1*w24 || h48 < 1.9*h24 {
		t.Fatalf("size 48 should be about twice size 24: %vx%v vs %vx%v", w48, h48, w24, h24)
	}
}

func TestLibraryFallbackAndData(t *testing.T) {
	lib := DefaultLibrary()
	if len(lib.Data(FontSpec{Family: DefaultFamily, Weight: 700})) == 0 {
		t.Fatalf("family fallback should resolve the regular face")
	}
	if lib.Data(FontSpec{Family: "Nope"}) != nil {
		t.Fatalf("unknown family must not resolve")
	}
	if err := NewFontLibrary().LoadBytes("bad", 400, false, []byte("not a font")); err == nil {
		t.Fatalf("expected parse error")
	}
	// Unknown families fall back to the bitmap face.
	_, m := OTProvider{Lib: lib}.Resolve(FontSpec{Family: "Nope"})
	if m.Ascent != 11 {
		t.Fatalf("fallback ascent = %v", m.Ascent)
	}
}
