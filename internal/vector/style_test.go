/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"image/color"
	"testing"
)

func TestParseHexForms(t *testing.T) {
	cases := []struct {
		in   string
		want Color
	}{
		{"#fff", White},
		{"3b82f6", Color{0x3b, 0x82, 0xf6, 0xff}},
		{" #00000080 ", Color{0, 0, 0, 0x80}},
	}
	for _, c := range cases {
		got, err := ParseHex(c.in)
		if err != nil || got != c.want {
			t.Errorf("ParseHex(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
	}
	for _, bad := range []string{"", "#12", "#gggggg", "#1234567"} {
		if _, err := ParseHex(bad); err == nil {
			t.Errorf("ParseHex(%q) accepted", bad)
		}
	}
}

func TestHexRoundTripsThroughColorOf(t *testing.T) {
	c := MustHex("#3b82f6")
	if c.Hex() != "#3b82f6" {
		t.Fatalf("Hex = %s", c.Hex())
	}
	if got := ColorOf(c); got != c {
		t.Fatalf("ColorOf(opaque) = %v", got)
	}
	half := ColorOf(color.NRGBA{R: 200, G: 100, B: 50, A: 128})
	if half != (Color{200, 100, 50, 128}) || half.Hex() != "#c8643280" {
		t.Fatalf("ColorOf(translucent) = %v %s", half, half.Hex())
	}
}
