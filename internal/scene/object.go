/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"image"
	"math"

	"gangsheet/internal/textlayout"
	"gangsheet/internal/vector"

	"github.com/google/uuid"
)

// Kind is the closed set of object variants.
type Kind int

const (
	Image Kind = iota
	Text
	Rect
	Ellipse
	Triangle
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Text:
		return "text"
	case Rect:
		return "rect"
	case Ellipse:
		return "ellipse"
	case Triangle:
		return "triangle"
	}
	return "unknown"
}

// HasFillColor reports whether objects of this kind carry a fill.
func (k Kind) HasFillColor() bool { return k != Image }

// HasNativeResolution reports whether objects of this kind wrap a raster.
func (k Kind) HasNativeResolution() bool { return k == Image }

func (k Kind) IsText() bool { return k == Text }

// Object is one placed item. Position and size are preview pixels in sheet
// space; Width and Height are the unscaled extent.
type Object struct {
	ID   uuid.UUID
	Kind Kind

	Left, Top      float64
	ScaleX, ScaleY float64
	Width, Height  float64

	Fill vector.Color

	// Text
	Content  string
	FontSize float64

	// Image
	Raster       image.Image
	NativeWidth  int
	NativeHeight int
	Name         string
}

// NewImage wraps a decoded raster at scale 1.
func NewImage(img image.Image, nativeW, nativeH int) Object {
	return Object{
		Kind: Image, ScaleX: 1, ScaleY: 1,
		Width: float64(nativeW), Height: float64(nativeH),
		Raster: img, NativeWidth: nativeW, NativeHeight: nativeH,
	}
}

// NewText returns a text object measured with the default font.
func NewText(content string, fontSize float64, fill vector.Color) Object {
	o := Object{Kind: Text, ScaleX: 1, ScaleY: 1, Content: content, FontSize: fontSize, Fill: fill}
	o.measure()
	return o
}

func NewRect(w, h float64, fill vector.Color) Object {
	return Object{Kind: Rect, ScaleX: 1, ScaleY: 1, Width: w, Height: h, Fill: fill}
}

// NewEllipse returns an ellipse with the given radii.
func NewEllipse(rx, ry float64, fill vector.Color) Object {
	return Object{Kind: Ellipse, ScaleX: 1, ScaleY: 1, Width: 2 * rx, Height: 2 * ry, Fill: fill}
}

func NewTriangle(w, h float64, fill vector.Color) Object {
	return Object{Kind: Triangle, ScaleX: 1, ScaleY: 1, Width: w, Height: h, Fill: fill}
}

// TextFont is the font spec used to measure and draw text objects.
func (o Object) TextFont() textlayout.FontSpec {
	return textlayout.FontSpec{Family: textlayout.DefaultFamily, SizePt: o.FontSize, Weight: 400}
}

func (o *Object) measure() {
	if o.Kind != Text {
		return
	}
	o.Width, o.Height = textlayout.Measure(textlayout.DefaultProvider(), o.TextFont(), o.Content)
}

// ScaledWidth is the displayed width in preview pixels.
func (o Object) ScaledWidth() float64 { return o.Width * math.Abs(o.ScaleX) }

// ScaledHeight is the displayed height in preview pixels.
func (o Object) ScaledHeight() float64 { return o.Height * math.Abs(o.ScaleY) }

// Transform maps the object's local (0,0)-(Width,Height) box into sheet space.
func (o Object) Transform() vector.Affine2D {
	return vector.Translate(o.Left, o.Top).Mul(vector.Scale(o.ScaleX, o.ScaleY))
}

// Shape returns the hit-testable node for the object.
func (o Object) Shape() vector.Node {
	r := vector.R(0, 0, o.Width, o.Height)
	var n vector.Node
	switch o.Kind {
	case Ellipse:
		n = vector.NewEllipse(r, vector.Solid(o.Fill), vector.Stroke{})
	case Triangle:
		n = vector.NewTriangle(r, vector.Solid(o.Fill), vector.Stroke{})
	case Image:
		n = vector.NewRect(r, vector.Fill{}, vector.Stroke{})
	default:
		n = vector.NewRect(r, vector.Solid(o.Fill), vector.Stroke{})
	}
	n.SetTransform(o.Transform())
	return n
}

// Bounds is the axis-aligned bounding box in sheet space.
func (o Object) Bounds() vector.Rect {
	return o.Transform().ApplyRect(vector.R(0, 0, o.Width, o.Height))
}

// Hit reports whether the sheet point p lies on the object.
func (o Object) Hit(p vector.Pt) bool { return o.Shape().Hit(p) }
