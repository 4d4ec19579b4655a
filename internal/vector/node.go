/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Node is a shape that can be rendered by different backends.
// It supports basic transforms, styling, bounds, and hit-testing.

type Node interface {
	Bounds() Rect
	Transform() Affine2D
	SetTransform(Affine2D)
	Fill() Fill
	Stroke() Stroke
	SetFill(Fill)
	SetStroke(Stroke)
	Hit(p Pt) bool
}

type baseNode struct {
	xf     Affine2D
	fill   Fill
	stroke Stroke
}

func (b *baseNode) Transform() Affine2D     { return b.xf }
func (b *baseNode) SetTransform(m Affine2D) { b.xf = m }
func (b *baseNode) Fill() Fill              { return b.fill }
func (b *baseNode) Stroke() Stroke          { return b.stroke }
func (b *baseNode) SetFill(f Fill)          { b.fill = f }
func (b *baseNode) SetStroke(s Stroke)      { b.stroke = s }

// local maps p into the node's untransformed space.
func (b *baseNode) local(p Pt) (Pt, bool) {
	inv, ok := b.xf.Invert()
	if !ok {
		return Pt{}, false
	}
	return inv.Apply(p), true
}

// RectNode draws an axis-aligned rectangle before transform.
type RectNode struct {
	baseNode
	rect Rect
}

func NewRect(r Rect, f Fill, s Stroke) *RectNode {
	return &RectNode{baseNode: baseNode{xf: Identity, fill: f, stroke: s}, rect: r}
}

func (n *RectNode) Local() Rect  { return n.rect }
func (n *RectNode) Bounds() Rect { return n.xf.ApplyRect(n.rect) }

func (n *RectNode) Hit(p Pt) bool {
	q, ok := n.local(p)
	return ok && n.rect.Contains(q)
}

// EllipseNode represents an ellipse inside rect.
type EllipseNode struct {
	baseNode
	rect Rect
}

func NewEllipse(r Rect, f Fill, s Stroke) *EllipseNode {
	return &EllipseNode{baseNode: baseNode{xf: Identity, fill: f, stroke: s}, rect: r}
}

func (n *EllipseNode) Local() Rect  { return n.rect }
func (n *EllipseNode) Bounds() Rect { return n.xf.ApplyRect(n.rect) }

func (n *EllipseNode) Hit(p Pt) bool {
	q, ok := n.local(p)
	if !ok {
		return false
	}
	// point-in-ellipse: ((x-cx)/rx)^2 + ((y-cy)/ry)^2 <= 1
	rx, ry := n.rect.W/2, n.rect.H/2
	if rx == 0 || ry == 0 {
		return false
	}
	dx := (q.X - (n.rect.X + rx)) / rx
	dy := (q.Y - (n.rect.Y + ry)) / ry
	return dx*dx+dy*dy <= 1
}

// TriangleNode is an isosceles triangle with its apex at the top centre of
// rect and its base along the bottom edge.
type TriangleNode struct {
	baseNode
	rect Rect
}

func NewTriangle(r Rect, f Fill, s Stroke) *TriangleNode {
	return &TriangleNode{baseNode: baseNode{xf: Identity, fill: f, stroke: s}, rect: r}
}

func (n *TriangleNode) Local() Rect  { return n.rect }
func (n *TriangleNode) Bounds() Rect { return n.xf.ApplyRect(n.rect) }

// Vertices returns apex, bottom-right and bottom-left in local space.
func (n *TriangleNode) Vertices() [3]Pt {
	r := n.rect
	return [3]Pt{{r.X + r.W/2, r.Y}, {r.X + r.W, r.Y + r.H}, {r.X, r.Y + r.H}}
}

func (n *TriangleNode) Hit(p Pt) bool {
	q, ok := n.local(p)
	if !ok {
		return false
	}
	v := n.Vertices()
	d1 := cross(v[0], v[1], q)
	d2 := cross(v[1], v[2], q)
	d3 := cross(v[2], v[0], q)
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func cross(a, b, p Pt) float64 {
	return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
}
