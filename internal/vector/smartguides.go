/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "math"

// Snapping of a dragged box against the sheet and the other objects. Each axis
// snaps on its own: the candidate with the smallest weighted distance wins.

// SnapOptions selects the features that snap and the capture distance.
type SnapOptions struct {
	// Threshold is in the units of the rects; zero means 6.
	Threshold     float64
	SnapToEdges   bool
	SnapToCenters bool
}

// Anchor is a fixed rect to snap against. Higher weights win near-ties; the
// sheet uses 2, objects 1.
type Anchor struct {
	Rect   Rect
	Weight float64
}

type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

type GuideKind string

const (
	EdgeGuide   GuideKind = "edge"
	CenterGuide GuideKind = "center"
)

// GuideLine is drawn while a snap is active. Position is x for vertical
// guides and y for horizontal ones, rounded to 3 places.
type GuideLine struct {
	Orientation Orientation
	Kind        GuideKind
	Position    float64
	From, To    Pt
}

// span is a rect projected on one axis.
type span struct{ lo, hi float64 }

func (s span) mid() float64 { return (s.lo + s.hi) / 2 }

func spanX(r Rect) span { return span{r.X, r.X + r.W} }
func spanY(r Rect) span { return span{r.Y, r.Y + r.H} }

type snapCandidate struct {
	delta, dist float64
	at          float64
	kind        GuideKind
	anchor      Rect
	found       bool
}

// ComputeSmartGuides returns moving shifted onto the best guide on each axis
// within the threshold, plus the guides to draw.
func ComputeSmartGuides(moving Rect, anchors []Anchor, opts SnapOptions) (Rect, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	bx := bestSnap(spanX(moving), anchors, spanX, opts)
	by := bestSnap(spanY(moving), anchors, spanY, opts)

	out := moving
	var guides []GuideLine
	if bx.found {
		out.X = FloatRound(moving.X-bx.delta, 3)
		x := FloatRound(bx.at, 3)
		ys := spanY(moving.Union(bx.anchor))
		guides = append(guides, GuideLine{Vertical, bx.kind, x, Pt{x, ys.lo}, Pt{x, ys.hi}})
	}
	if by.found {
		out.Y = FloatRound(moving.Y-by.delta, 3)
		y := FloatRound(by.at, 3)
		xs := spanX(moving.Union(by.anchor))
		guides = append(guides, GuideLine{Horizontal, by.kind, y, Pt{xs.lo, y}, Pt{xs.hi, y}})
	}
	return out, guides
}

func bestSnap(m span, anchors []Anchor, project func(Rect) span, opts SnapOptions) snapCandidate {
	best := snapCandidate{dist: math.Inf(1)}
	score := math.Inf(1)
	try := func(delta, at float64, kind GuideKind, a Anchor) {
		d := math.Abs(delta)
		if d > opts.Threshold {
			return
		}
		if s := d / max(1, a.Weight); s < score {
			score = s
			best = snapCandidate{delta: delta, dist: d, at: at, kind: kind, anchor: a.Rect, found: true}
		}
	}
	for _, a := range anchors {
		p := project(a.Rect)
		if opts.SnapToEdges {
			// aligned edges, then abutting edges
			try(m.lo-p.lo, p.lo, EdgeGuide, a)
			try(m.hi-p.hi, p.hi, EdgeGuide, a)
			try(m.lo-p.hi, p.hi, EdgeGuide, a)
			try(m.hi-p.lo, p.lo, EdgeGuide, a)
		}
		if opts.SnapToCenters {
			try(m.mid()-p.mid(), p.mid(), CenterGuide, a)
		}
	}
	return best
}
