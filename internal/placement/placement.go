/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package placement keeps dragged objects from leaving the sheet.
package placement

import (
	"math"

	"gangsheet/internal/vector"
)

// DefaultMargin is how many preview pixels of an object must stay on the sheet.
const DefaultMargin = 20.0

// Correction returns the translation that brings box back to at least margin
// pixels of overlap with sheet on every edge. Only violated axes get a
// non-zero component, and it is exactly the excess. An object smaller than the
// margin on an axis must stay fully inside on that axis.
func Correction(box, sheet vector.Rect, margin float64) (dx, dy float64) {
	return axis(box.X, box.W, sheet.X, sheet.W, margin), axis(box.Y, box.H, sheet.Y, sheet.H, margin)
}

func axis(pos, extent, lo, size, margin float64) float64 {
	need := math.Min(margin, math.Max(0, extent))
	hi := lo + size
	switch {
	case pos+extent < lo+need:
		// fell off the low edge
		return lo + need - (pos + extent)
	case pos > hi-need:
		return hi - need - pos
	}
	return 0
}

// Constrain returns box translated by Correction.
func Constrain(box, sheet vector.Rect, margin float64) vector.Rect {
	dx, dy := Correction(box, sheet, margin)
	box.X += dx
	box.Y += dy
	return box
}
