/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import (
	"math"

	"gangsheet/internal/resolution"
	"gangsheet/internal/vector"
)

// Tick is one inch mark on a ruler. Pos is in container pixels along the
// ruler's axis.
type Tick struct {
	Inch  int
	Pos   float64
	Label bool
}

// labelSteps are the inch intervals tried, in order, for labelled ticks.
var labelSteps = []int{1, 2, 5, 10, 20, 50, 100}

// minTickGap is the closest two unlabelled inch ticks may be drawn.
const minTickGap = 4.0

// RulerTicks lists the inch marks of a sheet side lengthIn inches long that
// fall inside the container, horizontal for the top ruler and vertical for the
// side one. Labels are spread at least minLabelGap pixels apart.
func (v *Viewport) RulerTicks(horizontal bool, lengthIn, minLabelGap float64) []Tick {
	if !vector.Finite(lengthIn) || lengthIn <= 0 {
		return nil
	}
	inch := resolution.PreviewPPI * v.zoom
	step := labelSteps[len(labelSteps)-1]
	for _, s := range labelSteps {
		if float64(s)*inch >= minLabelGap {
			step = s
			break
		}
	}
	every := 1
	if inch < minTickGap {
		every = step
	}

	extent, origin := v.containerW, v.originX
	if !horizontal {
		extent, origin = v.containerH, v.originY
	}
	var out []Tick
	for i := 0; i <= int(math.Floor(lengthIn)); i += every {
		p := v.SheetToScreen(vector.Pt{X: float64(i) * resolution.PreviewPPI, Y: float64(i) * resolution.PreviewPPI})
		pos := p.X - origin
		if !horizontal {
			pos = p.Y - origin
		}
		if pos < 0 || pos > extent {
			continue
		}
		out = append(out, Tick{Inch: i, Pos: pos, Label: i%step == 0})
	}
	return out
}
