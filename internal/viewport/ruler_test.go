/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package viewport

import "testing"

func TestRulerTicksAtFullSize(t *testing.T) {
	v := New(800, 600)
	ticks := v.RulerTicks(true, 22, 40)
	if len(ticks) != 12 {
		t.Fatalf("ticks = %d, want 12 (0..11 in fit in 800 px)", len(ticks))
	}
	for i, tk := range ticks {
		if tk.Inch != i || !near(tk.Pos, float64(72*i)) || !tk.Label {
			t.Fatalf("tick %d = %+v", i, tk)
		}
	}
}

func TestRulerTicksSpreadLabelsWhenZoomedOut(t *testing.T) {
	v := New(800, 600)
	v.Restore(State{Zoom: 0.25})
	ticks := v.RulerTicks(false, 60, 40)
	// 18 px per inch: every inch fits in 600 px up to 33 in, labels every 5 in.
	if len(ticks) != 34 {
		t.Fatalf("ticks = %d, want 34", len(ticks))
	}
	for _, tk := range ticks {
		if tk.Label != (tk.Inch%5 == 0) {
			t.Fatalf("tick %+v labelled wrongly", tk)
		}
	}
	if !near(ticks[10].Pos, 180) {
		t.Fatalf("10 in at %v, want 180", ticks[10].Pos)
	}
}

func TestRulerTicksFollowPan(t *testing.T) {
	v := New(800, 600)
	v.SetContainer(50, 0, 800, 600)
	v.Restore(State{Zoom: 1, PanX: -100})
	ticks := v.RulerTicks(true, 22, 40)
	if len(ticks) == 0 || ticks[0].Inch != 2 || !near(ticks[0].Pos, 44) {
		t.Fatalf("first tick = %+v, want 2 in at 44", ticks)
	}
	if v.RulerTicks(true, 0, 40) != nil {
		t.Fatalf("empty sheet side should have no ticks")
	}
}
