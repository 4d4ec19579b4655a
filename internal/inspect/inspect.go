/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package inspect derives the properties-panel snapshot and the low
// resolution warning from the selected object.
package inspect

import (
	"fmt"
	"math"

	"gangsheet/internal/resolution"
	"gangsheet/internal/scene"
	"gangsheet/internal/vector"
)

// Snapshot is what the properties panel shows for the selected object.
type Snapshot struct {
	Kind           string
	Width, Height  int
	Left, Top      int
	ScaleX, ScaleY float64
	// DPI is set for images only.
	DPI    int
	HasDPI bool
	// Fill is set for objects that carry a fill colour.
	Fill    string
	HasFill bool
	// NonUniformScale flags images whose axes are scaled differently; the
	// DPI above is computed from the width only.
	NonUniformScale bool
}

// Warning is raised for images below the target print density.
type Warning struct {
	DPI int
}

func (w Warning) Message() string {
	return fmt.Sprintf("Low resolution: %d DPI - image may appear pixelated at print. Target >= %d DPI.", w.DPI, int(resolution.TargetDPI))
}

// Inspect builds the snapshot for o and the warning, if any.
func Inspect(o scene.Object) (Snapshot, *Warning) {
	s := Snapshot{
		Kind:   o.Kind.String(),
		Width:  round(o.ScaledWidth()),
		Height: round(o.ScaledHeight()),
		Left:   round(o.Left),
		Top:    round(o.Top),
		ScaleX: vector.FloatRound(o.ScaleX, 2),
		ScaleY: vector.FloatRound(o.ScaleY, 2),
	}
	if o.Kind.HasFillColor() {
		s.Fill, s.HasFill = o.Fill.Hex(), true
	}
	if !o.Kind.HasNativeResolution() {
		return s, nil
	}
	dpi := resolution.PreviewDPI(o.NativeWidth, o.ScaledWidth())
	s.DPI, s.HasDPI = round(dpi), true
	s.NonUniformScale = math.Abs(o.ScaleX) != math.Abs(o.ScaleY)
	if resolution.IsPrintSafe(dpi) {
		return s, nil
	}
	return s, &Warning{DPI: s.DPI}
}

// JS-style rounding: halves go up, also for negatives.
func round(v float64) int { return int(math.Floor(v + 0.5)) }

// State holds the last derived snapshot and warning.
type State struct {
	snap    *Snapshot
	warning *Warning
	// dismissed is the snapshot the banner was dismissed for.
	dismissed *Snapshot
}

// Update recomputes from the active object; ok=false clears both.
// A dismissal holds only while the selected object is unchanged: a new
// selection or any transform re-raises the warning.
func (st *State) Update(o scene.Object, ok bool, selectionChanged bool) {
	if !ok {
		st.snap, st.warning, st.dismissed = nil, nil, nil
		return
	}
	s, w := Inspect(o)
	if selectionChanged || (st.dismissed != nil && *st.dismissed != s) {
		st.dismissed = nil
	}
	st.snap = &s
	st.warning = w
}

// Snapshot returns the current snapshot.
func (st *State) Snapshot() (Snapshot, bool) {
	if st.snap == nil {
		return Snapshot{}, false
	}
	return *st.snap, true
}

// Warning returns the current warning unless it was dismissed.
func (st *State) Warning() (Warning, bool) {
	if st.warning == nil || st.dismissed != nil {
		return Warning{}, false
	}
	return *st.warning, true
}

// Dismiss hides the current warning without changing the snapshot.
func (st *State) Dismiss() {
	if st.snap != nil {
		d := *st.snap
		st.dismissed = &d
	}
}
