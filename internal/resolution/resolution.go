/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package resolution converts between pixel counts, preview sizes and print DPI.
//
// Three spaces are involved: physical inches, preview pixels (PreviewPPI per
// inch, what the sheet is laid out in on screen) and export pixels
// (TargetDPI per inch). All functions are pure.
package resolution

import "math"

const (
	// PreviewPPI is the number of preview pixels per inch of sheet.
	PreviewPPI = 72.0
	// TargetDPI is both the export resolution and the minimum safe print density.
	TargetDPI = 300.0
)

// EffectiveDPI returns the print density of a raster nativeWidth pixels wide
// that is displayed displayWidth preview pixels wide at ppi preview pixels per inch.
// A non-positive display width yields 0. Only the width is considered.
func EffectiveDPI(nativeWidth int, displayWidth, ppi float64) float64 {
	if displayWidth <= 0 {
		return 0
	}
	if ppi <= 0 {
		ppi = PreviewPPI
	}
	return float64(nativeWidth) / (displayWidth / ppi)
}

// PreviewDPI is EffectiveDPI at the fixed preview resolution.
func PreviewDPI(nativeWidth int, displayWidth float64) float64 {
	return EffectiveDPI(nativeWidth, displayWidth, PreviewPPI)
}

// HeightDPI is the vertical counterpart of PreviewDPI. It is informational:
// the print warning is driven by the width alone.
func HeightDPI(nativeHeight int, displayHeight float64) float64 {
	return EffectiveDPI(nativeHeight, displayHeight, PreviewPPI)
}

// IsSafe reports whether dpi meets threshold.
func IsSafe(dpi, threshold float64) bool { return dpi >= threshold }

// IsPrintSafe reports whether dpi meets TargetDPI.
func IsPrintSafe(dpi float64) bool { return IsSafe(dpi, TargetDPI) }

// InchesToPreview converts inches to preview pixels.
func InchesToPreview(in float64) float64 { return in * PreviewPPI }

// PreviewToInches converts preview pixels to inches.
func PreviewToInches(px float64) float64 { return px / PreviewPPI }

// ExportMultiplier is the scale from preview pixels to export pixels (300/72).
func ExportMultiplier() float64 { return TargetDPI / PreviewPPI }

// ExportPixels returns the export raster extent for a length in inches.
func ExportPixels(in float64) int { return int(math.Round(in * TargetDPI)) }

// ScaleToDPI returns the display width in preview pixels at which a raster
// nativeWidth pixels wide prints at exactly dpi. It returns 0 for dpi <= 0.
func ScaleToDPI(nativeWidth int, dpi float64) float64 {
	if dpi <= 0 {
		return 0
	}
	return float64(nativeWidth) / dpi * PreviewPPI
}
