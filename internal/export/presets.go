/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"strings"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetPNG   PresetName = "png"
	PresetPDF   PresetName = "pdf"
	PresetPrint PresetName = "print"
)

// BatchOptions controls a multi-format export. All formats share one raster,
// so the surface is borrowed only once.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: png, pdf; empty means preset defaults
	OutDir  string
	PDF     PDFOptions
}

// Formats resolves the formats a preset writes.
func Formats(p PresetName) []string {
	switch p {
	case PresetPDF:
		return []string{"pdf"}
	case PresetPrint:
		return []string{"png", "pdf"}
	default:
		return []string{"png"}
	}
}

// BatchExport rasterises the job once and writes every requested format.
func BatchExport(job Job, opt BatchOptions) ([]Result, error) {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = Formats(opt.Preset)
	}
	norm := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		switch f {
		case "png", "pdf":
			norm = append(norm, f)
		default:
			return nil, fmt.Errorf("unknown format: %s", f)
		}
	}

	img, err := Raster(job)
	if err != nil {
		return nil, err
	}
	var out []Result
	for _, f := range norm {
		var (
			res Result
			err error
		)
		switch f {
		case "png":
			res, err = savePNG(opt.OutDir, img)
		case "pdf":
			res, err = savePDF(opt.OutDir, img, job.Sheet.WidthInches(), job.Sheet.HeightInches(), opt.PDF)
		}
		if err != nil {
			return out, fmt.Errorf("%s: %w", f, err)
		}
		out = append(out, res)
	}
	return out, nil
}
