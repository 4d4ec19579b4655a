/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export rasterises the sheet at print resolution and writes it as
// PNG or PDF.
package export

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"image"
	"io"
	"log/slog"
	"math"

	applog "gangsheet/internal/log"
	"gangsheet/internal/render"
	"gangsheet/internal/resolution"
	"gangsheet/internal/scene"
	"gangsheet/internal/sheet"

	"github.com/gogpu/gg"
)

const (
	PNGName = "gang-sheet-300dpi.png"
	PDFName = "gang-sheet-300dpi.pdf"
)

var ErrIncompleteJob = errors.New("export: job needs a sheet, surface and renderer")

// Job is one export request. Surface is the live preview surface; its state
// is borrowed for the duration of the export and put back afterwards.
type Job struct {
	Sheet    *sheet.Sheet
	Objects  []scene.Object
	Surface  *render.Surface
	Renderer *render.Renderer

	// Redraw repaints the preview once the surface is restored. May be nil.
	Redraw func() error

	// Rasterize replaces Renderer.Rasterize when set.
	Rasterize func(objs []scene.Object, w, h int, m gg.Matrix, bg gg.RGBA) (*gg.Context, error)
}

// Result describes a written export.
type Result struct {
	Path          string // empty for streamed output
	Format        string
	Width, Height int // raster pixels
	Bytes         int64
	SHA256        string
}

// Raster renders the sheet at the target DPI. The surface is switched to an
// identity transform, the sheet's preview size, no clip and a white
// background, rasterised at TargetDPI/PreviewPPI, and then restored and
// redrawn whether or not rasterisation succeeded.
func Raster(job Job) (img *image.RGBA, err error) {
	if job.Sheet == nil || job.Surface == nil || job.Renderer == nil {
		return nil, ErrIncompleteJob
	}
	l := applog.WithOperation(applog.WithComponent("export"), "raster")
	s := job.Surface
	saved := s.State()
	defer func() {
		if rerr := s.Restore(saved); rerr != nil {
			l.Error("restore surface", slog.Any("err", rerr))
			err = errors.Join(err, rerr)
			return
		}
		if job.Redraw == nil {
			return
		}
		if rerr := job.Redraw(); rerr != nil {
			l.Warn("redraw after export", slog.Any("err", rerr))
			err = errors.Join(err, rerr)
		}
	}()

	s.SetMatrix(gg.Identity())
	if err := s.Resize(int(math.Round(job.Sheet.WidthPx())), int(math.Round(job.Sheet.HeightPx()))); err != nil {
		return nil, fmt.Errorf("resize surface to sheet: %w", err)
	}
	s.ClearClip()
	s.SetBackground(render.Paper)

	w, h := job.Sheet.ExportSize()
	k := resolution.ExportMultiplier()
	m := gg.Scale(k, k).Multiply(s.Matrix())
	rasterize := job.Rasterize
	if rasterize == nil {
		rasterize = job.Renderer.Rasterize
	}
	dc, err := rasterize(job.Objects, w, h, m, s.Background())
	if err != nil {
		return nil, fmt.Errorf("rasterise %dx%d: %w", w, h, err)
	}
	defer dc.Close()
	out, ok := dc.Image().(*image.RGBA)
	if !ok {
		return nil, fmt.Errorf("rasterise: unexpected image type %T", dc.Image())
	}
	l.Debug("rasterised", slog.Int("w", w), slog.Int("h", h), slog.Int("objects", len(job.Objects)))
	return out, nil
}

// digestWriter counts and hashes everything written through it.
type digestWriter struct {
	w io.Writer
	h hash.Hash
	n int64
}

func newDigestWriter(w io.Writer) *digestWriter { return &digestWriter{w: w, h: sha256.New()} }

func (d *digestWriter) Write(p []byte) (int, error) {
	n, err := d.w.Write(p)
	d.h.Write(p[:n])
	d.n += int64(n)
	return n, err
}

func (d *digestWriter) sum() string { return hex.EncodeToString(d.h.Sum(nil)) }
