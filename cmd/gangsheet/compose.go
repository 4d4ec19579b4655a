/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"gangsheet/internal/config"
	"gangsheet/internal/export"
	"gangsheet/internal/imageio"
	applog "gangsheet/internal/log"
	"gangsheet/internal/resolution"
	"gangsheet/internal/session"
	"gangsheet/internal/vector"

	"github.com/google/uuid"
)

type composeOptions struct {
	Preset    string
	WidthIn   float64
	HeightIn  float64
	OutDir    string
	Formats   []string
	Gap       float64 // preview px between images
	PrintSize bool    // scale every image to exactly the target DPI
}

func runCompose(cfg config.AppConfig, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("compose", flag.ContinueOnError)
	fs.SetOutput(out)
	var opt composeOptions
	var formats string
	fs.StringVar(&opt.Preset, "preset", cfg.Sheet.Preset, "sheet preset name (see 'gangsheet presets')")
	fs.Float64Var(&opt.WidthIn, "width", cfg.Sheet.WidthIn, "sheet width in inches")
	fs.Float64Var(&opt.HeightIn, "height", cfg.Sheet.HeightIn, "sheet height in inches")
	fs.StringVar(&opt.OutDir, "out", cfg.Export.OutDir, "output directory")
	fs.StringVar(&formats, "format", strings.Join(cfg.Export.Formats, ","), "comma separated formats: png, pdf")
	fs.Float64Var(&opt.Gap, "gap", 10, "gap between images in preview px (1/72 in)")
	fs.BoolVar(&opt.PrintSize, "print-size", false, "place images at 300 DPI instead of 200 px wide")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(out, "compose requires at least one image")
		return errUsage
	}
	opt.Formats = splitList(formats)

	pack, err := loadPresets()
	if err != nil {
		applog.WithComponent("cli").Warn("preset packs not loaded", slog.Any("err", err))
	}
	store, err := openHistory(cfg)
	if err != nil {
		applog.WithComponent("cli").Warn("export history disabled", slog.Any("err", err))
		store = nil
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	cfg.Sheet = config.SheetConfig{WidthIn: opt.WidthIn, HeightIn: opt.HeightIn, Preset: opt.Preset}
	cfg.Export.OutDir = opt.OutDir
	cfg.Export.Formats = opt.Formats
	sess, err := session.New(session.Options{Config: &cfg, Presets: &pack, History: store})
	if err != nil {
		return err
	}
	defer func() { _ = sess.Dispose() }()

	results, err := compose(context.Background(), sess, fs.Args(), opt, out)
	for _, r := range results {
		fmt.Fprintf(out, "Wrote %s (%dx%d px, %d bytes)\n", r.Path, r.Width, r.Height, r.Bytes)
	}
	return err
}

// compose decodes every file, packs the images onto the sheet and exports.
// Files that are not images are skipped.
func compose(ctx context.Context, sess *session.Session, files []string, opt composeOptions, out io.Writer) ([]export.Result, error) {
	l := applog.WithOperation(applog.WithComponent("cli"), "compose")
	var ids []uuid.UUID
	var sizes []vector.Pt
	for _, f := range files {
		d, err := imageio.DecodeFile(ctx, f)
		if errors.Is(err, imageio.ErrUnsupportedKind) {
			fmt.Fprintf(out, "Skipping %s: not an image\n", filepath.Base(f))
			continue
		}
		if err != nil {
			return nil, err
		}
		id, err := sess.AddImage(d.Image, d.NativeWidth, d.NativeHeight, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		if opt.PrintSize {
			k := resolution.ScaleToDPI(d.NativeWidth, resolution.TargetDPI) / float64(d.NativeWidth)
			if err := sess.ScaleActive(k, k); err != nil {
				return nil, err
			}
		}
		o := sess.Objects()
		b := o[len(o)-1].Bounds()
		ids = append(ids, id)
		sizes = append(sizes, vector.Pt{X: b.W, Y: b.H})
		l.Debug("image placed", slog.String("file", f), slog.Int("w", d.NativeWidth), slog.Int("h", d.NativeHeight))
	}
	if len(ids) == 0 {
		return nil, errors.New("no images to compose")
	}

	wIn, hIn := sess.Sheet()
	sheetW, sheetH := resolution.InchesToPreview(wIn), resolution.InchesToPreview(hIn)
	spots, overflow := shelfPack(sizes, sheetW, sheetH, opt.Gap)
	if overflow > 0 {
		fmt.Fprintf(out, "Warning: %d image(s) do not fit on the %gx%g in sheet\n", overflow, wIn, hIn)
	}
	for i, id := range ids {
		sess.Select(id)
		b := activeBounds(sess, id)
		if err := sess.MoveActive(spots[i].X-b.X, spots[i].Y-b.Y); err != nil {
			return nil, err
		}
		if w, ok := sess.Warning(); ok {
			fmt.Fprintf(out, "Warning: %s: %s\n", filepath.Base(files[i]), w.Message())
		}
	}
	sess.ClearSelection()

	return sess.Export()
}

func activeBounds(sess *session.Session, id uuid.UUID) vector.Rect {
	for _, o := range sess.Objects() {
		if o.ID == id {
			return o.Bounds()
		}
	}
	return vector.Rect{}
}

// shelfPack places boxes left to right in rows, starting a new row when the
// next box would cross the sheet's right edge. It returns the top-left corner
// of every box and how many boxes extend past the sheet bottom.
func shelfPack(sizes []vector.Pt, sheetW, sheetH, gap float64) (spots []vector.Pt, overflow int) {
	gap = max(0, gap)
	x, y, rowH := gap, gap, 0.0
	for _, s := range sizes {
		if x > gap && x+s.X+gap > sheetW {
			x, y = gap, y+rowH+gap
			rowH = 0
		}
		spots = append(spots, vector.Pt{X: x, Y: y})
		if y+s.Y > sheetH {
			overflow++
		}
		x += s.X + gap
		rowH = max(rowH, s.Y)
	}
	return spots, overflow
}
