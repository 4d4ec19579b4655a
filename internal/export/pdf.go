/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"time"

	applog "gangsheet/internal/log"
	"gangsheet/internal/version"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions sets document metadata. Zero values get defaults.
type PDFOptions struct {
	Title   string
	Author  string
	Created time.Time
}

// WritePDF rasterises the job and streams a one-page PDF whose page is
// exactly the sheet size in inches, with the 300 DPI raster filling it.
func WritePDF(w io.Writer, job Job, opt PDFOptions) (Result, error) {
	img, err := Raster(job)
	if err != nil {
		return Result{}, err
	}
	return encodePDF(w, img, job.Sheet.WidthInches(), job.Sheet.HeightInches(), opt)
}

// ExportPDF writes gang-sheet-300dpi.pdf into dir.
func ExportPDF(dir string, job Job, opt PDFOptions) (Result, error) {
	img, err := Raster(job)
	if err != nil {
		return Result{}, err
	}
	return savePDF(dir, img, job.Sheet.WidthInches(), job.Sheet.HeightInches(), opt)
}

func savePDF(dir string, img image.Image, wIn, hIn float64, opt PDFOptions) (Result, error) {
	path, err := outPath(dir, PDFName)
	if err != nil {
		return Result{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("create pdf: %w", err)
	}
	res, err := encodePDF(f, img, wIn, hIn, opt)
	if err != nil {
		_ = f.Close()
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("close pdf: %w", err)
	}
	res.Path = path
	applog.WithComponent("export").Info("pdf written",
		slog.String("path", path), slog.Float64("w_in", wIn), slog.Float64("h_in", hIn), slog.Int64("bytes", res.Bytes))
	return res, nil
}

func encodePDF(w io.Writer, img image.Image, wIn, hIn float64, opt PDFOptions) (Result, error) {
	var raster bytes.Buffer
	pr, err := encodePNG(&raster, img)
	if err != nil {
		return Result{}, err
	}
	if opt.Title == "" {
		opt.Title = fmt.Sprintf("Gang sheet %gx%g in", wIn, hIn)
	}
	if opt.Author == "" {
		opt.Author = "Gang Sheet Designer " + version.Version
	}
	if opt.Created.IsZero() {
		opt.Created = time.Now()
	}

	size := gofpdf.SizeType{Wd: wIn, Ht: hIn}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "in", Size: size})
	pdf.SetTitle(opt.Title, true)
	pdf.SetAuthor(opt.Author, true)
	pdf.SetCreationDate(opt.Created)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", size)

	imgOpt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(PNGName, imgOpt, &raster)
	pdf.ImageOptions(PNGName, 0, 0, wIn, hIn, false, imgOpt, 0, "")
	if err := pdf.Error(); err != nil {
		return Result{}, fmt.Errorf("build pdf: %w", err)
	}

	dw := newDigestWriter(w)
	if err := pdf.Output(dw); err != nil {
		return Result{}, fmt.Errorf("write pdf: %w", err)
	}
	return Result{Format: "pdf", Width: pr.Width, Height: pr.Height, Bytes: dw.n, SHA256: dw.sum()}, nil
}
