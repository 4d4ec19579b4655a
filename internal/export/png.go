/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	applog "gangsheet/internal/log"
)

// WritePNG rasterises the job and streams the PNG to w.
func WritePNG(w io.Writer, job Job) (Result, error) {
	img, err := Raster(job)
	if err != nil {
		return Result{}, err
	}
	return encodePNG(w, img)
}

// ExportPNG writes gang-sheet-300dpi.png into dir, creating it if needed.
func ExportPNG(dir string, job Job) (Result, error) {
	img, err := Raster(job)
	if err != nil {
		return Result{}, err
	}
	return savePNG(dir, img)
}

func savePNG(dir string, img image.Image) (Result, error) {
	path, err := outPath(dir, PNGName)
	if err != nil {
		return Result{}, err
	}
	f, err := os.Create(path)
	if err != nil {
		return Result{}, fmt.Errorf("create png: %w", err)
	}
	bw := bufio.NewWriter(f)
	res, err := encodePNG(bw, img)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		_ = f.Close()
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		return Result{}, fmt.Errorf("close png: %w", err)
	}
	res.Path = path
	applog.WithComponent("export").Info("png written",
		slog.String("path", path), slog.Int("w", res.Width), slog.Int("h", res.Height), slog.Int64("bytes", res.Bytes))
	return res, nil
}

func encodePNG(w io.Writer, img image.Image) (Result, error) {
	dw := newDigestWriter(w)
	enc := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(dw, img); err != nil {
		return Result{}, fmt.Errorf("encode png: %w", err)
	}
	b := img.Bounds()
	return Result{Format: "png", Width: b.Dx(), Height: b.Dy(), Bytes: dw.n, SHA256: dw.sum()}, nil
}

func outPath(dir, name string) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}
