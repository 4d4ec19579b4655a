/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imageio decodes uploaded raster files off the caller's goroutine.
// Supported kinds are PNG, JPEG and GIF from the standard library plus BMP,
// TIFF and WebP from golang.org/x/image.
package imageio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	applog "gangsheet/internal/log"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedKind means the data is not an image this package can read.
var ErrUnsupportedKind = errors.New("imageio: unsupported file kind")

// MaxBytes caps how much of an upload is read.
const MaxBytes = 512 << 20

// Decoded is a successfully read raster.
type Decoded struct {
	Name         string
	Format       string // png, jpeg, gif, bmp, tiff or webp
	Image        image.Image
	NativeWidth  int
	NativeHeight int
}

// Kind sniffs the format from the leading bytes without decoding pixels.
func Kind(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		return "", ErrUnsupportedKind
	}
	if err != nil {
		return format, fmt.Errorf("read header: %w", err)
	}
	return format, nil
}

// Decode reads and decodes r. Non-image data yields ErrUnsupportedKind.
func Decode(ctx context.Context, name string, r io.Reader) (Decoded, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return Decoded{}, fmt.Errorf("read %s: %w", name, err)
	}
	if len(data) > MaxBytes {
		return Decoded{}, fmt.Errorf("read %s: larger than %d bytes", name, MaxBytes)
	}
	if _, err := Kind(data); err != nil {
		return Decoded{}, err
	}
	if err := ctx.Err(); err != nil {
		return Decoded{}, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Decoded{}, fmt.Errorf("decode %s: %w", name, err)
	}
	if err := ctx.Err(); err != nil {
		return Decoded{}, err
	}
	b := img.Bounds()
	return Decoded{Name: name, Format: format, Image: img, NativeWidth: b.Dx(), NativeHeight: b.Dy()}, nil
}

// DecodeFile opens and decodes path.
func DecodeFile(ctx context.Context, path string) (Decoded, error) {
	f, err := os.Open(path)
	if err != nil {
		return Decoded{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return Decode(ctx, filepath.Base(path), f)
}

// Pending is the future result of DecodeAsync.
type Pending struct {
	name   string
	done   chan struct{}
	cancel context.CancelFunc
	res    Decoded
	err    error
}

// DecodeAsync starts decoding r on its own goroutine. Cancelling ctx (or the
// Pending) abandons the result; the reader is still drained by the
// goroutine.
func DecodeAsync(ctx context.Context, name string, r io.Reader) *Pending {
	ctx, cancel := context.WithCancel(ctx)
	p := &Pending{name: name, done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(p.done)
		defer cancel()
		p.res, p.err = Decode(ctx, name, r)
		l := applog.WithOperation(applog.WithComponent("imageio"), "decode")
		switch {
		case p.err == nil:
			l.Debug("decoded", slog.String("name", name), slog.String("format", p.res.Format),
				slog.Int("w", p.res.NativeWidth), slog.Int("h", p.res.NativeHeight))
		case errors.Is(p.err, ErrUnsupportedKind), errors.Is(p.err, context.Canceled):
			l.Debug("skipped", slog.String("name", name), slog.Any("err", p.err))
		default:
			l.Warn("decode failed", slog.String("name", name), slog.Any("err", p.err))
		}
	}()
	return p
}

func (p *Pending) Name() string { return p.name }

// Done is closed once the result is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Cancel abandons the decode.
func (p *Pending) Cancel() { p.cancel() }

// Wait blocks until the decode finishes or ctx ends.
func (p *Pending) Wait(ctx context.Context) (Decoded, error) {
	select {
	case <-p.done:
		return p.res, p.err
	case <-ctx.Done():
		return Decoded{}, ctx.Err()
	}
}
