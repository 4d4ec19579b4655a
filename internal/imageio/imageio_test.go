/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package imageio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func sample(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x * 40), uint8(y * 40), 200, 255})
		}
	}
	return img
}

func encoded(t *testing.T, format string, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, nil)
	default:
		t.Fatalf("no encoder for %s", format)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", format, err)
	}
	return buf.Bytes()
}

func TestDecodeFormats(t *testing.T) {
	for _, format := range []string{"png", "jpeg", "bmp", "tiff"} {
		t.Run(format, func(t *testing.T) {
			d, err := Decode(context.Background(), "x."+format, bytes.NewReader(encoded(t, format, sample(5, 3))))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if d.Format != format {
				t.Errorf("format = %s, want %s", d.Format, format)
			}
			if d.NativeWidth != 5 || d.NativeHeight != 3 {
				t.Errorf("native = %dx%d, want 5x3", d.NativeWidth, d.NativeHeight)
			}
		})
	}
}

func TestDecodeRejectsNonImage(t *testing.T) {
	_, err := Decode(context.Background(), "notes.txt", strings.NewReader("hello, this is text"))
	if !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("err = %v, want ErrUnsupportedKind", err)
	}
}

func TestDecodeTruncatedIsDecodeFailure(t *testing.T) {
	data := encoded(t, "png", sample(20, 20))
	_, err := Decode(context.Background(), "cut.png", bytes.NewReader(data[:len(data)/2]))
	if err == nil {
		t.Fatalf("expected error for truncated png")
	}
	if errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("truncated png reported as unsupported kind")
	}
}

func TestKind(t *testing.T) {
	k, err := Kind(encoded(t, "jpeg", sample(2, 2)))
	if err != nil || k != "jpeg" {
		t.Fatalf("Kind = %q, %v; want jpeg", k, err)
	}
	if _, err := Kind([]byte("%PDF-1.4")); !errors.Is(err, ErrUnsupportedKind) {
		t.Fatalf("pdf sniffed as image: %v", err)
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "art.png")
	if err := os.WriteFile(path, encoded(t, "png", sample(4, 4)), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	d, err := DecodeFile(context.Background(), path)
	if err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if d.Name != "art.png" {
		t.Fatalf("name = %q", d.Name)
	}
}

func TestDecodeAsyncResolves(t *testing.T) {
	p := DecodeAsync(context.Background(), "a.png", bytes.NewReader(encoded(t, "png", sample(6, 2))))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	d, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if d.NativeWidth != 6 || p.Name() != "a.png" {
		t.Fatalf("unexpected result %+v", d)
	}
	select {
	case <-p.Done():
	default:
		t.Fatalf("Done not closed after Wait returned")
	}
}

func TestDecodeAsyncCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := DecodeAsync(ctx, "a.png", bytes.NewReader(encoded(t, "png", sample(2, 2))))
	wctx, wcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer wcancel()
	if _, err := p.Wait(wctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
