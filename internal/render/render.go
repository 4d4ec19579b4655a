/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render paints scene objects onto gg contexts, both for the
// on-screen preview and for export rasterisation.
package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	applog "gangsheet/internal/log"
	"gangsheet/internal/scene"
	"gangsheet/internal/textlayout"
	"gangsheet/internal/vector"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"github.com/google/uuid"
)

var (
	// Workspace is the colour around the sheet in the preview.
	Workspace = gg.Hex("#e5e7eb")
	// Paper is the sheet colour; exports are flattened onto it.
	Paper = gg.White

	selectionColor = vector.MustHex("#2563eb")
	guideColor     = vector.MustHex("#ec4899")
)

var errNoFont = errors.New("render: no font data")

// Frame is everything one preview redraw needs. Paper, Selection and Guides
// are in sheet space and are mapped through the surface matrix.
type Frame struct {
	Objects   []scene.Object
	Paper     vector.Rect
	Selection *vector.Rect
	Guides    []vector.GuideLine
}

// Renderer draws scene objects. It caches converted rasters per object and
// parsed fonts per family, so one Renderer should live as long as its scene.
type Renderer struct {
	Interpolation gg.InterpolationMode

	mu     sync.Mutex
	fonts  map[string]*text.FontSource
	images map[uuid.UUID]cachedImage
	layer  *gg.Context
	log    *slog.Logger
}

type cachedImage struct {
	src image.Image
	buf *gg.ImageBuf
}

// New returns a renderer that samples images bicubically.
func New() *Renderer {
	return &Renderer{
		Interpolation: gg.InterpBicubic,
		fonts:         make(map[string]*text.FontSource),
		images:        make(map[uuid.UUID]cachedImage),
		log:           applog.WithComponent("render"),
	}
}

// Matrix converts a vector affine transform to the gg layout.
func Matrix(a vector.Affine2D) gg.Matrix {
	return gg.Matrix{A: a.A, B: a.C, C: a.E, D: a.B, E: a.D, F: a.F}
}

// Render repaints the whole surface: background, then the paper and objects
// (limited to the clip when one is set), then selection and guides on top.
func (r *Renderer) Render(s *Surface, f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	dc := s.dc
	dc.Identity()
	dc.ResetClip()
	dc.ClearWithColor(s.background)

	if err := r.paintContent(s, f); err != nil {
		return err
	}
	return r.paintOverlay(s, f)
}

// paintContent draws paper and objects. With a clip they are drawn into an
// offscreen layer the size of the clip and composited, because gg applies
// its clip to paths only, not to images or text.
func (r *Renderer) paintContent(s *Surface, f Frame) error {
	if !s.clipped {
		if err := r.paintPaper(s.dc, s.matrix, f.Paper); err != nil {
			return err
		}
		return r.drawObjects(s.dc, s.matrix, f.Objects)
	}
	w, h := s.Size()
	x0 := max(0, int(math.Floor(s.clip.X)))
	y0 := max(0, int(math.Floor(s.clip.Y)))
	x1 := min(w, int(math.Ceil(s.clip.X+s.clip.W)))
	y1 := min(h, int(math.Ceil(s.clip.Y+s.clip.H)))
	if x1 <= x0 || y1 <= y0 {
		return nil
	}
	layer, err := r.layerOf(x1-x0, y1-y0)
	if err != nil {
		return err
	}
	layer.Identity()
	layer.ClearWithColor(s.background)
	m := gg.Translate(float64(-x0), float64(-y0)).Multiply(s.matrix)
	if err := r.paintPaper(layer, m, f.Paper); err != nil {
		return err
	}
	if err := r.drawObjects(layer, m, f.Objects); err != nil {
		return err
	}
	s.dc.Identity()
	s.dc.DrawImageEx(gg.ImageBufFromImage(layer.Image()), gg.DrawImageOptions{
		X: float64(x0), Y: float64(y0),
		Interpolation: gg.InterpBilinear,
	})
	return nil
}

func (r *Renderer) layerOf(w, h int) (*gg.Context, error) {
	if r.layer == nil {
		r.layer = gg.NewContext(w, h)
		return r.layer, nil
	}
	if err := r.layer.Resize(w, h); err != nil {
		return nil, fmt.Errorf("clip layer: %w", err)
	}
	return r.layer, nil
}

func (r *Renderer) paintPaper(dc *gg.Context, m gg.Matrix, paper vector.Rect) error {
	if paper.W <= 0 || paper.H <= 0 {
		return nil
	}
	dc.SetTransform(m)
	dc.SetColor(Paper.Color())
	dc.DrawRectangle(paper.X, paper.Y, paper.W, paper.H)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("paper: %w", err)
	}
	return nil
}

func (r *Renderer) paintOverlay(s *Surface, f Frame) error {
	dc := s.dc
	dc.Identity()
	dc.SetLineWidth(1)
	if f.Selection != nil {
		tl := s.matrix.TransformPoint(gg.Pt(f.Selection.X, f.Selection.Y))
		br := s.matrix.TransformPoint(gg.Pt(f.Selection.X+f.Selection.W, f.Selection.Y+f.Selection.H))
		dc.SetColor(selectionColor)
		dc.DrawRectangle(tl.X, tl.Y, br.X-tl.X, br.Y-tl.Y)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("selection outline: %w", err)
		}
	}
	if len(f.Guides) == 0 {
		return nil
	}
	dc.SetColor(guideColor)
	for _, g := range f.Guides {
		a := s.matrix.TransformPoint(gg.Pt(g.From.X, g.From.Y))
		b := s.matrix.TransformPoint(gg.Pt(g.To.X, g.To.Y))
		dc.MoveTo(a.X, a.Y)
		dc.LineTo(b.X, b.Y)
	}
	if err := dc.Stroke(); err != nil {
		return fmt.Errorf("guides: %w", err)
	}
	return nil
}

// DrawObjects paints objects in order onto dc under the sheet-to-device
// matrix m. It leaves dc's matrix set to m.
func (r *Renderer) DrawObjects(dc *gg.Context, m gg.Matrix, objs []scene.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drawObjects(dc, m, objs)
}

// Rasterize paints objects onto a fresh w by h context filled with bg. The
// caller owns the returned context.
func (r *Renderer) Rasterize(objs []scene.Object, w, h int, m gg.Matrix, bg gg.RGBA) (*gg.Context, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster size %dx%d: both sides must be positive", w, h)
	}
	dc := gg.NewContext(w, h)
	dc.ClearWithColor(bg)
	if err := r.DrawObjects(dc, m, objs); err != nil {
		_ = dc.Close()
		return nil, err
	}
	return dc, nil
}

func (r *Renderer) drawObjects(dc *gg.Context, m gg.Matrix, objs []scene.Object) error {
	for _, o := range objs {
		var err error
		switch o.Kind {
		case scene.Image:
			r.drawImage(dc, m, o)
		case scene.Text:
			err = r.drawText(dc, m, o)
		default:
			err = drawShape(dc, m, o)
		}
		if err != nil {
			return fmt.Errorf("draw %s %s: %w", o.Kind, o.ID, err)
		}
	}
	dc.SetTransform(m)
	return nil
}

// drawImage draws the raster into its bounding box. gg maps only the box
// corners, so flips are not mirrored.
func (r *Renderer) drawImage(dc *gg.Context, m gg.Matrix, o scene.Object) {
	if o.Raster == nil {
		return
	}
	b := o.Bounds()
	if b.W <= 0 || b.H <= 0 {
		return
	}
	dc.SetTransform(m)
	dc.DrawImageEx(r.imageBuf(o), gg.DrawImageOptions{
		X: b.X, Y: b.Y,
		DstWidth: b.W, DstHeight: b.H,
		Interpolation: r.Interpolation,
	})
}

func (r *Renderer) imageBuf(o scene.Object) *gg.ImageBuf {
	if c, ok := r.images[o.ID]; ok && c.src == o.Raster {
		return c.buf
	}
	buf := gg.ImageBufFromImage(o.Raster)
	r.images[o.ID] = cachedImage{src: o.Raster, buf: buf}
	return buf
}

func drawShape(dc *gg.Context, m gg.Matrix, o scene.Object) error {
	if o.Width <= 0 || o.Height <= 0 {
		return nil
	}
	dc.SetTransform(m.Multiply(Matrix(o.Transform())))
	dc.SetColor(o.Fill)
	w, h := o.Width, o.Height
	switch o.Kind {
	case scene.Ellipse:
		dc.DrawEllipse(w/2, h/2, w/2, h/2)
	case scene.Triangle:
		dc.MoveTo(w/2, 0)
		dc.LineTo(w, h)
		dc.LineTo(0, h)
		dc.ClosePath()
	default:
		dc.DrawRectangle(0, 0, w, h)
	}
	return dc.Fill()
}

// drawText places each line's baseline in device space; gg draws glyphs
// unrotated at the face size, so the face is sized by the vertical scale.
func (r *Renderer) drawText(dc *gg.Context, m gg.Matrix, o scene.Object) error {
	if o.Content == "" {
		return nil
	}
	spec := o.TextFont()
	src, err := r.fontSource(spec)
	if err != nil {
		return err
	}
	full := m.Multiply(Matrix(o.Transform()))
	size := spec.SizePt * math.Abs(full.E)
	if size <= 0 || !vector.Finite(size) {
		return nil
	}
	box := textlayout.NewWordWrap(textlayout.DefaultProvider()).Layout(o.Content, spec, 0)
	dc.SetFont(src.Face(size))
	dc.SetColor(o.Fill)
	for i, ln := range box.Lines {
		p := full.TransformPoint(gg.Pt(0, box.Metrics.Ascent+float64(i)*box.Metrics.LineHeight()))
		dc.DrawString(ln.Text, p.X, p.Y)
	}
	return nil
}

func (r *Renderer) fontSource(spec textlayout.FontSpec) (*text.FontSource, error) {
	if src, ok := r.fonts[spec.Family]; ok {
		return src, nil
	}
	data := textlayout.DefaultLibrary().Data(spec)
	if data == nil {
		return nil, fmt.Errorf("%w for family %q", errNoFont, spec.Family)
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("font %q: %w", spec.Family, err)
	}
	r.fonts[spec.Family] = src
	return src, nil
}

// Forget drops cached rasters of objects not in live.
func (r *Renderer) Forget(live []scene.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keep := make(map[uuid.UUID]struct{}, len(live))
	for _, o := range live {
		keep[o.ID] = struct{}{}
	}
	for id := range r.images {
		if _, ok := keep[id]; !ok {
			delete(r.images, id)
		}
	}
}

// Close releases the clip layer and cached rasters.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.images)
	if r.layer == nil {
		return nil
	}
	err := r.layer.Close()
	r.layer = nil
	if err != nil {
		r.log.Warn("close clip layer", slog.Any("err", err))
	}
	return err
}
