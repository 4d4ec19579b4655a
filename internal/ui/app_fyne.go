//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"image/color"
	"log/slog"
	"strconv"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fstorage "fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"gangsheet/internal/crash"
	applog "gangsheet/internal/log"
	"gangsheet/internal/preset"
	"gangsheet/internal/scene"
	"gangsheet/internal/session"
	"gangsheet/internal/vector"
	"gangsheet/internal/version"
	"gangsheet/internal/viewport"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// Run opens the designer window and blocks until it is closed.
func Run(opts session.Options) error {
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	sess, err := session.New(opts)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Dispose() }()
	defer func() {
		crash.Recover(&crash.Info{Fields: func() []crash.Field {
			w, h := sess.Sheet()
			_, pct := sess.Zoom()
			return []crash.Field{
				{Key: "sheet", Value: fmt.Sprintf("%gx%g in", w, h)},
				{Key: "objects", Value: strconv.Itoa(len(sess.Objects()))},
				{Key: "zoom", Value: strconv.Itoa(pct) + "%"},
			}
		}})
	}()

	pack := preset.Builtin()
	if opts.Presets != nil {
		pack = *opts.Presets
	}

	fyneApp := app.NewWithID("gangsheet")
	w := fyneApp.NewWindow("Gang Sheet Designer " + version.Version)
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1400)
	winH := prefs.IntWithFallback("window.height", 900)
	if winW < 900 {
		winW = 900
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	sheetCanvas := NewSheetCanvas(sess)
	topRuler, sideRuler := NewRuler(sess, true), NewRuler(sess, false)

	// Properties panel (right)
	props := newPropertiesPanel()
	banner := newWarningBanner(func() { sess.DismissWarning() })
	sess.OnSelectionChanged(func(ev session.SelectionEvent) {
		fyne.Do(func() {
			props.show(ev)
			banner.show(ev)
		})
	})
	sess.OnSceneChanged(func() {
		fyne.Do(func() {
			sheetCanvas.Refresh()
			topRuler.Refresh()
			sideRuler.Refresh()
		})
	})

	// Toolbar (left)
	upload := func() {
		open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if ur == nil {
				return
			}
			startUpload(sess, ur, nil, status, l)
		}, w)
		open.SetFilter(fstorage.NewExtensionFileFilter(imageExtensions))
		open.Show()
	}
	addShape := func(k scene.Kind) func() {
		return func() {
			if _, err := sess.AddShape(k, preset.ShapeStyle{}, nil); err != nil {
				dialog.ShowError(err, w)
			}
		}
	}
	tools := container.NewVBox(
		widget.NewLabel("Add"),
		widget.NewButton("Upload Image…", upload),
		widget.NewButton("Text", func() {
			if _, err := sess.AddText("", preset.TextStyle{}, nil); err != nil {
				dialog.ShowError(err, w)
			}
		}),
		widget.NewButton("Rectangle", addShape(scene.Rect)),
		widget.NewButton("Circle", addShape(scene.Ellipse)),
		widget.NewButton("Triangle", addShape(scene.Triangle)),
		widget.NewSeparator(),
		widget.NewLabel("Sheet"),
		sheetControls(sess, pack, w, status),
		widget.NewSeparator(),
		widget.NewButton("Text Colour…", func() {
			dialog.ShowColorPicker("Text Colour", "Fill for the selected text", func(c color.Color) {
				if !sess.SetFill(vector.ColorOf(c)) {
					status.SetText("Select a text object to change its colour.")
				}
			}, w)
		}),
		widget.NewButton("Delete", func() { sess.DeleteActive() }),
	)

	// Zoom bar (bottom)
	zoomBar := newZoomBar(sess)
	sess.OnSceneChanged(func() { fyne.Do(zoomBar.sync) })

	exportPNG := func() {
		runExport(w, status, l, "PNG", func() (string, error) { r, err := sess.ExportPNG(); return r.Path, err })
	}
	exportPDF := func() {
		runExport(w, status, l, "PDF", func() (string, error) { r, err := sess.ExportPDF(); return r.Path, err })
	}
	exportAll := func() {
		runExport(w, status, l, "configured formats", func() (string, error) {
			rs, err := sess.Export()
			paths := make([]string, 0, len(rs))
			for _, r := range rs {
				paths = append(paths, r.Path)
			}
			return strings.Join(paths, ", "), err
		})
	}
	top := container.NewHBox(
		widget.NewButton("Download PNG (300 DPI)", exportPNG),
		widget.NewButton("PDF", exportPDF),
	)

	uploadItem := fyne.NewMenuItem("Upload Image…", upload)
	pngItem := fyne.NewMenuItem("Export PNG", exportPNG)
	pdfItem := fyne.NewMenuItem("Export PDF", exportPDF)
	allItem := fyne.NewMenuItem("Export All Formats", exportAll)
	uploadItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	pngItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: fyne.KeyModifierControl}
	fitItem := fyne.NewMenuItem("Fit Sheet", func() { _ = sess.FitSheet() })
	fitItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.Key0, Modifier: fyne.KeyModifierControl}
	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", uploadItem, fyne.NewMenuItemSeparator(), pngItem, pdfItem, allItem),
		fyne.NewMenu("Edit",
			fyne.NewMenuItem("Delete", func() { sess.DeleteActive() }),
		),
		fyne.NewMenu("View",
			fyne.NewMenuItem("Zoom In", func() { _ = sess.StepZoom(true) }),
			fyne.NewMenuItem("Zoom Out", func() { _ = sess.StepZoom(false) }),
			fitItem,
		),
	))
	for _, it := range []*fyne.MenuItem{uploadItem, pngItem, fitItem} {
		sc := it.Shortcut
		action := it.Action
		w.Canvas().AddShortcut(sc, func(fyne.Shortcut) { action() })
	}
	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			sess.DeleteActive()
		case fyne.KeyEscape:
			sess.ClearSelection()
		case fyne.KeyUp:
			_ = sess.MoveActive(0, -1)
		case fyne.KeyDown:
			_ = sess.MoveActive(0, 1)
		case fyne.KeyLeft:
			_ = sess.MoveActive(-1, 0)
		case fyne.KeyRight:
			_ = sess.MoveActive(1, 0)
		}
	})

	// Files dropped onto the window land where they were dropped.
	w.SetOnDropped(func(pos fyne.Position, uris []fyne.URI) {
		origin := fyne.CurrentApp().Driver().AbsolutePositionForObject(sheetCanvas)
		at := &vector.Pt{X: float64(pos.X - origin.X), Y: float64(pos.Y - origin.Y)}
		for _, u := range uris {
			rc, err := fstorage.Reader(u)
			if err != nil {
				l.Warn("drop: open failed", slog.String("uri", u.String()), slog.Any("err", err))
				continue
			}
			startUpload(sess, rc, at, status, l)
		}
	})

	right := container.NewVBox(widget.NewLabel("Properties"), widget.NewSeparator(), props.box)
	corner := canvas.NewRectangle(color.Transparent)
	corner.SetMinSize(fyne.NewSize(rulerThickness, rulerThickness))
	rulers := container.NewBorder(container.NewBorder(nil, nil, corner, nil, topRuler), nil, sideRuler, nil, sheetCanvas)
	center := container.NewBorder(banner.box, nil, nil, nil, rulers)
	body := container.NewBorder(top, container.NewBorder(nil, nil, nil, zoomBar.box, status), tools, right, center)
	w.SetContent(body)

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})
	w.ShowAndRun()
	return nil
}

// startUpload decodes in the background; rc is closed once the decode is done.
func startUpload(sess *session.Session, rc fyne.URIReadCloser, at *vector.Pt, status *widget.Label, l *slog.Logger) {
	name := rc.URI().Name()
	up := sess.UploadImage(name, rc, at)
	status.SetText("Loading " + name + "…")
	go func() {
		_, err := up.Result()
		_ = rc.Close()
		fyne.Do(func() {
			if err != nil {
				l.Info("upload skipped", slog.String("name", name), slog.Any("err", err))
				status.SetText("Could not add " + name + ".")
				return
			}
			status.SetText("Added " + name + ".")
		})
	}()
}

func runExport(w fyne.Window, status *widget.Label, l *slog.Logger, what string, do func() (string, error)) {
	status.SetText("Exporting " + what + "…")
	path, err := do()
	if err != nil {
		l.Error("export failed", slog.String("format", what), slog.Any("err", err))
		status.SetText("Export failed.")
		dialog.ShowError(err, w)
		return
	}
	status.SetText("Exported " + path)
}

// sheetControls offers the preset sizes plus free width and height entries.
func sheetControls(sess *session.Session, pack preset.Pack, w fyne.Window, status *widget.Label) fyne.CanvasObject {
	wEntry, hEntry := widget.NewEntry(), widget.NewEntry()
	syncEntries := func() {
		wi, hi := sess.Sheet()
		wEntry.SetText(strconv.FormatFloat(wi, 'f', -1, 64))
		hEntry.SetText(strconv.FormatFloat(hi, 'f', -1, 64))
	}
	apply := func(string) {
		wi, err1 := strconv.ParseFloat(strings.TrimSpace(wEntry.Text), 64)
		hi, err2 := strconv.ParseFloat(strings.TrimSpace(hEntry.Text), 64)
		if err1 != nil || err2 != nil {
			dialog.ShowInformation("Sheet size", "Width and height must be numbers (inches).", w)
			syncEntries()
			return
		}
		_ = sess.SetSheetDimensions(wi, hi)
		syncEntries()
		status.SetText("Sheet " + wEntry.Text + " × " + hEntry.Text + " in")
	}
	wEntry.OnSubmitted, hEntry.OnSubmitted = apply, apply

	labels := make([]string, 0, len(pack.Sheets))
	byLabel := map[string]preset.Sheet{}
	for _, ps := range pack.Sheets {
		label := ps.Label
		if label == "" {
			label = ps.Name
		}
		labels = append(labels, label)
		byLabel[label] = ps
	}
	sel := widget.NewSelect(labels, func(label string) {
		if ps, ok := byLabel[label]; ok {
			_ = sess.SetSheetDimensions(ps.WidthIn, ps.HeightIn)
			syncEntries()
		}
	})
	sel.PlaceHolder = "Preset"
	syncEntries()
	return container.NewVBox(
		sel,
		widget.NewForm(widget.NewFormItem("Width (in)", wEntry), widget.NewFormItem("Height (in)", hEntry)),
	)
}

type propertiesPanel struct {
	box    *fyne.Container
	kind   *widget.Label
	size   *widget.Label
	pos    *widget.Label
	scale  *widget.Label
	dpi    *widget.Label
	fill   *widget.Label
	hidden *widget.Label
}

func newPropertiesPanel() *propertiesPanel {
	p := &propertiesPanel{
		kind: widget.NewLabel(""), size: widget.NewLabel(""), pos: widget.NewLabel(""),
		scale: widget.NewLabel(""), dpi: widget.NewLabel(""), fill: widget.NewLabel(""),
		hidden: widget.NewLabel("Nothing selected"),
	}
	p.box = container.NewVBox(p.hidden, p.kind, p.size, p.pos, p.scale, p.dpi, p.fill)
	p.show(session.SelectionEvent{})
	return p
}

func (p *propertiesPanel) show(ev session.SelectionEvent) {
	rows := []*widget.Label{p.kind, p.size, p.pos, p.scale, p.dpi, p.fill}
	if !ev.Selected {
		p.hidden.Show()
		for _, r := range rows {
			r.Hide()
		}
		return
	}
	p.hidden.Hide()
	for _, r := range rows {
		r.Show()
	}
	s := ev.Snapshot
	p.kind.SetText("Type: " + s.Kind)
	p.size.SetText(fmt.Sprintf("Size: %d × %d px", s.Width, s.Height))
	p.pos.SetText(fmt.Sprintf("Position: %d, %d", s.Left, s.Top))
	p.scale.SetText(fmt.Sprintf("Scale: %.2f × %.2f", s.ScaleX, s.ScaleY))
	if s.HasDPI {
		txt := fmt.Sprintf("DPI: %d", s.DPI)
		if s.NonUniformScale {
			txt += " (width only; non-uniform scale)"
		}
		p.dpi.SetText(txt)
	} else {
		p.dpi.Hide()
	}
	if s.HasFill {
		p.fill.SetText("Fill: " + s.Fill)
	} else {
		p.fill.Hide()
	}
}

type warningBanner struct {
	box  *fyne.Container
	text *widget.Label
}

func newWarningBanner(dismiss func()) *warningBanner {
	b := &warningBanner{text: widget.NewLabel("")}
	b.text.Importance = widget.WarningImportance
	b.box = container.NewBorder(nil, nil, nil, widget.NewButton("Dismiss", dismiss), b.text)
	b.box.Hide()
	return b
}

func (b *warningBanner) show(ev session.SelectionEvent) {
	if !ev.HasWarning {
		b.box.Hide()
		return
	}
	b.text.SetText(ev.Warning.Message())
	b.box.Show()
}

type zoomBar struct {
	box     *fyne.Container
	sel     *widget.Select
	pct     *widget.Label
	sess    *session.Session
	syncing bool
}

func newZoomBar(sess *session.Session) *zoomBar {
	z := &zoomBar{sess: sess, pct: widget.NewLabel("")}
	opts := make([]string, len(viewport.ZoomSteps))
	for i, s := range viewport.ZoomSteps {
		opts[i] = strconv.Itoa(s) + "%"
	}
	z.sel = widget.NewSelect(opts, func(v string) {
		if z.syncing {
			return
		}
		if pct, err := strconv.Atoi(strings.TrimSuffix(v, "%")); err == nil {
			_ = sess.SetZoom(float64(pct))
		}
	})
	z.box = container.NewHBox(
		widget.NewButton("−", func() { _ = sess.StepZoom(false) }),
		z.pct,
		z.sel,
		widget.NewButton("+", func() { _ = sess.StepZoom(true) }),
		widget.NewButton("Fit", func() { _ = sess.FitSheet() }),
	)
	z.sync()
	return z
}

// sync shows the current zoom without feeding it back into the session.
func (z *zoomBar) sync() {
	_, pct := z.sess.Zoom()
	z.syncing = true
	z.pct.SetText(strconv.Itoa(pct) + "%")
	z.sel.SetSelected(strconv.Itoa(pct) + "%")
	z.syncing = false
}
