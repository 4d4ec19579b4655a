/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"gangsheet/internal/export"
	"gangsheet/internal/history"
	"gangsheet/internal/inspect"
	applog "gangsheet/internal/log"
)

// The export methods hold the session lock for the whole save, mutate and
// restore sequence, so no other operation observes the borrowed surface.

func (s *Session) job() export.Job {
	return export.Job{
		Sheet:    s.sheet,
		Objects:  s.scene.Objects(),
		Surface:  s.surface,
		Renderer: s.renderer,
		Redraw:   s.paint,
	}
}

func (s *Session) pdfOptions() export.PDFOptions {
	return export.PDFOptions{
		Title:   "Gang sheet " + s.sheet.String(),
		Author:  "gangsheet",
		Created: time.Now(),
	}
}

// ExportPNG writes gang-sheet-300dpi.png into the configured output directory.
func (s *Session) ExportPNG() (export.Result, error) {
	if err := s.lock(); err != nil {
		return export.Result{}, err
	}
	defer s.unlock()
	res, err := export.ExportPNG(s.cfg.Export.OutDir, s.job())
	if err != nil {
		return res, fmt.Errorf("export png: %w", err)
	}
	s.record(res)
	return res, nil
}

// ExportPDF writes gang-sheet-300dpi.pdf into the configured output directory.
func (s *Session) ExportPDF() (export.Result, error) {
	if err := s.lock(); err != nil {
		return export.Result{}, err
	}
	defer s.unlock()
	res, err := export.ExportPDF(s.cfg.Export.OutDir, s.job(), s.pdfOptions())
	if err != nil {
		return res, fmt.Errorf("export pdf: %w", err)
	}
	s.record(res)
	return res, nil
}

// Export writes every configured format from a single raster.
func (s *Session) Export() ([]export.Result, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()
	results, err := export.BatchExport(s.job(), export.BatchOptions{
		Formats: s.cfg.Export.Formats,
		OutDir:  s.cfg.Export.OutDir,
		PDF:     s.pdfOptions(),
	})
	for _, r := range results {
		s.record(r)
	}
	if err != nil {
		return results, fmt.Errorf("export: %w", err)
	}
	return results, nil
}

// WritePNG streams the 300 DPI PNG to w. Streamed exports are not recorded.
func (s *Session) WritePNG(w io.Writer) (export.Result, error) {
	if err := s.lock(); err != nil {
		return export.Result{}, err
	}
	defer s.unlock()
	return export.WritePNG(w, s.job())
}

// record appends a written file to the export history. History failures
// are logged and never fail the export.
func (s *Session) record(res export.Result) {
	l := applog.WithOperation(s.log, "export")
	l.Info("exported", slog.String("path", res.Path), slog.String("format", res.Format),
		slog.Int("w", res.Width), slog.Int("h", res.Height), slog.Int64("bytes", res.Bytes))
	if s.history == nil || res.Path == "" {
		return
	}
	objs := s.scene.Objects()
	low := 0
	for _, o := range objs {
		if _, w := inspect.Inspect(o); w != nil {
			low++
		}
	}
	_, err := s.history.Record(s.ctx, history.Entry{
		At:       time.Now(),
		Path:     res.Path,
		Format:   res.Format,
		WidthPx:  res.Width,
		HeightPx: res.Height,
		WidthIn:  s.sheet.WidthInches(),
		HeightIn: s.sheet.HeightInches(),
		Objects:  len(objs),
		LowDPI:   low,
		SHA256:   res.SHA256,
		Bytes:    res.Bytes,
	})
	if err != nil {
		l.Warn("history record failed", slog.Any("err", err))
	}
}
