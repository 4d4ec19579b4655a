/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package session is the explicit context object of one design session. It
// owns the sheet, viewport, scene, preview surface and inspector state, and
// every operation on them goes through its lock. Subscribers are notified
// after the lock is released, so callbacks may call back into the session.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"gangsheet/internal/config"
	"gangsheet/internal/history"
	"gangsheet/internal/inspect"
	applog "gangsheet/internal/log"
	"gangsheet/internal/preset"
	"gangsheet/internal/render"
	"gangsheet/internal/scene"
	"gangsheet/internal/sheet"
	"gangsheet/internal/vector"
	"gangsheet/internal/viewport"

	"github.com/gogpu/gg"
)

var (
	ErrDisposed   = errors.New("session: disposed")
	ErrNotAShape  = errors.New("session: kind is not a shape")
	ErrNoRaster   = errors.New("session: image has no pixels")
	ErrNoSelected = errors.New("session: nothing selected")
)

// Options configures New. Zero values fall back to config.Defaults and the
// built-in preset pack.
type Options struct {
	Config  *config.AppConfig
	Presets *preset.Pack
	// History, when set, receives one entry per written export file. The
	// session does not close it.
	History *history.Store
}

// SelectionEvent is delivered to OnSelectionChanged subscribers whenever the
// properties panel or the warning banner would change.
type SelectionEvent struct {
	Selected   bool
	Snapshot   inspect.Snapshot
	HasWarning bool
	Warning    inspect.Warning
}

type Session struct {
	mu sync.Mutex

	cfg      config.AppConfig
	presets  preset.Pack
	sheet    *sheet.Sheet
	view     *viewport.Viewport
	scene    *scene.Scene
	surface  *render.Surface
	renderer *render.Renderer
	inspect  inspect.State
	history  *history.Store

	ctx      context.Context
	cancel   context.CancelFunc
	uploads  sync.WaitGroup
	disposed bool

	drag   *drag
	guides []vector.GuideLine

	sceneDirty bool
	selChanged bool
	lastSel    SelectionEvent

	onScene     listeners[func()]
	onSelection listeners[func(SelectionEvent)]
	unhook      []func()

	log *slog.Logger
}

// New creates a session. The sheet comes from the configured preset when it
// names a known one, otherwise from the configured inches.
func New(opts Options) (*Session, error) {
	cfg := config.Defaults()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	pack := preset.Builtin()
	if opts.Presets != nil {
		pack = *opts.Presets
	}
	l := applog.WithComponent("session")

	wIn, hIn := cfg.Sheet.WidthIn, cfg.Sheet.HeightIn
	if name := strings.TrimSpace(cfg.Sheet.Preset); name != "" {
		if ps, ok := pack.Sheet(name); ok {
			wIn, hIn = ps.WidthIn, ps.HeightIn
		} else {
			l.Warn("unknown sheet preset", slog.String("preset", name))
		}
	}
	cw, ch := max(1, cfg.Viewport.ContainerW), max(1, cfg.Viewport.ContainerH)
	surf, err := render.NewSurface(cw, ch, render.Workspace)
	if err != nil {
		return nil, fmt.Errorf("preview surface: %w", err)
	}
	r := render.New()
	r.Interpolation = interpolation(cfg.Export.Interpolation)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:      cfg,
		presets:  pack,
		sheet:    sheet.New(wIn, hIn),
		view:     viewport.New(float64(cw), float64(ch)),
		scene:    scene.New(),
		surface:  surf,
		renderer: r,
		history:  opts.History,
		ctx:      ctx,
		cancel:   cancel,
		log:      l,
	}
	s.unhook = append(s.unhook,
		s.view.OnChange(func() {
			s.sheet.SyncClip(s.view)
			s.sceneDirty = true
		}),
		s.scene.OnChanged(func() { s.sceneDirty = true }),
		s.scene.OnSelectionChanged(func(scene.Object, bool) {
			s.selChanged = true
			s.sceneDirty = true
		}),
	)
	if z := cfg.Viewport.DefaultZoom; z > 0 && z != 100 {
		s.view.SetZoomPercent(float64(z))
	}
	s.derive()
	s.lastSel = s.selectionEvent()
	l.Info("session started", slog.String("sheet", s.sheet.String()), slog.Int("zoom", s.view.Percent()))
	return s, nil
}

func interpolation(name string) gg.InterpolationMode {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest":
		return gg.InterpNearest
	case "bilinear":
		return gg.InterpBilinear
	default:
		return gg.InterpBicubic
	}
}

// lock takes the session lock unless the session is disposed.
func (s *Session) lock() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	return nil
}

// unlock re-derives clip and selection state, releases the lock and then
// notifies subscribers of whatever changed.
func (s *Session) unlock() {
	s.derive()
	sceneFns := s.onScene.list()
	fireScene := s.sceneDirty
	s.sceneDirty = false

	ev := s.selectionEvent()
	fireSel := ev != s.lastSel
	s.lastSel = ev
	selFns := s.onSelection.list()
	s.mu.Unlock()

	if fireScene {
		for _, fn := range sceneFns {
			fn()
		}
	}
	if fireSel {
		for _, fn := range selFns {
			fn(ev)
		}
	}
}

func (s *Session) derive() {
	s.sheet.SyncClip(s.view)
	s.surface.SetMatrix(s.view.Matrix())
	s.surface.SetClip(s.sheet.Clip().ScreenRect())
	o, ok := s.scene.Active()
	s.inspect.Update(o, ok, s.selChanged)
	s.selChanged = false
}

func (s *Session) selectionEvent() SelectionEvent {
	var ev SelectionEvent
	ev.Snapshot, ev.Selected = s.inspect.Snapshot()
	ev.Warning, ev.HasWarning = s.inspect.Warning()
	return ev
}

// OnSceneChanged subscribes to anything that needs the preview repainted:
// scene content, selection, sheet size, zoom and pan.
func (s *Session) OnSceneChanged(fn func()) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockedUnsubscribe(s.onScene.add(fn))
}

// OnSelectionChanged subscribes to changes of the selection snapshot or the
// DPI warning.
func (s *Session) OnSelectionChanged(fn func(SelectionEvent)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockedUnsubscribe(s.onSelection.add(fn))
}

func (s *Session) lockedUnsubscribe(remove func()) func() {
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		remove()
	}
}

// Render repaints the preview surface and returns a copy of its pixels.
func (s *Session) Render() (image.Image, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()
	s.derive()
	if err := s.paint(); err != nil {
		return nil, err
	}
	return s.surface.Image(), nil
}

// paint draws the current state onto the surface. Caller holds the lock.
func (s *Session) paint() error {
	f := render.Frame{
		Objects: s.scene.Objects(),
		Paper:   s.sheet.Bounds(),
		Guides:  s.guides,
	}
	if o, ok := s.scene.Active(); ok {
		b := o.Bounds()
		f.Selection = &b
	}
	if err := s.renderer.Render(s.surface, f); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	return nil
}

// Resize adapts the preview to a new container size in screen pixels.
func (s *Session) Resize(w, h int) error {
	if err := s.lock(); err != nil {
		return err
	}
	defer s.unlock()
	if err := s.surface.Resize(w, h); err != nil {
		return err
	}
	s.view.SetContainer(0, 0, float64(w), float64(h))
	s.sceneDirty = true
	return nil
}

// Dispose cancels pending uploads, waits for their continuations, drops all
// subscribers and releases the surface. Later calls return ErrDisposed.
func (s *Session) Dispose() error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return nil
	}
	s.disposed = true
	s.cancel()
	for _, fn := range s.unhook {
		fn()
	}
	s.scene.Reset()
	s.onScene = listeners[func()]{}
	s.onSelection = listeners[func(SelectionEvent)]{}
	s.mu.Unlock()

	s.uploads.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	err := errors.Join(s.renderer.Close(), s.surface.Close())
	s.log.Info("session disposed")
	return err
}

// listeners is a registration-ordered callback set.
type listeners[F any] struct {
	next int
	fns  map[int]F
}

func (l *listeners[F]) add(fn F) func() {
	if l.fns == nil {
		l.fns = map[int]F{}
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() { delete(l.fns, id) }
}

func (l *listeners[F]) list() []F {
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]F, 0, len(ids))
	for _, id := range ids {
		out = append(out, l.fns[id])
	}
	return out
}
