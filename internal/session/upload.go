/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package session

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"gangsheet/internal/imageio"
	"gangsheet/internal/vector"

	"github.com/google/uuid"
)

// Upload is an image decode whose result is appended to the scene once it
// completes.
type Upload struct {
	name string
	done chan struct{}
	id   uuid.UUID
	err  error
}

func (u *Upload) Name() string { return u.name }

// Done is closed after the continuation has run.
func (u *Upload) Done() <-chan struct{} { return u.done }

// Result returns the new object's ID. It blocks until Done is closed.
// Unsupported files report imageio.ErrUnsupportedKind and add nothing.
func (u *Upload) Result() (uuid.UUID, error) {
	<-u.done
	return u.id, u.err
}

// UploadImage decodes r in the background and returns at once. The decoded
// image is added like AddImage. Failures leave the scene untouched and are
// logged; Dispose abandons uploads that have not completed yet.
func (s *Session) UploadImage(name string, r io.Reader, drop *vector.Pt) *Upload {
	u := &Upload{name: name, done: make(chan struct{})}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		u.err = ErrDisposed
		close(u.done)
		return u
	}
	s.uploads.Add(1)
	ctx := s.ctx
	s.mu.Unlock()

	var at *vector.Pt
	if drop != nil {
		p := *drop
		at = &p
	}
	pending := imageio.DecodeAsync(ctx, name, r)
	go func() {
		defer s.uploads.Done()
		defer close(u.done)
		d, err := pending.Wait(ctx)
		if err != nil {
			u.err = err
			if !errors.Is(err, context.Canceled) && !errors.Is(err, imageio.ErrUnsupportedKind) {
				s.log.Warn("upload ignored", slog.String("name", name), slog.Any("err", err))
			}
			return
		}
		if err := s.lock(); err != nil {
			u.err = err
			return
		}
		u.id, u.err = s.addImage(d.Image, d.NativeWidth, d.NativeHeight, at, d.Name)
		s.unlock()
	}()
	return u
}
