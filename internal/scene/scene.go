/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene holds the ordered objects on the sheet and the current
// selection, and notifies observers when either changes.
package scene

import (
	"sort"

	"gangsheet/internal/vector"

	"github.com/google/uuid"
)

// Scene is an ordered list of objects (later draws on top) with at most one
// selected object, which is always a member. Not safe for concurrent use.
type Scene struct {
	objs   []*Object
	active *Object

	changed  subscribers[func()]
	selected subscribers[func(Object, bool)]
}

func New() *Scene { return &Scene{} }

// OnChanged subscribes to content changes (add, remove, reorder, modify).
func (s *Scene) OnChanged(fn func()) (unsubscribe func()) { return s.changed.add(fn) }

// OnSelectionChanged subscribes to selection changes. The callback gets the
// new active object, or false when the selection was cleared.
func (s *Scene) OnSelectionChanged(fn func(Object, bool)) (unsubscribe func()) {
	return s.selected.add(fn)
}

func (s *Scene) notifyChanged() {
	s.changed.each(func(fn func()) { fn() })
}

func (s *Scene) notifySelection() {
	o, ok := s.Active()
	s.selected.each(func(fn func(Object, bool)) { fn(o, ok) })
}

// Add appends o on top and returns its ID, assigning one if o has none.
func (s *Scene) Add(o Object) uuid.UUID {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.ScaleX == 0 {
		o.ScaleX = 1
	}
	if o.ScaleY == 0 {
		o.ScaleY = 1
	}
	p := o
	s.objs = append(s.objs, &p)
	s.notifyChanged()
	return p.ID
}

func (s *Scene) index(id uuid.UUID) int {
	for i, o := range s.objs {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// Remove deletes the object and drops the selection if it was active.
func (s *Scene) Remove(id uuid.UUID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	wasActive := s.active == s.objs[i]
	s.objs = append(s.objs[:i], s.objs[i+1:]...)
	if wasActive {
		s.active = nil
	}
	s.notifyChanged()
	if wasActive {
		s.notifySelection()
	}
	return true
}

// Clear removes every object.
func (s *Scene) Clear() {
	if len(s.objs) == 0 {
		return
	}
	hadSel := s.active != nil
	s.objs, s.active = nil, nil
	s.notifyChanged()
	if hadSel {
		s.notifySelection()
	}
}

func (s *Scene) Len() int { return len(s.objs) }

// Get returns a copy of the object.
func (s *Scene) Get(id uuid.UUID) (Object, bool) {
	if i := s.index(id); i >= 0 {
		return *s.objs[i], true
	}
	return Object{}, false
}

// Objects returns copies of all objects in draw order.
func (s *Scene) Objects() []Object {
	out := make([]Object, len(s.objs))
	for i, o := range s.objs {
		out[i] = *o
	}
	return out
}

// Select makes id the active object. Selecting the active object again is a no-op.
func (s *Scene) Select(id uuid.UUID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	if s.active == s.objs[i] {
		return true
	}
	s.active = s.objs[i]
	s.notifySelection()
	return true
}

func (s *Scene) ClearSelection() {
	if s.active == nil {
		return
	}
	s.active = nil
	s.notifySelection()
}

// Active returns a copy of the selected object.
func (s *Scene) Active() (Object, bool) {
	if s.active == nil {
		return Object{}, false
	}
	return *s.active, true
}

// ObjectAt returns the top-most object under the sheet point p.
func (s *Scene) ObjectAt(p vector.Pt) (Object, bool) {
	for i := len(s.objs) - 1; i >= 0; i-- {
		if s.objs[i].Hit(p) {
			return *s.objs[i], true
		}
	}
	return Object{}, false
}

// BringToFront moves the object to the top of the draw order.
func (s *Scene) BringToFront(id uuid.UUID) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	if i == len(s.objs)-1 {
		return true
	}
	o := s.objs[i]
	s.objs = append(append(s.objs[:i], s.objs[i+1:]...), o)
	s.notifyChanged()
	return true
}

// Update applies fn to the live object. The ID and kind cannot be changed,
// and text is re-measured afterwards.
func (s *Scene) Update(id uuid.UUID, fn func(*Object)) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	o := s.objs[i]
	keepID, keepKind := o.ID, o.Kind
	fn(o)
	o.ID, o.Kind = keepID, keepKind
	o.measure()
	s.notifyChanged()
	return true
}

// subscribers is an ordered set of callbacks keyed by registration order.
type subscribers[F any] struct {
	next int
	fns  map[int]F
}

func (l *subscribers[F]) add(fn F) func() {
	if l.fns == nil {
		l.fns = map[int]F{}
	}
	id := l.next
	l.next++
	l.fns[id] = fn
	return func() { delete(l.fns, id) }
}

func (l *subscribers[F]) each(call func(F)) {
	ids := make([]int, 0, len(l.fns))
	for id := range l.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := l.fns[id]; ok {
			call(fn)
		}
	}
}

// Reset drops every subscriber.
func (s *Scene) Reset() {
	s.changed = subscribers[func()]{}
	s.selected = subscribers[func(Object, bool)]{}
}
