/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package engine

import (
	"fmt"
	"sync"

	"posterforge/internal/scene"
)

// EventKind classifies a change observed on the live surface.
type EventKind int

const (
	ObjectAdded EventKind = iota
	ObjectModified
	ObjectRemoved
	TextChanged
)

func (k EventKind) String() string {
	switch k {
	case ObjectAdded:
		return "object:added"
	case ObjectModified:
		return "object:modified"
	case ObjectRemoved:
		return "object:removed"
	case TextChanged:
		return "text:changed"
	default:
		return "unknown"
	}
}

// Event is one discrete surface change notification.
type Event struct {
	Kind     EventKind
	ObjectID string
}

// Subscription is a disposable handle to a surface event stream. Disposing
// detaches the listener; handler lifecycles are never tracked through side
// channels on the surface itself.
type Subscription interface {
	Dispose()
}

// Surface is the live rendering target the engine keeps in sync with the
// active page. Exactly one page is live on a surface at a time.
type Surface interface {
	// Serialize captures the current surface state as snapshot JSON.
	Serialize() ([]byte, error)
	// Load clears the surface and deserializes a snapshot onto it.
	// Programmatic loads do not fire change events.
	Load(snapshot []byte) error
	// Clear resets the surface to an empty default scene.
	Clear()
	// Subscribe attaches a change listener and returns its handle.
	Subscribe(fn func(Event)) Subscription
}

// MemorySurface is an in-memory Surface over a scene graph. It stands in for
// the rendering canvas: mutators fire the same discrete events a live canvas
// emits, and Load suppresses them.
type MemorySurface struct {
	mu      sync.Mutex
	scene   *scene.Scene
	nextSub int
	subs    map[int]func(Event)
}

// NewMemorySurface returns an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{scene: scene.New(), subs: make(map[int]func(Event))}
}

func (m *MemorySurface) Serialize() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return scene.Encode(m.scene)
}

func (m *MemorySurface) Load(snapshot []byte) error {
	s, err := scene.Decode(snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.scene = s
	m.mu.Unlock()
	return nil
}

func (m *MemorySurface) Clear() {
	m.mu.Lock()
	m.scene = scene.New()
	m.mu.Unlock()
}

func (m *MemorySurface) Subscribe(fn func(Event)) Subscription {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return &memSub{surface: m, id: id}
}

type memSub struct {
	surface *MemorySurface
	once    sync.Once
	id      int
}

func (s *memSub) Dispose() {
	s.once.Do(func() {
		s.surface.mu.Lock()
		delete(s.surface.subs, s.id)
		s.surface.mu.Unlock()
	})
}

// SubscriberCount reports attached listeners; used to verify teardown.
func (m *MemorySurface) SubscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

func (m *MemorySurface) emit(ev Event) {
	m.mu.Lock()
	fns := make([]func(Event), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Scene returns a deep copy of the current surface scene.
func (m *MemorySurface) Scene() *scene.Scene {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scene.Clone()
}

// SetCanvas resizes the surface canvas.
func (m *MemorySurface) SetCanvas(w, h float64) {
	m.mu.Lock()
	m.scene.Width = w
	m.scene.Height = h
	m.mu.Unlock()
	m.emit(Event{Kind: ObjectModified})
}

// SetBackground sets the canvas background color.
func (m *MemorySurface) SetBackground(color string) {
	m.mu.Lock()
	m.scene.Background = color
	m.mu.Unlock()
	m.emit(Event{Kind: ObjectModified})
}

// AddObject appends an object, assigning an id when missing.
func (m *MemorySurface) AddObject(o scene.Object) string {
	if o.ID == "" {
		o.ID = scene.NewID()
	}
	if o.Opacity == 0 {
		o.Opacity = 1
	}
	m.mu.Lock()
	m.scene.Objects = append(m.scene.Objects, o)
	m.mu.Unlock()
	m.emit(Event{Kind: ObjectAdded, ObjectID: o.ID})
	return o.ID
}

// UpdateObject applies fn to the object with the given id.
func (m *MemorySurface) UpdateObject(id string, fn func(*scene.Object)) error {
	m.mu.Lock()
	obj := m.scene.FindObject(id)
	if obj == nil {
		m.mu.Unlock()
		return fmt.Errorf("object %s not found", id)
	}
	fn(obj)
	m.mu.Unlock()
	m.emit(Event{Kind: ObjectModified, ObjectID: id})
	return nil
}

// RemoveObject deletes the object with the given id.
func (m *MemorySurface) RemoveObject(id string) error {
	m.mu.Lock()
	idx := -1
	for i := range m.scene.Objects {
		if m.scene.Objects[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("object %s not found", id)
	}
	m.scene.Objects = append(m.scene.Objects[:idx], m.scene.Objects[idx+1:]...)
	m.mu.Unlock()
	m.emit(Event{Kind: ObjectRemoved, ObjectID: id})
	return nil
}

// SetText replaces the text content of a text object.
func (m *MemorySurface) SetText(id, content string) error {
	m.mu.Lock()
	obj := m.scene.FindObject(id)
	if obj == nil || obj.Text == nil {
		m.mu.Unlock()
		return fmt.Errorf("text object %s not found", id)
	}
	obj.Text.Content = content
	m.mu.Unlock()
	m.emit(Event{Kind: TextChanged, ObjectID: id})
	return nil
}
