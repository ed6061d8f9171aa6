/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"sync"
	"time"

	"gamedialog/internal/script"
)

// Checkpoint is a restorable playback position.
// Shown is the number of lines that had been emitted when it was taken.
type Checkpoint struct {
	Cursor script.Cursor
	Shown  int
	TS     time.Time
}

// Config controls the depth cap.
type Config struct {
	// MaxDepth limits the number of checkpoints kept (0 means the default of 256).
	MaxDepth int
}

// Manager keeps back/forward stacks of checkpoints. It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	back []Checkpoint
	fwd  []Checkpoint
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 256
	}
	return &Manager{cfg: cfg}
}

// Push records a checkpoint and clears the forward stack. A checkpoint at
// the same position as the previous one replaces it.
func (m *Manager) Push(c Checkpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fwd = nil
	if n := len(m.back); n > 0 && m.back[n-1].Cursor.Equal(c.Cursor) && m.back[n-1].Shown == c.Shown {
		m.back[n-1] = c
		return
	}
	m.back = append(m.back, c)
	if over := len(m.back) - m.cfg.MaxDepth; over > 0 {
		m.back = append([]Checkpoint(nil), m.back[over:]...)
	}
}

// Back pops the latest checkpoint; current is kept for Forward.
func (m *Manager) Back(current Checkpoint) (Checkpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.back) == 0 {
		return Checkpoint{}, false
	}
	c := m.back[len(m.back)-1]
	m.back = m.back[:len(m.back)-1]
	m.fwd = append(m.fwd, current)
	return c, true
}

// Forward undoes a Back; current goes back onto the back stack.
func (m *Manager) Forward(current Checkpoint) (Checkpoint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.fwd) == 0 {
		return Checkpoint{}, false
	}
	c := m.fwd[len(m.fwd)-1]
	m.fwd = m.fwd[:len(m.fwd)-1]
	m.back = append(m.back, current)
	return c, true
}

func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.back, m.fwd = nil, nil
}

// Stats returns the stack sizes for diagnostics.
func (m *Manager) Stats() (back int, forward int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.back), len(m.fwd)
}
