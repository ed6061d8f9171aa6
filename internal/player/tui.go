/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package player

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"gamedialog/internal/script"
)

// Model is the bubbletea front end of a Session.
type Model struct {
	s      *Session
	styles Styles
	line   *script.Line
	choice int
	done   bool
	note   string
}

// NewModel shows the first line of s.
func NewModel(s *Session, st Styles) Model {
	m := Model{s: s, styles: st}
	m.advance()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.note = ""
	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.choice > 0 {
			m.choice--
		}
	case "down", "j":
		if m.line != nil && m.choice < len(m.line.Responses())-1 {
			m.choice++
		}
	case "b", "left", "backspace":
		m.move(m.s.Back)
	case "f", "right":
		m.move(m.s.Forward)
	case "enter", " ":
		if m.done {
			return m, tea.Quit
		}
		if m.line != nil && len(m.line.Responses()) > 0 {
			if err := m.s.Choose(m.choice); err != nil {
				m.note = err.Error()
				return m, nil
			}
		}
		m.advance()
	}
	return m, nil
}

func (m *Model) advance() {
	m.line, _ = m.s.Step()
	m.done = m.line == nil
	m.choice = 0
}

func (m *Model) move(fn func() (*script.Line, bool)) {
	line, ok := fn()
	if !ok {
		m.note = "nothing there"
		return
	}
	if line == nil {
		m.advance()
		return
	}
	m.line, m.done, m.choice = line, false, 0
}

func (m Model) View() string {
	var b strings.Builder
	if m.s.Timeline().CurrentStage() != "" {
		b.WriteString(m.styles.Hint.Render("[" + m.s.Timeline().CurrentStage() + "]"))
		b.WriteString("\n\n")
	}
	if m.done {
		b.WriteString(m.styles.Finished())
		b.WriteString(m.styles.Hint.Render("enter/q: quit  b: back"))
		return b.String()
	}
	b.WriteString(m.styles.Line(m.line, m.choice))
	b.WriteString("\n")
	if m.note != "" {
		b.WriteString(m.styles.Hint.Render(m.note))
		b.WriteString("\n")
	}
	hint := "enter: next  b: back  q: quit"
	if len(m.line.Responses()) > 0 {
		hint = "↑/↓: select  enter: choose  b: back  q: quit"
	}
	b.WriteString(m.styles.Hint.Render(hint))
	return b.String()
}

// Line is the line currently on screen, nil once playback is over.
func (m Model) Line() *script.Line { return m.line }

// RunTUI plays s in a full-screen terminal program.
func RunTUI(s *Session, st Styles, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(NewModel(s, st), opts...).Run()
	return err
}
