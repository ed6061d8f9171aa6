/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package player

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"gamedialog/internal/script"
)

// Styles controls how lines are rendered by both drivers.
type Styles struct {
	Speaker  lipgloss.Style
	Text     lipgloss.Style
	Choice   lipgloss.Style
	Selected lipgloss.Style
	Hint     lipgloss.Style
	End      lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Speaker:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		Text:     lipgloss.NewStyle(),
		Choice:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Hint:     lipgloss.NewStyle().Faint(true),
		End:      lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241")),
	}
}

// PlainStyles renders without any decoration.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Speaker: s, Text: s, Choice: s, Selected: s, Hint: s, End: s}
}

// Line renders "Speaker: text" followed by numbered responses. selected
// marks one response with a cursor; -1 numbers them instead.
func (st Styles) Line(l *script.Line, selected int) string {
	var b strings.Builder
	b.WriteString(st.Speaker.Render(l.Speaker()))
	b.WriteString(": ")
	b.WriteString(st.Text.Render(l.Text()))
	b.WriteString("\n")
	for i, r := range l.Responses() {
		switch {
		case selected < 0:
			b.WriteString(st.Choice.Render(fmt.Sprintf("  %d) %s", i+1, r.Label)))
		case i == selected:
			b.WriteString(st.Selected.Render("› " + r.Label))
		default:
			b.WriteString(st.Choice.Render("  " + r.Label))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (st Styles) Finished() string { return st.End.Render("(end)") + "\n" }
