/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

// Stage is a named block of lines and directives with its own read cursor.
type Stage struct {
	name    string
	flags   []string
	entries []Entry
	pos     int
}

func (s *Stage) Name() string { return s.name }

// Flags returns the guard flags declared with "[name@flag;flag]".
func (s *Stage) Flags() []string {
	if len(s.flags) == 0 {
		return nil
	}
	return append([]string(nil), s.flags...)
}

// Len is the number of entries, directives included.
func (s *Stage) Len() int { return len(s.entries) }

// LineCount is the number of dialogue lines; directives are not counted.
func (s *Stage) LineCount() int {
	n := 0
	for _, e := range s.entries {
		if e.Line != nil {
			n++
		}
	}
	return n
}

// Entries returns the stage content in source order.
func (s *Stage) Entries() []Entry { return append([]Entry(nil), s.entries...) }

// Position is the index of the next entry to be read.
func (s *Stage) Position() int { return s.pos }

// Reset rewinds the stage cursor to its first entry.
func (s *Stage) Reset() { s.pos = 0 }

// exhausted reports whether every entry has been consumed.
func (s *Stage) exhausted() bool { return s.pos >= len(s.entries) }

// HasNext reports whether the stage can still produce something. When the
// cursor sits on a directive, the directive decides.
func (s *Stage) HasNext(nav Navigator) bool {
	if s.exhausted() {
		return false
	}
	if d := s.entries[s.pos].Directive; d != nil {
		return d.HasMore(nav)
	}
	return true
}

// Next returns the line under the cursor and advances. If the cursor is on a
// directive, the directive is consumed and executed against nav and Next
// returns (nil, false); the caller has to ask again since nav may now point
// at another stage.
func (s *Stage) Next(nav Navigator) (*Line, bool) {
	if s.exhausted() {
		return nil, false
	}
	e := s.entries[s.pos]
	s.pos++
	if e.Line != nil {
		return e.Line, true
	}
	if e.Directive != nil {
		e.Directive.Execute(nav)
	}
	return nil, false
}
