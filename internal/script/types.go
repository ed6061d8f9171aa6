/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "fmt"

// Response is one player reply offered after a line: the label shown to the
// player and the stage the reply leads to.
type Response struct {
	Label  string `json:"label"`
	Target string `json:"target"`
}

// Line is a single speaker turn. It is built once by the compiler and never
// changed afterwards; accessors hand out copies of the slices.
type Line struct {
	speaker   string
	text      string
	stage     string
	responses []Response
	tags      []string
}

func (l *Line) Speaker() string { return l.speaker }
func (l *Line) Text() string    { return l.text }

// Stage returns the name of the stage the line was compiled from.
func (l *Line) Stage() string { return l.stage }

func (l *Line) Responses() []Response {
	if len(l.responses) == 0 {
		return nil
	}
	return append([]Response(nil), l.responses...)
}

// Tags returns the side-effect function names attached with "@name".
func (l *Line) Tags() []string {
	if len(l.tags) == 0 {
		return nil
	}
	return append([]string(nil), l.tags...)
}

// Entry is one slot of a stage: exactly one of Line or Directive is set.
type Entry struct {
	Line      *Line
	Directive *Directive
}

// Reason classifies why the compiler dropped a source line.
type Reason int

const (
	ReasonNoStage Reason = iota + 1
	ReasonNoSpeaker
	ReasonOrphanResponse
	ReasonMalformedResponse
	ReasonOrphanTag
	ReasonBadDirective
	ReasonEmptyText
)

func (r Reason) String() string {
	switch r {
	case ReasonNoStage:
		return "outside of any stage"
	case ReasonNoSpeaker:
		return "no speaker declared"
	case ReasonOrphanResponse:
		return "response without a line"
	case ReasonMalformedResponse:
		return "malformed response"
	case ReasonOrphanTag:
		return "tag without a line"
	case ReasonBadDirective:
		return "unknown directive"
	case ReasonEmptyText:
		return "empty dialogue text"
	default:
		return "unknown"
	}
}

// Diagnostic describes a source line the compiler ignored.
type Diagnostic struct {
	Line   int // 1-based line number in the source
	Stage  string
	Source string
	Reason Reason
}

func (d Diagnostic) Error() string {
	if d.Stage == "" {
		return fmt.Sprintf("line %d: %s: %q", d.Line, d.Reason, d.Source)
	}
	return fmt.Sprintf("line %d [%s]: %s: %q", d.Line, d.Stage, d.Reason, d.Source)
}
