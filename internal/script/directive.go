/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrUnknownDirective = errors.New("unknown directive")
	ErrBadSkipCount     = errors.New("invalid skip count")
)

// DirectiveKind enumerates the closed set of control directives.
type DirectiveKind int

const (
	DirectiveStart DirectiveKind = iota + 1 // ":start"
	DirectiveEnd                            // ":end"
	DirectiveSkip                           // ":skip:<n>"
	DirectiveGoto                           // ":goto:<stage>"
)

func (k DirectiveKind) String() string {
	switch k {
	case DirectiveStart:
		return "start"
	case DirectiveEnd:
		return "end"
	case DirectiveSkip:
		return "skip"
	case DirectiveGoto:
		return "goto"
	default:
		return "unknown"
	}
}

// Navigator is the view of a timeline that directives act on. The timeline
// is passed in at execution time; stages never keep a reference to it.
type Navigator interface {
	GotoBegin()
	GotoEnd()
	GotoStage(name string)
	SkipStageCount(n int)
	HasStage(name string) bool
}

// Directive is a control-flow instruction embedded in a stage.
type Directive struct {
	Kind   DirectiveKind
	Count  int    // DirectiveSkip only
	Target string // DirectiveGoto only
	Stage  string // stage the directive was compiled from
}

// ParseDirective resolves a ":"-prefixed token into a Directive.
func ParseDirective(token string) (Directive, error) {
	token = strings.TrimSpace(token)
	switch {
	case token == ":start":
		return Directive{Kind: DirectiveStart}, nil
	case token == ":end":
		return Directive{Kind: DirectiveEnd}, nil
	case strings.HasPrefix(token, ":skip:"):
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(token, ":skip:")))
		if err != nil {
			return Directive{}, fmt.Errorf("%w: %q", ErrBadSkipCount, token)
		}
		return Directive{Kind: DirectiveSkip, Count: n}, nil
	case strings.HasPrefix(token, ":goto:"):
		target := strings.TrimSpace(strings.TrimPrefix(token, ":goto:"))
		if target == "" {
			return Directive{}, fmt.Errorf("%w: %q", ErrUnknownDirective, token)
		}
		return Directive{Kind: DirectiveGoto, Target: target}, nil
	}
	return Directive{}, fmt.Errorf("%w: %q", ErrUnknownDirective, token)
}

// Execute applies the directive to the timeline cursor.
func (d Directive) Execute(nav Navigator) {
	switch d.Kind {
	case DirectiveStart:
		nav.GotoBegin()
	case DirectiveEnd:
		nav.GotoEnd()
	case DirectiveSkip:
		nav.SkipStageCount(d.Count)
	case DirectiveGoto:
		nav.GotoStage(d.Target)
	}
}

// HasMore reports whether playback can continue once the directive is
// reached. Only ":end" and a ":goto" to a missing stage report false.
func (d Directive) HasMore(nav Navigator) bool {
	switch d.Kind {
	case DirectiveEnd:
		return false
	case DirectiveGoto:
		return nav.HasStage(d.Target)
	default:
		return true
	}
}

func (d Directive) String() string {
	switch d.Kind {
	case DirectiveSkip:
		return ":skip:" + strconv.Itoa(d.Count)
	case DirectiveGoto:
		return ":goto:" + d.Target
	default:
		return ":" + d.Kind.String()
	}
}
