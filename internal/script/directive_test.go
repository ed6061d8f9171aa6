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
	"testing"
)

// recordingNav records the navigation calls made by directives.
type recordingNav struct {
	calls  []string
	stages map[string]bool
}

func (n *recordingNav) GotoBegin()                { n.calls = append(n.calls, "begin") }
func (n *recordingNav) GotoEnd()                  { n.calls = append(n.calls, "end") }
func (n *recordingNav) GotoStage(name string)     { n.calls = append(n.calls, "goto:"+name) }
func (n *recordingNav) SkipStageCount(c int)      { n.calls = append(n.calls, Directive{Kind: DirectiveSkip, Count: c}.String()) }
func (n *recordingNav) HasStage(name string) bool { return n.stages[name] }

func TestParseDirective(t *testing.T) {
	cases := []struct {
		token string
		want  Directive
	}{
		{":start", Directive{Kind: DirectiveStart}},
		{":end", Directive{Kind: DirectiveEnd}},
		{":skip:2", Directive{Kind: DirectiveSkip, Count: 2}},
		{" :skip:-1 ", Directive{Kind: DirectiveSkip, Count: -1}},
		{":goto:stage1", Directive{Kind: DirectiveGoto, Target: "stage1"}},
	}
	for _, c := range cases {
		got, err := ParseDirective(c.token)
		if err != nil {
			t.Fatalf("ParseDirective(%q) error: %v", c.token, err)
		}
		if got != c.want {
			t.Fatalf("ParseDirective(%q) = %+v, want %+v", c.token, got, c.want)
		}
	}
}

func TestParseDirectiveRejectsUnknownTokens(t *testing.T) {
	for _, tok := range []string{":", ":stop", ":starting", ":goto:", ":goto"} {
		if _, err := ParseDirective(tok); !errors.Is(err, ErrUnknownDirective) {
			t.Fatalf("ParseDirective(%q) err = %v, want ErrUnknownDirective", tok, err)
		}
	}
	if _, err := ParseDirective(":skip:two"); !errors.Is(err, ErrBadSkipCount) {
		t.Fatalf("expected ErrBadSkipCount, got %v", err)
	}
}

func TestDirectiveExecute(t *testing.T) {
	nav := &recordingNav{}
	for _, d := range []Directive{
		{Kind: DirectiveStart},
		{Kind: DirectiveEnd},
		{Kind: DirectiveSkip, Count: 3},
		{Kind: DirectiveGoto, Target: "x"},
	} {
		d.Execute(nav)
	}
	want := []string{"begin", "end", ":skip:3", "goto:x"}
	if len(nav.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", nav.calls, want)
	}
	for i := range want {
		if nav.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", nav.calls, want)
		}
	}
}

func TestDirectiveHasMore(t *testing.T) {
	nav := &recordingNav{stages: map[string]bool{"known": true}}
	cases := []struct {
		d    Directive
		want bool
	}{
		{Directive{Kind: DirectiveStart}, true},
		{Directive{Kind: DirectiveEnd}, false},
		{Directive{Kind: DirectiveSkip, Count: 9}, true},
		{Directive{Kind: DirectiveGoto, Target: "known"}, true},
		{Directive{Kind: DirectiveGoto, Target: "missing"}, false},
	}
	for _, c := range cases {
		if got := c.d.HasMore(nav); got != c.want {
			t.Fatalf("%s HasMore = %v, want %v", c.d, got, c.want)
		}
	}
}

func TestDirectiveString(t *testing.T) {
	for tok, d := range map[string]Directive{
		":start":    {Kind: DirectiveStart},
		":end":      {Kind: DirectiveEnd},
		":skip:4":   {Kind: DirectiveSkip, Count: 4},
		":goto:far": {Kind: DirectiveGoto, Target: "far"},
	} {
		if d.String() != tok {
			t.Fatalf("String() = %q, want %q", d.String(), tok)
		}
	}
}
