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
	"reflect"
	"testing"
)

func TestParseStageWithResponsesAndDirective(t *testing.T) {
	input := `
[stage1]
(John,Mary)
Hello there!
-Yes: next_scene
-No: end_scene
:end
    `
	tl, diags := Compile(input)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
	st := tl.Stage("stage1")
	if st == nil {
		t.Fatalf("stage1 not found; stages=%v", tl.AllStages())
	}
	if st.LineCount() != 1 {
		t.Fatalf("LineCount = %d, want 1", st.LineCount())
	}
	entries := st.Entries()
	if len(entries) != 2 || entries[0].Line == nil || entries[1].Directive == nil {
		t.Fatalf("unexpected entry order: %+v", entries)
	}
	if entries[1].Directive.Kind != DirectiveEnd || entries[1].Directive.Stage != "stage1" {
		t.Fatalf("unexpected directive: %+v", entries[1].Directive)
	}
	want := []Response{{Label: "Yes", Target: "next_scene"}, {Label: "No", Target: "end_scene"}}
	if got := entries[0].Line.Responses(); !reflect.DeepEqual(got, want) {
		t.Fatalf("responses = %+v, want %+v", got, want)
	}
}

func TestParseSpeakerRotation(t *testing.T) {
	input := `[s]
(John,Mary)
Hello there!
Yes, Hello!
Let me think+
...got it.
Again?`
	tl := New(input)
	st := tl.Stage("s")
	var got [][2]string
	for _, e := range st.Entries() {
		got = append(got, [2]string{e.Line.Speaker(), e.Line.Text()})
	}
	want := [][2]string{
		{"John", "Hello there!"},
		{"Mary", "Yes, Hello!"},
		{"John", "Let me think"},
		{"John", "...got it."},
		{"Mary", "Again?"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("rotation = %v, want %v", got, want)
	}
}

func TestParseSpeakerRedeclarationRestartsRotation(t *testing.T) {
	input := `[s]
(A,B)
one
(C,D)
two
three`
	st := New(input).Stage("s")
	var speakers []string
	for _, e := range st.Entries() {
		speakers = append(speakers, e.Line.Speaker())
	}
	if !reflect.DeepEqual(speakers, []string{"A", "C", "D"}) {
		t.Fatalf("speakers = %v", speakers)
	}
}

func TestDirectiveDoesNotAdvanceRotation(t *testing.T) {
	input := `[s]
(A,B)
one
:skip:0
two`
	st := New(input).Stage("s")
	entries := st.Entries()
	if len(entries) != 3 || entries[2].Line.Speaker() != "B" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestParseStageFlagsAndTags(t *testing.T) {
	input := `# leading comment
[vault@has_key; awake]
(Guard)
Halt!
@play_alarm
@ shake_screen
-Run:exit`
	tl := New(input)
	st := tl.Stage("vault")
	if !reflect.DeepEqual(st.Flags(), []string{"has_key", "awake"}) {
		t.Fatalf("flags = %v", st.Flags())
	}
	line := st.Entries()[0].Line
	if !reflect.DeepEqual(line.Tags(), []string{"play_alarm", "shake_screen"}) {
		t.Fatalf("tags = %v", line.Tags())
	}
	if line.Stage() != "vault" {
		t.Fatalf("line stage = %q", line.Stage())
	}
	if len(line.Responses()) != 1 {
		t.Fatalf("responses = %v", line.Responses())
	}
}

func TestParseDropsMalformedLines(t *testing.T) {
	input := `orphan before any stage
[s]
-Yes:a
@tag
nobody speaks
(A)
hi
-broken
-a:b:c
:jump:nowhere
:skip:many
+
@`
	var sunk []Diagnostic
	tl, diags := Compile(input, WithDiagnostics(func(d Diagnostic) { sunk = append(sunk, d) }))
	wantReasons := []Reason{
		ReasonNoStage,
		ReasonOrphanResponse,
		ReasonOrphanTag,
		ReasonNoSpeaker,
		ReasonMalformedResponse,
		ReasonMalformedResponse,
		ReasonBadDirective,
		ReasonBadDirective,
		ReasonEmptyText,
		ReasonEmptyText,
	}
	var got []Reason
	for _, d := range diags {
		got = append(got, d.Reason)
	}
	if !reflect.DeepEqual(got, wantReasons) {
		t.Fatalf("reasons = %v, want %v", got, wantReasons)
	}
	if !reflect.DeepEqual(sunk, diags) {
		t.Fatalf("sink saw %d diagnostics, returned %d", len(sunk), len(diags))
	}
	if diags[0].Line != 1 || diags[1].Line != 3 || diags[1].Stage != "s" {
		t.Fatalf("unexpected positions: %+v %+v", diags[0], diags[1])
	}
	st := tl.Stage("s")
	if st.Len() != 1 || st.LineCount() != 1 {
		t.Fatalf("stage should hold only the valid line, got %d entries", st.Len())
	}
	if len(st.Entries()[0].Line.Responses()) != 0 {
		t.Fatalf("malformed responses were attached")
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   \n\t\n", "# only\n# comments"} {
		tl, diags := Compile(in)
		if tl.Len() != 0 || len(tl.AllStages()) != 0 {
			t.Fatalf("expected no stages for %q", in)
		}
		if tl.HasNext() {
			t.Fatalf("HasNext should be false for %q", in)
		}
		if _, ok := tl.Next(); ok {
			t.Fatalf("Next should report exhaustion for %q", in)
		}
		if len(diags) != 0 {
			t.Fatalf("unexpected diagnostics for %q: %v", in, diags)
		}
	}
}

func TestAllStagesMatchesHeaders(t *testing.T) {
	input := `[a]
[b@x]
(A)
hi
[c]
[b]`
	tl := New(input)
	if got := tl.AllStages(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("AllStages = %v", got)
	}
	if tl.Len() != 4 {
		t.Fatalf("Len = %d, want 4", tl.Len())
	}
	// duplicate names: lookup points at the last declaration
	if i := tl.StageIndex("b"); i != 3 {
		t.Fatalf("StageIndex(b) = %d, want 3", i)
	}
}

func TestDiagnosticError(t *testing.T) {
	d := Diagnostic{Line: 4, Stage: "s", Source: ":bogus", Reason: ReasonBadDirective}
	var err error = d
	if err.Error() != `line 4 [s]: unknown directive: ":bogus"` {
		t.Fatalf("Error() = %q", err.Error())
	}
	if !errors.As(err, &Diagnostic{}) {
		t.Fatalf("diagnostic should be usable as an error")
	}
}
