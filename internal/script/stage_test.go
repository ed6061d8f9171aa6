/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import "testing"

func TestStageNextAndReset(t *testing.T) {
	st := New(`[s]
(A)
one
two`).Stage("s")
	nav := &recordingNav{}
	l, ok := st.Next(nav)
	if !ok || l.Text() != "one" {
		t.Fatalf("first Next = %v %v", l, ok)
	}
	if l, ok = st.Next(nav); !ok || l.Text() != "two" {
		t.Fatalf("second Next = %v %v", l, ok)
	}
	if st.HasNext(nav) {
		t.Fatalf("HasNext should be false at the end")
	}
	if _, ok := st.Next(nav); ok {
		t.Fatalf("Next past the end should return nothing")
	}
	st.Reset()
	if st.Position() != 0 || !st.HasNext(nav) {
		t.Fatalf("Reset did not rewind the stage")
	}
}

func TestStageDirectiveExecutesAgainstNavigator(t *testing.T) {
	st := New(`[s]
(A)
one
:goto:elsewhere
two`).Stage("s")
	nav := &recordingNav{stages: map[string]bool{}}
	st.Next(nav)
	if st.HasNext(nav) {
		t.Fatalf("goto to an unknown stage should report no more")
	}
	if l, ok := st.Next(nav); ok || l != nil {
		t.Fatalf("directive should not produce a line")
	}
	if len(nav.calls) != 1 || nav.calls[0] != "goto:elsewhere" {
		t.Fatalf("calls = %v", nav.calls)
	}
	if !st.HasNext(nav) {
		t.Fatalf("stage should continue after the directive")
	}
	if l, _ := st.Next(nav); l == nil || l.Text() != "two" {
		t.Fatalf("expected line after directive, got %v", l)
	}
}

func TestStageEndDirectiveReportsNoMore(t *testing.T) {
	st := New(`[s]
(A)
:end
one`).Stage("s")
	if st.HasNext(&recordingNav{}) {
		t.Fatalf(":end should make HasNext false even with entries left")
	}
}
