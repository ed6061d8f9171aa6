/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package flags

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPredicateEvaluatesExpressions(t *testing.T) {
	e := New("met_mary")
	e.SetNumber("gold", 12)

	cases := map[string]bool{
		"met_mary":            true,
		"angry":               false,
		"not angry":           true,
		"gold >= 10":          true,
		"gold > 100":          false,
		"met_mary and gold>5": true,
		"":                    false,
		"this is not lua (":   false,
		"missing > 1":         false, // comparing nil raises, which counts as false
	}
	for expr, want := range cases {
		if got := e.Predicate(expr); got != want {
			t.Fatalf("Predicate(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestSetTogglesFlag(t *testing.T) {
	e := New()
	if e.Predicate("door_open") {
		t.Fatalf("unset flag should be false")
	}
	e.Set("door_open", true)
	if !e.Predicate("door_open") {
		t.Fatalf("flag should be true after Set")
	}
	e.Set("door_open", false)
	if e.Predicate("door_open") {
		t.Fatalf("flag should be false after clearing")
	}
}

func TestRunTagCallsPreludeFunction(t *testing.T) {
	prelude := filepath.Join(t.TempDir(), "hooks.lua")
	src := `
gold = 0
function give_gold(n) gold = gold + tonumber(n) end
function meet(who) _G["met_" .. who] = true end
function explode() error("boom") end
`
	if err := os.WriteFile(prelude, []byte(src), 0o600); err != nil {
		t.Fatalf("write prelude: %v", err)
	}
	e := New()
	if err := e.LoadPrelude(prelude); err != nil {
		t.Fatalf("LoadPrelude: %v", err)
	}

	if ok, err := e.RunTag("give_gold 5"); !ok || err != nil {
		t.Fatalf("RunTag(give_gold) = %v, %v", ok, err)
	}
	if ok, err := e.RunTag("give_gold 3"); !ok || err != nil {
		t.Fatalf("RunTag(give_gold) = %v, %v", ok, err)
	}
	if n, ok := e.Number("gold"); !ok || n != 8 {
		t.Fatalf("gold = %v (%v), want 8", n, ok)
	}

	if _, err := e.RunTag("meet mary"); err != nil {
		t.Fatalf("RunTag(meet): %v", err)
	}
	if !e.Predicate("met_mary") {
		t.Fatalf("tag side effect should be visible to flags")
	}

	if ok, err := e.RunTag("no_such_function"); ok || err != nil {
		t.Fatalf("unknown tag = %v, %v; want unhandled without error", ok, err)
	}
	if ok, err := e.RunTag("explode"); !ok || err == nil {
		t.Fatalf("failing tag = %v, %v; want handled with error", ok, err)
	}
	// the state must stay usable after an error
	if !e.Predicate("gold == 8") {
		t.Fatalf("evaluator broken after tag error")
	}
}

func TestLoadPreludeMissingFile(t *testing.T) {
	if err := New().LoadPrelude(filepath.Join(t.TempDir(), "nope.lua")); err == nil {
		t.Fatalf("expected an error for a missing prelude")
	}
}

func TestExec(t *testing.T) {
	e := New()
	if err := e.Exec("chapter = 2"); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if !e.Predicate("chapter == 2") {
		t.Fatalf("Exec did not set the global")
	}
	if err := e.Exec("this is (not lua"); err == nil {
		t.Fatalf("expected a syntax error")
	}
}
