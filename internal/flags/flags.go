/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package flags evaluates stage guard flags and runs line tags in an
// embedded Lua state.
//
// A guard flag is a Lua expression evaluated against the global table, so
// "met_mary", "not angry" and "gold >= 10" are all valid flags. Undefined
// globals are nil and therefore false; expressions that fail to compile or
// raise an error are false as well.
//
// A tag "@name arg..." calls the global Lua function name with the
// remaining words as string arguments. Tags without a matching function are
// reported as unhandled and otherwise ignored.
package flags

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/Shopify/go-lua"

	applog "gamedialog/internal/log"
)

// Evaluator owns a Lua state. It is safe for concurrent use.
type Evaluator struct {
	mu  sync.Mutex
	l   *lua.State
	log *slog.Logger
}

// New creates an evaluator with the standard Lua libraries loaded and the
// given flags set to true.
func New(initial ...string) *Evaluator {
	l := lua.NewState()
	lua.OpenLibraries(l)
	e := &Evaluator{l: l, log: applog.WithComponent("flags")}
	for _, f := range initial {
		e.Set(f, true)
	}
	return e
}

// LoadPrelude runs a Lua file, typically one defining tag functions and
// initial state.
func (e *Evaluator) LoadPrelude(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := lua.DoFile(e.l, path); err != nil {
		return fmt.Errorf("load prelude %s: %w", path, err)
	}
	return nil
}

// Exec runs a chunk of Lua source.
func (e *Evaluator) Exec(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := lua.DoString(e.l, src); err != nil {
		return fmt.Errorf("exec lua: %w", err)
	}
	return nil
}

// Set assigns a boolean global.
func (e *Evaluator) Set(name string, v bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.l.PushBoolean(v)
	e.l.SetGlobal(name)
}

// SetNumber assigns a numeric global.
func (e *Evaluator) SetNumber(name string, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.l.PushNumber(v)
	e.l.SetGlobal(name)
}

// Number returns a numeric global and whether it holds a number.
func (e *Evaluator) Number(name string) (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.l.Global(name)
	defer e.l.Pop(1)
	return e.l.ToNumber(-1)
}

// Predicate reports whether the guard flag expression holds. Its signature
// matches script.Predicate.
func (e *Evaluator) Predicate(flag string) bool {
	expr := strings.TrimSpace(flag)
	if expr == "" {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	top := e.l.Top()
	defer e.l.SetTop(top)
	if err := lua.LoadString(e.l, "return "+expr); err != nil {
		e.log.Debug("flag does not compile", slog.String("flag", expr), slog.Any("err", err))
		return false
	}
	if err := e.l.ProtectedCall(0, 1, 0); err != nil {
		e.log.Debug("flag evaluation failed", slog.String("flag", expr), slog.Any("err", err))
		return false
	}
	return e.l.ToBoolean(-1)
}

// RunTag calls the Lua function named by the first word of tag. It reports
// whether such a function existed.
func (e *Evaluator) RunTag(tag string) (bool, error) {
	fields := strings.Fields(tag)
	if len(fields) == 0 {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	top := e.l.Top()
	defer e.l.SetTop(top)
	e.l.Global(fields[0])
	if !e.l.IsFunction(-1) {
		return false, nil
	}
	for _, arg := range fields[1:] {
		e.l.PushString(arg)
	}
	if err := e.l.ProtectedCall(len(fields)-1, 0, 0); err != nil {
		return true, fmt.Errorf("tag %q: %w", fields[0], err)
	}
	return true, nil
}
