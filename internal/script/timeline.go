/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"log/slog"
	"slices"
)

// DefaultMaxHops is the default bound on directives and stage crossings per Next call.
const DefaultMaxHops = 1024

// Predicate reports whether a guard flag currently holds.
type Predicate func(flag string) bool

// Timeline is a compiled script: the stages in file order plus the playback
// cursor. A cursor equal to the number of stages means playback is over.
// A Timeline is not safe for concurrent use.
type Timeline struct {
	stages   []*Stage
	cur      int
	index    map[string]int
	order    []string
	precheck Predicate
	maxHops  int
	log      *slog.Logger
}

// Cursor is a snapshot of the playback position of a Timeline.
type Cursor struct {
	Stage     int
	Positions []int
}

func (c Cursor) Equal(o Cursor) bool {
	return c.Stage == o.Stage && slices.Equal(c.Positions, o.Positions)
}

func newTimeline(stages []*Stage, o options) *Timeline {
	t := &Timeline{
		stages:   stages,
		index:    make(map[string]int, len(stages)),
		precheck: o.precheck,
		maxHops:  o.maxHops,
		log:      o.logger,
	}
	if t.maxHops <= 0 {
		t.maxHops = DefaultMaxHops
	}
	for i, st := range stages {
		if _, seen := t.index[st.name]; !seen {
			t.order = append(t.order, st.name)
		}
		t.index[st.name] = i
	}
	return t
}

// SetPrecheck installs the guard predicate; nil disables routing.
func (t *Timeline) SetPrecheck(p Predicate) { t.precheck = p }

// Len is the number of stages.
func (t *Timeline) Len() int { return len(t.stages) }

// Done reports whether the cursor is in the terminal position.
func (t *Timeline) Done() bool { return t.cur >= len(t.stages) }

// AllStages returns the stage names in the order they were declared.
func (t *Timeline) AllStages() []string { return append([]string(nil), t.order...) }

func (t *Timeline) Stages() []*Stage { return append([]*Stage(nil), t.stages...) }

func (t *Timeline) HasStage(name string) bool {
	_, ok := t.index[name]
	return ok
}

// StageIndex returns the position of the named stage or -1.
func (t *Timeline) StageIndex(name string) int {
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Stage returns the named stage or nil.
func (t *Timeline) Stage(name string) *Stage {
	if i, ok := t.index[name]; ok {
		return t.stages[i]
	}
	return nil
}

// CurrentStage returns the name of the current stage, or "" once playback is over.
func (t *Timeline) CurrentStage() string {
	if t.Done() {
		return ""
	}
	return t.stages[t.cur].name
}

// Next returns the next dialogue line, running any directives and crossing
// stage boundaries on the way. It returns (nil, false) once playback is over.
func (t *Timeline) Next() (*Line, bool) {
	limit := t.maxHops + len(t.stages)
	for hop := 0; hop <= limit; hop++ {
		t.route()
		if t.Done() {
			return nil, false
		}
		st := t.stages[t.cur]
		if st.exhausted() {
			st.Reset()
			t.cur++
			continue
		}
		if d := st.entries[st.pos].Directive; d != nil {
			t.log.Debug("directive", slog.String("stage", st.name), slog.String("directive", d.String()))
		}
		if line, ok := st.Next(t); ok {
			return line, true
		}
	}
	t.log.Warn("hop limit reached, ending playback", slog.String("stage", t.CurrentStage()), slog.Int("limit", limit))
	t.GotoEnd()
	return nil, false
}

// HasNext reports whether playback can go on. Physically exhausted stages
// are looked past; a directive under the cursor decides for itself.
func (t *Timeline) HasNext() bool {
	for i := t.cur; i < len(t.stages); i++ {
		st := t.stages[i]
		if st.exhausted() {
			continue
		}
		return st.HasNext(t)
	}
	return false
}

// GotoStage moves to the named stage; unknown names are ignored.
func (t *Timeline) GotoStage(name string) {
	i, ok := t.index[name]
	if !ok {
		t.log.Debug("goto unknown stage ignored", slog.String("target", name))
		return
	}
	t.jump(i)
}

func (t *Timeline) GotoBegin() { t.jump(0) }

func (t *Timeline) GotoEnd() { t.jump(len(t.stages)) }

// SkipStageCount moves n stages forward (or back for negative n). The result
// is clamped to the stage range, so skipping past the end lands on the last
// stage rather than ending playback. It does nothing once playback is over.
func (t *Timeline) SkipStageCount(n int) {
	if t.Done() {
		return
	}
	t.jump(max(0, min(t.cur+n, len(t.stages)-1)))
}

// jump resets the stage being left and moves the cursor to i.
func (t *Timeline) jump(i int) {
	if !t.Done() {
		t.stages[t.cur].Reset()
	}
	t.cur = i
}

// route applies guard-flag routing. The current stage is kept while all its
// flags hold; otherwise the first matching stage after it (wrapping around)
// becomes current, and with no match at all playback ends.
func (t *Timeline) route() {
	if t.precheck == nil || t.Done() {
		return
	}
	if t.admits(t.stages[t.cur]) {
		return
	}
	n := len(t.stages)
	for step := 1; step < n; step++ {
		i := (t.cur + step) % n
		if t.admits(t.stages[i]) {
			t.log.Debug("routed", slog.String("from", t.stages[t.cur].name), slog.String("to", t.stages[i].name))
			t.jump(i)
			return
		}
	}
	t.log.Debug("no stage admitted, ending playback", slog.String("from", t.stages[t.cur].name))
	t.GotoEnd()
}

// admits reports whether every guard flag of st holds. Stages without flags
// are always admitted.
func (t *Timeline) admits(st *Stage) bool {
	for _, f := range st.flags {
		if !t.precheck(f) {
			return false
		}
	}
	return true
}

// Checkpoint captures the cursor of the timeline and of every stage.
func (t *Timeline) Checkpoint() Cursor {
	c := Cursor{Stage: t.cur, Positions: make([]int, len(t.stages))}
	for i, st := range t.stages {
		c.Positions[i] = st.pos
	}
	return c
}

// Restore applies a checkpoint taken from this timeline. Checkpoints that do
// not fit the timeline are rejected.
func (t *Timeline) Restore(c Cursor) bool {
	if len(c.Positions) != len(t.stages) || c.Stage < 0 || c.Stage > len(t.stages) {
		return false
	}
	for i, p := range c.Positions {
		if p < 0 || p > len(t.stages[i].entries) {
			return false
		}
	}
	for i, p := range c.Positions {
		t.stages[i].pos = p
	}
	t.cur = c.Stage
	return true
}
