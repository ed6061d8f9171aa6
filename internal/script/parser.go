/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package script

import (
	"bufio"
	"log/slog"
	"regexp"
	"strings"

	applog "gamedialog/internal/log"
)

// Grammar, one construct per line (leading/trailing whitespace is ignored):
//
//	# comment
//	[stage] or [stage@flag1;flag2]   opens a stage block
//	(Alice,Bob)                       declares the speaker rotation
//	Hello there!                      dialogue for the next speaker
//	Hello again!+                     dialogue; the same speaker keeps the turn
//	-Label:target                     response on the latest line
//	@function                         side-effect tag on the latest line
//	:start :end :skip:<n> :goto:<s>   control directive
var (
	reHeader   = regexp.MustCompile(`^\[([^\]@]*)(?:@([^\]]*))?\]$`)
	reSpeakers = regexp.MustCompile(`^\((.*)\)$`)
)

type options struct {
	logger   *slog.Logger
	precheck Predicate
	maxHops  int
	sink     func(Diagnostic)
}

// Option configures Compile and New.
type Option func(*options)

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithPrecheck installs the guard predicate at construction time.
func WithPrecheck(p Predicate) Option { return func(o *options) { o.precheck = p } }

// WithMaxHops bounds how many directives and stage crossings a single Next
// call may go through before the timeline is ended.
func WithMaxHops(n int) Option { return func(o *options) { o.maxHops = n } }

// WithDiagnostics registers a sink that receives every dropped line as it is found.
func WithDiagnostics(fn func(Diagnostic)) Option { return func(o *options) { o.sink = fn } }

type sourceLine struct {
	no   int
	text string
}

type block struct {
	name  string
	flags []string
	lines []sourceLine
}

// New compiles input into a Timeline. Malformed lines are dropped; they are
// logged at debug level and reported to a WithDiagnostics sink if one is set.
func New(input string, opts ...Option) *Timeline {
	t, _ := Compile(input, opts...)
	return t
}

// Compile compiles input into a Timeline and also returns the diagnostics
// for every line that was dropped. It never fails.
func Compile(input string, opts ...Option) (*Timeline, []Diagnostic) {
	o := options{maxHops: DefaultMaxHops}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = applog.WithComponent("script")
	}
	l := applog.WithOperation(o.logger, "compile")

	var diags []Diagnostic
	report := func(d Diagnostic) {
		diags = append(diags, d)
		l.Debug("line dropped", slog.Int("line", d.Line), slog.String("stage", d.Stage), slog.String("reason", d.Reason.String()))
		if o.sink != nil {
			o.sink(d)
		}
	}

	blocks := splitBlocks(input, report, l)
	stages := make([]*Stage, 0, len(blocks))
	for _, b := range blocks {
		stages = append(stages, compileStage(b, report))
	}
	t := newTimeline(stages, o)
	l.Debug("compiled", slog.Int("stages", len(stages)), slog.Int("dropped", len(diags)))
	return t, diags
}

// splitBlocks performs the outer pass: it drops comments and blank lines and
// groups the rest under their "[stage]" headers.
func splitBlocks(input string, report func(Diagnostic), l *slog.Logger) []*block {
	var blocks []*block
	var cur *block

	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		trim := strings.TrimSpace(scanner.Text())
		if trim == "" || strings.HasPrefix(trim, "#") {
			continue
		}
		if m := reHeader.FindStringSubmatch(trim); m != nil {
			name := strings.TrimSpace(m[1])
			if name == "" {
				cur = nil
				report(Diagnostic{Line: lineNo, Source: trim, Reason: ReasonNoStage})
				continue
			}
			cur = &block{name: name, flags: splitList(m[2], ";")}
			blocks = append(blocks, cur)
			continue
		}
		if cur == nil {
			report(Diagnostic{Line: lineNo, Source: trim, Reason: ReasonNoStage})
			continue
		}
		cur.lines = append(cur.lines, sourceLine{no: lineNo, text: trim})
	}
	if err := scanner.Err(); err != nil {
		l.Warn("script read stopped early", slog.Int("line", lineNo), slog.Any("err", err))
	}
	return blocks
}

// compileStage performs the inner pass over one block, in source order.
func compileStage(b *block, report func(Diagnostic)) *Stage {
	st := &Stage{name: b.name, flags: b.flags}
	var speakers []string
	turn := 0
	var last *Line

	for _, sl := range b.lines {
		text := sl.text
		drop := func(r Reason) {
			report(Diagnostic{Line: sl.no, Stage: b.name, Source: text, Reason: r})
		}

		if m := reSpeakers.FindStringSubmatch(text); m != nil {
			speakers = splitList(m[1], ",")
			turn = 0
			continue
		}

		switch text[0] {
		case '-':
			if last == nil {
				drop(ReasonOrphanResponse)
				continue
			}
			parts := strings.Split(text[1:], ":")
			if len(parts) != 2 {
				drop(ReasonMalformedResponse)
				continue
			}
			last.responses = append(last.responses, Response{
				Label:  strings.TrimSpace(parts[0]),
				Target: strings.TrimSpace(parts[1]),
			})
		case '@':
			if last == nil {
				drop(ReasonOrphanTag)
				continue
			}
			tag := strings.TrimSpace(text[1:])
			if tag == "" {
				drop(ReasonEmptyText)
				continue
			}
			last.tags = append(last.tags, tag)
		case ':':
			d, err := ParseDirective(text)
			if err != nil {
				drop(ReasonBadDirective)
				continue
			}
			d.Stage = b.name
			st.entries = append(st.entries, Entry{Directive: &d})
		default:
			if len(speakers) == 0 {
				drop(ReasonNoSpeaker)
				continue
			}
			hold := strings.HasSuffix(text, "+")
			body := strings.TrimSpace(strings.TrimSuffix(text, "+"))
			if body == "" {
				drop(ReasonEmptyText)
				continue
			}
			last = &Line{speaker: speakers[turn], text: body, stage: b.name}
			st.entries = append(st.entries, Entry{Line: last})
			if !hold {
				turn = (turn + 1) % len(speakers)
			}
		}
	}
	return st
}

// splitList splits s on sep, trims each item and drops empty ones.
func splitList(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
