/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package player drives a compiled timeline for a reader: it shows lines,
// applies the chosen responses, runs tags and keeps a back/forward history.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"gamedialog/internal/history"
	applog "gamedialog/internal/log"
	"gamedialog/internal/script"
)

var ErrNoSuchResponse = errors.New("no such response")

// TagRunner executes the side-effect tags attached to a line.
// handled is false when nothing is bound to the tag.
type TagRunner interface {
	RunTag(tag string) (handled bool, err error)
}

type Options struct {
	Tags         TagRunner
	HistoryDepth int
	Logger       *slog.Logger
}

// Session is one playthrough of a timeline. It is not safe for concurrent use.
type Session struct {
	ID string

	tl      *script.Timeline
	tags    TagRunner
	hist    *history.Manager
	shown   []*script.Line // lines on the current path; the first count are visible
	count   int
	current *script.Line
	ctx     context.Context
	log     *slog.Logger
}

func NewSession(tl *script.Timeline, opt Options) *Session {
	id := uuid.NewString()
	l := opt.Logger
	if l == nil {
		l = applog.WithComponent("player")
	}
	return &Session{
		ID:   id,
		tl:   tl,
		tags: opt.Tags,
		hist: history.NewManager(history.Config{MaxDepth: opt.HistoryDepth}),
		ctx:  applog.ContextWithSession(context.Background(), id),
		log:  l,
	}
}

// Timeline returns the timeline being played.
func (s *Session) Timeline() *script.Timeline { return s.tl }

// Current is the line most recently shown, or nil.
func (s *Session) Current() *script.Line { return s.current }

// Transcript returns the lines shown so far, oldest first.
func (s *Session) Transcript() []*script.Line { return append([]*script.Line(nil), s.shown[:s.count]...) }

func (s *Session) Done() bool { return s.tl.Done() }

// Step shows the next line and runs its tags. It returns (nil, false) when
// playback is over.
func (s *Session) Step() (*script.Line, bool) {
	s.hist.Push(s.checkpoint())
	line, ok := s.tl.Next()
	if !ok {
		s.current = nil
		s.log.InfoContext(s.ctx, "playback finished", slog.Int("shown", s.count))
		return nil, false
	}
	s.current = line
	s.shown = append(s.shown[:s.count], line)
	s.count++
	s.log.DebugContext(s.ctx, "line", slog.String("stage", line.Stage()), slog.String("speaker", line.Speaker()))
	s.runTags(line)
	return line, true
}

func (s *Session) runTags(line *script.Line) {
	for _, tag := range line.Tags() {
		if s.tags == nil {
			s.log.DebugContext(s.ctx, "tag ignored", slog.String("tag", tag))
			continue
		}
		handled, err := s.tags.RunTag(tag)
		switch {
		case err != nil:
			s.log.WarnContext(s.ctx, "tag failed", slog.String("tag", tag), slog.Any("err", err))
		case !handled:
			s.log.DebugContext(s.ctx, "tag unhandled", slog.String("tag", tag))
		}
	}
}

// Choose picks response i (0-based) of the current line and jumps to its
// target stage. A target that names no stage leaves playback where it is.
func (s *Session) Choose(i int) error {
	if s.current == nil {
		return fmt.Errorf("%w: no current line", ErrNoSuchResponse)
	}
	rs := s.current.Responses()
	if i < 0 || i >= len(rs) {
		return fmt.Errorf("%w: %d of %d", ErrNoSuchResponse, i+1, len(rs))
	}
	r := rs[i]
	if !s.tl.HasStage(r.Target) {
		s.log.WarnContext(s.ctx, "response target unknown, continuing", slog.String("label", r.Label), slog.String("target", r.Target))
		return nil
	}
	s.log.DebugContext(s.ctx, "response chosen", slog.String("label", r.Label), slog.String("target", r.Target))
	s.tl.GotoStage(r.Target)
	return nil
}

// Back returns to the position before the current line was shown and
// reports the line that is current afterwards (nil before the first line).
// Tag side effects are not reverted.
func (s *Session) Back() (*script.Line, bool) {
	c, ok := s.hist.Back(s.checkpoint())
	if !ok {
		return s.current, false
	}
	s.apply(c)
	return s.current, true
}

// Forward re-applies a position left by Back.
func (s *Session) Forward() (*script.Line, bool) {
	c, ok := s.hist.Forward(s.checkpoint())
	if !ok {
		return s.current, false
	}
	s.apply(c)
	return s.current, true
}

func (s *Session) apply(c history.Checkpoint) {
	if !s.tl.Restore(c.Cursor) {
		s.log.WarnContext(s.ctx, "checkpoint rejected")
		return
	}
	s.count = max(0, min(c.Shown, len(s.shown)))
	s.current = nil
	if s.count > 0 {
		s.current = s.shown[s.count-1]
	}
}

func (s *Session) checkpoint() history.Checkpoint {
	return history.Checkpoint{Cursor: s.tl.Checkpoint(), Shown: s.count, TS: time.Now()}
}
