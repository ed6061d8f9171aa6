/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export writes compiled dialogue scripts to documents: a JSON outline
// validated against an embedded schema, and a printable PDF transcript.
package export

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"gamedialog/internal/script"
)

// OutlineVersion is bumped when the outline layout changes incompatibly.
const OutlineVersion = 1

//go:embed outline.schema.json
var outlineSchema []byte

// ErrInvalidOutline is returned when an outline does not conform to the schema.
var ErrInvalidOutline = errors.New("outline does not conform to schema")

type Outline struct {
	Version int            `json:"version"`
	Source  string         `json:"source,omitempty"`
	Stages  []OutlineStage `json:"stages"`
}

type OutlineStage struct {
	Name    string         `json:"name"`
	Flags   []string       `json:"flags,omitempty"`
	Entries []OutlineEntry `json:"entries"`
}

// OutlineEntry is either a spoken line (Kind "line") or a directive (Kind "directive").
type OutlineEntry struct {
	Kind      string            `json:"kind"`
	Speaker   string            `json:"speaker,omitempty"`
	Text      string            `json:"text,omitempty"`
	Responses []script.Response `json:"responses,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
	Directive string            `json:"directive,omitempty"`
	Count     *int              `json:"count,omitempty"`
	Target    string            `json:"target,omitempty"`
}

// BuildOutline captures the static structure of tl. Playback state is ignored.
func BuildOutline(tl *script.Timeline, source string) Outline {
	o := Outline{Version: OutlineVersion, Source: source, Stages: []OutlineStage{}}
	for _, st := range tl.Stages() {
		so := OutlineStage{Name: st.Name(), Flags: st.Flags(), Entries: []OutlineEntry{}}
		for _, e := range st.Entries() {
			so.Entries = append(so.Entries, outlineEntry(e))
		}
		o.Stages = append(o.Stages, so)
	}
	return o
}

func outlineEntry(e script.Entry) OutlineEntry {
	if e.Directive != nil {
		d := e.Directive
		out := OutlineEntry{Kind: "directive", Directive: d.Kind.String()}
		switch d.Kind {
		case script.DirectiveSkip:
			n := d.Count
			out.Count = &n
		case script.DirectiveGoto:
			out.Target = d.Target
		case script.DirectiveStart, script.DirectiveEnd:
		}
		return out
	}
	l := e.Line
	return OutlineEntry{
		Kind:      "line",
		Speaker:   l.Speaker(),
		Text:      l.Text(),
		Responses: l.Responses(),
		Tags:      l.Tags(),
	}
}

// ValidateOutline checks data against the embedded outline schema.
func ValidateOutline(data []byte) error {
	res, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(outlineSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate outline: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidOutline, strings.Join(msgs, "; "))
}

// WriteOutline encodes o as indented JSON, validates it and writes it to w.
func WriteOutline(w io.Writer, o Outline) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("encode outline: %w", err)
	}
	if err := ValidateOutline(data); err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write outline: %w", err)
	}
	return nil
}

// WriteOutlineFile writes o to path, creating parent directories as needed.
func WriteOutlineFile(path string, o Outline) error {
	var buf bytes.Buffer
	if err := WriteOutline(&buf, o); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write outline: %w", err)
	}
	return nil
}
