/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// DefaultLimit caps Search results when no limit is given.
const DefaultLimit = 50

type ScriptInfo struct {
	Path        string
	Stages      int
	Lines       int
	Diagnostics int
	IndexedAt   string
}

type StageInfo struct {
	Name  string
	Flags []string
	Lines int
}

// Hit is one dialogue line matching a search.
type Hit struct {
	Script  string
	Stage   string
	Ord     int
	Speaker string
	Text    string
}

// Scripts lists the indexed scripts ordered by path.
func Scripts(ctx context.Context, db *sql.DB) ([]ScriptInfo, error) {
	rows, err := db.QueryContext(ctx, `SELECT path, stages, lines, diagnostics, indexed_at FROM scripts ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query scripts: %w", err)
	}
	defer rows.Close()
	var out []ScriptInfo
	for rows.Next() {
		var s ScriptInfo
		if err := rows.Scan(&s.Path, &s.Stages, &s.Lines, &s.Diagnostics, &s.IndexedAt); err != nil {
			return nil, fmt.Errorf("scan script: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Stages returns the stages of one script in file order. Unknown scripts yield no rows.
func Stages(ctx context.Context, db *sql.DB, scriptPath string) ([]StageInfo, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT st.name, st.flags, st.lines
		FROM stages st JOIN scripts s ON s.id = st.script_id
		WHERE s.path = ?
		ORDER BY st.ord`, scriptPath)
	if err != nil {
		return nil, fmt.Errorf("query stages: %w", err)
	}
	defer rows.Close()
	var out []StageInfo
	for rows.Next() {
		var (
			si    StageInfo
			flags string
		)
		if err := rows.Scan(&si.Name, &flags, &si.Lines); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		if flags != "" {
			si.Flags = strings.Split(flags, ",")
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

// Search finds lines whose text or speaker contains query, ignoring ASCII case.
// An empty query matches nothing. limit <= 0 means DefaultLimit.
func Search(ctx context.Context, db *sql.DB, query string, limit int) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	pat := "%" + escapeLike(query) + "%"
	rows, err := db.QueryContext(ctx, `
		SELECT s.path, l.stage, l.ord, l.speaker, l.text
		FROM lines l JOIN scripts s ON s.id = l.script_id
		WHERE l.text LIKE ? ESCAPE '\' OR l.speaker LIKE ? ESCAPE '\'
		ORDER BY s.path, l.id
		LIMIT ?`, pat, pat, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()
	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.Script, &h.Stage, &h.Ord, &h.Speaker, &h.Text); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
