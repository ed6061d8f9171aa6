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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	applog "gamedialog/internal/log"
	"gamedialog/internal/script"
)

// Ext is the file extension of indexed scripts.
const Ext = ".dlg"

// Summary reports what IndexDir stored.
type Summary struct {
	Scripts     int
	Stages      int
	Lines       int
	Diagnostics int
}

// IndexDir compiles every *.dlg file under dir and replaces the catalog
// contents with the result in one transaction. Paths are stored relative to
// dir with forward slashes. Hidden directories are skipped.
func IndexDir(ctx context.Context, db *sql.DB, dir string) (Summary, error) {
	l := applog.WithOperation(applog.WithComponent("catalog"), "index").With(slog.String("dir", dir))
	if strings.TrimSpace(dir) == "" {
		return Summary{}, ErrNoRoot
	}
	files, err := scriptFiles(dir)
	if err != nil {
		return Summary{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{`DELETE FROM lines;`, `DELETE FROM stages;`, `DELETE FROM scripts;`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return Summary{}, fmt.Errorf("clear catalog: %w", err)
		}
	}

	var sum Summary
	now := time.Now().UTC().Format(time.RFC3339)
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return Summary{}, fmt.Errorf("read %s: %w", rel, err)
		}
		tl, diags := script.Compile(string(data), script.WithLogger(l))
		n, err := insertScript(ctx, tx, rel, now, tl, len(diags))
		if err != nil {
			return Summary{}, err
		}
		sum.Scripts++
		sum.Stages += tl.Len()
		sum.Lines += n
		sum.Diagnostics += len(diags)
		if len(diags) > 0 {
			l.Warn("script has diagnostics", slog.String("script", rel), slog.Int("count", len(diags)))
		}
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit: %w", err)
	}
	l.Info("catalog indexed", slog.Int("scripts", sum.Scripts), slog.Int("stages", sum.Stages), slog.Int("lines", sum.Lines))
	return sum, nil
}

func insertScript(ctx context.Context, tx *sql.Tx, rel, now string, tl *script.Timeline, diags int) (int, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO scripts(path, stages, lines, diagnostics, indexed_at) VALUES(?, 0, 0, ?, ?)`, rel, diags, now)
	if err != nil {
		return 0, fmt.Errorf("insert script %s: %w", rel, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("script id: %w", err)
	}
	total := 0
	for ord, st := range tl.Stages() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO stages(script_id, ord, name, flags, lines) VALUES(?, ?, ?, ?, ?)`,
			id, ord, st.Name(), strings.Join(st.Flags(), ","), st.LineCount()); err != nil {
			return 0, fmt.Errorf("insert stage %s: %w", st.Name(), err)
		}
		i := 0
		for _, e := range st.Entries() {
			if e.Line == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO lines(script_id, stage, ord, speaker, text, tags) VALUES(?, ?, ?, ?, ?, ?)`,
				id, st.Name(), i, e.Line.Speaker(), e.Line.Text(), strings.Join(e.Line.Tags(), " ")); err != nil {
				return 0, fmt.Errorf("insert line: %w", err)
			}
			i++
		}
		total += i
	}
	if _, err := tx.ExecContext(ctx, `UPDATE scripts SET stages=?, lines=? WHERE id=?`, tl.Len(), total, id); err != nil {
		return 0, fmt.Errorf("update script %s: %w", rel, err)
	}
	return total, nil
}

func scriptFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), Ext) {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(out)
	return out, nil
}
