/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package catalog keeps an embedded SQLite index of the dialogue scripts found
// under a directory. The index lives at <dir>/.gamedialog/catalog.sqlite by
// default and is derived from the *.dlg files, so it can be rebuilt at will.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "gamedialog/internal/log"
	"gamedialog/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	DirName  = ".gamedialog"
	FileName = "catalog.sqlite"

	// schemaVersion tracks the catalog schema. Bump it together with a migration step.
	schemaVersion = 2
)

// ErrNoRoot is returned when no directory or database path was given.
var ErrNoRoot = errors.New("catalog root is required")

// Path returns the default catalog location for scripts under root.
func Path(root string) string {
	return filepath.Join(root, DirName, FileName)
}

// Open creates or opens the catalog database at path, enables WAL mode and
// brings the schema up to date.
func Open(path string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("catalog"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoRoot
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create catalog dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}
	for _, step := range []func(context.Context, *sql.DB) error{ensureVersion, ensureSchema, migrate} {
		if err := step(ctx, db); err != nil {
			_ = db.Close()
			l.Error("prepare catalog failed", slog.Any("err", err))
			return nil, err
		}
	}
	l.Debug("catalog ready")
	return db, nil
}

func ensureVersion(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS version (
		id          INTEGER PRIMARY KEY CHECK(id=1),
		schema      INTEGER NOT NULL,
		app         TEXT,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);`); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`,
			schemaVersion, version.String(), now, now)
		if err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS scripts (
			id          INTEGER PRIMARY KEY,
			path        TEXT    NOT NULL UNIQUE,
			stages      INTEGER NOT NULL,
			lines       INTEGER NOT NULL,
			diagnostics INTEGER NOT NULL,
			indexed_at  TEXT    NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stages (
			script_id INTEGER NOT NULL,
			ord       INTEGER NOT NULL,
			name      TEXT    NOT NULL,
			flags     TEXT    NOT NULL,
			lines     INTEGER NOT NULL,
			PRIMARY KEY(script_id, ord),
			FOREIGN KEY(script_id) REFERENCES scripts(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS lines (
			id        INTEGER PRIMARY KEY,
			script_id INTEGER NOT NULL,
			stage     TEXT    NOT NULL,
			ord       INTEGER NOT NULL,
			speaker   TEXT    NOT NULL,
			text      TEXT    NOT NULL,
			tags      TEXT    NOT NULL,
			FOREIGN KEY(script_id) REFERENCES scripts(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lines_script ON lines(script_id, stage);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure catalog schema: %w", err)
		}
	}
	return nil
}

// migrate applies incremental steps up to schemaVersion. Newer databases are left alone.
func migrate(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for ; cur < schemaVersion; cur++ {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{`CREATE INDEX IF NOT EXISTS idx_lines_speaker ON lines(speaker);`}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		stmts = append(stmts, fmt.Sprintf(`UPDATE version SET schema=%d, updated_at='%s' WHERE id=1`,
			next, time.Now().UTC().Format(time.RFC3339)))
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", next, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
	}
	return nil
}
