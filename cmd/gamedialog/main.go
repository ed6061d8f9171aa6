/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"gamedialog/internal/catalog"
	"gamedialog/internal/config"
	"gamedialog/internal/crash"
	"gamedialog/internal/export"
	"gamedialog/internal/flags"
	applog "gamedialog/internal/log"
	"gamedialog/internal/player"
	"gamedialog/internal/script"
	"gamedialog/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "gamedialog - branching dialogue compiler and player")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  gamedialog version|-v|--version          Show version")
	fmt.Fprintln(w, "  gamedialog stages <file>                 List stage names")
	fmt.Fprintln(w, "  gamedialog check <file>                  Print dropped lines; exit 1 if any")
	fmt.Fprintln(w, "  gamedialog play <file> [options]         Play a script (-tui, -flag name, -prelude file.lua)")
	fmt.Fprintln(w, "  gamedialog outline <file> [out.json]     Write the JSON outline")
	fmt.Fprintln(w, "  gamedialog pdf <file> <out.pdf>          Write a PDF transcript")
	fmt.Fprintln(w, "  gamedialog index <dir>                   Index *.dlg files under <dir>")
	fmt.Fprintln(w, "  gamedialog search <dir> <query>          Search indexed dialogue")
}

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

type app struct {
	cfg    config.AppConfig
	log    *slog.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, cfgErr := config.Load()
	applog.Init(cfg.Logging.LogOptions())
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	defer crash.Recover(argAt(args, 2))

	l.Debug("start", slog.Int("args", len(args)))
	a := &app{cfg: cfg, log: l, stdin: stdin, stdout: stdout, stderr: stderr}
	if len(args) < 2 {
		usage(stdout)
		return 0
	}

	var err error
	switch args[1] {
	case "version", "--version", "-v":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "-h", "--help":
		usage(stdout)
		return 0
	case "stages":
		err = a.need(args, 1, a.stages)
	case "check":
		err = a.need(args, 1, a.check)
	case "play":
		err = a.play(args[2:])
	case "outline":
		err = a.need(args, 1, a.outline)
	case "pdf":
		err = a.need(args, 2, a.pdf)
	case "index":
		err = a.need(args, 1, a.index)
	case "search":
		err = a.need(args, 2, a.search)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[1])
		usage(stderr)
		return 2
	}

	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		fmt.Fprintln(stderr, ue.Error())
		usage(stderr)
		return 2
	case errors.Is(err, errDiagnostics):
		return 1
	default:
		l.Error("command failed", slog.String("cmd", args[1]), slog.Any("err", err))
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

var errDiagnostics = errors.New("script has diagnostics")

func argAt(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

// need checks that at least n operands follow the command name.
func (a *app) need(args []string, n int, fn func([]string) error) error {
	rest := args[2:]
	if len(rest) < n {
		return usageError(fmt.Sprintf("%s requires %d argument(s)", args[1], n))
	}
	return fn(rest)
}

func (a *app) compile(path string, opts ...script.Option) (*script.Timeline, []script.Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read script: %w", err)
	}
	opts = append([]script.Option{script.WithMaxHops(a.cfg.Playback.MaxHops)}, opts...)
	tl, diags := script.Compile(string(data), opts...)
	return tl, diags, nil
}

func (a *app) stages(args []string) error {
	tl, _, err := a.compile(args[0])
	if err != nil {
		return err
	}
	for _, name := range tl.AllStages() {
		fmt.Fprintln(a.stdout, name)
	}
	return nil
}

func (a *app) check(args []string) error {
	tl, diags, err := a.compile(args[0])
	if err != nil {
		return err
	}
	for _, d := range diags {
		fmt.Fprintf(a.stdout, "%s:%s\n", args[0], d.Error())
	}
	if len(diags) > 0 {
		fmt.Fprintf(a.stdout, "%d line(s) dropped\n", len(diags))
		return errDiagnostics
	}
	fmt.Fprintf(a.stdout, "ok: %d stage(s)\n", tl.Len())
	return nil
}

type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

func (a *app) play(args []string) error {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	pc := a.cfg.Playback
	tui := fs.Bool("tui", pc.TUI, "interactive terminal UI")
	plain := fs.Bool("plain", false, "disable colors in text mode")
	prelude := fs.String("prelude", pc.Prelude, "Lua file defining tag functions and state")
	set := multiFlag(append([]string(nil), pc.Flags...))
	fs.Var(&set, "flag", "global set to true before playback (repeatable)")

	var path string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if path == "" {
		path = fs.Arg(0)
	}
	if path == "" {
		return usageError("play requires a script file")
	}

	ev := flags.New(set...)
	if *prelude != "" {
		if err := ev.LoadPrelude(*prelude); err != nil {
			return err
		}
	}
	tl, diags, err := a.compile(path, script.WithPrecheck(ev.Predicate))
	if err != nil {
		return err
	}
	if len(diags) > 0 {
		a.log.Warn("script has dropped lines", slog.String("script", path), slog.Int("count", len(diags)))
	}
	s := player.NewSession(tl, player.Options{Tags: ev, HistoryDepth: pc.HistoryDepth})
	a.log.Info("playback started", slog.String("script", path), slog.String("session", s.ID))

	if *tui {
		return player.RunTUI(s, player.DefaultStyles(), tea.WithInput(a.stdin), tea.WithOutput(a.stdout))
	}
	st := player.DefaultStyles()
	if *plain {
		st = player.PlainStyles()
	}
	return player.RunText(s, st, a.stdin, a.stdout)
}

func (a *app) outline(args []string) error {
	tl, _, err := a.compile(args[0])
	if err != nil {
		return err
	}
	o := export.BuildOutline(tl, filepath.Base(args[0]))
	if len(args) > 1 {
		if err := export.WriteOutlineFile(args[1], o); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Wrote", args[1])
		return nil
	}
	return export.WriteOutline(a.stdout, o)
}

func (a *app) pdf(args []string) error {
	tl, _, err := a.compile(args[0])
	if err != nil {
		return err
	}
	opt := export.PDFOptions{
		Title:    strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0])),
		PageSize: a.cfg.Export.PageSize,
		FontSize: a.cfg.Export.FontSize,
	}
	if err := export.WritePDFFile(args[1], tl, opt); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "Wrote", args[1])
	return nil
}

func (a *app) openCatalog(dir string) (*sql.DB, error) {
	path := a.cfg.Catalog.DBPath
	if path == "" {
		path = catalog.Path(dir)
	}
	return catalog.Open(path)
}

func (a *app) index(args []string) error {
	db, err := a.openCatalog(args[0])
	if err != nil {
		return err
	}
	defer db.Close()
	sum, err := catalog.IndexDir(context.Background(), db, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Indexed %d script(s), %d stage(s), %d line(s); %d line(s) dropped\n",
		sum.Scripts, sum.Stages, sum.Lines, sum.Diagnostics)
	return nil
}

func (a *app) search(args []string) error {
	db, err := a.openCatalog(args[0])
	if err != nil {
		return err
	}
	defer db.Close()
	hits, err := catalog.Search(context.Background(), db, strings.Join(args[1:], " "), 0)
	if err != nil {
		return err
	}
	for _, h := range hits {
		fmt.Fprintf(a.stdout, "%s [%s] %s: %s\n", h.Script, h.Stage, h.Speaker, h.Text)
	}
	if len(hits) == 0 {
		fmt.Fprintln(a.stdout, "no matches")
	}
	return nil
}
