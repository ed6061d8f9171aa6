/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"gamedialog/internal/script"
)

// ErrPageSize is returned for page sizes gofpdf does not know.
var ErrPageSize = errors.New("unsupported page size")

// PDFOptions controls the transcript layout. Units are points.
type PDFOptions struct {
	Title    string
	PageSize string  // A3, A4, A5, Letter or Legal; empty means A4
	FontSize float64 // body size; headings scale from it
}

var pageSizes = map[string]string{
	"a3": "A3", "a4": "A4", "a5": "A5", "letter": "Letter", "legal": "Legal",
}

const margin = 48.0

// WritePDF renders every stage of tl as a section: header with flags, then
// speaker lines with their responses and tags, and directives in italics.
func WritePDF(w io.Writer, tl *script.Timeline, opt PDFOptions) error {
	size := "A4"
	if opt.PageSize != "" {
		s, ok := pageSizes[strings.ToLower(opt.PageSize)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrPageSize, opt.PageSize)
		}
		size = s
	}
	fs := opt.FontSize
	if fs <= 0 {
		fs = 11
	}
	lh := fs * 1.4

	pdf := gofpdf.New("P", "pt", size, "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("gamedialog", false)
	pdf.AddPage()

	if opt.Title != "" {
		pdf.SetFont("Helvetica", "B", fs*1.8)
		pdf.MultiCell(0, fs*2.2, tr(opt.Title), "", "L", false)
		pdf.Ln(fs)
	}

	for _, st := range tl.Stages() {
		pdf.SetFont("Helvetica", "B", fs*1.3)
		pdf.SetTextColor(0, 0, 0)
		head := "[" + st.Name() + "]"
		if fl := st.Flags(); len(fl) > 0 {
			head += "  requires " + strings.Join(fl, ", ")
		}
		pdf.MultiCell(0, lh*1.2, tr(head), "B", "L", false)
		pdf.Ln(fs * 0.4)

		for _, e := range st.Entries() {
			if e.Directive != nil {
				pdf.SetFont("Helvetica", "I", fs)
				pdf.SetTextColor(110, 110, 110)
				pdf.MultiCell(0, lh, tr(directiveText(*e.Directive)), "", "L", false)
				pdf.SetTextColor(0, 0, 0)
				continue
			}
			writeLine(pdf, tr, e.Line, fs, lh)
		}
		pdf.Ln(fs)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func writeLine(pdf *gofpdf.Fpdf, tr func(string) string, l *script.Line, fs, lh float64) {
	pdf.SetFont("Helvetica", "B", fs)
	sp := tr(l.Speaker() + ": ")
	pdf.Write(lh, sp)
	pdf.SetFont("Helvetica", "", fs)
	pdf.Write(lh, tr(l.Text()))
	pdf.Ln(lh)

	left, _, _, _ := pdf.GetMargins()
	for i, r := range l.Responses() {
		pdf.SetX(left + fs*2)
		pdf.MultiCell(0, lh, tr(fmt.Sprintf("%d. %s  -> %s", i+1, r.Label, r.Target)), "", "L", false)
	}
	if tags := l.Tags(); len(tags) > 0 {
		pdf.SetFont("Courier", "", fs*0.85)
		pdf.SetX(left + fs*2)
		pdf.MultiCell(0, lh, tr("@"+strings.Join(tags, "  @")), "", "L", false)
	}
}

func directiveText(d script.Directive) string {
	switch d.Kind {
	case script.DirectiveStart:
		return "(restart from the first stage)"
	case script.DirectiveEnd:
		return "(end of dialogue)"
	case script.DirectiveSkip:
		return fmt.Sprintf("(skip %d stage(s))", d.Count)
	case script.DirectiveGoto:
		return "(go to " + d.Target + ")"
	}
	return d.String()
}

// WritePDFFile writes the transcript to outPath, creating parent directories.
func WritePDFFile(outPath string, tl *script.Timeline, opt PDFOptions) (err error) {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close pdf: %w", cerr)
		}
	}()
	return WritePDF(f, tl, opt)
}
