// Package report renders snippet history as a PDF document.
package report

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"daily-spark/internal/analytics"
	"daily-spark/internal/failure"
	"daily-spark/internal/storage"
)

const (
	Title = "Motivational Snippet History"

	// SeparatorEvery is the number of entries between separator lines.
	SeparatorEvery = 5

	momentFormat = "02/01/2006 15:04"
	emptyText    = "(empty)"
	invalidDate  = "invalid date"
)

type LineKind int

const (
	Entry LineKind = iota
	Separator
)

type Line struct {
	Kind LineKind
	Text string
}

// Layout turns records into report body lines: one entry per record and a
// separator after every SeparatorEvery entries.
func Layout(records []storage.Record) []Line {
	out := make([]Line, 0, len(records)+len(records)/SeparatorEvery)
	for i, r := range records {
		text := Sanitize(r.Text)
		if text == "" {
			text = emptyText
		}
		out = append(out, Line{Kind: Entry, Text: fmt.Sprintf("%s - [%s] %s", FormatMoment(r), r.Origin, text)})
		if (i+1)%SeparatorEvery == 0 {
			out = append(out, Line{Kind: Separator})
		}
	}
	return out
}

// FormatMoment prints the record's moment. A raw textual moment gets one
// parse attempt and is otherwise printed verbatim.
func FormatMoment(r storage.Record) string {
	if !r.Timestamp.IsZero() {
		return r.Timestamp.Format(momentFormat)
	}
	raw := strings.TrimSpace(r.RawTimestamp)
	if raw == "" {
		return invalidDate
	}
	head, _, _ := strings.Cut(raw, ".")
	if t, err := time.Parse("2006-01-02T15:04:05", strings.Replace(head, " ", "T", 1)); err == nil {
		return t.Format(momentFormat)
	}
	return raw
}

// Sanitize drops symbols and pictographs and anything else the core PDF
// fonts (Windows-1252) cannot draw.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.So, r) {
			continue
		}
		if r == '\n' || r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if _, ok := charmap.Windows1252.EncodeRune(r); !ok {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// cp1252 converts already sanitized text to the bytes fpdf core fonts expect.
func cp1252(s string) string {
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			buf = append(buf, c)
		}
	}
	return string(buf)
}

type Renderer struct {
	dir string
}

// New returns a renderer writing into dir; empty dir means the OS temp dir.
func New(dir string) *Renderer {
	return &Renderer{dir: dir}
}

// Render writes the report to a new temporary file and returns its path.
// The caller owns the file.
func (r *Renderer) Render(ctx context.Context, records []storage.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", failure.Wrap("render", failure.Internal, err)
	}
	if r.dir != "" {
		if err := os.MkdirAll(r.dir, 0o755); err != nil {
			return "", failure.Wrap("render", failure.Internal, err)
		}
	}
	f, err := os.CreateTemp(r.dir, "history-*.pdf")
	if err != nil {
		return "", failure.Wrap("render", failure.Internal, fmt.Errorf("create temp: %w", err))
	}
	path := f.Name()
	_ = f.Close()

	pdf := build(records)
	if err := pdf.OutputFileAndClose(path); err != nil {
		_ = os.Remove(path)
		return "", failure.Wrap("render", failure.Internal, fmt.Errorf("write pdf: %w", err))
	}
	return path, nil
}

func build(records []storage.Record) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(Title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, cp1252(Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, cp1252(analytics.Summarize(records).String()), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	for _, ln := range Layout(records) {
		switch ln.Kind {
		case Entry:
			pdf.MultiCell(0, 10, cp1252(ln.Text), "", "", false)
			pdf.Ln(3)
		case Separator:
			y := pdf.GetY()
			pdf.Line(10, y, 200, y)
			pdf.Ln(3)
		}
	}
	return pdf
}
