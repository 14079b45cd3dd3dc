// Package table renders rows of text as an ASCII box table. Cells may carry
// ANSI color sequences; they are ignored when measuring column widths.
package table

import (
	"io"
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Alignment controls how a cell is padded within its column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

var ansiPattern = regexp.MustCompile("\x1b\\[[0-9;]*m")

func stripAnsi(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func visibleWidth(s string) int {
	return runewidth.StringWidth(stripAnsi(s))
}

// Table accumulates a header and rows and writes them on Render.
type Table struct {
	writer      io.Writer
	header      []string
	rows        [][]string
	align       []Alignment
	headerAlign []Alignment
}

// NewTable returns an empty table that renders to writer.
func NewTable(writer io.Writer) *Table {
	return &Table{writer: writer}
}

// WithHeader sets the header row.
func (t *Table) WithHeader(header []string) *Table {
	t.header = header
	return t
}

// WithColumnAlignment sets the alignment of body cells per column. Columns
// without an entry are left aligned.
func (t *Table) WithColumnAlignment(align []Alignment) *Table {
	t.align = align
	return t
}

// WithHeaderAlignment sets the alignment of header cells per column.
func (t *Table) WithHeaderAlignment(align []Alignment) *Table {
	t.headerAlign = align
	return t
}

// WithRows appends rows to the body.
func (t *Table) WithRows(rows [][]string) *Table {
	t.rows = append(t.rows, rows...)
	return t
}

// Append adds one row to the body.
func (t *Table) Append(row []string) *Table {
	t.rows = append(t.rows, row)
	return t
}

func (t *Table) widths() []int {
	n := len(t.header)
	for _, row := range t.rows {
		if len(row) > n {
			n = len(row)
		}
	}
	widths := make([]int, n)
	measure := func(row []string) {
		for i, cell := range row {
			if w := visibleWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.header)
	for _, row := range t.rows {
		measure(row)
	}
	return widths
}

func pad(cell string, width int, align Alignment) string {
	gap := width - visibleWidth(cell)
	if gap <= 0 {
		return cell
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + cell
	case AlignCenter:
		left := gap - gap/2
		return strings.Repeat(" ", left) + cell + strings.Repeat(" ", gap-left)
	default:
		return cell + strings.Repeat(" ", gap)
	}
}

func alignmentAt(align []Alignment, i int) Alignment {
	if i < len(align) {
		return align[i]
	}
	return AlignLeft
}

// Render writes the table. Write errors are reported by the underlying
// writer only; the table itself cannot fail.
func (t *Table) Render() {
	widths := t.widths()
	var sb strings.Builder
	separator := func() {
		sb.WriteByte('+')
		for _, w := range widths {
			sb.WriteString(strings.Repeat("-", w+2))
			sb.WriteByte('+')
		}
		sb.WriteByte('\n')
	}
	line := func(row []string, align []Alignment) {
		sb.WriteByte('|')
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			sb.WriteByte(' ')
			sb.WriteString(pad(cell, w, alignmentAt(align, i)))
			sb.WriteString(" |")
		}
		sb.WriteByte('\n')
	}

	separator()
	if len(t.header) > 0 {
		line(t.header, t.headerAlign)
		separator()
	}
	for _, row := range t.rows {
		line(row, t.align)
	}
	if len(t.rows) > 0 {
		separator()
	}
	io.WriteString(t.writer, sb.String())
}
