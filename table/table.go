// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/stockparfait/errors"
)

// Row interface that a printable table row must implement.
type Row interface {
	CSV() []string // an encoding/csv compatible row representation
}

// Cells is a Row of already formatted cells.
type Cells []string

var _ Row = Cells{}

// CSV implements Row.
func (c Cells) CSV() []string { return c }

// Table is a printable table. It is the display form of both raw responses and
// decoded records.
type Table struct {
	Header []string // optional, may be nil
	Rows   []Row
}

// NewTable creates a new Table with optional column headers. When present, the
// number of headers must match the number of cells in each Row.
func NewTable(header ...string) *Table {
	return &Table{Header: header}
}

// AddRow adds one or more rows to the table.
func (t *Table) AddRow(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Params are parameters for pretty-printing or CSV export of Table data.
type Params struct {
	Rows        int  // max. number of rows to write; 0 = unlimited (default)
	NoHeader    bool // whether to print the header, default - yes
	MaxColWidth int  // for WriteText only; 0 = unlimited, otherwise must be >= 4
}

func (t *Table) hasHeader(p Params) bool {
	return !p.NoHeader && len(t.Header) > 0
}

// rows returns at most p.Rows rows, in CSV form.
func (t *Table) rows(p Params) [][]string {
	n := len(t.Rows)
	if p.Rows > 0 && p.Rows < n {
		n = p.Rows
	}
	res := make([][]string, n)
	for i := range res {
		res[i] = t.Rows[i].CSV()
	}
	return res
}

// WriteCSV writes the table to w in CSV format.
func (t *Table) WriteCSV(w io.Writer, p Params) error {
	cw := csv.NewWriter(w)
	if t.hasHeader(p) {
		if err := cw.Write(t.Header); err != nil {
			return errors.Annotate(err, "failed to write header")
		}
	}
	for i, r := range t.rows(p) {
		if err := cw.Write(r); err != nil {
			return errors.Annotate(err, "failed to write row %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Annotate(err, "failed to flush written rows")
	}
	return nil
}

// columnWidths computes the display width of each column in runes, capped at
// maxWidth when it's positive.
func columnWidths(lines [][]string, maxWidth int) ([]int, error) {
	var widths []int
	for _, line := range lines {
		if len(line) == 0 {
			return nil, errors.Reason("row size = 0")
		}
		if widths == nil {
			widths = make([]int, len(line))
		}
		if len(line) != len(widths) {
			return nil, errors.Reason("row size [%d] != expected size [%d]",
				len(line), len(widths))
		}
		for i, s := range line {
			n := utf8.RuneCountInString(s)
			if maxWidth > 0 && n > maxWidth {
				n = maxWidth
			}
			if widths[i] < n {
				widths[i] = n
			}
		}
	}
	return widths, nil
}

// padCell right-aligns s in a column of the given width, eliding the tail of
// the values that don't fit.
func padCell(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		r = append(r[:width-2], '.', '.')
	}
	return strings.Repeat(" ", width-len(r)) + string(r)
}

// WriteText writes the table as a text formatted for ease of reading.
func (t *Table) WriteText(w io.Writer, p Params) error {
	if p.MaxColWidth != 0 && p.MaxColWidth < 4 {
		return errors.Reason("MaxColWidth [%d] must be 0 or >= 4", p.MaxColWidth)
	}
	var lines [][]string
	if t.hasHeader(p) {
		lines = append(lines, t.Header)
	}
	lines = append(lines, t.rows(p)...)
	widths, err := columnWidths(lines, p.MaxColWidth)
	if err != nil {
		return errors.Annotate(err, "failed to compute column widths")
	}
	if t.hasHeader(p) {
		sep := make([]string, len(widths))
		for i, n := range widths {
			sep[i] = strings.Repeat("-", n)
		}
		lines = append([][]string{lines[0], sep}, lines[1:]...)
	}
	for i, line := range lines {
		padded := make([]string, len(line))
		for j, s := range line {
			padded[j] = padCell(s, widths[j])
		}
		if _, err := fmt.Fprintf(w, "%s\n", strings.Join(padded, " | ")); err != nil {
			return errors.Annotate(err, "failed to write line %d", i)
		}
	}
	return nil
}
