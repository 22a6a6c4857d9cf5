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
	"fmt"
	"strconv"
)

// Value is a single dynamically typed cell: nil, string, bool, a number
// (json.Number when decoded from JSON, or any Go numeric type) or []byte.
type Value = interface{}

// Response is an untyped table as delivered by a data source: ordered column
// names and rows of cells aligned positionally with the columns.
//
// Rows are not guaranteed to have the same length as Fields; consumers must
// check with ValueAt.
type Response struct {
	Fields  []string
	Items   [][]Value
	HasMore bool
	Count   int64 // total number of records across pages; < 0 if unknown
}

// NewResponse creates a Response with an unreported total.
func NewResponse(fields []string, items ...[]Value) *Response {
	return &Response{Fields: fields, Items: items, Count: -1}
}

// Len is the number of rows in the response.
func (r *Response) Len() int { return len(r.Items) }

// Index builds the column index of the response.
func (r *Response) Index() (*Index, error) {
	return NewIndex(r.Fields)
}

// Validate checks the table shape: unique column names and no row shorter than
// the header. Longer rows are accepted.
func (r *Response) Validate() error {
	if _, err := r.Index(); err != nil {
		return err
	}
	for i, row := range r.Items {
		if len(row) < len(r.Fields) {
			return &Error{
				Kind:   RowTooShort,
				Row:    i,
				Needed: len(r.Fields),
				Actual: len(row),
			}
		}
	}
	return nil
}

// Table renders the raw cells of the response for display.
func (r *Response) Table() *Table {
	t := NewTable(r.Fields...)
	for _, row := range r.Items {
		cells := make(Cells, len(r.Fields))
		for i := range cells {
			if i < len(row) {
				cells[i] = FormatValue(row[i])
			}
		}
		t.AddRow(cells)
	}
	return t
}

// FormatValue prints a cell value in its natural textual form. nil is printed
// as an empty string.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
