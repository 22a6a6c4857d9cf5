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

// Index maps column names to their positions. It is built once per table.
type Index struct {
	fields []string
	byName map[string]int
}

// NewIndex creates an Index of the column names. A name occurring more than
// once is an AmbiguousField error.
func NewIndex(fields []string) (*Index, error) {
	byName := make(map[string]int, len(fields))
	for i, f := range fields {
		if _, ok := byName[f]; ok {
			return nil, &Error{
				Kind:   AmbiguousField,
				Row:    -1,
				Column: f,
				Reason: "duplicate column name",
			}
		}
		byName[f] = i
	}
	return &Index{fields: fields, byName: byName}, nil
}

// Len is the number of columns.
func (x *Index) Len() int { return len(x.fields) }

// Fields returns the column names in order.
func (x *Index) Fields() []string {
	return append([]string(nil), x.fields...)
}

// Lookup returns the position of the column, if present.
func (x *Index) Lookup(name string) (int, bool) {
	i, ok := x.byName[name]
	return i, ok
}

// IndexOf returns the position of the column, or a MissingField error.
func (x *Index) IndexOf(name string) (int, error) {
	i, ok := x.byName[name]
	if !ok {
		return -1, &Error{Kind: MissingField, Row: -1, Column: name}
	}
	return i, nil
}

// ValueAt returns the cell at the given column index, or a RowTooShort error
// when the row doesn't have that many cells. rowIndex is for error reporting.
func ValueAt(row []Value, rowIndex, index int) (Value, error) {
	if index >= len(row) {
		return nil, &Error{
			Kind:   RowTooShort,
			Row:    rowIndex,
			Needed: index + 1,
			Actual: len(row),
		}
	}
	return row[index], nil
}
