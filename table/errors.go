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
	"strings"
)

// ErrorKind classifies binding failures.
type ErrorKind int

const (
	MissingField ErrorKind = iota + 1
	AmbiguousField
	RowTooShort
	ConversionError
	DateParseError
	PaginationInvariantViolation
)

var errorKindNames = map[ErrorKind]string{
	MissingField:                 "MissingField",
	AmbiguousField:               "AmbiguousField",
	RowTooShort:                  "RowTooShort",
	ConversionError:              "ConversionError",
	DateParseError:               "DateParseError",
	PaginationInvariantViolation: "PaginationInvariantViolation",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the structured error produced while binding a table to records. Only
// the fields relevant to the Kind are set; Row is -1 when the failure is not
// tied to a particular row.
type Error struct {
	Kind    ErrorKind
	Row     int    // row index in the table
	Field   string // target record field
	Column  string // source column name
	Raw     string // offending raw cell value, verbatim
	Pattern string // date pattern, for DateParseError with an explicit format
	Needed  int    // RowTooShort: number of cells needed
	Actual  int    // RowTooShort: number of cells present
	Count   int64  // PaginationInvariantViolation: reported total
	Items   int    // PaginationInvariantViolation: actual number of items
	Reason  string
	Err     error // underlying cause, if any
}

var _ error = &Error{}

// NewError creates an Error of the given kind not tied to any row.
func NewError(kind ErrorKind, reason string, args ...interface{}) *Error {
	return &Error{Kind: kind, Row: -1, Reason: fmt.Sprintf(reason, args...)}
}

// Error implements error.
func (e *Error) Error() string {
	var parts []string
	if e.Row >= 0 {
		parts = append(parts, fmt.Sprintf("row %d", e.Row))
	}
	switch {
	case e.Field != "" && e.Column != "" && e.Field != e.Column:
		parts = append(parts, fmt.Sprintf("field %s (column %q)", e.Field, e.Column))
	case e.Field != "":
		parts = append(parts, "field "+e.Field)
	case e.Column != "":
		parts = append(parts, fmt.Sprintf("column %q", e.Column))
	}
	msg := e.Kind.String()
	if len(parts) > 0 {
		msg += " at " + strings.Join(parts, ", ")
	}
	switch e.Kind {
	case RowTooShort:
		msg += fmt.Sprintf(": needed %d cells, found %d", e.Needed, e.Actual)
	case PaginationInvariantViolation:
		msg += fmt.Sprintf(": count %d < %d items", e.Count, e.Items)
	}
	if e.Pattern != "" {
		msg += fmt.Sprintf(": pattern %q", e.Pattern)
	}
	if e.Raw != "" {
		msg += fmt.Sprintf(": value %q", e.Raw)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// AsError extracts *Error from err, following Unwrap() chains.
func AsError(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsKind checks whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}
