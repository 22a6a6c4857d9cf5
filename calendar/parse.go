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

package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/stockparfait/errors"
)

// Format is a compiled strftime pattern, e.g. "%d/%m/%Y".
type Format struct {
	Pattern string // the original strftime pattern
	layout  string // the equivalent Go time layout
}

// NewFormat compiles a strftime pattern into a Format.
func NewFormat(pattern string) (*Format, error) {
	if pattern == "" {
		return nil, errors.Reason("date format pattern is empty")
	}
	layout, err := strftime.Layout(pattern)
	if err != nil {
		return nil, errors.Annotate(err, "unsupported date format '%s'", pattern)
	}
	return &Format{Pattern: pattern, layout: layout}, nil
}

// Layout is the Go time layout equivalent to the pattern.
func (f *Format) Layout() string { return f.layout }

func (f *Format) parse(s string) (time.Time, error) {
	return time.ParseInLocation(f.layout, s, time.UTC)
}

// candidate is one entry of a parsing cascade.
type candidate struct {
	pattern string // strftime form, for error reporting
	layout  string
}

// The cascades are tried in order and the first match wins, so the order must
// not change.
var (
	dateCascade = []candidate{
		{"%Y%m%d", "20060102"},
		{"%Y-%m-%d", "2006-01-02"},
		{"%Y/%m/%d", "2006/01/02"},
	}
	datetimeCascade = append([]candidate{
		{"%Y%m%d %H:%M:%S", "20060102 15:04:05"},
		{"%Y-%m-%d %H:%M:%S", "2006-01-02 15:04:05"},
		{"%Y/%m/%d %H:%M:%S", "2006/01/02 15:04:05"},
		{"%Y-%m-%dT%H:%M:%S", "2006-01-02T15:04:05"},
	}, dateCascade...)
	utcCascade = append([]candidate{
		{"%Y-%m-%dT%H:%M:%S%z", time.RFC3339},
	}, datetimeCascade...)
)

func patterns(cs []candidate) []string {
	res := make([]string, len(cs))
	for i, c := range cs {
		res[i] = c.pattern
	}
	return res
}

// DateCascade lists the patterns tried for a date without an explicit format.
func DateCascade() []string { return patterns(dateCascade) }

// DatetimeCascade lists the patterns tried for a date-time without an explicit
// format.
func DatetimeCascade() []string { return patterns(datetimeCascade) }

// UTCCascade lists the patterns tried for a UTC date-time without an explicit
// format.
func UTCCascade() []string { return patterns(utcCascade) }

// ParseError reports a value which matched neither the explicit pattern nor
// any of the cascade candidates.
type ParseError struct {
	Value   string
	Pattern string   // explicit pattern; empty when the cascade was used
	Tried   []string // cascade patterns, in the order tried
	Err     error    // the last parsing error
}

var _ error = &ParseError{}

func (e *ParseError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("'%s' does not match pattern '%s'", e.Value, e.Pattern)
	}
	return fmt.Sprintf("'%s' matches none of the formats: %s",
		e.Value, strings.Join(e.Tried, ", "))
}

func (e *ParseError) Unwrap() error { return e.Err }

// parse interprets s in UTC with the explicit format f when not nil, otherwise
// with the first matching candidate.
func parse(s string, f *Format, cascade []candidate) (time.Time, error) {
	s = strings.TrimSpace(s)
	if f != nil {
		t, err := f.parse(s)
		if err != nil {
			return time.Time{}, &ParseError{Value: s, Pattern: f.Pattern, Err: err}
		}
		return t, nil
	}
	var lastErr error
	for _, c := range cascade {
		t, err := time.ParseInLocation(c.layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, &ParseError{Value: s, Tried: patterns(cascade), Err: lastErr}
}

// ParseDate parses a calendar date. With a nil f, the compact, hyphenated and
// slash-separated year-first forms are tried in this order. An explicit format
// may include a time of day, which is dropped.
func ParseDate(s string, f *Format) (Date, error) {
	t, err := parse(s, f, dateCascade)
	if err != nil {
		return Date{}, err
	}
	return NewDateFromTime(t), nil
}

// ParseDatetime parses a date-time without a time zone. With a nil f, the
// date-time forms are tried before the date-only forms, which yield midnight. A
// zone offset in an explicit format is dropped, keeping the wall clock.
func ParseDatetime(s string, f *Format) (Datetime, error) {
	t, err := parse(s, f, datetimeCascade)
	if err != nil {
		return Datetime{}, err
	}
	return NewDatetimeFromTime(t), nil
}

// ParseUTC parses a point in time and converts it to UTC. With a nil f, RFC3339
// is tried first, and the naive date-time forms are then taken as UTC.
func ParseUTC(s string, f *Format) (time.Time, error) {
	t, err := parse(s, f, utcCascade)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
