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
	"time"

	json "github.com/goccy/go-json"
	"github.com/stockparfait/errors"
)

// lessLex is a lexicographic ordering on the slices of int.
func lessLex(x, y []int) bool {
	l := len(x)
	if len(y) < l {
		l = len(y)
	}
	for i := 0; i < l; i++ {
		if x[i] < y[i] {
			return true
		}
		if x[i] > y[i] {
			return false
		}
	}
	return len(x) < len(y)
}

// Date records a calendar date as year, month and day, with no time zone. The
// struct is designed to fit into 4 bytes.
type Date struct {
	YearVal  uint16
	MonthVal uint8
	DayVal   uint8
}

var _ json.Marshaler = Date{}
var _ json.Unmarshaler = &Date{}

// NewDate is the constructor for Date.
func NewDate(year uint16, month, day uint8) Date {
	return Date{year, month, day}
}

// NewDateFromTime creates a Date from the wall clock date of t.
func NewDateFromTime(t time.Time) Date {
	return Date{
		YearVal:  uint16(t.Year()),
		MonthVal: uint8(t.Month()),
		DayVal:   uint8(t.Day()),
	}
}

// NewDateFromString parses s using the date cascade.
func NewDateFromString(s string) (Date, error) {
	return ParseDate(s, nil)
}

func (d Date) Year() uint16 { return d.YearVal }
func (d Date) Month() uint8 { return d.MonthVal }
func (d Date) Day() uint8   { return d.DayVal }

// String representation of the value.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. NOTE: unlike other methods, this
// is a pointer method.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Annotate(err, "Date JSON must be a string")
	}
	date, err := NewDateFromString(s)
	if err != nil {
		return errors.Annotate(err, "failed to parse Date string")
	}
	*d = date
	return nil
}

// ToTime converts Date to Time at midnight UTC.
func (d Date) ToTime() time.Time {
	return time.Date(int(d.Year()), time.Month(d.Month()), int(d.Day()), 0, 0, 0, 0, time.UTC)
}

// ToDatetime converts Date to Datetime at midnight.
func (d Date) ToDatetime() Datetime {
	return Datetime{Date: d}
}

// Before compares two Date objects for strict inequality (self < d2).
func (d Date) Before(d2 Date) bool {
	return lessLex([]int{int(d.Year()), int(d.Month()), int(d.Day())},
		[]int{int(d2.Year()), int(d2.Month()), int(d2.Day())})
}

// After compares two Date objects for strict inequality, self > d2.
func (d Date) After(d2 Date) bool {
	return d2.Before(d)
}

// IsZero checks whether the date has a zero value.
func (d Date) IsZero() bool {
	return d.Year() == 0 && d.Month() == 0 && d.Day() == 0
}

// Datetime is a date and a time of day without a time zone, with millisecond
// precision.
type Datetime struct {
	Date
	Msec uint32 // milliseconds since midnight
}

var _ json.Marshaler = Datetime{}
var _ json.Unmarshaler = &Datetime{}

// NewDatetime is the constructor for Datetime.
func NewDatetime(year uint16, month, day, hour, minute, second uint8, msec uint16) Datetime {
	return Datetime{
		Date: NewDate(year, month, day),
		Msec: ((uint32(hour)*60+uint32(minute))*60+uint32(second))*1000 + uint32(msec),
	}
}

// NewDatetimeFromTime creates a Datetime from the wall clock of t, truncated to
// milliseconds.
func NewDatetimeFromTime(t time.Time) Datetime {
	return NewDatetime(uint16(t.Year()), uint8(t.Month()), uint8(t.Day()),
		uint8(t.Hour()), uint8(t.Minute()), uint8(t.Second()),
		uint16(t.Nanosecond()/int(time.Millisecond)))
}

// NewDatetimeFromString parses s using the date-time cascade.
func NewDatetimeFromString(s string) (Datetime, error) {
	return ParseDatetime(s, nil)
}

func (d Datetime) Hour() uint8         { return uint8(d.Msec / 3600000) }
func (d Datetime) Minute() uint8       { return uint8(d.Msec / 60000 % 60) }
func (d Datetime) Second() uint8       { return uint8(d.Msec / 1000 % 60) }
func (d Datetime) Millisecond() uint16 { return uint16(d.Msec % 1000) }

// String prints the value as "YYYY-MM-DD hh:mm:ss", with ".mmm" appended when
// milliseconds are not zero.
func (d Datetime) String() string {
	s := fmt.Sprintf("%s %02d:%02d:%02d", d.Date.String(), d.Hour(), d.Minute(), d.Second())
	if ms := d.Millisecond(); ms != 0 {
		s += fmt.Sprintf(".%03d", ms)
	}
	return s
}

// MarshalJSON implements json.Marshaler.
func (d Datetime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Datetime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Annotate(err, "Datetime JSON must be a string")
	}
	dt, err := NewDatetimeFromString(s)
	if err != nil {
		return errors.Annotate(err, "failed to parse Datetime string")
	}
	*d = dt
	return nil
}

// ToTime converts Datetime to Time in UTC.
func (d Datetime) ToTime() time.Time {
	return d.Date.ToTime().Add(time.Duration(d.Msec) * time.Millisecond)
}

// Before compares two Datetime objects for strict inequality (self < d2).
func (d Datetime) Before(d2 Datetime) bool {
	if d.Date != d2.Date {
		return d.Date.Before(d2.Date)
	}
	return d.Msec < d2.Msec
}

// After compares two Datetime objects for strict inequality, self > d2.
func (d Datetime) After(d2 Datetime) bool {
	return d2.Before(d)
}

// IsZero checks whether the value is zero.
func (d Datetime) IsZero() bool {
	return d.Date.IsZero() && d.Msec == 0
}
