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

package value

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockparfait/tushare/calendar"
	"github.com/stockparfait/tushare/table"
)

// number is implemented by json.Number of both encoding/json and go-json.
type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

// IsAbsent checks whether the cell signals a missing value of the kind: nil or
// an empty string. For kinds other than String the text is trimmed first.
func IsAbsent(k Kind, cell table.Value) bool {
	var s string
	switch v := cell.(type) {
	case nil:
		return true
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return false
	}
	if k != String {
		s = strings.TrimSpace(s)
	}
	return s == ""
}

func conversionError(cell table.Value, err error, reason string, args ...interface{}) *table.Error {
	return &table.Error{
		Kind:   table.ConversionError,
		Row:    -1,
		Raw:    table.FormatValue(cell),
		Reason: fmt.Sprintf(reason, args...),
		Err:    err,
	}
}

// numeral returns the textual numeral of a cell, and whether the cell holds a
// native number rather than text.
func numeral(cell table.Value) (string, bool, error) {
	switch v := cell.(type) {
	case string:
		return strings.TrimSpace(v), false, nil
	case []byte:
		return strings.TrimSpace(string(v)), false, nil
	case number:
		return v.String(), true, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true, nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true, nil
	case int:
		return strconv.FormatInt(int64(v), 10), true, nil
	case int8:
		return strconv.FormatInt(int64(v), 10), true, nil
	case int16:
		return strconv.FormatInt(int64(v), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(v), 10), true, nil
	case int64:
		return strconv.FormatInt(v, 10), true, nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), true, nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true, nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true, nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true, nil
	case uint64:
		return strconv.FormatUint(v, 10), true, nil
	}
	return "", false, conversionError(cell, nil, "expected a number or a numeral string, got %T", cell)
}

// integral converts a native floating point numeral like "10.0" or "1e3" to
// the integer numeral "10" or "1000". Text cells are not relaxed this way.
func integral(s string) (string, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', 0, 64), true
}

func toString(cell table.Value) (string, error) {
	switch v := cell.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	s, _, err := numeral(cell)
	if err != nil {
		return "", conversionError(cell, nil, "expected a string, got %T", cell)
	}
	return s, nil
}

func toBool(cell table.Value) (bool, error) {
	if b, ok := cell.(bool); ok {
		return b, nil
	}
	s, native, err := numeral(cell)
	if err != nil {
		return false, conversionError(cell, nil, "expected a bool, got %T", cell)
	}
	if native {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return false, conversionError(cell, err, "invalid bool")
		}
		return f != 0, nil
	}
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true, nil
	case "false", "0", "no", "n":
		return false, nil
	}
	return false, conversionError(cell, nil, "invalid bool")
}

func toChar(cell table.Value) (rune, error) {
	switch v := cell.(type) {
	case string:
		if utf8.RuneCountInString(v) != 1 {
			return 0, conversionError(cell, nil, "expected exactly one character")
		}
		r, _ := utf8.DecodeRuneInString(v)
		return r, nil
	case bool:
		return 0, conversionError(cell, nil, "expected a character, got bool")
	}
	s, _, err := numeral(cell)
	if err != nil {
		return 0, err
	}
	code, err := strconv.ParseInt(s, 10, 32)
	if err != nil || !utf8.ValidRune(rune(code)) {
		return 0, conversionError(cell, err, "invalid character code point")
	}
	return rune(code), nil
}

func toInt(cell table.Value, bits int) (int64, error) {
	s, native, err := numeral(cell)
	if err != nil {
		return 0, err
	}
	i, err := strconv.ParseInt(s, 10, bits)
	if err != nil && native {
		if n, ok := integral(s); ok {
			i, err = strconv.ParseInt(n, 10, bits)
		}
	}
	if err != nil {
		return 0, conversionError(cell, err, "invalid int%d", bits)
	}
	return i, nil
}

func toUint(cell table.Value, bits int) (uint64, error) {
	s, native, err := numeral(cell)
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(s, 10, bits)
	if err != nil && native {
		if n, ok := integral(s); ok {
			u, err = strconv.ParseUint(n, 10, bits)
		}
	}
	if err != nil {
		return 0, conversionError(cell, err, "invalid uint%d", bits)
	}
	return u, nil
}

func toFloat(cell table.Value, bits int) (float64, error) {
	s, _, err := numeral(cell)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, conversionError(cell, err, "invalid float%d", bits)
	}
	return f, nil
}

func toDecimal(cell table.Value) (decimal.Decimal, error) {
	s, _, err := numeral(cell)
	if err != nil {
		return decimal.Decimal{}, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, conversionError(cell, err, "invalid decimal")
	}
	return d, nil
}

func toBigDecimal(cell table.Value) (*apd.Decimal, error) {
	s, _, err := numeral(cell)
	if err != nil {
		return nil, err
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, conversionError(cell, err, "invalid big decimal")
	}
	if d.Form != apd.Finite {
		return nil, conversionError(cell, nil, "big decimal must be finite")
	}
	return d, nil
}

func toUUID(cell table.Value) (uuid.UUID, error) {
	var s string
	switch v := cell.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return uuid.UUID{}, conversionError(cell, nil, "expected a UUID string, got %T", cell)
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.UUID{}, conversionError(cell, err, "invalid UUID")
	}
	return id, nil
}

// dateText coerces a temporal cell to text. Numeric cells such as 20240315 are
// printed as integers so that the cascade decides the format.
func dateText(cell table.Value) (string, error) {
	if _, ok := cell.(bool); ok {
		return "", conversionError(cell, nil, "expected a date, got bool")
	}
	s, native, err := numeral(cell)
	if err != nil {
		return "", conversionError(cell, nil, "expected a date string or number, got %T", cell)
	}
	if native {
		if n, ok := integral(s); ok {
			s = n
		}
	}
	return s, nil
}

func dateError(s string, err error) error {
	pe, ok := err.(*calendar.ParseError)
	if !ok {
		return conversionError(s, err, "invalid date")
	}
	e := &table.Error{Kind: table.DateParseError, Row: -1, Raw: s, Pattern: pe.Pattern}
	if pe.Pattern == "" {
		e.Reason = "no candidate format matched: " + strings.Join(pe.Tried, ", ")
	} else {
		e.Err = pe.Err
	}
	return e
}

// Convert converts a present cell value to the canonical Go type of the kind in
// the required mode; an absent value is a ConversionError. The format applies
// to temporal kinds only; nil selects the cascade. BigDecimal converts to
// *apd.Decimal, other kinds to Kind.Type().
//
// Errors are *table.Error values without row and field information.
func Convert(k Kind, cell table.Value, f *calendar.Format) (interface{}, error) {
	if IsAbsent(k, cell) {
		return nil, conversionError(cell, nil, "missing value")
	}
	switch k {
	case String:
		return toString(cell)
	case Bool:
		return toBool(cell)
	case Char:
		return toChar(cell)
	case Int:
		i, err := toInt(cell, strconv.IntSize)
		return int(i), err
	case Int8:
		i, err := toInt(cell, 8)
		return int8(i), err
	case Int16:
		i, err := toInt(cell, 16)
		return int16(i), err
	case Int32:
		i, err := toInt(cell, 32)
		return int32(i), err
	case Int64:
		return toInt(cell, 64)
	case Uint:
		u, err := toUint(cell, strconv.IntSize)
		return uint(u), err
	case Uint8:
		u, err := toUint(cell, 8)
		return uint8(u), err
	case Uint16:
		u, err := toUint(cell, 16)
		return uint16(u), err
	case Uint32:
		u, err := toUint(cell, 32)
		return uint32(u), err
	case Uint64:
		return toUint(cell, 64)
	case Float32:
		x, err := toFloat(cell, 32)
		return float32(x), err
	case Float64:
		return toFloat(cell, 64)
	case Decimal:
		return toDecimal(cell)
	case BigDecimal:
		return toBigDecimal(cell)
	case UUID:
		return toUUID(cell)
	case Date, Datetime, UTC:
		s, err := dateText(cell)
		if err != nil {
			return nil, err
		}
		var v interface{}
		switch k {
		case Date:
			v, err = calendar.ParseDate(s, f)
		case Datetime:
			v, err = calendar.ParseDatetime(s, f)
		default:
			v, err = calendar.ParseUTC(s, f)
		}
		if err != nil {
			return nil, dateError(s, err)
		}
		return v, nil
	}
	return nil, conversionError(cell, nil, "unsupported kind %s", k)
}

// Assign converts the cell and stores it in dst, which must be settable and of
// a type resolving to the kind. Pointer destinations receive a newly allocated
// value.
//
// In the optional mode an absent cell stores nil or the zero value. In the
// required mode it is a ConversionError.
func Assign(k Kind, dst reflect.Value, cell table.Value, f *calendar.Format, optional bool) error {
	if IsAbsent(k, cell) && optional {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	v, err := Convert(k, cell, f)
	if err != nil {
		return err
	}
	if dst.Kind() == reflect.Ptr {
		if d, ok := v.(*apd.Decimal); ok {
			dst.Set(reflect.ValueOf(d))
			return nil
		}
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(reflect.ValueOf(v).Convert(dst.Type().Elem()))
		dst.Set(p)
		return nil
	}
	if d, ok := v.(*apd.Decimal); ok {
		dst.Addr().Interface().(*apd.Decimal).Set(d)
		return nil
	}
	dst.Set(reflect.ValueOf(v).Convert(dst.Type()))
	return nil
}
