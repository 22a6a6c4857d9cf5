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
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockparfait/tushare/calendar"
	"github.com/stockparfait/tushare/table"

	. "github.com/smartystreets/goconvey/convey"
)

type exchange string

func errorKind(err error) table.ErrorKind {
	e, ok := table.AsError(err)
	if !ok {
		return 0
	}
	return e.Kind
}

func TestKind(t *testing.T) {
	t.Parallel()

	Convey("Kind names", t, func() {
		So(Float64.String(), ShouldEqual, "float64")
		So(UUID.String(), ShouldEqual, "uuid")
		So(Kind(100).String(), ShouldEqual, "invalid")
		k, err := ParseKind("BigDecimal")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, BigDecimal)
		_, err = ParseKind("invalid")
		So(err, ShouldNotBeNil)
		So(Date.IsTemporal(), ShouldBeTrue)
		So(Decimal.IsTemporal(), ShouldBeFalse)
		So(Int64.IsExtended(), ShouldBeFalse)
		So(UTC.IsExtended(), ShouldBeTrue)
	})

	Convey("Canonical types resolve back to their kinds", t, func() {
		for k := String; k <= UUID; k++ {
			if k == Char {
				continue
			}
			got, err := Default.KindOf(k.Type(), false)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, k)
		}
	})

	Convey("Registry", t, func() {
		Convey("resolves named and pointer types", func() {
			k, err := Default.KindOf(reflect.TypeOf(exchange("")), false)
			So(err, ShouldBeNil)
			So(k, ShouldEqual, String)
			var p *float64
			k, err = Default.KindOf(reflect.TypeOf(p), false)
			So(err, ShouldBeNil)
			So(k, ShouldEqual, Float64)
		})

		Convey("resolves runes as Char on request", func() {
			k, err := Default.KindOf(reflect.TypeOf('x'), true)
			So(err, ShouldBeNil)
			So(k, ShouldEqual, Char)
			_, err = Default.KindOf(reflect.TypeOf(""), true)
			So(err, ShouldNotBeNil)
		})

		Convey("rejects disabled extended kinds", func() {
			r := NewRegistry(Decimal, Int64)
			So(r.Enabled(Decimal), ShouldBeTrue)
			So(r.Enabled(UUID), ShouldBeFalse)
			So(r.Enabled(Int64), ShouldBeTrue)
			_, err := r.KindOf(reflect.TypeOf(uuid.UUID{}), false)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "kind uuid is not enabled")
		})

		Convey("rejects unsupported types", func() {
			_, err := Default.KindOf(reflect.TypeOf([]string{}), false)
			So(err, ShouldNotBeNil)
			_, err = Default.KindOf(reflect.TypeOf(struct{}{}), false)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestConvert(t *testing.T) {
	t.Parallel()

	Convey("Baseline kinds", t, func() {
		Convey("string", func() {
			v, err := Convert(String, "平安银行", nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "平安银行")
			v, err = Convert(String, json.Number("11.50"), nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "11.50")
			v, err = Convert(String, true, nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, "true")
		})

		Convey("bool", func() {
			for _, c := range []table.Value{true, "Y", "yes", "1", json.Number("1"), 2.0} {
				v, err := Convert(Bool, c, nil)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, true)
			}
			for _, c := range []table.Value{false, "n", "NO", "0", 0} {
				v, err := Convert(Bool, c, nil)
				So(err, ShouldBeNil)
				So(v, ShouldEqual, false)
			}
			_, err := Convert(Bool, "maybe", nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})

		Convey("char", func() {
			v, err := Convert(Char, "Y", nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 'Y')
			v, err = Convert(Char, json.Number("65"), nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 'A')
			_, err = Convert(Char, "YN", nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})

		Convey("integers", func() {
			v, err := Convert(Int64, json.Number("1234567890123"), nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, int64(1234567890123))
			v, err = Convert(Int32, " 42 ", nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, int32(42))
			v, err = Convert(Int, 1000.0, nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 1000)
			v, err = Convert(Uint16, json.Number("65535"), nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, uint16(65535))

			_, err = Convert(Int8, json.Number("128"), nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
			_, err = Convert(Int64, 10.5, nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
			_, err = Convert(Uint, json.Number("-1"), nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
			_, err = Convert(Int64, "10.0", nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
			_, err = Convert(Int64, true, nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})

		Convey("floats", func() {
			v, err := Convert(Float64, json.Number("11.5"), nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 11.5)
			v, err = Convert(Float32, "0.25", nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, float32(0.25))
			v, err = Convert(Float64, int64(7), nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, 7.0)
			_, err = Convert(Float32, "1e300", nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})

		Convey("malformed numerals keep the raw text", func() {
			_, err := Convert(Float64, "12.3.4", nil)
			e, ok := table.AsError(err)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, table.ConversionError)
			So(e.Raw, ShouldEqual, "12.3.4")
			So(e.Reason, ShouldEqual, "invalid float64")
		})

		Convey("absence is an error", func() {
			for _, c := range []table.Value{nil, ""} {
				_, err := Convert(String, c, nil)
				e, ok := table.AsError(err)
				So(ok, ShouldBeTrue)
				So(e.Kind, ShouldEqual, table.ConversionError)
				So(e.Reason, ShouldEqual, "missing value")
			}
			_, err := Convert(Int64, "  ", nil)
			e, ok := table.AsError(err)
			So(ok, ShouldBeTrue)
			So(e.Reason, ShouldEqual, "missing value")
		})

		Convey("IsAbsent trims non-string kinds only", func() {
			So(IsAbsent(Int64, nil), ShouldBeTrue)
			So(IsAbsent(Int64, " \t"), ShouldBeTrue)
			So(IsAbsent(Date, []byte(" ")), ShouldBeTrue)
			So(IsAbsent(String, ""), ShouldBeTrue)
			So(IsAbsent(String, " "), ShouldBeFalse)
			So(IsAbsent(Int64, 0), ShouldBeFalse)
		})
	})

	Convey("Extended kinds", t, func() {
		Convey("decimal", func() {
			v, err := Convert(Decimal, "12.345678901234567890", nil)
			So(err, ShouldBeNil)
			So(v.(decimal.Decimal).String(), ShouldEqual, "12.34567890123456789")
			v, err = Convert(Decimal, json.Number("0.1"), nil)
			So(err, ShouldBeNil)
			So(v.(decimal.Decimal).Equal(decimal.RequireFromString("0.1")), ShouldBeTrue)
			v, err = Convert(Decimal, 0.1, nil)
			So(err, ShouldBeNil)
			So(v.(decimal.Decimal).String(), ShouldEqual, "0.1")
			_, err = Convert(Decimal, "abc", nil)
			e, _ := table.AsError(err)
			So(e.Kind, ShouldEqual, table.ConversionError)
			So(e.Raw, ShouldEqual, "abc")
		})

		Convey("big decimal", func() {
			v, err := Convert(BigDecimal, "123456789012345678901234567890.123456789", nil)
			So(err, ShouldBeNil)
			So(v.(*apd.Decimal).String(), ShouldEqual,
				"123456789012345678901234567890.123456789")
			v, err = Convert(BigDecimal, 2.5, nil)
			So(err, ShouldBeNil)
			So(v.(*apd.Decimal).String(), ShouldEqual, "2.5")
			_, err = Convert(BigDecimal, "NaN", nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})

		Convey("uuid", func() {
			id := "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
			v, err := Convert(UUID, id, nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, uuid.MustParse(id))
			_, err = Convert(UUID, "not-a-uuid", nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
			_, err = Convert(UUID, json.Number("5"), nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})

		Convey("dates", func() {
			expected := calendar.NewDate(2024, 3, 15)
			for _, c := range []table.Value{
				"20240315", "2024-03-15", "2024/03/15",
				json.Number("20240315"), 20240315.0, int64(20240315),
			} {
				v, err := Convert(Date, c, nil)
				So(err, ShouldBeNil)
				So(v, ShouldResemble, expected)
			}
		})

		Convey("date cascade failure", func() {
			_, err := Convert(Date, "15/03/2024", nil)
			e, ok := table.AsError(err)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, table.DateParseError)
			So(e.Raw, ShouldEqual, "15/03/2024")
			So(e.Pattern, ShouldEqual, "")
			So(e.Reason, ShouldContainSubstring, "no candidate format matched")
		})

		Convey("explicit date pattern", func() {
			f, err := calendar.NewFormat("%d/%m/%Y")
			So(err, ShouldBeNil)
			v, err := Convert(Date, "15/03/2024", f)
			So(err, ShouldBeNil)
			So(v, ShouldResemble, calendar.NewDate(2024, 3, 15))

			_, err = Convert(Date, "2024-03-15", f)
			e, ok := table.AsError(err)
			So(ok, ShouldBeTrue)
			So(e.Kind, ShouldEqual, table.DateParseError)
			So(e.Pattern, ShouldEqual, "%d/%m/%Y")
			So(e.Raw, ShouldEqual, "2024-03-15")
		})

		Convey("date-times", func() {
			v, err := Convert(Datetime, "20240315 09:30:00", nil)
			So(err, ShouldBeNil)
			So(v, ShouldResemble, calendar.NewDatetime(2024, 3, 15, 9, 30, 0, 0))
			v, err = Convert(UTC, "2024-03-15T09:30:00+08:00", nil)
			So(err, ShouldBeNil)
			So(v, ShouldEqual, time.Date(2024, 3, 15, 1, 30, 0, 0, time.UTC))
			_, err = Convert(Datetime, true, nil)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})
	})
}

func TestAssign(t *testing.T) {
	t.Parallel()

	type record struct {
		Exchange exchange
		Close    *float64
		Volume   int64
		Amount   apd.Decimal
		Ratio    *apd.Decimal
		ListDate *calendar.Date
	}

	field := func(r *record, name string) reflect.Value {
		return reflect.ValueOf(r).Elem().FieldByName(name)
	}

	Convey("Assign", t, func() {
		var r record

		Convey("converts into named types", func() {
			So(Assign(String, field(&r, "Exchange"), "SZSE", nil, false), ShouldBeNil)
			So(r.Exchange, ShouldEqual, exchange("SZSE"))
		})

		Convey("allocates pointers", func() {
			So(Assign(Float64, field(&r, "Close"), json.Number("11.5"), nil, true), ShouldBeNil)
			So(r.Close, ShouldNotBeNil)
			So(*r.Close, ShouldEqual, 11.5)
		})

		Convey("optional absence yields no value", func() {
			x := 1.0
			r.Close = &x
			r.Volume = 5
			So(Assign(Float64, field(&r, "Close"), nil, nil, true), ShouldBeNil)
			So(r.Close, ShouldBeNil)
			So(Assign(Int64, field(&r, "Volume"), "", nil, true), ShouldBeNil)
			So(r.Volume, ShouldEqual, 0)
		})

		Convey("blank cells are absent for non-string kinds", func() {
			x := 1.0
			r.Close = &x
			So(Assign(Float64, field(&r, "Close"), "  ", nil, true), ShouldBeNil)
			So(r.Close, ShouldBeNil)
			So(Assign(Date, field(&r, "ListDate"), []byte("\t"), nil, true), ShouldBeNil)
			So(r.ListDate, ShouldBeNil)
			So(Assign(String, field(&r, "Exchange"), " ", nil, true), ShouldBeNil)
			So(r.Exchange, ShouldEqual, exchange(" "))
		})

		Convey("required absence is an error", func() {
			err := Assign(Int64, field(&r, "Volume"), nil, nil, false)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})

		Convey("optional malformed values are still errors", func() {
			err := Assign(Float64, field(&r, "Close"), "n/a", nil, true)
			So(errorKind(err), ShouldEqual, table.ConversionError)
		})

		Convey("sets big decimals by value and by pointer", func() {
			So(Assign(BigDecimal, field(&r, "Amount"), "1234.5678", nil, false), ShouldBeNil)
			So(r.Amount.String(), ShouldEqual, "1234.5678")
			So(Assign(BigDecimal, field(&r, "Ratio"), json.Number("0.25"), nil, true), ShouldBeNil)
			So(r.Ratio.String(), ShouldEqual, "0.25")
		})

		Convey("sets optional dates", func() {
			So(Assign(Date, field(&r, "ListDate"), "19910403", nil, true), ShouldBeNil)
			So(*r.ListDate, ShouldResemble, calendar.NewDate(1991, 4, 3))
		})
	})
}
