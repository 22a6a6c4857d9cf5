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
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockparfait/errors"

	"github.com/stockparfait/tushare/calendar"
)

// Kind is the closed set of supported target scalar kinds.
type Kind int

const (
	Invalid Kind = iota
	// Baseline kinds.
	String
	Bool
	Char
	Int
	Int8
	Int16
	Int32
	Int64
	Uint
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	// Extended kinds, enabled per Registry.
	Decimal    // shopspring decimal.Decimal
	BigDecimal // apd.Decimal
	Date       // calendar.Date
	Datetime   // calendar.Datetime
	UTC        // time.Time
	UUID       // uuid.UUID
)

var kindNames = []string{
	Invalid:    "invalid",
	String:     "string",
	Bool:       "bool",
	Char:       "char",
	Int:        "int",
	Int8:       "int8",
	Int16:      "int16",
	Int32:      "int32",
	Int64:      "int64",
	Uint:       "uint",
	Uint8:      "uint8",
	Uint16:     "uint16",
	Uint32:     "uint32",
	Uint64:     "uint64",
	Float32:    "float32",
	Float64:    "float64",
	Decimal:    "decimal",
	BigDecimal: "bigdecimal",
	Date:       "date",
	Datetime:   "datetime",
	UTC:        "utc",
	UUID:       "uuid",
}

// ExtendedKinds are the kinds that must be enabled in a Registry.
var ExtendedKinds = []Kind{Decimal, BigDecimal, Date, Datetime, UTC, UUID}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// ParseKind is the inverse of Kind.String().
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(s)
	for k, name := range kindNames {
		if k != int(Invalid) && name == s {
			return Kind(k), nil
		}
	}
	return Invalid, errors.Reason("unknown kind '%s'", s)
}

// IsExtended is true for kinds outside the baseline.
func (k Kind) IsExtended() bool { return k >= Decimal && k <= UUID }

// IsTemporal is true for the kinds parsed by the date cascade.
func (k Kind) IsTemporal() bool { return k == Date || k == Datetime || k == UTC }

// Type is the canonical Go type of the kind.
func (k Kind) Type() reflect.Type {
	switch k {
	case String:
		return reflect.TypeOf("")
	case Bool:
		return reflect.TypeOf(false)
	case Char:
		return reflect.TypeOf(rune(0))
	case Int:
		return reflect.TypeOf(int(0))
	case Int8:
		return reflect.TypeOf(int8(0))
	case Int16:
		return reflect.TypeOf(int16(0))
	case Int32:
		return reflect.TypeOf(int32(0))
	case Int64:
		return reflect.TypeOf(int64(0))
	case Uint:
		return reflect.TypeOf(uint(0))
	case Uint8:
		return reflect.TypeOf(uint8(0))
	case Uint16:
		return reflect.TypeOf(uint16(0))
	case Uint32:
		return reflect.TypeOf(uint32(0))
	case Uint64:
		return reflect.TypeOf(uint64(0))
	case Float32:
		return reflect.TypeOf(float32(0))
	case Float64:
		return reflect.TypeOf(float64(0))
	case Decimal:
		return typeDecimal
	case BigDecimal:
		return typeBigDecimal
	case Date:
		return typeDate
	case Datetime:
		return typeDatetime
	case UTC:
		return typeTime
	case UUID:
		return typeUUID
	}
	return nil
}

var (
	typeDecimal    = reflect.TypeOf(decimal.Decimal{})
	typeBigDecimal = reflect.TypeOf(apd.Decimal{})
	typeDate       = reflect.TypeOf(calendar.Date{})
	typeDatetime   = reflect.TypeOf(calendar.Datetime{})
	typeTime       = reflect.TypeOf(time.Time{})
	typeUUID       = reflect.TypeOf(uuid.UUID{})
)

// Registry resolves Go types to kinds. Baseline kinds are always available;
// extended kinds only when enabled. A Registry is immutable and safe for
// concurrent use.
type Registry struct {
	enabled map[Kind]bool
}

// Default registry enables all the extended kinds.
var Default = NewRegistry(ExtendedKinds...)

// NewRegistry creates a Registry with the given extended kinds enabled.
// Baseline kinds in the list are ignored.
func NewRegistry(extended ...Kind) *Registry {
	r := &Registry{enabled: make(map[Kind]bool)}
	for _, k := range extended {
		if k.IsExtended() {
			r.enabled[k] = true
		}
	}
	return r
}

// Enabled checks whether the kind can be used with this registry.
func (r *Registry) Enabled(k Kind) bool {
	if k == Invalid {
		return false
	}
	return !k.IsExtended() || r.enabled[k]
}

// KindOf resolves the kind of a field type. Pointer types resolve to the kind
// of their element. When char is true, the type must be rune-compatible and
// resolves to Char. It is an error to resolve a type of an extended kind
// which is not enabled.
func (r *Registry) KindOf(t reflect.Type, char bool) (Kind, error) {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	k := kindOf(t)
	if char {
		if k != Int32 {
			return Invalid, errors.Reason("char requires a rune field, got %s", t)
		}
		k = Char
	}
	if k == Invalid {
		return Invalid, errors.Reason("unsupported field type %s", t)
	}
	if !r.Enabled(k) {
		return Invalid, errors.Reason("kind %s is not enabled for type %s", k, t)
	}
	return k, nil
}

func kindOf(t reflect.Type) Kind {
	switch t {
	case typeDecimal:
		return Decimal
	case typeBigDecimal:
		return BigDecimal
	case typeDate:
		return Date
	case typeDatetime:
		return Datetime
	case typeTime:
		return UTC
	case typeUUID:
		return UUID
	}
	switch t.Kind() {
	case reflect.String:
		return String
	case reflect.Bool:
		return Bool
	case reflect.Int:
		return Int
	case reflect.Int8:
		return Int8
	case reflect.Int16:
		return Int16
	case reflect.Int32:
		return Int32
	case reflect.Int64:
		return Int64
	case reflect.Uint:
		return Uint
	case reflect.Uint8:
		return Uint8
	case reflect.Uint16:
		return Uint16
	case reflect.Uint32:
		return Uint32
	case reflect.Uint64:
		return Uint64
	case reflect.Float32:
		return Float32
	case reflect.Float64:
		return Float64
	}
	return Invalid
}
