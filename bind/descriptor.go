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

package bind

import (
	"reflect"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/stockparfait/errors"
	"github.com/viant/tagly/format/text"

	"github.com/stockparfait/tushare/calendar"
	"github.com/stockparfait/tushare/table"
	"github.com/stockparfait/tushare/value"
)

// TagName is the struct tag key recognized by Compile.
const TagName = "tushare"

// Field binds one record field to one table column.
type Field struct {
	Target     string // Go field name
	Source     string // column name
	Kind       value.Kind
	Optional   bool   // absent cells yield no value instead of an error
	Skip       bool   // never read from the table
	Char       bool   // rune field holding a single character
	DateFormat string // strftime pattern; empty selects the cascade
	Default    string // literal value of a skipped field; empty keeps zero

	index        []int
	format       *calendar.Format
	defaultValue reflect.Value
}

// Descriptor is the compiled, immutable set of field bindings of a struct
// type. It is safe for concurrent use.
type Descriptor struct {
	typ    reflect.Type
	fields []Field
}

// Type is the record struct type.
func (d *Descriptor) Type() reflect.Type { return d.typ }

// Fields returns a copy of the field bindings in declaration order.
func (d *Descriptor) Fields() []Field {
	return append([]Field(nil), d.fields...)
}

// words splits a Go identifier at case changes: "QEps" is Q, Eps and
// "HTTPCode" is HTTP, Code. Digits stay with the preceding letters, and
// underscores are dropped.
func words(name string) []string {
	rs := []rune(name)
	var res []string
	add := func(w []rune) {
		if s := strings.Trim(string(w), "_"); s != "" {
			res = append(res, s)
		}
	}
	start := 0
	for i := 1; i < len(rs); i++ {
		if !unicode.IsUpper(rs[i]) {
			continue
		}
		if !unicode.IsUpper(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1])) {
			add(rs[start:i])
			start = i
		}
	}
	add(rs[start:])
	return res
}

// ColumnName is the default column name of a Go field, e.g. "TsCode" reads
// from "ts_code", "QEps" from "q_eps" and "HTTPCode" from "http_code".
func ColumnName(field string) string {
	ws := words(field)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "_")
}

// checkColumnName requires the default column name of a field to convert back
// to the field name, up to letter case.
func checkColumnName(field string) error {
	col := ColumnName(field)
	back := text.CaseFormatLowerUnderscore.Format(col, text.CaseFormatUpperCamel)
	if col == "" || !strings.EqualFold(back, field) {
		return errors.Reason(
			"field %s has no unambiguous column name (got '%s'); set the column explicitly",
			field, col)
	}
	return nil
}

func exported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// parseTag fills in the binding options from a struct tag value:
//
//	tushare:"source_name,optional,skip,char,date_format=%Y%m%d,default=0"
//
// An empty source name keeps the default; "-" as the source name skips the
// field. Option values may not contain commas.
func parseTag(f *Field, tag string) error {
	if tag == "" {
		return nil
	}
	parts := strings.Split(tag, ",")
	switch name := strings.TrimSpace(parts[0]); name {
	case "-":
		f.Skip = true
	case "":
	default:
		f.Source = name
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		key, val, hasVal := strings.Cut(p, "=")
		switch {
		case key == "optional" && !hasVal:
			f.Optional = true
		case key == "skip" && !hasVal:
			f.Skip = true
		case key == "char" && !hasVal:
			f.Char = true
		case key == "date_format" && hasVal:
			f.DateFormat = val
		case key == "default" && hasVal:
			f.Default = val
		case p == "":
		default:
			return errors.Reason("unknown option '%s'", p)
		}
	}
	return nil
}

// compile resolves the kind, the date format and the default value of the
// binding of the struct field sf, and validates the option combination.
func (f *Field) compile(sf reflect.StructField, reg *value.Registry) error {
	f.index = sf.Index
	if sf.Type.Kind() == reflect.Ptr {
		f.Optional = true
	}
	var err error
	if f.DateFormat != "" {
		if f.format, err = calendar.NewFormat(f.DateFormat); err != nil {
			return err
		}
	}
	if f.Skip && f.Default == "" && f.DateFormat == "" {
		return nil
	}
	k, err := reg.KindOf(sf.Type, f.Char)
	if err != nil {
		return err
	}
	f.Kind = k
	if f.DateFormat != "" && !k.IsTemporal() {
		return errors.Reason("date_format requires a date or time field, got %s", k)
	}
	if f.Default != "" {
		if !f.Skip {
			return errors.Reason("default applies to skipped fields only")
		}
		v := reflect.New(sf.Type).Elem()
		if err := value.Assign(k, v, f.Default, f.format, false); err != nil {
			return errors.Annotate(err, "invalid default value")
		}
		f.defaultValue = v
	}
	return nil
}

func newDescriptor(t reflect.Type, fields []Field) (*Descriptor, error) {
	seen := make(map[string]string)
	for _, f := range fields {
		if f.Skip {
			continue
		}
		if other, ok := seen[f.Source]; ok {
			return nil, errors.Reason("fields %s and %s both read column '%s'",
				other, f.Target, f.Source)
		}
		seen[f.Source] = f.Target
	}
	return &Descriptor{typ: t, fields: fields}, nil
}

func structType(t reflect.Type) (reflect.Type, error) {
	if t == nil || t.Kind() != reflect.Struct {
		return nil, errors.Reason("record type must be a struct, got %v", t)
	}
	return t, nil
}

// Compile builds the Descriptor of a struct type from its `tushare` field tags
// using the registry to resolve field kinds. All exported fields are bound; a
// field without a tag reads the column named by ColumnName, which must convert
// back to the field name. Pointer fields are always optional.
func Compile(t reflect.Type, reg *value.Registry) (*Descriptor, error) {
	t, err := structType(t)
	if err != nil {
		return nil, err
	}
	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !exported(sf.Name) {
			continue
		}
		f := Field{Target: sf.Name, Source: ColumnName(sf.Name)}
		tag := sf.Tag.Get(TagName)
		if err := parseTag(&f, tag); err != nil {
			return nil, errors.Annotate(err, "bad tag for %s.%s", t.Name(), sf.Name)
		}
		named := strings.TrimSpace(strings.Split(tag, ",")[0]) != ""
		if !named && !f.Skip {
			if err := checkColumnName(sf.Name); err != nil {
				return nil, errors.Annotate(err, "cannot bind %s", t.Name())
			}
		}
		if err := f.compile(sf, reg); err != nil {
			return nil, errors.Annotate(err, "cannot bind %s.%s", t.Name(), sf.Name)
		}
		fields = append(fields, f)
	}
	return newDescriptor(t, fields)
}

type cacheKey struct {
	typ reflect.Type
	reg *value.Registry
}

var descriptors sync.Map // cacheKey -> *Descriptor

// Cached returns the Descriptor compiled by Compile, compiling it once per type
// and registry.
func Cached(t reflect.Type, reg *value.Registry) (*Descriptor, error) {
	key := cacheKey{typ: t, reg: reg}
	if d, ok := descriptors.Load(key); ok {
		return d.(*Descriptor), nil
	}
	d, err := Compile(t, reg)
	if err != nil {
		return nil, err
	}
	actual, _ := descriptors.LoadOrStore(key, d)
	return actual.(*Descriptor), nil
}

// For returns the cached Descriptor of the struct type T using the default
// registry.
func For[T any]() (*Descriptor, error) {
	var zero T
	return Cached(reflect.TypeOf(zero), value.Default)
}

// Option configures a Field in Builder.
type Option func(f *Field)

// Source sets the column name.
func Source(name string) Option { return func(f *Field) { f.Source = name } }

// Optional makes absent cells yield no value.
func Optional() Option { return func(f *Field) { f.Optional = true } }

// Skip prevents the field from being read.
func Skip() Option { return func(f *Field) { f.Skip = true } }

// Char reads a rune field as a single character.
func Char() Option { return func(f *Field) { f.Char = true } }

// DateFormat sets an explicit strftime pattern.
func DateFormat(pattern string) Option {
	return func(f *Field) { f.DateFormat = pattern }
}

// Default sets the literal value of a skipped field.
func Default(literal string) Option {
	return func(f *Field) { f.Default = literal }
}

// Builder assembles a Descriptor explicitly instead of from struct tags.
// Exported fields not added to the builder are skipped.
type Builder struct {
	typ    reflect.Type
	reg    *value.Registry
	fields map[string]Field
	err    error
}

// NewBuilder creates a Builder for the struct type t.
func NewBuilder(t reflect.Type, reg *value.Registry) *Builder {
	b := &Builder{reg: reg, fields: make(map[string]Field)}
	b.typ, b.err = structType(t)
	return b
}

// Field adds the binding of the Go field named target. Its column defaults to
// ColumnName(target), which must convert back to target unless the Source
// option is given.
func (b *Builder) Field(target string, opts ...Option) *Builder {
	if b.err != nil {
		return b
	}
	if _, ok := b.typ.FieldByName(target); !ok || !exported(target) {
		b.err = errors.Reason("%s has no exported field %s", b.typ.Name(), target)
		return b
	}
	if _, ok := b.fields[target]; ok {
		b.err = errors.Reason("field %s is added twice", target)
		return b
	}
	f := Field{Target: target}
	for _, o := range opts {
		o(&f)
	}
	if f.Source == "" {
		f.Source = ColumnName(target)
		if !f.Skip {
			if err := checkColumnName(target); err != nil {
				b.err = err
				return b
			}
		}
	}
	b.fields[target] = f
	return b
}

// Build compiles the Descriptor. Fields are ordered as declared in the struct.
func (b *Builder) Build() (*Descriptor, error) {
	if b.err != nil {
		return nil, b.err
	}
	var fields []Field
	for i := 0; i < b.typ.NumField(); i++ {
		sf := b.typ.Field(i)
		if !exported(sf.Name) {
			continue
		}
		f, ok := b.fields[sf.Name]
		if !ok {
			f = Field{Target: sf.Name, Source: ColumnName(sf.Name), Skip: true}
		}
		if err := f.compile(sf, b.reg); err != nil {
			return nil, errors.Annotate(err, "cannot bind %s.%s", b.typ.Name(), sf.Name)
		}
		fields = append(fields, f)
	}
	return newDescriptor(b.typ, fields)
}

// newFieldError attributes a conversion error to a row and a field.
func newFieldError(err error, row int, f *Field) error {
	e, ok := err.(*table.Error)
	if !ok {
		return &table.Error{
			Kind:   table.ConversionError,
			Row:    row,
			Field:  f.Target,
			Column: f.Source,
			Err:    err,
		}
	}
	e.Row = row
	e.Field = f.Target
	e.Column = f.Source
	return e
}
