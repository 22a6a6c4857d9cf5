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

package main

import (
	"fmt"
	"reflect"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stockparfait/errors"

	"github.com/stockparfait/tushare/bind"
	"github.com/stockparfait/tushare/message"
	"github.com/stockparfait/tushare/source"
	"github.com/stockparfait/tushare/table"
	"github.com/stockparfait/tushare/value"
)

// Column is the binding of one record field in the schema file.
type Column struct {
	Name       string `json:"name" required:"true"` // column in the data
	Header     string `json:"header"`               // default: Name
	Kind       string `json:"kind" default:"string"`
	Optional   bool   `json:"optional"`
	Skip       bool   `json:"skip"`
	DateFormat string `json:"date_format"`
	Default    string `json:"default"`

	kind value.Kind
}

var _ message.Message = &Column{}

// InitMessage implements message.Message.
func (c *Column) InitMessage(js any) error {
	if err := message.Init(c, js); err != nil {
		return errors.Annotate(err, "failed to init from config")
	}
	var err error
	if c.kind, err = value.ParseKind(c.Kind); err != nil {
		return errors.Annotate(err, "column %s", c.Name)
	}
	if c.Header == "" {
		c.Header = c.Name
	}
	return nil
}

func (c *Column) options() []bind.Option {
	opts := []bind.Option{bind.Source(c.Name)}
	if c.Optional {
		opts = append(opts, bind.Optional())
	}
	if c.Skip {
		opts = append(opts, bind.Skip())
	}
	if c.kind == value.Char {
		opts = append(opts, bind.Char())
	}
	if c.DateFormat != "" {
		opts = append(opts, bind.DateFormat(c.DateFormat))
	}
	if c.Default != "" {
		opts = append(opts, bind.Default(c.Default))
	}
	return opts
}

// Schema describes the records to convert the input tables to.
type Schema struct {
	Columns []Column `json:"columns" required:"true"`
	// Extended kinds allowed in columns; default: all.
	Extended []string         `json:"extended"`
	CSV      source.CSVConfig `json:"csv"`
}

var _ message.Message = &Schema{}

// InitMessage implements message.Message.
func (s *Schema) InitMessage(js any) error {
	if err := message.Init(s, js); err != nil {
		return errors.Annotate(err, "failed to init from config")
	}
	if len(s.Columns) == 0 {
		return errors.Reason("schema must have at least one column")
	}
	if s.Extended == nil {
		for _, k := range value.ExtendedKinds {
			s.Extended = append(s.Extended, k.String())
		}
	}
	for _, e := range s.Extended {
		k, err := value.ParseKind(e)
		if err != nil {
			return errors.Annotate(err, "in extended kinds")
		}
		if !k.IsExtended() {
			return errors.Reason("kind %s is not an extended kind", k)
		}
	}
	return nil
}

// Registry enables the configured extended kinds.
func (s *Schema) Registry() *value.Registry {
	var kinds []value.Kind
	for _, e := range s.Extended {
		k, _ := value.ParseKind(e) // validated in InitMessage
		kinds = append(kinds, k)
	}
	return value.NewRegistry(kinds...)
}

// Header of the output table.
func (s *Schema) Header() []string {
	h := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		h[i] = c.Header
	}
	return h
}

// Descriptor creates the record type of the schema and its bindings. Fields
// are named C0, C1, etc. in the order of the columns; optional fields are
// pointers.
func (s *Schema) Descriptor() (*bind.Descriptor, error) {
	fields := make([]reflect.StructField, len(s.Columns))
	for i, c := range s.Columns {
		t := c.kind.Type()
		if c.Optional {
			t = reflect.PtrTo(t)
		}
		fields[i] = reflect.StructField{Name: fmt.Sprintf("C%d", i), Type: t}
	}
	b := bind.NewBuilder(reflect.StructOf(fields), s.Registry())
	for i := range s.Columns {
		b.Field(fields[i].Name, s.Columns[i].options()...)
	}
	return b.Build()
}

// formatField prints a record field for display. Nil pointers are empty.
func formatField(v reflect.Value, k value.Kind) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}
	if k == value.Char {
		return string(rune(v.Int()))
	}
	switch x := v.Interface().(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case apd.Decimal:
		return x.String()
	}
	if v.CanAddr() {
		if s, ok := v.Addr().Interface().(fmt.Stringer); ok {
			return s.String()
		}
	}
	return table.FormatValue(v.Interface())
}

// Rows converts a slice of records of the schema's type into printable rows.
func (s *Schema) Rows(slice reflect.Value) []table.Row {
	rows := make([]table.Row, slice.Len())
	for i := range rows {
		rec := slice.Index(i)
		cells := make(table.Cells, len(s.Columns))
		for j, c := range s.Columns {
			cells[j] = formatField(rec.Field(j), c.kind)
		}
		rows[i] = cells
	}
	return rows
}
