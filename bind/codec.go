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

	"github.com/stockparfait/errors"

	"github.com/stockparfait/tushare/table"
	"github.com/stockparfait/tushare/value"
)

// absent marks a binding whose optional column is not in the table.
const absent = -1

// Plan is a Descriptor resolved against the columns of one table. It is built
// once per table and reused for all of its rows.
type Plan struct {
	desc    *Descriptor
	columns []int // column index per field; unused for skipped fields
}

// Plan resolves the column of every non-skipped binding. A duplicate column
// name is an AmbiguousField error, and a missing column of a required binding
// is a MissingField error. A missing optional column yields no value in every
// row.
func (d *Descriptor) Plan(fields []string) (*Plan, error) {
	index, err := table.NewIndex(fields)
	if err != nil {
		return nil, err
	}
	p := &Plan{desc: d, columns: make([]int, len(d.fields))}
	for i := range d.fields {
		f := &d.fields[i]
		if f.Skip {
			continue
		}
		col, ok := index.Lookup(f.Source)
		if !ok {
			if !f.Optional {
				return nil, &table.Error{
					Kind:   table.MissingField,
					Row:    -1,
					Field:  f.Target,
					Column: f.Source,
				}
			}
			col = absent
		}
		p.columns[i] = col
	}
	return p, nil
}

// DecodeRow fills in the fields of the struct value dst from the row with the
// given index. dst must be a settable value of the descriptor's type.
func (p *Plan) DecodeRow(rowIndex int, row []table.Value, dst reflect.Value) error {
	for i := range p.desc.fields {
		f := &p.desc.fields[i]
		fv := dst.FieldByIndex(f.index)
		if f.Skip {
			setDefault(fv, f)
			continue
		}
		var cell table.Value
		if col := p.columns[i]; col != absent {
			var err error
			if cell, err = table.ValueAt(row, rowIndex, col); err != nil {
				return newFieldError(err, rowIndex, f)
			}
		}
		if err := value.Assign(f.Kind, fv, cell, f.format, f.Optional); err != nil {
			return newFieldError(err, rowIndex, f)
		}
	}
	return nil
}

// setDefault assigns the default value of a skipped field. Pointer defaults are
// copied so that records don't share them.
func setDefault(fv reflect.Value, f *Field) {
	if !f.defaultValue.IsValid() {
		fv.Set(reflect.Zero(fv.Type()))
		return
	}
	if fv.Kind() == reflect.Ptr && !f.defaultValue.IsNil() {
		p := reflect.New(fv.Type().Elem())
		p.Elem().Set(f.defaultValue.Elem())
		fv.Set(p)
		return
	}
	fv.Set(f.defaultValue)
}

// DecodeInto converts all the rows of the response and stores the records in
// the slice pointed to by out, which must be a *[]T or a *[]*T for the
// descriptor's type T. The first failure aborts the conversion and leaves out
// unchanged; the returned error is a *table.Error with the row index, the
// field and the raw value where applicable.
func (d *Descriptor) DecodeInto(resp *table.Response, out interface{}) error {
	ptr := reflect.ValueOf(out)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() || ptr.Elem().Kind() != reflect.Slice {
		return errors.Reason("expected a pointer to a slice, got %T", out)
	}
	sliceType := ptr.Elem().Type()
	elemType := sliceType.Elem()
	isPtr := elemType.Kind() == reflect.Ptr
	if isPtr {
		elemType = elemType.Elem()
	}
	if elemType != d.typ {
		return errors.Reason("cannot decode %s records into %s", d.typ, sliceType)
	}
	plan, err := d.Plan(resp.Fields)
	if err != nil {
		return err
	}
	res := reflect.MakeSlice(sliceType, len(resp.Items), len(resp.Items))
	for i, row := range resp.Items {
		rec := reflect.New(d.typ)
		if err := plan.DecodeRow(i, row, rec.Elem()); err != nil {
			return err
		}
		if isPtr {
			res.Index(i).Set(rec)
		} else {
			res.Index(i).Set(rec.Elem())
		}
	}
	ptr.Elem().Set(res)
	return nil
}

// DecodeWith converts all the rows of the response into records of type T
// using the descriptor. No records are returned on error.
func DecodeWith[T any](d *Descriptor, resp *table.Response) ([]T, error) {
	var res []T
	if err := d.DecodeInto(resp, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Decode converts all the rows of the response into records of type T using
// the cached tag-based Descriptor of T.
func Decode[T any](resp *table.Response) ([]T, error) {
	d, err := For[T]()
	if err != nil {
		return nil, err
	}
	return DecodeWith[T](d, resp)
}
