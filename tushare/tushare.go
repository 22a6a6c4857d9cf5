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

package tushare

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/goccy/go-json"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"

	"github.com/stockparfait/tushare/bind"
	"github.com/stockparfait/tushare/page"
	"github.com/stockparfait/tushare/table"
	"github.com/stockparfait/tushare/value"
)

type contextKey int

const (
	registryContextKey contextKey = iota
)

// UseRegistry injects the conversion registry into the context. It selects
// which extended field kinds Convert and Decode accept.
func UseRegistry(ctx context.Context, reg *value.Registry) context.Context {
	return context.WithValue(ctx, registryContextKey, reg)
}

// GetRegistry extracts the registry from the context, or returns
// value.Default.
func GetRegistry(ctx context.Context) *value.Registry {
	reg, ok := ctx.Value(registryContextKey).(*value.Registry)
	if !ok || reg == nil {
		return value.Default
	}
	return reg
}

// Data is the table part of the response.
type Data struct {
	Fields  []string        `json:"fields"`
	Items   [][]table.Value `json:"items"`
	HasMore bool            `json:"has_more"`
	Count   *int64          `json:"count,omitempty"` // nil when not reported
}

// Response is the envelope of an API response.
type Response struct {
	RequestID string `json:"request_id"`
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	Data      *Data  `json:"data"`
}

// APIError is the error reported by the server in the response envelope.
type APIError struct {
	Code      int
	Msg       string
	RequestID string
}

var _ error = &APIError{}

func (e *APIError) Error() string {
	s := fmt.Sprintf("tushare API error %d: %s", e.Code, e.Msg)
	if e.RequestID != "" {
		s += fmt.Sprintf(" [request %s]", e.RequestID)
	}
	return s
}

// Table converts the data of the response into a table.Response. An
// unreported count becomes negative.
func (r *Response) Table() *table.Response {
	if r.Data == nil {
		return table.NewResponse(nil)
	}
	t := table.NewResponse(r.Data.Fields, r.Data.Items...)
	t.HasMore = r.Data.HasMore
	if r.Data.Count != nil {
		t.Count = *r.Data.Count
	}
	return t
}

// DecodeResponse reads the JSON envelope. Numbers in cells are kept as
// json.Number to preserve their text. A non-zero status code yields *APIError.
func DecodeResponse(r io.Reader) (*Response, error) {
	var resp Response
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, errors.Annotate(err, "failed to decode response")
	}
	if resp.Code != 0 {
		return nil, &APIError{Code: resp.Code, Msg: resp.Msg, RequestID: resp.RequestID}
	}
	if resp.Data == nil {
		return nil, errors.Reason("response %s has no data", resp.RequestID)
	}
	return &resp, nil
}

// TestResponse generates the JSON string in the format returned by the API.
// A negative count is omitted. For use in tests.
func TestResponse(fields []string, items [][]table.Value, hasMore bool, count int64) (string, error) {
	data := &Data{Fields: fields, Items: items, HasMore: hasMore}
	if count >= 0 {
		data.Count = &count
	}
	bytes, err := json.Marshal(&Response{RequestID: "test", Data: data})
	return string(bytes), err
}

// ConvertWith binds the rows of the table to records using the descriptor d
// and wraps them in a page. Conversion errors are returned as *table.Error.
func ConvertWith[T any](ctx context.Context, d *bind.Descriptor, resp *table.Response) (*page.List[T], error) {
	items, err := bind.DecodeWith[T](d, resp)
	if err != nil {
		logging.Debugf(ctx, "conversion to %s failed: %s", d.Type(), err.Error())
		return nil, err
	}
	logging.Debugf(ctx, "converted %d rows to %s", len(items), d.Type())
	return page.New(items, resp.HasMore, resp.Count)
}

// Convert binds the rows of the table to records of type T described by its
// struct tags, with the registry from the context.
func Convert[T any](ctx context.Context, resp *table.Response) (*page.List[T], error) {
	var zero T
	d, err := bind.Cached(reflect.TypeOf(zero), GetRegistry(ctx))
	if err != nil {
		return nil, err
	}
	return ConvertWith[T](ctx, d, resp)
}

// Decode reads the response envelope and converts its data to records of type
// T.
func Decode[T any](ctx context.Context, r io.Reader) (*page.List[T], error) {
	resp, err := DecodeResponse(r)
	if err != nil {
		return nil, err
	}
	logging.Debugf(ctx, "request %s: %d fields, %d rows, has_more=%v",
		resp.RequestID, len(resp.Data.Fields), len(resp.Data.Items), resp.Data.HasMore)
	return Convert[T](ctx, resp.Table())
}
