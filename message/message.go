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

// Package message binds generic configuration trees decoded from JSON, TOML or
// YAML to typed structs.
package message

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/stockparfait/errors"
)

// Message is the primitive building block of a configuration file. It
// typically represents an object (a table in TOML, a mapping in YAML), and is
// implemented by a struct holding the expected fields.
//
// It is intended to be implemented by struct pointers, e.g.:
//
//	type Column struct {
//	  Name     string `json:"name" required:"true"`
//	  Kind     string `json:"kind" default:"string" choices:"string,date"`
//	  Optional bool   `json:"optional"`
//	  Width    int    `default:"10"` // key is "Width"
//	  Ignored  int    `json:"-"`
//	  Next     *Column              // recursively parse Message
//	  Columns  []Column `json:"columns"` // *Column implements Message,
//	                                    // Column doesn't, but it's still
//	                                    // correctly populated.
//	}
//
//	func (c *Column) InitMessage(js any) error {
//	  return message.Init(c, js)
//	}
type Message interface {
	// InitMessage converts a generic tree, as produced by Parse, into the
	// specific message. In particular, this method typically checks for
	// required fields, sets the default values of optional fields, and makes
	// sure that no unrecognized fields are present.
	//
	// If a Message contains other Messages as fields, this method should be
	// called recursively on the nested Messages.
	InitMessage(js any) error
}

// rMessage is the reflected Message type. Since it's an interface, we cannot
// obtain it directly, thus have to create a pointer to it (which is a non-nil
// reflect.Value even if its value is nil), and thus TypeOf returns a valid
// type.
var rMessage = reflect.TypeOf((*Message)(nil)).Elem()

func convertToMessage(jv any, t reflect.Type) (reflect.Value, error) {
	var Nil reflect.Value
	if !t.Implements(rMessage) {
		return Nil, errors.Reason("type %s must implement Message", t.Name())
	}
	if t.Kind() != reflect.Ptr {
		return Nil, errors.Reason(
			"type %s implements Message but is not a pointer", t.Name())
	}
	ptr := reflect.New(t.Elem())
	if err := ptr.Interface().(Message).InitMessage(jv); err != nil {
		return Nil, errors.Annotate(err, "%s.InitMessage() failed", t.Elem().Name())
	}
	return ptr, nil
}

// number is json.Number of either encoding/json or go-json.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
}

// toFloat accepts the numeric representations of the supported decoders:
// float64 from JSON and YAML, int64 from TOML, int from YAML.
func toFloat(jv any) (float64, bool) {
	switch v := jv.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// toInt accepts integral numbers only.
func toInt(jv any) (int64, bool) {
	switch v := jv.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case number:
		i, err := v.Int64()
		return i, err == nil
	}
	f, ok := toFloat(jv)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toList(jv any) ([]any, bool) {
	switch v := jv.(type) {
	case []any:
		return v, true
	case []map[string]any: // TOML arrays of tables
		res := make([]any, len(v))
		for i, m := range v {
			res[i] = m
		}
		return res, true
	}
	return nil, false
}

// convertToType recursively converts a raw config value to basic types, slices
// and map[string]* of the target type. Pointer types implementing Message are
// initialized with their InitMessage() method. If jv == nil, set to zero or
// default Message value, as appropriate.
func convertToType(jv any, t reflect.Type) (reflect.Value, error) {
	var Nil reflect.Value
	if t.Implements(rMessage) {
		if jv == nil {
			return reflect.Zero(t), nil
		}
		ptr, err := convertToMessage(jv, t)
		if err != nil {
			return Nil, errors.Annotate(err, "failed to parse Message %s", t.Name())
		}
		return ptr, nil
	}
	if ptrTp := reflect.PtrTo(t); ptrTp.Implements(rMessage) {
		if jv == nil {
			jv = make(map[string]any) // force default values for t
		}
		ptr, err := convertToMessage(jv, ptrTp)
		if err != nil {
			return Nil, errors.Annotate(err, "failed to parse Message %s", t.Name())
		}
		return reflect.Indirect(ptr), nil
	}
	if jv == nil {
		return reflect.Zero(t), nil
	}
	switch t.Kind() {
	case reflect.Ptr:
		v, err := convertToType(jv, t.Elem())
		if err != nil {
			return Nil, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil

	case reflect.Bool:
		v2, ok := jv.(bool)
		if !ok {
			return Nil, errors.Reason("not a bool type: %v", jv)
		}
		return reflect.ValueOf(v2).Convert(t), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v2, ok := toInt(jv)
		if !ok {
			return Nil, errors.Reason("not an integer: %v", jv)
		}
		res := reflect.New(t).Elem()
		if res.OverflowInt(v2) {
			return Nil, errors.Reason("value %d overflows %s", v2, t.Kind())
		}
		res.SetInt(v2)
		return res, nil

	case reflect.Float32, reflect.Float64:
		v2, ok := toFloat(jv)
		if !ok {
			return Nil, errors.Reason("not a numeric type: %v", jv)
		}
		return reflect.ValueOf(v2).Convert(t), nil

	case reflect.String:
		v2, ok := jv.(string)
		if !ok {
			return Nil, errors.Reason("not a string type: %v", jv)
		}
		return reflect.ValueOf(v2).Convert(t), nil

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return Nil, errors.Reason(
				"map[%s] is not supported", t.Key().Kind().String())
		}
		v2, ok := jv.(map[string]any)
		if !ok {
			return Nil, errors.Reason("not a map[string] type: %v", jv)
		}
		res := reflect.MakeMap(t)
		for k, v := range v2 {
			el, err := convertToType(v, t.Elem())
			if err != nil {
				return Nil, errors.Annotate(err, "in key %s", k)
			}
			res.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), el)
		}
		return res, nil

	case reflect.Slice:
		v2, ok := toList(jv)
		if !ok {
			return Nil, errors.Reason("not a slice type: %v", jv)
		}
		res := reflect.MakeSlice(t, len(v2), len(v2))
		for i, v := range v2 {
			el, err := convertToType(v, t.Elem())
			if err != nil {
				return Nil, errors.Annotate(err, "at index %d", i)
			}
			res.Index(i).Set(el)
		}
		return res, nil

	default:
		return Nil, errors.Reason("unsupported type: %s", t.Name())
	}
}

// fromString attempts to convert a string s to the type t. This is used to
// extract default values from struct tags.
func fromString(s string, t reflect.Type) (reflect.Value, error) {
	var Nil reflect.Value
	switch t.Kind() {
	case reflect.Ptr:
		v, err := fromString(s, t.Elem())
		if err != nil {
			return Nil, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	case reflect.Bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return Nil, errors.Annotate(err, "invalid bool value: %s", s)
		}
		return reflect.ValueOf(v).Convert(t), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return Nil, errors.Annotate(err, "invalid %s value: %s", t.Kind(), s)
		}
		return reflect.ValueOf(v).Convert(t), nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return Nil, errors.Annotate(err, "invalid %s value: %s", t.Kind(), s)
		}
		return reflect.ValueOf(v).Convert(t), nil
	case reflect.String:
		return reflect.ValueOf(s).Convert(t), nil
	}
	return Nil, errors.Reason("type %s is not supported", t.Name())
}

// checkSet sets the value fv of a struct field f to the value v and checks that
// the value is valid.
func checkSet(f reflect.StructField, fv reflect.Value, v reflect.Value) error {
	if choices, ok := f.Tag.Lookup("choices"); ok {
		if f.Type.Kind() != reflect.String {
			return errors.Reason(
				"choices tag applied to a non-string field: %s", f.Name)
		}
		s := v.String()
		if !StringIn(s, strings.Split(choices, ",")...) {
			return errors.Reason(
				"value for %s is not in its choice list: '%s'", f.Name, s)
		}
	}
	fv.Set(v)
	return nil
}

// fieldKey is the key of the struct field in the config, or "" if the field is
// not part of the message.
func fieldKey(f reflect.StructField) string {
	firstChar, _ := utf8.DecodeRuneInString(f.Name)
	if !unicode.IsUpper(firstChar) {
		return ""
	}
	parts := strings.Split(f.Tag.Get("json"), ",")
	switch parts[0] {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return parts[0]
}

// Init is a generic method to be used by most Message.InitMessage
// implementations. It expects m to be a struct, and js to be a non-nil
// map[string]any. It uses struct tags to know if a field is required or if it
// has a simple default value (such as a string, number or bool).
//
// If the field type is another Message, it calls the Message's InitMessage()
// method. Otherwise, it converts whatever value it finds to the appropriate
// type and assigns it.
//
// It then checks the original config for any unrecognized fields and returns
// an error as appropriate.
//
// Recognized struct tags:
// `json:"field_name" required:"true" default:"value" choices:"one,two,three"`
//
// The `json:` tag is compatible with the encoding/json package. In particular,
// only exported fields are considered part of a message; a missing json tag is
// equivalent to `json:"FieldName"`, and qualifiers like `json:",omitempty"` are
// accepted but ignored.
//
// The "choices" tag is supported only for string fields.
func Init(m Message, js any) error {
	rt := reflect.TypeOf(m)
	if !(rt.Kind() == reflect.Ptr && rt.Elem().Kind() == reflect.Struct) {
		return errors.Reason(
			"expected Message instance to be a struct pointer, but got %s.",
			rt.Name())
	}
	if js == nil {
		return errors.Reason("config object is nil")
	}
	jsMap, ok := js.(map[string]any)
	if !ok {
		return errors.Reason("config object is not a map: %v.", js)
	}

	rt = rt.Elem() // we really need the original struct type and value
	rv := reflect.ValueOf(m).Elem()
	foundFields := make(map[string]struct{}) // to check for unknown fields
	missingRequired := []string{}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		key := fieldKey(f)
		if key == "" {
			continue
		}
		rfv := rv.Field(i)
		if jv, ok := jsMap[key]; ok {
			foundFields[key] = struct{}{}
			v, err := convertToType(jv, f.Type)
			if err != nil {
				return errors.Annotate(err, "error assigning field %s", f.Name)
			}
			if err := checkSet(f, rfv, v); err != nil {
				return err
			}
			continue
		}

		// No value in config, figure out what to do.
		if f.Tag.Get("required") == "true" {
			missingRequired = append(missingRequired, key)
			continue
		}
		if defaultVal, ok := f.Tag.Lookup("default"); ok {
			v, err := fromString(defaultVal, f.Type)
			if err != nil {
				return errors.Annotate(
					err, "error setting default value for %s", f.Name)
			}
			if err := checkSet(f, rfv, v); err != nil {
				return err
			}
			continue
		}
		// Not required and no default: set it to default Message or zero value.
		// Its validity is still checked, e.g. in case there is a `choices` tag.
		v, err := convertToType(nil, f.Type)
		if err != nil {
			return errors.Annotate(err, "error creating default value for %s", f.Name)
		}
		if err := checkSet(f, rfv, v); err != nil {
			return errors.Annotate(err, "error setting zero value for %s", f.Name)
		}
	}
	if len(missingRequired) != 0 {
		return errors.Reason(
			"missing required fields: %s",
			strings.Join(missingRequired, ", "))
	}
	extraFields := []string{}
	for k := range jsMap {
		if _, ok := foundFields[k]; ok {
			continue
		}
		extraFields = append(extraFields, k)
	}
	if len(extraFields) != 0 {
		return errors.Reason(
			"unsupported fields for %s: %s",
			rt.Name(), strings.Join(extraFields, ", "))
	}
	return nil
}

// StringIn checks that s equals one of the values.
func StringIn(s string, values ...string) bool {
	for _, v := range values {
		if s == v {
			return true
		}
	}
	return false
}
