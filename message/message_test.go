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

package message

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stockparfait/testutil"

	. "github.com/smartystreets/goconvey/convey"
)

type column struct {
	Name     string            `json:"name" required:"true"`
	Kind     string            `json:"kind" choices:"string,int,date" default:"string"`
	Optional bool              `json:"optional"`
	Width    int               `default:"10"` // key is "Width"
	Scale    float64           `json:"scale" default:"1.5"`
	Limit    *int32            `json:"limit" default:"100"`
	Columns  []*column         `json:"columns,omitempty"`
	Labels   map[string]string `json:"labels"`
	Ignored  int               `json:"-"`
	internal int
}

func (c *column) InitMessage(js any) error {
	return Init(c, js)
}

type badChoice struct {
	Choice string `choices:"foo,bar"` // no default
}

func (b *badChoice) InitMessage(js any) error {
	return Init(b, js)
}

type schema struct {
	Table   string   `json:"table" required:"true"`
	Columns []column `json:"columns"`
}

func (s *schema) InitMessage(js any) error {
	return Init(s, js)
}

func TestMessage(t *testing.T) {
	t.Parallel()

	Convey("Init() works", t, func() {
		Convey("with required fields only", func() {
			var c column
			So(c.InitMessage(testutil.JSON(`{"name": "close"}`)), ShouldBeNil)
			So(c.Name, ShouldEqual, "close")
			So(c.Kind, ShouldEqual, "string")
			So(c.Optional, ShouldBeFalse)
			So(c.Width, ShouldEqual, 10)
			So(c.Scale, ShouldEqual, 1.5)
			So(*c.Limit, ShouldEqual, 100)
			So(len(c.Columns), ShouldEqual, 0)
		})

		Convey("with nested Message entries", func() {
			var c column
			So(c.InitMessage(testutil.JSON(`{
        "name": "root", "limit": null, "optional": true, "Width": 3,
        "labels": {"a": "x", "b": "y"},
        "columns": [
          {"name": "one", "kind": "int"},
          {"name": "two", "limit": 7}]
      }`)), ShouldBeNil)
			So(c.Name, ShouldEqual, "root")
			So(c.Limit, ShouldBeNil)
			So(c.Optional, ShouldBeTrue)
			So(c.Width, ShouldEqual, 3)
			So(c.Labels, ShouldResemble, map[string]string{"a": "x", "b": "y"})
			So(len(c.Columns), ShouldEqual, 2)
			So(c.Columns[0].Kind, ShouldEqual, "int")
			So(*c.Columns[0].Limit, ShouldEqual, 100)
			So(*c.Columns[1].Limit, ShouldEqual, 7)
			So(c.internal, ShouldEqual, 0)
		})

		Convey("with missing fields in a nested Message", func() {
			var c column
			So(c.InitMessage(testutil.JSON(`{"name": "x", "columns": [{"kind": "int"}]}`)),
				ShouldNotBeNil)
		})

		Convey("with ignored fields", func() {
			var c column
			err := c.InitMessage(testutil.JSON(`{"name": "x", "Ignored": 5}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unsupported fields for column: Ignored")
		})

		Convey("with a wrong choice", func() {
			var c column
			err := c.InitMessage(testutil.JSON(`{"name": "x", "kind": "blob"}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring,
				"value for Kind is not in its choice list: 'blob'")
		})

		Convey("with incorrect default choice", func() {
			var b badChoice
			err := b.InitMessage(testutil.JSON(`{}`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring,
				"value for Choice is not in its choice list: ''")
		})

		Convey("with a fractional integer", func() {
			var c column
			So(c.InitMessage(testutil.JSON(`{"name": "x", "Width": 2.5}`)), ShouldNotBeNil)
		})

		Convey("with integers of other decoders", func() {
			var c column
			So(c.InitMessage(map[string]any{
				"name": "x", "Width": int64(4), "scale": 2, "limit": int(9)}), ShouldBeNil)
			So(c.Width, ShouldEqual, 4)
			So(c.Scale, ShouldEqual, 2.0)
			So(*c.Limit, ShouldEqual, 9)
		})

		Convey("with an overflowing integer", func() {
			var c column
			So(c.InitMessage(map[string]any{"name": "x", "limit": int64(1) << 40}),
				ShouldNotBeNil)
		})
	})

	Convey("Parse works", t, func() {
		Convey("JSON", func() {
			js, err := Parse([]byte(`{"table": "daily", "columns": [{"name": "close"}]}`), JSON)
			So(err, ShouldBeNil)
			var s schema
			So(s.InitMessage(js), ShouldBeNil)
			So(s.Table, ShouldEqual, "daily")
			So(s.Columns[0].Name, ShouldEqual, "close")
		})

		Convey("TOML", func() {
			js, err := Parse([]byte(`
table = "daily"

[[columns]]
name = "vol"
kind = "int"
Width = 12

[[columns]]
name = "close"
scale = 2
`), TOML)
			So(err, ShouldBeNil)
			var s schema
			So(s.InitMessage(js), ShouldBeNil)
			So(len(s.Columns), ShouldEqual, 2)
			So(s.Columns[0].Width, ShouldEqual, 12)
			So(s.Columns[1].Scale, ShouldEqual, 2.0)
		})

		Convey("YAML", func() {
			js, err := Parse([]byte(`
table: daily
columns:
  - name: trade_date
    kind: date
    optional: true
    labels:
      source: exchange
`), YAML)
			So(err, ShouldBeNil)
			var s schema
			So(s.InitMessage(js), ShouldBeNil)
			So(s.Columns[0].Kind, ShouldEqual, "date")
			So(s.Columns[0].Optional, ShouldBeTrue)
			So(s.Columns[0].Labels, ShouldResemble, map[string]string{"source": "exchange"})
		})

		Convey("malformed input", func() {
			_, err := Parse([]byte(`table = `), TOML)
			So(err, ShouldNotBeNil)
			_, err = Parse([]byte(`{}`), Format("ini"))
			So(err, ShouldNotBeNil)
		})
	})

	Convey("ReadFile works", t, func() {
		tmpdir := t.TempDir()
		Convey("by extension", func() {
			path := filepath.Join(tmpdir, "schema.yml")
			So(os.WriteFile(path, []byte("table: daily\n"), 0o644), ShouldBeNil)
			var s schema
			So(ReadFile(path, &s), ShouldBeNil)
			So(s.Table, ShouldEqual, "daily")
		})

		Convey("unknown extension", func() {
			var s schema
			So(ReadFile(filepath.Join(tmpdir, "schema.ini"), &s), ShouldNotBeNil)
		})

		Convey("missing required field", func() {
			path := filepath.Join(tmpdir, "schema.toml")
			So(os.WriteFile(path, []byte("columns = []\n"), 0o644), ShouldBeNil)
			var s schema
			err := ReadFile(path, &s)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "missing required fields: table")
		})
	})

	Convey("FormatOf works", t, func() {
		f, err := FormatOf("a/b.TOML")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, TOML)
		f, err = FormatOf("x.yaml")
		So(err, ShouldBeNil)
		So(f, ShouldEqual, YAML)
	})

	Convey("StringIn works", t, func() {
		So(StringIn("date", "string", "date", "int"), ShouldBeTrue)
		So(StringIn("blob", "string", "date"), ShouldBeFalse)
	})
}
