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

// Command tushare-convert converts saved tabular data into typed records
// according to a schema file, and prints them as a text table or CSV.
//
// The inputs are Tushare API responses in JSON, CSV files, or a SQL query.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"reflect"
	"runtime"
	"sort"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	_ "modernc.org/sqlite"

	"github.com/stockparfait/tushare/bind"
	"github.com/stockparfait/tushare/message"
	"github.com/stockparfait/tushare/source"
	"github.com/stockparfait/tushare/table"
	"github.com/stockparfait/tushare/tushare"
)

type Flags struct {
	Schema      string // required
	LogLevel    logging.Level
	InputFormat string // json or csv
	CSV         bool   // dump CSV format; default: text.
	Rows        int    // max. rows to print; 0 = all
	// SQL source; when Driver is set, Query is required.
	Driver string
	DSN    string
	Query  string
	Files  []string
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("tushare-convert", flag.ExitOnError)
	fs.StringVar(&flags.Schema, "schema", "", "record schema file: TOML, YAML or JSON (required)")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")
	fs.StringVar(&flags.InputFormat, "input-format", "json",
		"format of input files: json (API response) or csv")
	fs.BoolVar(&flags.CSV, "csv", false, "print table in CSV format; default: text")
	fs.IntVar(&flags.Rows, "rows", 0, "max. number of rows to print; 0 = all")
	fs.StringVar(&flags.Driver, "driver", "", "SQL driver: sqlite, postgres or mysql")
	fs.StringVar(&flags.DSN, "dsn", "", "SQL data source name")
	fs.StringVar(&flags.Query, "query", "", "SQL query selecting the input table")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	flags.Files = fs.Args()
	if flags.Schema == "" {
		return nil, errors.Reason("missing required -schema argument")
	}
	if !message.StringIn(flags.InputFormat, "json", "csv") {
		return nil, errors.Reason("unsupported -input-format '%s'", flags.InputFormat)
	}
	if flags.Driver != "" && flags.Query == "" {
		return nil, errors.Reason("-driver requires -query")
	}
	if flags.Driver == "" && len(flags.Files) == 0 {
		return nil, errors.Reason("expected input files or -driver")
	}
	if flags.Rows < 0 {
		return nil, errors.Reason("-rows must be non-negative")
	}
	return &flags, nil
}

type job struct {
	index int
	path  string
}

type result struct {
	index int
	rows  []table.Row
	err   error
}

// readTable reads one input file in the given format.
func readTable(path, format string, schema *Schema) (*table.Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open %s", path)
	}
	defer f.Close()

	if format == "csv" {
		return source.ReadCSV(f, &schema.CSV)
	}
	resp, err := tushare.DecodeResponse(f)
	if err != nil {
		return nil, err
	}
	return resp.Table(), nil
}

// convert binds the table to the records of the schema.
func convert(ctx context.Context, d *bind.Descriptor, schema *Schema, resp *table.Response) ([]table.Row, error) {
	out := reflect.New(reflect.SliceOf(d.Type()))
	if err := d.DecodeInto(resp, out.Interface()); err != nil {
		return nil, err
	}
	if resp.HasMore {
		logging.Warningf(ctx, "table has more rows than converted: %d of %d",
			resp.Len(), resp.Count)
	}
	return schema.Rows(out.Elem()), nil
}

// convertFiles converts the input files in parallel and concatenates the rows
// in the order of the files.
func convertFiles(ctx context.Context, flags *Flags, d *bind.Descriptor, schema *Schema) ([]table.Row, error) {
	jobs := make([]job, len(flags.Files))
	for i, f := range flags.Files {
		jobs[i] = job{index: i, path: f}
	}
	f := func(j job) result {
		resp, err := readTable(j.path, flags.InputFormat, schema)
		if err != nil {
			return result{index: j.index, err: err}
		}
		rows, err := convert(ctx, d, schema, resp)
		if err != nil {
			return result{index: j.index, err: errors.Annotate(err, "in %s", j.path)}
		}
		logging.Debugf(ctx, "converted %d rows from %s", len(rows), j.path)
		return result{index: j.index, rows: rows}
	}
	pm := iterator.ParallelMap(ctx, 2*runtime.NumCPU(), iterator.FromSlice(jobs), f)
	defer pm.Close()

	results := iterator.Reduce[result, []result](pm, []result{}, func(r result, rs []result) []result {
		return append(rs, r)
	})
	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })
	var rows []table.Row
	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
		rows = append(rows, r.rows...)
	}
	return rows, nil
}

func convertSQL(ctx context.Context, flags *Flags, d *bind.Descriptor, schema *Schema) ([]table.Row, error) {
	db, err := source.Open(ctx, flags.Driver, flags.DSN)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	resp, err := source.FromSQL(ctx, db, flags.Query)
	if err != nil {
		return nil, err
	}
	logging.Debugf(ctx, "query returned %d rows", resp.Len())
	return convert(ctx, d, schema, resp)
}

func printData(ctx context.Context, flags *Flags, w io.Writer) error {
	var schema Schema
	if err := message.ReadFile(flags.Schema, &schema); err != nil {
		return errors.Annotate(err, "failed to load schema")
	}
	d, err := schema.Descriptor()
	if err != nil {
		return errors.Annotate(err, "invalid schema")
	}
	var rows []table.Row
	if len(flags.Files) > 0 {
		if rows, err = convertFiles(ctx, flags, d, &schema); err != nil {
			return errors.Annotate(err, "failed to convert files")
		}
	}
	if flags.Driver != "" {
		sqlRows, err := convertSQL(ctx, flags, d, &schema)
		if err != nil {
			return errors.Annotate(err, "failed to convert SQL query")
		}
		rows = append(rows, sqlRows...)
	}
	logging.Infof(ctx, "converted %d records", len(rows))

	tbl := table.NewTable(schema.Header()...)
	tbl.AddRow(rows...)
	p := table.Params{Rows: flags.Rows}
	if flags.CSV {
		if err := tbl.WriteCSV(w, p); err != nil {
			return errors.Annotate(err, "failed to print CSV")
		}
		return nil
	}
	if err := tbl.WriteText(w, p); err != nil {
		return errors.Annotate(err, "failed to print text")
	}
	return nil
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	if err := printData(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
