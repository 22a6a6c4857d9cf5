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

// Package source reads untyped tables from local data: CSV files and SQL
// queries.
package source

import (
	"encoding/csv"
	"io"
	"unicode/utf8"

	"github.com/stockparfait/errors"

	"github.com/stockparfait/tushare/message"
	"github.com/stockparfait/tushare/table"
)

// CSVConfig sets up the CSV reader.
type CSVConfig struct {
	Header []string `json:"header"` // for headless CSV
	Comma  string   `json:"comma" default:","`
	// Cell values read as no value, in addition to the empty string.
	Null []string `json:"null"`
	// Reject rows shorter than the header up front.
	Strict bool `json:"strict"`
}

var _ message.Message = &CSVConfig{}

// InitMessage implements message.Message.
func (c *CSVConfig) InitMessage(js any) error {
	if err := message.Init(c, js); err != nil {
		return errors.Annotate(err, "failed to init from JSON")
	}
	if utf8.RuneCountInString(c.Comma) != 1 {
		return errors.Reason("comma must be a single character: '%s'", c.Comma)
	}
	return nil
}

// NewCSVConfig returns the default configuration: comma-separated with a
// header line.
func NewCSVConfig() *CSVConfig {
	var c CSVConfig
	if err := c.InitMessage(map[string]any{}); err != nil {
		panic(errors.Annotate(err, "failed to init default CSVConfig"))
	}
	return &c
}

// ReadCSV reads a table from CSV. A nil config uses the defaults.
//
// When config defines a header, CSV is assumed to be headless; otherwise the
// first record is the header. Empty cells and the configured null values are
// read as nil, all other cells as strings. Rows may differ in length from the
// header unless Strict is set. The total count is unreported.
func ReadCSV(r io.Reader, c *CSVConfig) (*table.Response, error) {
	if c == nil {
		c = NewCSVConfig()
	}
	csvReader := csv.NewReader(r)
	csvReader.Comma, _ = utf8.DecodeRuneInString(c.Comma)
	csvReader.FieldsPerRecord = -1
	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read CSV")
	}
	header := c.Header
	if len(header) == 0 {
		if len(rows) == 0 {
			return nil, errors.Reason("CSV has no header")
		}
		header = rows[0]
		rows = rows[1:]
	}
	null := make(map[string]struct{}, len(c.Null))
	for _, n := range c.Null {
		null[n] = struct{}{}
	}
	items := make([][]table.Value, len(rows))
	for i, row := range rows {
		items[i] = make([]table.Value, len(row))
		for j, cell := range row {
			if _, ok := null[cell]; ok || cell == "" {
				continue
			}
			items[i][j] = cell
		}
	}
	resp := table.NewResponse(header, items...)
	if c.Strict {
		if err := resp.Validate(); err != nil {
			return nil, err
		}
	}
	return resp, nil
}
