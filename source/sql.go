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

package source

import (
	"context"
	"database/sql"
	"time"

	"github.com/stockparfait/errors"

	"github.com/stockparfait/tushare/table"
)

const (
	sqlDateLayout     = "2006-01-02"
	sqlDatetimeLayout = "2006-01-02 15:04:05"
)

// sqlValue normalizes a scanned value into a table cell. Text columns may be
// scanned as []byte, and timestamps are printed in a format the date cascade
// recognizes.
func sqlValue(v any) table.Value {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		x = x.UTC()
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(sqlDateLayout)
		}
		return x.Format(sqlDatetimeLayout)
	}
	return v
}

// FromSQL runs the query and reads all of its result rows into a table. Column
// names become fields; NULL becomes nil. The total count is unreported.
func FromSQL(ctx context.Context, db *sql.DB, query string, args ...any) (*table.Response, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Annotate(err, "query failed")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Annotate(err, "failed to read columns")
	}
	items := [][]table.Value{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Annotate(err, "failed to scan row %d", len(items))
		}
		row := make([]table.Value, len(cols))
		for i, v := range values {
			row[i] = sqlValue(v)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Annotate(err, "failed to iterate rows")
	}
	return table.NewResponse(cols, items...), nil
}

// Open opens a database with the named driver. The drivers for "sqlite",
// "postgres" and "mysql" are registered by the binary that imports them.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open %s database", driver)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Annotate(err, "failed to connect to %s database", driver)
	}
	return db, nil
}
