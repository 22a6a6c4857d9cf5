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

// Package tushare converts responses of the Tushare Pro data API into typed
// records.
//
// Official documentation is at https://tushare.pro/document/1?doc_id=130 .
//
// Every API call returns the same envelope: a status code and message, and a
// table of data with the list of column names ("fields") and the rows
// ("items"). A single response may be one page of a larger result, in which
// case "has_more" is set and "count", when present, is the total number of
// rows.
//
// This package decodes an already-fetched envelope and binds its rows to a
// user-defined struct type, for example:
//
//	type StockBasic struct {
//		TsCode   string
//		Name     string
//		ListDate calendar.Date `tushare:"list_date"`
//		Area     *string       // optional
//	}
//
//	page, err := tushare.Decode[StockBasic](ctx, r)
//
// Fields bind to columns by name using struct tags interpreted by package bind.
// Fetching the data over the network is left to the caller; Request only
// serializes the body of the call.
package tushare
