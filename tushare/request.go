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
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/stockparfait/errors"

	"github.com/stockparfait/tushare/bind"
)

// TokenEnvVar is the environment variable holding the API token.
const TokenEnvVar = "TUSHARE_TOKEN"

// Request is the body of an API call.
type Request struct {
	APIName string
	Token   string
	Params  map[string]string
	Fields  []string // columns to return; empty means all
}

type request struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

// NewRequest creates a Request for the api, selecting the columns read by the
// descriptor.
func NewRequest(api, token string, d *bind.Descriptor) *Request {
	r := &Request{APIName: api, Token: token, Params: map[string]string{}}
	if d != nil {
		for _, f := range d.Fields() {
			if !f.Skip {
				r.Fields = append(r.Fields, f.Source)
			}
		}
	}
	return r
}

// Param sets a request parameter.
func (r *Request) Param(key, value string) *Request {
	if r.Params == nil {
		r.Params = make(map[string]string)
	}
	r.Params[key] = value
	return r
}

// JSON serializes the request in the format accepted by the API. The fields
// are sent as a comma-separated list.
func (r *Request) JSON() ([]byte, error) {
	if r.APIName == "" {
		return nil, errors.Reason("request has no API name")
	}
	params := r.Params
	if params == nil {
		params = map[string]string{}
	}
	return json.Marshal(&request{
		APIName: r.APIName,
		Token:   r.Token,
		Params:  params,
		Fields:  strings.Join(r.Fields, ","),
	})
}

// TokenFromEnv returns the API token from the TUSHARE_TOKEN environment
// variable. The variable is first loaded from the given dotenv files (".env"
// by default) unless it is already set; missing files are ignored.
func TokenFromEnv(files ...string) (string, error) {
	if token := os.Getenv(TokenEnvVar); token != "" {
		return token, nil
	}
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return "", errors.Annotate(err, "failed to load %s", f)
		}
	}
	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return "", errors.Reason("%s is not set", TokenEnvVar)
	}
	return token, nil
}
