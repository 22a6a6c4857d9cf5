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
	"strings"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/stockparfait/errors"
	"gopkg.in/yaml.v3"
)

// Format of a configuration file.
type Format string

const (
	JSON Format = "json"
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatOf guesses the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", errors.Reason("unknown config format of %s", path)
}

// Parse decodes the configuration into a generic tree suitable for Init: the
// top level is always a map[string]any.
func Parse(data []byte, f Format) (map[string]any, error) {
	res := map[string]any{}
	var err error
	switch f {
	case JSON:
		err = json.Unmarshal(data, &res)
	case TOML:
		err = toml.Unmarshal(data, &res)
	case YAML:
		err = yaml.Unmarshal(data, &res)
	default:
		return nil, errors.Reason("unsupported format '%s'", f)
	}
	if err != nil {
		return nil, errors.Annotate(err, "failed to parse %s", f)
	}
	if res == nil { // e.g. an empty YAML document
		res = map[string]any{}
	}
	return res, nil
}

// ReadFile reads the configuration file and initializes m from it. The format
// is determined by the file extension.
func ReadFile(path string, m Message) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Annotate(err, "failed to read %s", path)
	}
	js, err := Parse(data, f)
	if err != nil {
		return errors.Annotate(err, "in %s", path)
	}
	return errors.Annotate(m.InitMessage(js), "failed to init from %s", path)
}
