package store

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadSeed reads an initial document tree from a .json or .yaml/.yml file.
//
// The top level must be an object mapping resource names to their values.
// JSON numbers are decoded as json.Number so identifiers keep their text.
func LoadSeed(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}

	var data map[string]any

	if isYAMLPath(path) {
		if err := yaml.Unmarshal(raw, &data); err != nil {
			return nil, errors.Wrapf(err, "parse yaml seed %q", path)
		}
		return data, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&data); err != nil {
		return nil, errors.Wrapf(err, "parse json seed %q", path)
	}

	return data, nil
}
