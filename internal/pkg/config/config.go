// Package config reads the gateway configuration from YAML or JSON files
// and decodes it into typed structs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/c2h5oh/datasize"
	"github.com/imdario/mergo"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// Data is a decoded but untyped configuration tree.
type Data = map[string]any

// ReadConfigFile decodes a json, yml or yaml file into v.
func ReadConfigFile(filename string, v any) error {
	bb, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	switch filepath.Ext(filename) {
	case ".json":
		return json.Unmarshal(bb, v)
	case ".yml", ".yaml":
		return yaml.Unmarshal(bb, v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFileType, filename)
	}
}

// Merge merges src into dst. Values of src take precedence, nested maps
// are merged key by key and lists are replaced.
func Merge(dst, src Data) error {
	return mergo.Merge(&dst, src, mergo.WithOverride)
}

// Load parses defaults as YAML and merges the config file at path on top
// of it. An empty path yields the defaults.
func Load(defaults []byte, path string) (Data, error) {
	data := Data{}
	if err := yaml.Unmarshal(defaults, &data); err != nil {
		return nil, fmt.Errorf("parsing defaults: %w", err)
	}

	if path == "" {
		return data, nil
	}

	fileData := Data{}
	if err := ReadConfigFile(path, &fileData); err != nil {
		return nil, err
	}

	if err := Merge(data, fileData); err != nil {
		return nil, err
	}
	return data, nil
}

// Unmarshal decodes data into the struct pointed to by v using its
// mapstructure tags. Durations are parsed from strings like "5s" and byte
// sizes from strings like "2MB".
func Unmarshal(data Data, v any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           v,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			byteSizeHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	return decoder.Decode(data)
}

func byteSizeHookFunc() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(datasize.ByteSize(0)) {
			return data, nil
		}

		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(data.(string))); err != nil {
			return nil, err
		}
		return size, nil
	}
}
