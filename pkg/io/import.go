package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/generator"
)

// Format is a generator file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension. ".dfg" project
// files are JSON.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".dfg":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", dferrors.New(dferrors.ErrCodeInvalidFormat, "unsupported generator file %q (want .json, .dfg, .yaml, .yml or .toml)", path)
}

// ReadGenerator decodes a generator definition from r.
//
// JSON is decoded directly. YAML and TOML are decoded into generic values
// first and then re-encoded as JSON, so all three formats share the JSON
// field names and the node data decoding rules of package graph.
//
// The generator is not validated; call [generator.Generator.Validate].
// ReadGenerator does not close r.
func ReadGenerator(r io.Reader, format Format) (*generator.Generator, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	switch format {
	case FormatJSON:
	case FormatYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, dferrors.Wrap(dferrors.ErrCodeInvalidFormat, err, "decode yaml")
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, dferrors.Wrap(dferrors.ErrCodeInvalidFormat, err, "convert yaml")
		}
	case FormatTOML:
		var doc map[string]any
		if _, err := toml.Decode(string(data), &doc); err != nil {
			return nil, dferrors.Wrap(dferrors.ErrCodeInvalidFormat, err, "decode toml")
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, dferrors.Wrap(dferrors.ErrCodeInvalidFormat, err, "convert toml")
		}
	default:
		return nil, dferrors.New(dferrors.ErrCodeInvalidFormat, "unknown format %q", format)
	}

	var g generator.Generator
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, dferrors.Wrap(dferrors.ErrCodeInvalidFormat, err, "decode generator")
	}
	return &g, nil
}

// ReadGeneratorFile reads and validates the generator definition at path.
// The format is chosen by [FormatFromPath].
func ReadGeneratorFile(path string) (*generator.Generator, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, dferrors.Wrap(dferrors.ErrCodeFileNotFound, err, "generator file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	g, err := ReadGenerator(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
