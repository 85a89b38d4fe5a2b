package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	dferrors "github.com/matzehuels/dungeonforge/pkg/errors"
	"github.com/matzehuels/dungeonforge/pkg/generator"
)

// WriteGenerator encodes g in the given format. The output reads back with
// [ReadGenerator].
func WriteGenerator(w io.Writer, g *generator.Generator, format Format) error {
	if format == FormatJSON {
		return WriteJSON(w, g)
	}

	// Go through JSON so every format uses the same field names.
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(doc); err != nil {
			return fmt.Errorf("encode toml: %w", err)
		}
		return nil
	}
	return dferrors.New(dferrors.ErrCodeInvalidFormat, "unknown format %q", format)
}

// WriteJSON writes v as indented JSON. It is used for generation and
// simulation results as well as generator files.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes v as indented JSON to the file at path.
func ExportJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ExportGenerator writes g to path in the format its extension selects.
func ExportGenerator(path string, g *generator.Generator) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGenerator(f, g, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
