package pipeline

import (
	"bytes"

	"github.com/matzehuels/dungeonforge/pkg/generator"
	dfio "github.com/matzehuels/dungeonforge/pkg/io"
)

// Load reads and validates a generator file (.json, .dfg, .yaml, .yml or
// .toml).
func Load(path string) (*generator.Generator, error) {
	return dfio.ReadGeneratorFile(path)
}

// Decode parses and validates a generator document held in memory.
func Decode(data []byte, format dfio.Format) (*generator.Generator, error) {
	g, err := dfio.ReadGenerator(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
