package cli

import (
	"fmt"
	"strings"
)

// parseParams parses repeated --param name=value flags. Values stay
// strings; the generator coerces them to the declared parameter types.
func parseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q (want name=value)", p)
		}
		out[name] = value
	}
	return out, nil
}
