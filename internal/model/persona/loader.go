package persona

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrDefinitionRequired is returned when a persona file omits the priming definition.
var ErrDefinitionRequired = errors.New("persona definition is required")

// LoadFile reads a YAML persona description. An empty path yields the built-in Seed.
func LoadFile(path string) (Persona, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Seed(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona file %q: %w", path, err)
	}

	return Parse(raw)
}

// Parse decodes a YAML persona and applies defaults for the canned texts.
func Parse(raw []byte) (Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Persona{}, fmt.Errorf("decode persona yaml: %w", err)
	}

	if strings.TrimSpace(p.Definition) == "" {
		return Persona{}, ErrDefinitionRequired
	}
	if p.ID == "" {
		p.ID = "custom-candidate"
	}

	return p.WithDefaults(), nil
}
