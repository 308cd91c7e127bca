package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"surveystats/internal/model"
)

// SchemaFile is the on-disk form of a survey schema
type SchemaFile struct {
	ID       string          `yaml:"id"`
	Title    string          `yaml:"title"`
	Scale    *model.Scale    `yaml:"scale,omitempty"`
	Sections []model.Section `yaml:"sections"`
}

// LoadSchema reads a YAML schema file. An omitted scale means the default
// 1-4 scale.
func LoadSchema(path string) (*model.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes and validates YAML schema data
func ParseSchema(data []byte) (*model.Schema, error) {
	var f SchemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}

	scale := model.DefaultScale()
	if f.Scale != nil {
		scale = *f.Scale
	}
	schema, err := model.NewSchema(f.ID, f.Title, scale, f.Sections...)
	if err != nil {
		return nil, fmt.Errorf("invalid schema %q: %w", f.ID, err)
	}
	return schema, nil
}

// SchemaOrDefault loads path, or returns the built-in schema when path is empty
func SchemaOrDefault(path string) (*model.Schema, error) {
	if path == "" {
		return model.DefaultSchema(), nil
	}
	return LoadSchema(path)
}
