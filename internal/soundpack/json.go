package soundpack

import (
	"log/slog"
)

// JSONMapper maps names to files through the "sounds" table of the
// configuration file
type JSONMapper struct {
	name    string
	mapping map[string]string
}

// NewJSONMapper creates a mapper over a name -> file table
func NewJSONMapper(name string, mapping map[string]string) *JSONMapper {
	slog.Debug("creating JSON mapper", "name", name, "mapping_keys_count", len(mapping))

	return &JSONMapper{
		name:    name,
		mapping: mapping,
	}
}

// MapPath returns the mapped file, if any
func (j *JSONMapper) MapPath(name string) ([]string, error) {
	slog.Debug("mapping sound name", "mapper", j.name, "sound", name)

	if path, ok := j.mapping[name]; ok && path != "" {
		slog.Debug("JSON mapping found", "sound", name, "file", path)
		return []string{path}, nil
	}

	slog.Debug("JSON mapping not found", "sound", name)
	return nil, nil
}

// GetName returns the name of this JSON mapper
func (j *JSONMapper) GetName() string {
	return j.name
}

// GetType returns the type identifier for JSON mappers
func (j *JSONMapper) GetType() string {
	return "json"
}
