package soundpack

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// DirectoryMapper looks names up below a list of base directories
type DirectoryMapper struct {
	name       string
	basePaths  []string
	extensions []string
}

// NewDirectoryMapper creates a directory mapper. When a name has no
// extension each of extensions is also tried, in order.
func NewDirectoryMapper(name string, basePaths []string, extensions ...string) *DirectoryMapper {
	slog.Debug("creating directory mapper",
		"name", name,
		"base_paths", basePaths,
		"extensions", extensions)

	return &DirectoryMapper{
		name:       name,
		basePaths:  basePaths,
		extensions: extensions,
	}
}

// MapPath returns one candidate per base directory and extension. Absolute
// names and names that climb out of the base directory get no candidates.
func (d *DirectoryMapper) MapPath(name string) ([]string, error) {
	clean := filepath.Clean(name)
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return nil, nil
	}

	names := []string{clean}
	if filepath.Ext(clean) == "" {
		for _, ext := range d.extensions {
			names = append(names, clean+ext)
		}
	}

	var candidates []string
	for _, basePath := range d.basePaths {
		for _, n := range names {
			candidates = append(candidates, filepath.Join(basePath, n))
		}
	}
	return candidates, nil
}

// GetName returns the name of this directory mapper
func (d *DirectoryMapper) GetName() string {
	return d.name
}

// GetType returns the type identifier for directory mappers
func (d *DirectoryMapper) GetType() string {
	return "directory"
}
