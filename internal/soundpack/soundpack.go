// Package soundpack turns the names given on the command line into sound
// files. A name is used as given when that file exists; otherwise each
// mapper proposes candidates, in order, and the first that exists wins.
package soundpack

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/afero"
)

// PathMapper proposes candidate files for a sound name
type PathMapper interface {
	// MapPath returns the candidates for name, best first. No candidates
	// is not an error.
	MapPath(name string) ([]string, error)
	GetName() string
	GetType() string
}

// Resolver looks sound names up through a list of mappers
type Resolver struct {
	fs      afero.Fs
	mappers []PathMapper
}

// NewResolver creates a resolver that checks candidates on fs
func NewResolver(fs afero.Fs, mappers ...PathMapper) *Resolver {
	names := make([]string, 0, len(mappers))
	for _, m := range mappers {
		names = append(names, m.GetType()+":"+m.GetName())
	}
	slog.Debug("creating sound resolver", "mappers", names)

	return &Resolver{fs: fs, mappers: mappers}
}

// Resolve returns the file for name. A *FileNotFoundError lists every
// candidate that was tried.
func (r *Resolver) Resolve(name string) (string, error) {
	if name == "" {
		return "", errors.New("sound name cannot be empty")
	}

	if r.exists(name) {
		slog.Debug("sound found as given", "name", name)
		return name, nil
	}

	tried := []string{name}
	for _, mapper := range r.mappers {
		candidates, err := mapper.MapPath(name)
		if err != nil {
			slog.Error("path mapping failed", "name", name, "mapper", mapper.GetName(), "error", err)
			return "", fmt.Errorf("path mapping failed: %w", err)
		}

		for _, candidate := range candidates {
			if r.exists(candidate) {
				slog.Info("sound resolved",
					"name", name,
					"path", candidate,
					"mapper_type", mapper.GetType(),
					"mapper_name", mapper.GetName())
				return candidate, nil
			}
			tried = append(tried, candidate)
		}
	}

	slog.Debug("sound not resolved", "name", name, "candidates_checked", len(tried))
	return "", &FileNotFoundError{SoundPath: name, Paths: tried}
}

func (r *Resolver) exists(path string) bool {
	info, err := r.fs.Stat(path)
	return err == nil && !info.IsDir()
}

// FileNotFoundError reports a name that matched no file
type FileNotFoundError struct {
	SoundPath string
	Paths     []string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("sound file not found: %s (searched in: %s)", e.SoundPath, strings.Join(e.Paths, ", "))
}

// IsFileNotFoundError checks if err is or wraps a FileNotFoundError
func IsFileNotFoundError(err error) bool {
	var notFound *FileNotFoundError
	return errors.As(err, &notFound)
}
