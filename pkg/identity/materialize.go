package identity

import (
	"fmt"
	"os"
)

// CollisionError reports that a non-debug experiment directory already exists
type CollisionError struct {
	Path string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s already exists; delete it manually or pick another experiment index to train again", e.Path)
}

// Materialize guarantees that id.Path exists and contains only an empty
// models directory. An existing directory is a collision unless the
// identity is a debug one, in which case its contents are replaced.
func Materialize(id Identity) error {
	_, err := os.Stat(id.Path)
	switch {
	case err == nil:
		if !id.Debug {
			return &CollisionError{Path: id.Path}
		}
		if err := os.RemoveAll(id.Path); err != nil {
			return fmt.Errorf("failed to clear debug directory %s: %w", id.Path, err)
		}
	case !os.IsNotExist(err):
		return fmt.Errorf("failed to stat %s: %w", id.Path, err)
	}

	if err := os.MkdirAll(id.ModelsPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", id.ModelsPath(), err)
	}
	return nil
}
