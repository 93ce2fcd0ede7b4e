// Package manifest records the configuration of a run inside its
// experiment directory.
package manifest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/brianbland/fairrl/pkg/variant"
)

// FileName is the manifest written into every experiment directory
const FileName = "params.json"

// PersistenceError reports that the manifest could not be written. A run
// must not start without a recorded configuration.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist configuration to %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Documents returns the manifest objects in write order
func Documents(g variant.Groups, eval variant.EvalParams) []any {
	return []any{
		g.Mitigation,
		g.Baselines,
		g.EnvBase.Recorded(),
		g.ShapingTrain,
		g.Training,
		eval,
	}
}

// Write stores the parameter groups as concatenated JSON objects in
// dir/params.json
func Write(dir string, g variant.Groups, eval variant.EvalParams) error {
	path := filepath.Join(dir, FileName)

	var buf bytes.Buffer
	for _, doc := range Documents(g, eval) {
		data, err := json.MarshalIndent(doc, "", "    ")
		if err != nil {
			return &PersistenceError{Path: path, Err: err}
		}
		buf.Write(data)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}

// Read decodes every object of dir/params.json in order
func Read(dir string) ([]map[string]any, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []map[string]any
	dec := json.NewDecoder(f)
	for {
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode %s: %w", FileName, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
