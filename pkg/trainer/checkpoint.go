package trainer

import (
	"fmt"
	"path/filepath"
)

// DefaultNamePrefix names checkpoint files
const DefaultNamePrefix = "rl_model"

// CheckpointCallback saves the policy every SaveFreq steps to
// SavePath/{NamePrefix}_{steps}_steps.json
type CheckpointCallback struct {
	SaveFreq   int
	SavePath   string
	NamePrefix string
}

// CheckpointPath returns the file a checkpoint at step is written to
func (c *CheckpointCallback) CheckpointPath(step int) string {
	prefix := c.NamePrefix
	if prefix == "" {
		prefix = DefaultNamePrefix
	}
	return filepath.Join(c.SavePath, fmt.Sprintf("%s_%d_steps.json", prefix, step))
}

func (c *CheckpointCallback) OnStep(step int, s Saver) error {
	if c.SaveFreq <= 0 || step%c.SaveFreq != 0 {
		return nil
	}
	if err := s.Save(c.CheckpointPath(step)); err != nil {
		return fmt.Errorf("checkpoint at step %d: %w", step, err)
	}
	return nil
}
