package environment

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Clone returns a deep copy of env. The copy shares no state with env, so
// stepping one never affects the other.
func Clone(env Env) (Env, error) {
	copied, err := copystructure.Copy(env)
	if err != nil {
		return nil, fmt.Errorf("failed to clone %s environment: %w", env.Kind(), err)
	}
	c, ok := copied.(Env)
	if !ok {
		return nil, fmt.Errorf("cloned %T does not implement Env", copied)
	}
	return c, nil
}
