// Package config decodes YAML configuration files, expanding ${VAR}
// environment references in the raw document before unmarshalling.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is implemented by config types that check themselves
// after decoding.
type Validator interface {
	Validate() error
}

// Load reads filename, expands environment variables, and decodes the
// YAML into target. Fields absent from the document keep whatever
// values target already holds, so callers pass a pre-filled default
// struct. When target implements Validator, validation runs last.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read config %s: %w", filename, err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), target); err != nil {
		return fmt.Errorf("parse config %s: %w", filename, err)
	}

	if v, ok := any(target).(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate config %s: %w", filename, err)
		}
	}

	return nil
}
