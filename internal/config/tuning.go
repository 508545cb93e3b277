package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"turn-guidance-service/internal/navigation"
)

// LoadTuning reads engine tuning from a YAML file layered over the defaults.
// An empty path or a missing file yields the defaults.
func LoadTuning(path string) (navigation.Config, error) {
	cfg := navigation.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return navigation.Config{}, fmt.Errorf("load tuning: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return navigation.Config{}, fmt.Errorf("load tuning: parse %q: %w", path, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return navigation.Config{}, fmt.Errorf("load tuning: validate %q: %w", path, err)
	}
	return cfg, nil
}
