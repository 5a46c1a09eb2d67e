package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TaskSeed is one periodic task entry in a tasks.yaml seed file, letting an
// operator check a task list into version control instead of creating
// tasks one at a time through the HTTP API.
type TaskSeed struct {
	Name            string `yaml:"name"`
	Prompt          string `yaml:"prompt"`
	IntervalSeconds int    `yaml:"interval_seconds"`
	ChannelID       string `yaml:"channel_id"`
	WorkingDir      string `yaml:"working_dir"`
	RunImmediately  bool   `yaml:"run_immediately"`
}

// LoadTaskSeed reads a tasks.yaml file listing periodic tasks to
// pre-populate at startup. A missing path is not an error: seeding is
// optional, and most deployments create tasks through the API instead.
func LoadTaskSeed(path string) ([]TaskSeed, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading task seed file %s: %w", path, err)
	}

	var seed struct {
		Tasks []TaskSeed `yaml:"tasks"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing task seed file %s: %w", path, err)
	}
	return seed.Tasks, nil
}
