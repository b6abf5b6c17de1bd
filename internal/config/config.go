// Package config loads the training configuration from YAML and applies
// command-line overrides on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full training configuration.
type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset"`
	Model    ModelConfig    `yaml:"model"`
	Training TrainingConfig `yaml:"training"`
	Output   OutputConfig   `yaml:"output"`
}

// DatasetConfig describes where the images come from and how they are
// split.
type DatasetConfig struct {
	// Archive is an optional zip file extracted into Dir before loading.
	Archive    string  `yaml:"archive"`
	Dir        string  `yaml:"dir"`
	SplitRatio float64 `yaml:"split_ratio"`
	SplitSeed  int64   `yaml:"split_seed"`
	Shuffle    bool    `yaml:"shuffle"`
}

// ModelConfig describes the network input and initialization.
type ModelConfig struct {
	ImageSize int   `yaml:"image_size"`
	Seed      int64 `yaml:"seed"`
}

// TrainingConfig describes the optimization run.
type TrainingConfig struct {
	Epochs       int     `yaml:"epochs"`
	BatchSize    int     `yaml:"batch_size"`
	Optimizer    string  `yaml:"optimizer"`
	LearningRate float32 `yaml:"learning_rate"`
	Momentum     float32 `yaml:"momentum"`
}

// OutputConfig describes optional artifacts written during training.
type OutputConfig struct {
	// PreviewGrid, when set, receives a PNG montage of the first
	// training batch.
	PreviewGrid string `yaml:"preview_grid"`
	GridColumns int    `yaml:"grid_columns"`
}

// Default returns the configuration used when a field is absent from the
// YAML file.
func Default() Config {
	return Config{
		Dataset: DatasetConfig{
			Dir:        "data/shapes",
			SplitRatio: 0.7,
			SplitSeed:  42,
		},
		Model: ModelConfig{
			ImageSize: 128,
			Seed:      0,
		},
		Training: TrainingConfig{
			Epochs:       10,
			BatchSize:    50,
			Optimizer:    "adam",
			LearningRate: 0.001,
			Momentum:     0.9,
		},
		Output: OutputConfig{
			GridColumns: 10,
		},
	}
}

// Load reads a YAML file over the defaults. Unknown fields are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// An empty file means "all defaults".
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Overrides carries command-line values that take precedence over the
// file. Zero values leave the file setting untouched.
type Overrides struct {
	DataDir      string
	Epochs       int
	BatchSize    int
	LearningRate float32
}

// Apply copies non-zero overrides into the configuration.
func (c *Config) Apply(o Overrides) {
	if o.DataDir != "" {
		c.Dataset.Dir = o.DataDir
	}
	if o.Epochs > 0 {
		c.Training.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.Training.BatchSize = o.BatchSize
	}
	if o.LearningRate > 0 {
		c.Training.LearningRate = o.LearningRate
	}
}

// Validate checks the configuration for values the pipeline cannot run
// with.
func (c *Config) Validate() error {
	if c.Dataset.Dir == "" {
		return fmt.Errorf("dataset.dir is required")
	}
	if c.Dataset.SplitRatio <= 0 || c.Dataset.SplitRatio >= 1 {
		return fmt.Errorf("dataset.split_ratio must be in (0, 1), got %v", c.Dataset.SplitRatio)
	}
	if c.Model.ImageSize <= 0 || c.Model.ImageSize%4 != 0 {
		return fmt.Errorf("model.image_size must be a positive multiple of 4, got %d", c.Model.ImageSize)
	}
	if c.Training.Epochs <= 0 {
		return fmt.Errorf("training.epochs must be positive, got %d", c.Training.Epochs)
	}
	if c.Training.BatchSize <= 0 {
		return fmt.Errorf("training.batch_size must be positive, got %d", c.Training.BatchSize)
	}
	if c.Training.LearningRate <= 0 {
		return fmt.Errorf("training.learning_rate must be positive, got %v", c.Training.LearningRate)
	}
	switch c.Training.Optimizer {
	case "sgd", "adam":
	default:
		return fmt.Errorf("training.optimizer must be sgd or adam, got %q", c.Training.Optimizer)
	}
	if c.Output.PreviewGrid != "" && c.Output.GridColumns <= 0 {
		return fmt.Errorf("output.grid_columns must be positive, got %d", c.Output.GridColumns)
	}
	return nil
}
