package train

import (
	"errors"
	"fmt"
)

// Config holds all hyperparameters for an adversarial training run.
//
// A Config is built once (from the CLI via viper, or literally in
// tests), validated, and then treated as immutable by the trainer.
type Config struct {
	// DataDir is the directory of training image pairs. Ignored when
	// Synthetic is set.
	DataDir string `mapstructure:"data_dir"`
	// Synthetic replaces the on-disk dataset with generated pairs, for
	// smoke runs without data.
	Synthetic bool `mapstructure:"synthetic"`
	// CropSize is the high-resolution crop edge in pixels (default: 96)
	CropSize int `mapstructure:"crop_size"`
	// ScalingFactor is the super-resolution upscale factor (default: 4)
	ScalingFactor int `mapstructure:"scaling_factor"`
	// BatchSize is the number of image pairs per batch (default: 16)
	BatchSize int `mapstructure:"batch_size"`
	// Epochs is the total number of training epochs (default: 100)
	Epochs int `mapstructure:"epochs"`
	// LearningRate is the initial rate for both optimizers (default: 1e-4)
	LearningRate float32 `mapstructure:"learning_rate"`
	// Beta weights the adversarial term in the perceptual loss (default: 1e-3)
	Beta float32 `mapstructure:"beta"`
	// DecayFactor multiplies the learning rate at the midpoint epoch (default: 0.1)
	DecayFactor float32 `mapstructure:"decay_factor"`
	// CheckpointPath is where the rolling checkpoint is written (default: "checkpoint_srgan.srgn")
	CheckpointPath string `mapstructure:"checkpoint_path"`
	// PretrainedGenerator optionally seeds the generator from a weights
	// file before adversarial training starts. Empty disables it.
	PretrainedGenerator string `mapstructure:"pretrained_generator"`
	// Resume loads the checkpoint at CheckpointPath and continues from
	// the stored epoch.
	Resume bool `mapstructure:"resume"`
	// Seed fixes the RNG for shuffling and synthetic data. 0 seeds from
	// the clock.
	Seed int64 `mapstructure:"seed"`
}

// DefaultConfig returns the hyperparameters of the reference SRGAN
// training recipe.
func DefaultConfig() Config {
	return Config{
		CropSize:       96,
		ScalingFactor:  4,
		BatchSize:      16,
		Epochs:         100,
		LearningRate:   1e-4,
		Beta:           1e-3,
		DecayFactor:    0.1,
		CheckpointPath: "checkpoint_srgan.srgn",
	}
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the configuration before any training work starts.
func (c Config) Validate() error {
	switch {
	case c.DataDir == "" && !c.Synthetic:
		return fmt.Errorf("%w: data_dir is required unless synthetic is set", ErrInvalidConfig)
	case c.CropSize <= 0:
		return fmt.Errorf("%w: crop_size must be positive, got %d", ErrInvalidConfig, c.CropSize)
	case c.ScalingFactor <= 0:
		return fmt.Errorf("%w: scaling_factor must be positive, got %d", ErrInvalidConfig, c.ScalingFactor)
	case c.CropSize%c.ScalingFactor != 0:
		return fmt.Errorf("%w: crop_size %d is not divisible by scaling_factor %d", ErrInvalidConfig, c.CropSize, c.ScalingFactor)
	case c.BatchSize <= 0:
		return fmt.Errorf("%w: batch_size must be positive, got %d", ErrInvalidConfig, c.BatchSize)
	case c.Epochs <= 0:
		return fmt.Errorf("%w: epochs must be positive, got %d", ErrInvalidConfig, c.Epochs)
	case c.LearningRate <= 0:
		return fmt.Errorf("%w: learning_rate must be positive, got %g", ErrInvalidConfig, c.LearningRate)
	case c.Beta < 0:
		return fmt.Errorf("%w: beta must be non-negative, got %g", ErrInvalidConfig, c.Beta)
	case c.DecayFactor <= 0 || c.DecayFactor > 1:
		return fmt.Errorf("%w: decay_factor must be in (0, 1], got %g", ErrInvalidConfig, c.DecayFactor)
	case c.CheckpointPath == "":
		return fmt.Errorf("%w: checkpoint_path is required", ErrInvalidConfig)
	}
	return nil
}

// DecayEpoch returns the zero-based epoch at which the learning-rate
// decay fires: the midpoint of the run.
func (c Config) DecayEpoch() int {
	return c.Epochs / 2
}
