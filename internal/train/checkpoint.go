package train

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/optim"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/serialization"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Checkpoint errors.
var (
	ErrNotFound = errors.New("checkpoint not found")
	ErrCorrupt  = errors.New("checkpoint corrupt")
	ErrMismatch = errors.New("checkpoint does not match constructed models")
)

// State-dict key prefixes. Each of the four components gets its own
// namespace so no two components can ever collide in the flat tensor
// map of the checkpoint file.
const (
	prefixGenerator     = "generator."
	prefixDiscriminator = "discriminator."
	prefixOptimizerG    = "optimizer_g."
	prefixOptimizerD    = "optimizer_d."
)

// EpochLosses is the per-epoch loss summary stored in checkpoint
// metadata and logged at epoch end.
type EpochLosses struct {
	Generator     float64 // content + beta*adversarial
	Content       float64
	Adversarial   float64
	Discriminator float64
}

// CheckpointManager persists and restores the full training state: both
// players and both optimizers, plus the epoch and run identity.
//
// It writes a single rolling checkpoint file. Save goes through a
// temporary sibling and an atomic rename, so a crash mid-write leaves
// the previous checkpoint intact.
type CheckpointManager[B tensor.Backend] struct {
	path          string
	generator     nn.Module[B]
	discriminator nn.Module[B]
	optimizerG    optim.Optimizer
	optimizerD    optim.Optimizer
	device        tensor.Device
}

// NewCheckpointManager creates a manager bound to the given models,
// optimizers and file path.
func NewCheckpointManager[B tensor.Backend](
	path string,
	generator, discriminator nn.Module[B],
	optimizerG, optimizerD optim.Optimizer,
	device tensor.Device,
) *CheckpointManager[B] {
	return &CheckpointManager[B]{
		path:          path,
		generator:     generator,
		discriminator: discriminator,
		optimizerG:    optimizerG,
		optimizerD:    optimizerD,
		device:        device,
	}
}

// Save writes the checkpoint for a completed epoch.
func (m *CheckpointManager[B]) Save(epoch int, runID string, losses EpochLosses) error {
	stateDict := make(map[string]*tensor.RawTensor)
	merge(stateDict, prefixGenerator, m.generator.StateDict())
	merge(stateDict, prefixDiscriminator, m.discriminator.StateDict())
	merge(stateDict, prefixOptimizerG, m.optimizerG.StateDict())
	merge(stateDict, prefixOptimizerD, m.optimizerD.StateDict())

	header := serialization.Header{
		CheckpointMeta: &serialization.CheckpointMeta{
			Epoch:             epoch,
			RunID:             runID,
			GeneratorLoss:     losses.Generator,
			ContentLoss:       losses.Content,
			AdversarialLoss:   losses.Adversarial,
			DiscriminatorLoss: losses.Discriminator,
		},
	}

	if err := serialization.WriteFile(m.path, stateDict, header); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return nil
}

// Load restores all four components from the checkpoint file and
// returns the stored epoch and run ID. The caller resumes training at
// epoch+1.
//
// Returns ErrNotFound when no checkpoint exists, ErrCorrupt for a
// malformed file, and ErrMismatch when the stored state does not fit
// the constructed models or optimizers.
func (m *CheckpointManager[B]) Load() (epoch int, runID string, err error) {
	stateDict, header, err := serialization.ReadFile(m.path, m.device)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, "", fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return 0, "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if header.CheckpointMeta == nil {
		return 0, "", fmt.Errorf("%w: missing checkpoint metadata", ErrCorrupt)
	}

	if err := m.generator.LoadStateDict(extract(stateDict, prefixGenerator)); err != nil {
		return 0, "", fmt.Errorf("%w: generator: %v", ErrMismatch, err)
	}
	if err := m.discriminator.LoadStateDict(extract(stateDict, prefixDiscriminator)); err != nil {
		return 0, "", fmt.Errorf("%w: discriminator: %v", ErrMismatch, err)
	}
	if err := m.optimizerG.LoadStateDict(extract(stateDict, prefixOptimizerG)); err != nil {
		return 0, "", fmt.Errorf("%w: generator optimizer: %v", ErrMismatch, err)
	}
	if err := m.optimizerD.LoadStateDict(extract(stateDict, prefixOptimizerD)); err != nil {
		return 0, "", fmt.Errorf("%w: discriminator optimizer: %v", ErrMismatch, err)
	}

	return header.CheckpointMeta.Epoch, header.CheckpointMeta.RunID, nil
}

// Losses returns the loss summary stored in the checkpoint, without
// touching any model state.
func (m *CheckpointManager[B]) Losses() (EpochLosses, error) {
	_, header, err := serialization.ReadFile(m.path, m.device)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return EpochLosses{}, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return EpochLosses{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if header.CheckpointMeta == nil {
		return EpochLosses{}, fmt.Errorf("%w: missing checkpoint metadata", ErrCorrupt)
	}
	meta := header.CheckpointMeta
	return EpochLosses{
		Generator:     meta.GeneratorLoss,
		Content:       meta.ContentLoss,
		Adversarial:   meta.AdversarialLoss,
		Discriminator: meta.DiscriminatorLoss,
	}, nil
}

// LoadPretrainedGenerator seeds a generator from a standalone weights
// file, the SRResNet initialization of the reference training recipe.
//
// The file may carry the keys under the "generator." prefix (written by
// a previous checkpoint of this tooling) or bare.
func LoadPretrainedGenerator[B tensor.Backend](path string, generator nn.Module[B], device tensor.Device) error {
	stateDict, _, err := serialization.ReadFile(path, device)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	weights := extract(stateDict, prefixGenerator)
	if len(weights) == 0 {
		weights = stateDict
	}
	if err := generator.LoadStateDict(weights); err != nil {
		return fmt.Errorf("%w: pretrained generator: %v", ErrMismatch, err)
	}
	return nil
}

func merge(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, raw := range src {
		dst[prefix+name] = raw
	}
}

func extract(src map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor)
	for name, raw := range src {
		if strings.HasPrefix(name, prefix) {
			out[strings.TrimPrefix(name, prefix)] = raw
		}
	}
	return out
}
