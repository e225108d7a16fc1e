package train

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/backend/cpu"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/gan"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/logging"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

type adBackend = *autodiff.Backend[*cpu.Backend]

func TestTrainBatch_DiscriminatorPhaseLeavesGeneratorUntouched(t *testing.T) {
	backend := autodiff.New(cpu.New())

	generator := nn.NewSequential[adBackend](
		nn.NewLinear(4, 4, backend),
		nn.NewTanh[adBackend](),
	)
	discriminator := nn.NewSequential[adBackend](
		nn.NewLinear(4, 1, backend),
	)
	extractor := nn.NewSequential[adBackend](
		nn.NewLinear(4, 3, backend),
	)

	rng := rand.New(rand.NewSource(3))
	lr := [][]float32{randomFlat(rng), randomFlat(rng)}
	hr := [][]float32{randomFlat(rng), randomFlat(rng)}
	dataset, err := NewPairDataset(lr, hr, tensor.Shape{4}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Synthetic = true
	cfg.CropSize = 4
	cfg.ScalingFactor = 2
	cfg.BatchSize = 2
	cfg.Epochs = 1
	cfg.Seed = 1
	cfg.CheckpointPath = filepath.Join(t.TempDir(), "ckpt.srgn")

	trainer, err := NewTrainer(cfg,
		generator, discriminator, extractor,
		gan.NewIdentityNormalizer(backend),
		dataset, backend, logging.NopLogger())
	require.NoError(t, err)

	// With the generator's rate forced to zero, its own step is a no-op;
	// any change to generator weights could only come from the
	// discriminator phase leaking gradients across the detach boundary.
	trainer.optimizerG.SetLR(0)

	before := make(map[string][]float32)
	for name, raw := range generator.StateDict() {
		before[name] = append([]float32(nil), raw.Float32()...)
	}
	discBefore := append([]float32(nil), discriminator.StateDict()["0.weight"].Float32()...)

	batches, err := dataset.Batches(cfg.BatchSize, trainer.rng)
	require.NoError(t, err)
	for _, batch := range batches {
		require.NoError(t, trainer.trainBatch(batch))
	}

	for name, want := range before {
		assert.Equal(t, want, generator.StateDict()[name].Float32(),
			"generator parameter %s changed", name)
	}

	// The discriminator, by contrast, did move.
	assert.NotEqual(t, discBefore, discriminator.StateDict()["0.weight"].Float32())
}

func randomFlat(rng *rand.Rand) []float32 {
	s := make([]float32, 4)
	for i := range s {
		s[i] = rng.Float32()*2 - 1
	}
	return s
}
