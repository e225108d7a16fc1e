package train_test

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/backend/cpu"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/gan"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/logging"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/optim"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/train"
)

// toyRun builds a full training fixture over flat 4-feature samples: a
// tiny generator, discriminator and extractor plus a 4-pair dataset.
func toyRun(t *testing.T, cfg train.Config, backend ckptBackend) *train.Trainer[ckptBackend] {
	t.Helper()

	generator := nn.NewSequential[ckptBackend](
		nn.NewLinear(4, 4, backend),
		nn.NewTanh[ckptBackend](),
	)
	discriminator := nn.NewSequential[ckptBackend](
		nn.NewLinear(4, 3, backend),
		nn.NewLeakyReLU[ckptBackend](0.2),
		nn.NewLinear(3, 1, backend),
	)
	extractor := nn.NewSequential[ckptBackend](
		nn.NewLinear(4, 3, backend),
		nn.NewReLU[ckptBackend](),
	)

	dataset := toyDataset(t, backend)

	trainer, err := train.NewTrainer(cfg,
		generator, discriminator, extractor,
		gan.NewIdentityNormalizer(backend),
		dataset, backend, logging.NopLogger())
	require.NoError(t, err)
	return trainer
}

func toyDataset(t *testing.T, backend ckptBackend) *train.PairDataset[ckptBackend] {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	lr := make([][]float32, 4)
	hr := make([][]float32, 4)
	for i := 0; i < 4; i++ {
		lr[i] = randomSample(rng)
		hr[i] = randomSample(rng)
	}
	dataset, err := train.NewPairDataset(lr, hr, tensor.Shape{4}, tensor.Shape{4}, backend)
	require.NoError(t, err)
	return dataset
}

func randomSample(rng *rand.Rand) []float32 {
	s := make([]float32, 4)
	for i := range s {
		s[i] = rng.Float32()*2 - 1
	}
	return s
}

func toyConfig(dir string) train.Config {
	cfg := train.DefaultConfig()
	cfg.Synthetic = true
	cfg.CropSize = 4
	cfg.ScalingFactor = 2
	cfg.BatchSize = 2
	cfg.Epochs = 1
	cfg.Seed = 42
	cfg.CheckpointPath = filepath.Join(dir, "ckpt.srgn")
	return cfg
}

func TestTrainer_EndToEndToyRun(t *testing.T) {
	backend := autodiff.New(cpu.New())
	cfg := toyConfig(t.TempDir())

	trainer := toyRun(t, cfg, backend)

	var progress []train.BatchProgress
	trainer.OnBatch = func(p train.BatchProgress) { progress = append(progress, p) }

	require.NoError(t, trainer.Run(context.Background()))

	// 4 pairs at batch size 2 make exactly 2 batches.
	require.Len(t, progress, 2)
	assert.Equal(t, 2, progress[0].NumBatches)

	// Both optimizers stepped once per batch.
	optG := trainer.OptimizerG().(*optim.Adam[ckptBackend])
	optD := trainer.OptimizerD().(*optim.Adam[ckptBackend])
	assert.Equal(t, 2, optG.GetTimestep())
	assert.Equal(t, 2, optD.GetTimestep())

	// The checkpoint records the completed epoch; a resumed run starts
	// at the next one.
	cfg.Resume = true
	cfg.Epochs = 2
	backend2 := autodiff.New(cpu.New())
	resumed := toyRun(t, cfg, backend2)
	assert.Equal(t, 1, resumed.StartEpoch())
	assert.Equal(t, trainer.RunID(), resumed.RunID())
}

func TestTrainer_ContextCancellation(t *testing.T) {
	backend := autodiff.New(cpu.New())
	cfg := toyConfig(t.TempDir())
	cfg.Epochs = 50

	trainer := toyRun(t, cfg, backend)

	ctx, cancel := context.WithCancel(context.Background())
	trainer.OnBatch = func(train.BatchProgress) { cancel() }

	err := trainer.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrainer_ResumePastMidpointDoesNotRedecay(t *testing.T) {
	backend := autodiff.New(cpu.New())
	cfg := toyConfig(t.TempDir())
	cfg.Epochs = 4 // decay fires at epoch 2

	trainer := toyRun(t, cfg, backend)
	require.NoError(t, trainer.Run(context.Background()))

	decayedLR := trainer.OptimizerG().GetLR()
	assert.InDelta(t, float64(cfg.LearningRate)*float64(cfg.DecayFactor), float64(decayedLR), 1e-10)

	// Resume after the midpoint: the restored rate stays decayed once.
	cfg.Resume = true
	backend2 := autodiff.New(cpu.New())
	resumed := toyRun(t, cfg, backend2)
	assert.Equal(t, decayedLR, resumed.OptimizerG().GetLR())

	require.NoError(t, resumed.Run(context.Background()))
	assert.Equal(t, decayedLR, resumed.OptimizerG().GetLR())
}

func TestTrainer_InvalidConfigFailsFast(t *testing.T) {
	backend := autodiff.New(cpu.New())
	cfg := toyConfig(t.TempDir())
	cfg.BatchSize = 0

	generator := nn.NewSequential[ckptBackend](nn.NewLinear(4, 4, backend))
	discriminator := nn.NewSequential[ckptBackend](nn.NewLinear(4, 1, backend))
	extractor := nn.NewSequential[ckptBackend](nn.NewLinear(4, 3, backend))

	_, err := train.NewTrainer(cfg,
		generator, discriminator, extractor,
		gan.NewIdentityNormalizer(backend),
		toyDataset(t, backend), backend, logging.NopLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, train.ErrInvalidConfig)
}

func TestTrainer_ResumeFromCorruptCheckpointAborts(t *testing.T) {
	backend := autodiff.New(cpu.New())
	cfg := toyConfig(t.TempDir())
	cfg.Resume = true // nothing saved yet

	generator := nn.NewSequential[ckptBackend](nn.NewLinear(4, 4, backend))
	discriminator := nn.NewSequential[ckptBackend](nn.NewLinear(4, 1, backend))
	extractor := nn.NewSequential[ckptBackend](nn.NewLinear(4, 3, backend))

	_, err := train.NewTrainer(cfg,
		generator, discriminator, extractor,
		gan.NewIdentityNormalizer(backend),
		toyDataset(t, backend), backend, logging.NopLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, train.ErrNotFound)
}

func TestPairDataset_RejectsBrokenPairing(t *testing.T) {
	backend := autodiff.New(cpu.New())
	_, err := train.NewPairDataset(
		[][]float32{{1, 2, 3, 4}},
		[][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}},
		tensor.Shape{4}, tensor.Shape{4}, backend)
	require.Error(t, err)
}

func TestSyntheticDataset_Shapes(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(1))

	dataset, err := train.NewSyntheticDataset(6, 8, 4, rng, backend)
	require.NoError(t, err)
	assert.Equal(t, 6, dataset.Len())

	batches, err := dataset.Batches(4, rng)
	require.NoError(t, err)
	require.Len(t, batches, 2)

	assert.True(t, batches[0].LR.Shape().Equal(tensor.Shape{4, 3, 2, 2}))
	assert.True(t, batches[0].HR.Shape().Equal(tensor.Shape{4, 3, 8, 8}))
	assert.Equal(t, 4, batches[0].Size)
	assert.Equal(t, 2, batches[1].Size)
}
