package train

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/gan"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/logging"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/optim"
)

// BatchProgress is delivered to the progress callback after every
// trained batch.
type BatchProgress struct {
	Epoch         int
	Batch         int // Zero-based index within the epoch
	NumBatches    int
	Content       float64 // Running epoch averages
	Adversarial   float64
	Discriminator float64
}

// Trainer drives the SRGAN adversarial training loop.
//
// Each batch trains the generator against the perceptual criterion,
// then the discriminator against its binary criterion on the detached
// synthetic images. The tape is cleared between the two phases, so
// neither player's backward pass can reach the other's graph.
type Trainer[B gan.Backend] struct {
	cfg     Config
	backend B

	generator     nn.Module[B]
	discriminator nn.Module[B]

	perceptual    *gan.PerceptualCriterion[B]
	discCriterion *gan.DiscriminatorCriterion[B]

	optimizerG optim.Optimizer
	optimizerD optim.Optimizer
	decay      *LRDecay

	dataset     Dataset[B]
	checkpoints *CheckpointManager[B]
	logger      *logging.Logger
	rng         *rand.Rand

	runID      string
	startEpoch int

	contentMeter *AverageMeter
	advMeter     *AverageMeter
	discMeter    *AverageMeter

	// OnBatch, when set, receives progress after every batch. The CLI
	// uses it to render the styled progress line.
	OnBatch func(BatchProgress)
}

// NewTrainer wires up a training run: optimizers, criteria, schedule,
// checkpoint manager, and optionally pretrained weights or a resumed
// checkpoint.
//
// The generator, discriminator and feature extractor are collaborators;
// any nn.Module works. Startup failures (bad config, unreadable
// pretrained weights, corrupt checkpoint) abort construction.
func NewTrainer[B gan.Backend](
	cfg Config,
	generator, discriminator, extractor nn.Module[B],
	normalizer *gan.Normalizer[B],
	dataset Dataset[B],
	backend B,
	logger *logging.Logger,
) (*Trainer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	optimizerG := optim.NewAdam(generator.Parameters(), optim.AdamConfig{LR: cfg.LearningRate}, backend)
	optimizerD := optim.NewAdam(discriminator.Parameters(), optim.AdamConfig{LR: cfg.LearningRate}, backend)

	t := &Trainer[B]{
		cfg:           cfg,
		backend:       backend,
		generator:     generator,
		discriminator: discriminator,
		perceptual:    gan.NewPerceptualCriterion(extractor, discriminator, normalizer, cfg.Beta),
		discCriterion: gan.NewDiscriminatorCriterion(discriminator),
		optimizerG:    optimizerG,
		optimizerD:    optimizerD,
		decay:         NewLRDecay(cfg.DecayEpoch(), cfg.DecayFactor),
		dataset:       dataset,
		logger:        logger,
		runID:         uuid.NewString(),
		contentMeter:  NewAverageMeter(),
		advMeter:      NewAverageMeter(),
		discMeter:     NewAverageMeter(),
	}
	t.checkpoints = NewCheckpointManager(cfg.CheckpointPath,
		generator, discriminator, optimizerG, optimizerD, backend.Device())

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	t.rng = rand.New(rand.NewSource(seed))

	if cfg.PretrainedGenerator != "" {
		if err := LoadPretrainedGenerator(cfg.PretrainedGenerator, generator, backend.Device()); err != nil {
			return nil, fmt.Errorf("failed to load pretrained generator: %w", err)
		}
		logger.Info("loaded pretrained generator", "path", cfg.PretrainedGenerator)
	}

	if cfg.Resume {
		epoch, runID, err := t.checkpoints.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to resume: %w", err)
		}
		t.startEpoch = epoch + 1
		t.runID = runID
		if t.startEpoch > t.decay.Epoch {
			// The restored optimizer state already carries the decayed
			// rate; arm the guard so it cannot fire again.
			t.decay.MarkApplied()
		}
		logger.Info("resumed from checkpoint",
			"path", cfg.CheckpointPath, "epoch", epoch, "run_id", runID)
	}

	return t, nil
}

// RunID identifies this training run in logs and checkpoints.
func (t *Trainer[B]) RunID() string {
	return t.runID
}

// StartEpoch returns the zero-based epoch the run will begin at: 0 for
// a fresh run, checkpoint epoch + 1 after a resume.
func (t *Trainer[B]) StartEpoch() int {
	return t.startEpoch
}

// OptimizerG returns the generator's optimizer.
func (t *Trainer[B]) OptimizerG() optim.Optimizer {
	return t.optimizerG
}

// OptimizerD returns the discriminator's optimizer.
func (t *Trainer[B]) OptimizerD() optim.Optimizer {
	return t.optimizerD
}

// Run executes the training loop until all epochs complete, a batch
// fails, or ctx is cancelled.
func (t *Trainer[B]) Run(ctx context.Context) error {
	log := t.logger.WithRun(t.runID)
	log.Info("training started",
		"epochs", t.cfg.Epochs,
		"start_epoch", t.startEpoch,
		"batch_size", t.cfg.BatchSize,
		"pairs", t.dataset.Len(),
		"learning_rate", t.optimizerG.GetLR(),
		"beta", t.cfg.Beta)

	for epoch := t.startEpoch; epoch < t.cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("training interrupted: %w", err)
		}
		if err := t.runEpoch(ctx, epoch, log.WithEpoch(epoch)); err != nil {
			return err
		}
	}

	log.Info("training finished", "epochs", t.cfg.Epochs)
	return nil
}

func (t *Trainer[B]) runEpoch(ctx context.Context, epoch int, log *logging.Logger) error {
	if t.decay.MaybeApply(epoch, t.optimizerG, t.optimizerD) {
		log.Info("learning rate decayed",
			"factor", t.cfg.DecayFactor, "learning_rate", t.optimizerG.GetLR())
	}

	t.contentMeter.Reset()
	t.advMeter.Reset()
	t.discMeter.Reset()

	batches, err := t.dataset.Batches(t.cfg.BatchSize, t.rng)
	if err != nil {
		return fmt.Errorf("epoch %d: %w", epoch, err)
	}

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("training interrupted: %w", err)
		}
		if err := t.trainBatch(batch); err != nil {
			return fmt.Errorf("epoch %d batch %d: %w", epoch, i, err)
		}

		progress := BatchProgress{
			Epoch:         epoch,
			Batch:         i,
			NumBatches:    len(batches),
			Content:       t.contentMeter.Average(),
			Adversarial:   t.advMeter.Average(),
			Discriminator: t.discMeter.Average(),
		}
		log.Debug("batch trained",
			"batch", i, "batches", len(batches),
			"content_loss", progress.Content,
			"adversarial_loss", progress.Adversarial,
			"discriminator_loss", progress.Discriminator)
		if t.OnBatch != nil {
			t.OnBatch(progress)
		}
	}

	losses := t.epochLosses()
	log.Info("epoch complete",
		"content_loss", losses.Content,
		"adversarial_loss", losses.Adversarial,
		"generator_loss", losses.Generator,
		"discriminator_loss", losses.Discriminator,
		"learning_rate", t.optimizerG.GetLR())

	if err := t.checkpoints.Save(epoch, t.runID, losses); err != nil {
		return fmt.Errorf("epoch %d: %w", epoch, err)
	}
	return nil
}

// trainBatch runs both phases of the adversarial update for one batch.
func (t *Trainer[B]) trainBatch(batch Batch[B]) error {
	if batch.LR.Shape()[0] != batch.HR.Shape()[0] {
		return fmt.Errorf("%w: paired batch dimensions differ: %v vs %v",
			ErrInvalidConfig, batch.LR.Shape(), batch.HR.Shape())
	}

	tape := t.backend.Tape()
	tape.StartRecording()
	defer tape.StopRecording()
	defer tape.Clear()

	// Generator phase.
	sr := t.generator.Forward(batch.LR)
	loss := t.perceptual.Forward(sr, batch.HR)

	t.optimizerG.ZeroGrad()
	grads := t.backend.Backward(loss.Total.Raw())
	t.optimizerG.Step(grads)

	// No generator op may remain reachable in the discriminator phase.
	tape.Clear()

	// Discriminator phase.
	discLoss := t.discCriterion.Forward(sr, batch.HR)

	t.optimizerD.ZeroGrad()
	discGrads := t.backend.Backward(discLoss.Raw())
	t.optimizerD.Step(discGrads)

	t.contentMeter.Update(loss.Content.Item(), batch.Size)
	t.advMeter.Update(loss.Adversarial.Item(), batch.Size)
	t.discMeter.Update(discLoss.Item(), batch.Size)
	return nil
}

func (t *Trainer[B]) epochLosses() EpochLosses {
	content := t.contentMeter.Average()
	adv := t.advMeter.Average()
	return EpochLosses{
		Generator:     content + float64(t.cfg.Beta)*adv,
		Content:       content,
		Adversarial:   adv,
		Discriminator: t.discMeter.Average(),
	}
}
