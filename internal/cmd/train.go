package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/backend/cpu"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/gan"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/logging"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/train"
)

type cliBackend = *autodiff.Backend[*cpu.Backend]

var (
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	summaryStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

var trainCmd = &cobra.Command{
	Use:   "run",
	Short: "Run adversarial training",
	Long: `Run trains the generator and discriminator over the configured
dataset, writing a rolling checkpoint at the end of every epoch. With
--synthetic it generates random image pairs instead of reading
--data-dir, which makes for a quick end-to-end smoke run.`,
	RunE: runTraining,
}

func init() {
	flags := trainCmd.Flags()
	flags.String("data-dir", "", "directory of training images")
	flags.Bool("synthetic", false, "train on generated random pairs instead of data-dir")
	flags.Int("crop-size", 96, "high-resolution crop edge in pixels")
	flags.Int("scaling-factor", 4, "super-resolution upscale factor")
	flags.Int("batch-size", 16, "image pairs per batch")
	flags.Int("epochs", 100, "total training epochs")
	flags.Float32("learning-rate", 1e-4, "initial learning rate for both optimizers")
	flags.Float32("beta", 1e-3, "adversarial weight in the perceptual loss")
	flags.Float32("decay-factor", 0.1, "learning-rate multiplier at the midpoint epoch")
	flags.String("checkpoint", "checkpoint_srgan.srgn", "rolling checkpoint path")
	flags.String("pretrained-generator", "", "optional generator weights to start from")
	flags.Bool("resume", false, "resume from the checkpoint")
	flags.Int64("seed", 0, "RNG seed, 0 seeds from the clock")
	flags.Int("synthetic-pairs", 32, "number of generated pairs in synthetic mode")
	flags.Int("hidden", 256, "hidden width of the demo generator and discriminator")
	flags.String("log-file", "", "JSON log file, empty logs to stderr")
	flags.String("log-level", "INFO", "log level: DEBUG, INFO, WARN, ERROR")

	bind := map[string]string{
		"data_dir":             "data-dir",
		"synthetic":            "synthetic",
		"crop_size":            "crop-size",
		"scaling_factor":       "scaling-factor",
		"batch_size":           "batch-size",
		"epochs":               "epochs",
		"learning_rate":        "learning-rate",
		"beta":                 "beta",
		"decay_factor":         "decay-factor",
		"checkpoint_path":      "checkpoint",
		"pretrained_generator": "pretrained-generator",
		"resume":               "resume",
		"seed":                 "seed",
		"synthetic_pairs":      "synthetic-pairs",
		"hidden":               "hidden",
		"log_file":             "log-file",
		"log_level":            "log-level",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(trainCmd)
}

func runTraining(cmd *cobra.Command, args []string) error {
	var cfg train.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.NewLogger(viper.GetString("log_file"), viper.GetString("log_level"))
	if err != nil {
		return err
	}
	defer logger.Close()

	backend := autodiff.New(cpu.New())

	dataset, err := buildDataset(cfg, backend)
	if err != nil {
		return err
	}

	lrSize := cfg.CropSize / cfg.ScalingFactor
	hidden := viper.GetInt("hidden")
	generator, discriminator, extractor := buildModels(cfg, lrSize, hidden, backend)

	trainer, err := train.NewTrainer(cfg,
		generator, discriminator, extractor,
		gan.NewImageNetNormalizer(backend),
		dataset, backend, logger)
	if err != nil {
		return err
	}

	trainer.OnBatch = func(p train.BatchProgress) {
		line := fmt.Sprintf("epoch %d  [%d/%d]  content %.4f  adversarial %.4f  discriminator %.4f",
			p.Epoch, p.Batch+1, p.NumBatches, p.Content, p.Adversarial, p.Discriminator)
		fmt.Fprint(cmd.OutOrStdout(), "\r"+progressStyle.Render(line))
		if p.Batch+1 == p.NumBatches {
			fmt.Fprintln(cmd.OutOrStdout())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	if err := trainer.Run(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), summaryStyle.Render(
		fmt.Sprintf("training complete in %s, checkpoint at %s",
			time.Since(started).Round(time.Second), cfg.CheckpointPath)))
	return nil
}

func buildDataset(cfg train.Config, backend cliBackend) (train.Dataset[cliBackend], error) {
	if cfg.Synthetic {
		seed := cfg.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return train.NewSyntheticDataset(
			viper.GetInt("synthetic_pairs"),
			cfg.CropSize, cfg.ScalingFactor,
			rand.New(rand.NewSource(seed)), backend)
	}
	return train.LoadImageDataset(cfg.DataDir, cfg.CropSize, cfg.ScalingFactor, backend)
}

// buildModels assembles the demo players from fully connected blocks.
// Production architectures implement the same nn.Module contract and
// slot in unchanged.
func buildModels(cfg train.Config, lrSize, hidden int, backend cliBackend) (generator, discriminator, extractor nn.Module[cliBackend]) {
	lrFeatures := 3 * lrSize * lrSize
	hrFeatures := 3 * cfg.CropSize * cfg.CropSize
	hrSample := tensor.Shape{3, cfg.CropSize, cfg.CropSize}

	generator = nn.NewSequential[cliBackend](
		nn.NewFlatten[cliBackend](),
		nn.NewLinear(lrFeatures, hidden, backend),
		nn.NewReLU[cliBackend](),
		nn.NewLinear(hidden, hrFeatures, backend),
		nn.NewTanh[cliBackend](),
		nn.NewUnflatten[cliBackend](hrSample),
	)
	discriminator = nn.NewSequential[cliBackend](
		nn.NewFlatten[cliBackend](),
		nn.NewLinear(hrFeatures, hidden, backend),
		nn.NewLeakyReLU[cliBackend](0.2),
		nn.NewLinear(hidden, 1, backend),
	)
	extractor = nn.NewSequential[cliBackend](
		nn.NewFlatten[cliBackend](),
		nn.NewLinear(hrFeatures, hidden, backend),
		nn.NewReLU[cliBackend](),
	)
	return generator, discriminator, extractor
}
