package train_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/backend/cpu"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/optim"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/train"
)

func newAdam(t *testing.T, lr float32) optim.Optimizer {
	t.Helper()
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{1}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	param := nn.NewParameter("x", x)
	return optim.NewAdam([]*nn.Parameter[*autodiff.Backend[*cpu.Backend]]{param},
		optim.AdamConfig{LR: lr}, backend)
}

func TestLRDecay_FiresOnceAtTrigger(t *testing.T) {
	opt := newAdam(t, 1e-4)
	decay := train.NewLRDecay(50, 0.1)

	assert.False(t, decay.MaybeApply(49, opt))
	assert.Equal(t, float32(1e-4), opt.GetLR())

	assert.True(t, decay.MaybeApply(50, opt))
	assert.InDelta(t, 1e-5, opt.GetLR(), 1e-12)
	assert.True(t, decay.Applied())
}

func TestLRDecay_SecondApplicationRefused(t *testing.T) {
	opt := newAdam(t, 1e-4)
	decay := train.NewLRDecay(50, 0.1)

	require.True(t, decay.MaybeApply(50, opt))
	lrAfterFirst := opt.GetLR()

	// Revisiting the trigger epoch after a resume must not stack the decay.
	assert.False(t, decay.MaybeApply(50, opt))
	assert.False(t, decay.MaybeApply(51, opt))
	assert.Equal(t, lrAfterFirst, opt.GetLR())
}

func TestLRDecay_ForcedDoubleApplyCompounds(t *testing.T) {
	// Two independent schedules document the hazard the guard prevents:
	// applying 0.1 twice leaves 0.01 of the original rate.
	opt := newAdam(t, 1e-4)
	train.NewLRDecay(50, 0.1).MaybeApply(50, opt)
	train.NewLRDecay(50, 0.1).MaybeApply(50, opt)

	assert.InDelta(t, 1e-6, opt.GetLR(), 1e-13)
}

func TestLRDecay_MarkApplied(t *testing.T) {
	opt := newAdam(t, 1e-5) // Restored state already carries the decayed rate
	decay := train.NewLRDecay(50, 0.1)
	decay.MarkApplied()

	assert.False(t, decay.MaybeApply(60, opt))
	assert.Equal(t, float32(1e-5), opt.GetLR())
}

func TestLRDecay_AppliesToBothOptimizers(t *testing.T) {
	optG := newAdam(t, 1e-4)
	optD := newAdam(t, 1e-4)
	decay := train.NewLRDecay(10, 0.1)

	require.True(t, decay.MaybeApply(10, optG, optD))
	assert.InDelta(t, 1e-5, optG.GetLR(), 1e-12)
	assert.InDelta(t, 1e-5, optD.GetLR(), 1e-12)
}
