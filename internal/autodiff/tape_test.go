package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/backend/cpu"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

func TestTape_RecordsOnlyWhileRecording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	_ = x.AddScalar(1)
	assert.Equal(t, 0, backend.Tape().NumOps())

	backend.Tape().StartRecording()
	_ = x.AddScalar(1)
	assert.Equal(t, 1, backend.Tape().NumOps())

	backend.Tape().StopRecording()
	_ = x.AddScalar(1)
	assert.Equal(t, 1, backend.Tape().NumOps())
}

func TestTape_ClearPreservesRecordingState(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	_ = x.AddScalar(1)
	backend.Tape().Clear()

	assert.Equal(t, 0, backend.Tape().NumOps())
	assert.True(t, backend.Tape().IsRecording())

	_ = x.AddScalar(1)
	assert.Equal(t, 1, backend.Tape().NumOps())
}

func TestTape_ClearCutsOffEarlierGraph(t *testing.T) {
	// After Clear, gradients from a later loss cannot reach tensors
	// whose operations were recorded before the Clear. This is the
	// isolation between the generator and discriminator phases.
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()

	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	tape.StartRecording()
	y := x.MulScalar(3)
	tape.Clear()

	z := y.Mean()
	grads := backend.Backward(z.Raw())

	assert.Contains(t, grads, y.Raw())
	assert.NotContains(t, grads, x.Raw())
	tape.StopRecording()
}

func TestTape_AccumulatesGradientsForReusedTensor(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{2}, tensor.Shape{1}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	y := x.Mul(x) // x used twice: dy/dx = 2x = 4
	grads := backend.Backward(y.Raw())
	backend.Tape().StopRecording()

	require.Contains(t, grads, x.Raw())
	assert.InDelta(t, 4.0, grads[x.Raw()].Float32()[0], 1e-6)
}

func TestBackward_EmptyTape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	loss := tensor.Ones(tensor.Shape{1}, backend)

	grads := backend.Backward(loss.Raw())
	assert.Empty(t, grads)
}

func TestDetach_BreaksGradientPath(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice([]float32{1, -1}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	y := x.MulScalar(2)
	detached := y.Detach()
	z := detached.Mean()
	grads := backend.Backward(z.Raw())
	backend.Tape().StopRecording()

	// The detached header is a fresh identity: gradients address it,
	// never the tensor it was split from.
	assert.Contains(t, grads, detached.Raw())
	assert.NotContains(t, grads, y.Raw())
	assert.NotContains(t, grads, x.Raw())

	// Storage is still shared.
	assert.Equal(t, y.Data(), detached.Data())
}
