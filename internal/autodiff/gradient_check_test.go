package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/backend/cpu"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

type adBackend = *autodiff.Backend[*cpu.Backend]

const (
	epsilon   = 1e-3
	tolerance = 1e-2
)

// checkGradients compares every autodiff gradient of x against central
// finite differences of the scalar loss.
//
// loss must rebuild the computation from raw values on every call; the
// tape records only the final evaluation.
func checkGradients(t *testing.T, xData []float32, xShape tensor.Shape, loss func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend]) {
	t.Helper()

	eval := func(values []float32) float32 {
		backend := autodiff.New(cpu.New())
		x, err := tensor.FromSlice(values, xShape, backend)
		require.NoError(t, err)
		return loss(backend, x).Item()
	}

	// Autodiff gradient.
	backend := autodiff.New(cpu.New())
	x, err := tensor.FromSlice(xData, xShape, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	out := loss(backend, x)
	grads := backend.Backward(out.Raw())
	backend.Tape().StopRecording()

	grad, ok := grads[x.Raw()]
	require.True(t, ok, "no gradient reached the input")
	gradData := grad.Float32()

	for i := range xData {
		perturbed := append([]float32(nil), xData...)
		perturbed[i] = xData[i] + epsilon
		plus := eval(perturbed)
		perturbed[i] = xData[i] - epsilon
		minus := eval(perturbed)

		numerical := (plus - minus) / (2 * epsilon)
		require.InDelta(t, numerical, gradData[i], tolerance,
			"element %d: autodiff %f vs numerical %f", i, gradData[i], numerical)
	}
}

func constTensor(t *testing.T, backend adBackend, data []float32, shape tensor.Shape) *tensor.Tensor[adBackend] {
	t.Helper()
	v, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return v
}

func TestGradientCheck_MSE(t *testing.T) {
	targetData := []float32{0.5, -0.5, 1.0, 0.0, 0.25, -1.0}
	checkGradients(t, []float32{0.1, 0.9, -0.3, 0.7, -0.2, 0.4}, tensor.Shape{2, 3},
		func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend] {
			target := constTensor(t, backend, targetData, tensor.Shape{2, 3})
			return tensor.New(backend.MSE(x.Raw(), target.Raw()), backend)
		})
}

func TestGradientCheck_BCEWithLogits(t *testing.T) {
	targetData := []float32{1, 0, 1, 0}
	checkGradients(t, []float32{2.0, -1.5, 0.3, 0.0}, tensor.Shape{4, 1},
		func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend] {
			target := constTensor(t, backend, targetData, tensor.Shape{4, 1})
			return tensor.New(backend.BCEWithLogits(x.Raw(), target.Raw()), backend)
		})
}

func TestGradientCheck_BCEWithLogits_ExtremeLogits(t *testing.T) {
	// The stable formulation must not overflow on large magnitudes.
	targetData := []float32{1, 0}
	checkGradients(t, []float32{30, -30}, tensor.Shape{2, 1},
		func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend] {
			target := constTensor(t, backend, targetData, tensor.Shape{2, 1})
			return tensor.New(backend.BCEWithLogits(x.Raw(), target.Raw()), backend)
		})
}

func TestGradientCheck_MatMul(t *testing.T) {
	wData := []float32{0.5, -0.3, 0.2, 0.8, -0.1, 0.4}
	checkGradients(t, []float32{1.0, -2.0, 0.5, 0.3, 1.5, -0.7}, tensor.Shape{2, 3},
		func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend] {
			w := constTensor(t, backend, wData, tensor.Shape{3, 2})
			return x.MatMul(w).Mean()
		})
}

func TestGradientCheck_Activations(t *testing.T) {
	input := []float32{0.5, -1.2, 2.0, -0.3}

	tests := []struct {
		name  string
		apply func(backend adBackend, x *tensor.RawTensor) *tensor.RawTensor
	}{
		{"sigmoid", func(b adBackend, x *tensor.RawTensor) *tensor.RawTensor { return b.Sigmoid(x) }},
		{"tanh", func(b adBackend, x *tensor.RawTensor) *tensor.RawTensor { return b.Tanh(x) }},
		{"relu", func(b adBackend, x *tensor.RawTensor) *tensor.RawTensor { return b.ReLU(x) }},
		{"leaky_relu", func(b adBackend, x *tensor.RawTensor) *tensor.RawTensor { return b.LeakyReLU(x, 0.2) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkGradients(t, input, tensor.Shape{4},
				func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend] {
					return tensor.New(backend.Mean(tt.apply(backend, x.Raw())), backend)
				})
		})
	}
}

func TestGradientCheck_BroadcastAdd(t *testing.T) {
	// Gradient for a broadcast operand folds back to its own shape.
	aData := []float32{1, 2, 3, 4, 5, 6}
	checkGradients(t, []float32{0.5, -0.5, 0.25}, tensor.Shape{1, 3},
		func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend] {
			a := constTensor(t, backend, aData, tensor.Shape{2, 3})
			return a.Add(x).Sum()
		})
}

func TestGradientCheck_ScalarChain(t *testing.T) {
	// The normalizer's rescale: mean((x*0.5 + 0.5)^2) via Mul.
	checkGradients(t, []float32{0.3, -0.8, 1.0}, tensor.Shape{3},
		func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend] {
			y := x.MulScalar(0.5).AddScalar(0.5)
			return y.Mul(y).Mean()
		})
}

func TestGradientCheck_DivBroadcast(t *testing.T) {
	stdData := []float32{0.229, 0.224, 0.225}
	checkGradients(t, []float32{0.1, 0.7, -0.4, 0.9, 0.2, -0.6}, tensor.Shape{2, 3},
		func(backend adBackend, x *tensor.Tensor[adBackend]) *tensor.Tensor[adBackend] {
			std := constTensor(t, backend, stdData, tensor.Shape{1, 3})
			return x.Div(std).Mean()
		})
}
