// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern.
//
// Backend[B] wraps any compute backend and records every operation on a
// GradientTape during the forward pass. The SRGAN trainer drives both
// players through one decorated backend, using tape control to isolate the
// generator's and the discriminator's computation graphs.
//
// Usage:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	loss := criterion.Forward(generated, real)
//	grads := backend.Tape().Backward(seed, backend)
package autodiff

import (
	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff/ops"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Backend wraps a compute backend and adds gradient recording.
type Backend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates an autodiff backend wrapping the given backend.
func New[B tensor.Backend](inner B) *Backend[B] {
	return &Backend[B]{inner: inner, tape: NewGradientTape()}
}

// Tape returns the gradient tape for recording control.
func (b *Backend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *Backend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *Backend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *Backend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
func (b *Backend[B]) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Add(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(x, y, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *Backend[B]) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sub(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(x, y, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *Backend[B]) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(x, y, result))
	}
	return result
}

// Div performs element-wise division and records the operation.
func (b *Backend[B]) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Div(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(x, y, result))
	}
	return result
}

// AddScalar adds a scalar and records the operation.
func (b *Backend[B]) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := b.inner.AddScalar(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddScalarOp(x, result))
	}
	return result
}

// MulScalar multiplies by a scalar and records the operation.
func (b *Backend[B]) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	result := b.inner.MulScalar(x, scalar)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulScalarOp(x, result, scalar))
	}
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *Backend[B]) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.MatMul(x, y)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(x, y, result))
	}
	return result
}

// Reshape reshapes a tensor and records the operation so gradients flow
// back to the original layout.
func (b *Backend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	result := b.inner.Reshape(t, newShape)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(t, result))
	}
	return result
}

// Transpose permutes dimensions and records the operation. Without the
// record, a weight's transposed view would swallow its gradient.
func (b *Backend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	ndim := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	result := b.inner.Transpose(t, axes...)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(t, result, axes))
	}
	return result
}

// Sigmoid applies the logistic function and records the operation.
func (b *Backend[B]) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sigmoid(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSigmoidOp(x, result))
	}
	return result
}

// ReLU applies the rectifier and records the operation.
func (b *Backend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.ReLU(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReLUOp(x, result))
	}
	return result
}

// LeakyReLU applies the leaky rectifier and records the operation.
func (b *Backend[B]) LeakyReLU(x *tensor.RawTensor, slope float32) *tensor.RawTensor {
	result := b.inner.LeakyReLU(x, slope)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewLeakyReLUOp(x, result, slope))
	}
	return result
}

// Tanh applies the hyperbolic tangent and records the operation.
func (b *Backend[B]) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Tanh(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTanhOp(x, result))
	}
	return result
}

// Sum reduces to the scalar sum and records the operation.
func (b *Backend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Sum(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumOp(x, result))
	}
	return result
}

// Mean reduces to the scalar mean and records the operation.
func (b *Backend[B]) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	result := b.inner.Mean(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMeanOp(x, result))
	}
	return result
}

// MSE computes mean squared error as a single fused operation. This is the
// content loss between feature maps.
func (b *Backend[B]) MSE(a, c *tensor.RawTensor) *tensor.RawTensor {
	result := ops.MSEForward(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMSEOp(a, c, result))
	}
	return result
}

// BCEWithLogits computes binary cross entropy on logits as a single fused
// operation. Targets never receive gradients.
func (b *Backend[B]) BCEWithLogits(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	result := ops.BCEWithLogitsForward(logits, targets)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewBCEWithLogitsOp(logits, targets, result))
	}
	return result
}

// Backward seeds the tape with a unit gradient for the given scalar loss
// and returns the accumulated gradients for every reachable tensor.
func (b *Backend[B]) Backward(loss *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor {
	seed := tensor.MustNewRaw(loss.Shape(), b.Device())
	seed.Float32()[0] = 1.0
	return b.tape.Backward(seed, b)
}
