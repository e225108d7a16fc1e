package ops

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// ReLUOp represents the rectified linear unit: output = max(0, x).
type ReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Backward gates the gradient on the input sign.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), op.input.Device())
	xd, gd, od := op.input.Float32(), grad.Float32(), outputGrad.Float32()
	for i, v := range xd {
		if v > 0 {
			gd[i] = od[i]
		}
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *ReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns max(0, x).
func (op *ReLUOp) Output() *tensor.RawTensor { return op.output }

// LeakyReLUOp represents the leaky rectified linear unit:
// output = x for x > 0, slope·x otherwise.
type LeakyReLUOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
	slope  float32
}

// NewLeakyReLUOp creates a new LeakyReLUOp.
func NewLeakyReLUOp(input, output *tensor.RawTensor, slope float32) *LeakyReLUOp {
	return &LeakyReLUOp{input: input, output: output, slope: slope}
}

// Backward passes the gradient for positive inputs and scales it by the
// slope for negative ones.
func (op *LeakyReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := tensor.MustNewRaw(op.input.Shape(), op.input.Device())
	xd, gd, od := op.input.Float32(), grad.Float32(), outputGrad.Float32()
	for i, v := range xd {
		if v > 0 {
			gd[i] = od[i]
		} else {
			gd[i] = op.slope * od[i]
		}
	}
	return []*tensor.RawTensor{grad}
}

// Inputs returns [x].
func (op *LeakyReLUOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns the activated tensor.
func (op *LeakyReLUOp) Output() *tensor.RawTensor { return op.output }

// TanhOp represents the hyperbolic tangent activation.
type TanhOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewTanhOp creates a new TanhOp.
func NewTanhOp(input, output *tensor.RawTensor) *TanhOp {
	return &TanhOp{input: input, output: output}
}

// Backward uses the saved output: d(tanh x)/dx = 1 - tanh²x.
func (op *TanhOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	squared := backend.Mul(op.output, op.output)
	derivative := backend.Sub(fullLike(op.output, 1), squared)
	return []*tensor.RawTensor{backend.Mul(outputGrad, derivative)}
}

// Inputs returns [x].
func (op *TanhOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns tanh(x).
func (op *TanhOp) Output() *tensor.RawTensor { return op.output }
