package ops

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// SumOp represents the full reduction: output = Σx, shaped [1].
type SumOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewSumOp creates a new SumOp.
func NewSumOp(input, output *tensor.RawTensor) *SumOp {
	return &SumOp{input: input, output: output}
}

// Backward broadcasts the scalar gradient over the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{fullLike(op.input, outputGrad.Float32()[0])}
}

// Inputs returns [x].
func (op *SumOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns Σx.
func (op *SumOp) Output() *tensor.RawTensor { return op.output }

// MeanOp represents the full mean reduction: output = Σx / N, shaped [1].
type MeanOp struct {
	input  *tensor.RawTensor
	output *tensor.RawTensor
}

// NewMeanOp creates a new MeanOp.
func NewMeanOp(input, output *tensor.RawTensor) *MeanOp {
	return &MeanOp{input: input, output: output}
}

// Backward broadcasts grad/N over the input shape.
func (op *MeanOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	g := outputGrad.Float32()[0] / float32(op.input.NumElements())
	return []*tensor.RawTensor{fullLike(op.input, g)}
}

// Inputs returns [x].
func (op *MeanOp) Inputs() []*tensor.RawTensor { return []*tensor.RawTensor{op.input} }

// Output returns mean(x).
func (op *MeanOp) Output() *tensor.RawTensor { return op.output }
