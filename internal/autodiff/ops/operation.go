// Package ops defines the differentiable operations recorded on the
// gradient tape during the SRGAN forward passes.
//
// Each operation stores its input and output RawTensors during the forward
// pass and computes input gradients from the output gradient during the
// backward pass:
//   - AddOp/SubOp/MulOp/DivOp: element-wise arithmetic with broadcast folding
//   - AddScalarOp/MulScalarOp: scalar arithmetic (the normalizer's range map)
//   - MatMulOp/TransposeOp/ReshapeOp: the Linear layer's building blocks
//   - SigmoidOp: logistic activation
//   - MeanOp/SumOp: scalar reductions
//   - MSEOp: mean squared error (the content loss in feature space)
//   - BCEWithLogitsOp: binary cross entropy on logits (the adversarial loss)
package ops

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// Operation is a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for the inputs given the output gradient.
	// The returned slice parallels Inputs(); a nil entry means no gradient
	// flows to that input (e.g. the constant targets of a loss).
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor produced by this operation.
	Output() *tensor.RawTensor
}
