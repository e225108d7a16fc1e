package gan

import (
	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Backend is the compute contract the loss composer needs: a recording
// backend with the fused loss operations and tape control.
//
// autodiff.Backend satisfies this for any wrapped compute backend.
type Backend interface {
	tensor.Backend

	// MSE computes the scalar mean squared error between two tensors.
	MSE(a, b *tensor.RawTensor) *tensor.RawTensor

	// BCEWithLogits computes scalar binary cross entropy on raw logits.
	BCEWithLogits(logits, targets *tensor.RawTensor) *tensor.RawTensor

	// Tape returns the gradient tape for recording control.
	Tape() *autodiff.GradientTape

	// Backward runs reverse-mode accumulation from the given scalar loss.
	Backward(loss *tensor.RawTensor) map[*tensor.RawTensor]*tensor.RawTensor
}
