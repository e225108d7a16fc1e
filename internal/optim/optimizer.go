// Package optim implements optimization algorithms for adversarial training.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - Adam: Adaptive Moment Estimation (used for both generator and discriminator)
//   - SGD: Stochastic Gradient Descent with momentum
//
// Example usage:
//
//	optimizer := optim.NewAdam(model.Parameters(), optim.AdamConfig{
//	    LR: 1e-4,
//	}, backend)
//
//	for batch := range batches {
//	    loss := computeLoss(model, batch)
//	    grads := ad.Backward(loss.Raw())
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad()
//	}
package optim

import (
	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update model parameters in-place based on the gradient map
// produced by the autodiff tape.
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes a gradient map from Backward() keyed by parameter storage.
	// Parameters with no entry in the map are skipped.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears any gradient state held between iterations.
	//
	// Gradients are produced fresh by each backward pass, so this is
	// a protocol hook rather than a bulk zeroing of buffers.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32

	// SetLR updates the learning rate, for scheduling during training.
	SetLR(lr float32)

	// StateDict returns the optimizer state for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores optimizer state from serialization.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// getGradient retrieves the gradient for a parameter, or nil if the
// parameter was not part of the recorded computation.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) *tensor.RawTensor {
	if param == nil {
		return nil
	}
	return grads[param.Tensor().Raw()]
}

// scalarTensor wraps a single float32 in a [1]-shaped tensor so scalar
// optimizer state rides in the same state dict as the moment buffers.
func scalarTensor(v float32) *tensor.RawTensor {
	raw := tensor.MustNewRaw(tensor.Shape{1}, tensor.CPU)
	raw.Float32()[0] = v
	return raw
}
