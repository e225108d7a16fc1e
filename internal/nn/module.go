// Package nn defines the module contract the SRGAN trainer consumes and a
// small set of building blocks for assembling pluggable networks.
//
// The generator, the discriminator, and the truncated feature extractor are
// all black-box collaborators from the training loop's point of view: it
// only ever calls Forward, Parameters, and the state-dict pair. Real SRGAN
// architectures implement this interface externally; the blocks here
// (Linear, activations, Sequential) are enough to assemble the toy networks
// used by the tests and the synthetic demo.
package nn

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// Module is the contract every pluggable network fulfils.
//
// Type parameter B is the compute backend; training uses the autodiff
// decorator so every Forward is recorded on the gradient tape.
type Module[B tensor.Backend] interface {
	// Forward computes the module's output for the given input batch.
	Forward(input *tensor.Tensor[B]) *tensor.Tensor[B]

	// Parameters returns all trainable parameters, nested modules included.
	// Modules without trainable state return an empty slice.
	Parameters() []*Parameter[B]

	// StateDict returns named raw tensors for serialization.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict restores parameters from a state dictionary produced by
	// StateDict on an identically constructed module.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
