package nn

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// Parameter is a trainable tensor: a weight or bias whose raw identity the
// optimizers use to look up gradients after a backward pass.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[B]
}

// NewParameter creates a trainable parameter.
//
// The tensor should already be initialized (see Xavier/Kaiming in init.go).
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name, e.g. "weight" or "blocks.2.bias".
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[B] {
	return p.tensor
}
