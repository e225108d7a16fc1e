package nn

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// ReLU applies f(x) = max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies the rectifier.
func (r *ReLU[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return tensor.New(input.Backend().ReLU(input.Raw()), input.Backend())
}

// Parameters returns nil; ReLU has no trainable state.
func (r *ReLU[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty dictionary.
func (r *ReLU[B]) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

// LoadStateDict is a no-op.
func (r *ReLU[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// LeakyReLU applies f(x) = x for x > 0 and slope·x otherwise.
//
// The SRGAN discriminator uses slope 0.2 throughout.
type LeakyReLU[B tensor.Backend] struct {
	slope float32
}

// NewLeakyReLU creates a LeakyReLU activation module.
func NewLeakyReLU[B tensor.Backend](slope float32) *LeakyReLU[B] {
	return &LeakyReLU[B]{slope: slope}
}

// Forward applies the leaky rectifier.
func (l *LeakyReLU[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return tensor.New(input.Backend().LeakyReLU(input.Raw(), l.slope), input.Backend())
}

// Parameters returns nil; LeakyReLU has no trainable state.
func (l *LeakyReLU[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty dictionary.
func (l *LeakyReLU[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (l *LeakyReLU[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Tanh squashes values into (-1, 1), the generator's output range.
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies the hyperbolic tangent.
func (t *Tanh[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	return tensor.New(input.Backend().Tanh(input.Raw()), input.Backend())
}

// Parameters returns nil; Tanh has no trainable state.
func (t *Tanh[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty dictionary.
func (t *Tanh[B]) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

// LoadStateDict is a no-op.
func (t *Tanh[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
