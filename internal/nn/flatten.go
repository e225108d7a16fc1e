package nn

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// Flatten collapses every dimension after the batch dimension, turning
// [N, C, H, W] image batches into the [N, features] layout Linear
// expects. The reshape is recorded, so gradients flow back to the
// original layout.
type Flatten[B tensor.Backend] struct{}

// NewFlatten creates a Flatten module.
func NewFlatten[B tensor.Backend]() *Flatten[B] {
	return &Flatten[B]{}
}

// Forward reshapes input to [batch, features].
func (f *Flatten[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := input.Shape()
	features := 1
	for _, dim := range shape[1:] {
		features *= dim
	}
	return input.Reshape(shape[0], features)
}

// Parameters returns nil; Flatten has no trainable state.
func (f *Flatten[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty dictionary.
func (f *Flatten[B]) StateDict() map[string]*tensor.RawTensor { return map[string]*tensor.RawTensor{} }

// LoadStateDict is a no-op.
func (f *Flatten[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }

// Unflatten restores a per-sample shape after a Flatten, turning
// [N, features] back into [N, C, H, W].
type Unflatten[B tensor.Backend] struct {
	sample tensor.Shape
}

// NewUnflatten creates an Unflatten module with the given per-sample
// shape (without the batch dimension).
func NewUnflatten[B tensor.Backend](sample tensor.Shape) *Unflatten[B] {
	return &Unflatten[B]{sample: sample.Clone()}
}

// Forward reshapes input to [batch, sample...].
func (u *Unflatten[B]) Forward(input *tensor.Tensor[B]) *tensor.Tensor[B] {
	shape := append(tensor.Shape{input.Shape()[0]}, u.sample...)
	return input.Reshape(shape...)
}

// Parameters returns nil; Unflatten has no trainable state.
func (u *Unflatten[B]) Parameters() []*Parameter[B] { return nil }

// StateDict returns an empty dictionary.
func (u *Unflatten[B]) StateDict() map[string]*tensor.RawTensor {
	return map[string]*tensor.RawTensor{}
}

// LoadStateDict is a no-op.
func (u *Unflatten[B]) LoadStateDict(map[string]*tensor.RawTensor) error { return nil }
