package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
func Zeros[B Backend](shape Shape, b B) *Tensor[B] {
	raw, err := NewRaw(shape, b.Device())
	if err != nil {
		panic(err)
	}
	return New(raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[B Backend](shape Shape, b B) *Tensor[B] {
	return Full(shape, 1.0, b)
}

// Full creates a tensor filled with the given value.
func Full[B Backend](shape Shape, value float32, b B) *Tensor[B] {
	raw, err := NewRaw(shape, b.Device())
	if err != nil {
		panic(err)
	}
	data := raw.Float32()
	for i := range data {
		data[i] = value
	}
	return New(raw, b)
}

// Randn creates a tensor with values drawn from N(0, 1).
//
//nolint:gosec // math/rand is fine for synthetic data and weight init
func Randn[B Backend](shape Shape, b B) *Tensor[B] {
	raw, err := NewRaw(shape, b.Device())
	if err != nil {
		panic(err)
	}
	data := raw.Float32()
	for i := range data {
		data[i] = float32(rand.NormFloat64())
	}
	return New(raw, b)
}

// ZerosLike creates a zero tensor with the same shape as the reference.
func ZerosLike[B Backend](t *Tensor[B]) *Tensor[B] {
	return Zeros(t.Shape(), t.Backend())
}

// OnesLike creates a ones tensor with the same shape as the reference.
// Used for the generator-phase adversarial targets.
func OnesLike[B Backend](t *Tensor[B]) *Tensor[B] {
	return Ones(t.Shape(), t.Backend())
}
