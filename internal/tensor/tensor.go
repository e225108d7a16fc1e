package tensor

import "fmt"

// Tensor is a float32 tensor bound to a compute backend.
//
// Type parameter B selects the backend; training code is written against
// the autodiff decorator, inference helpers against the plain CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros(Shape{3, 64, 24, 24}, backend)
//	twice := t.Add(t)
type Tensor[B Backend] struct {
	raw     *RawTensor
	backend B
}

// New wraps a RawTensor with a backend.
func New[B Backend](raw *RawTensor, b B) *Tensor[B] {
	return &Tensor[B]{raw: raw, backend: b}
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice[B Backend](data []float32, shape Shape, b B) (*Tensor[B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, b.Device())
	if err != nil {
		return nil, err
	}
	copy(raw.Float32(), data)
	return New(raw, b), nil
}

// Shape returns the tensor's shape.
func (t *Tensor[B]) Shape() Shape {
	return t.raw.Shape()
}

// Device returns the tensor's compute device.
func (t *Tensor[B]) Device() Device {
	return t.raw.Device()
}

// NumElements returns the total number of elements.
func (t *Tensor[B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
func (t *Tensor[B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[B]) Backend() B {
	return t.backend
}

// Data returns the underlying data slice (zero-copy).
//
// WARNING: modifications to the returned slice modify the tensor.
func (t *Tensor[B]) Data() []float32 {
	return t.raw.Float32()
}

// Item returns the value of a single-element tensor. Panics otherwise.
func (t *Tensor[B]) Item() float32 {
	if t.NumElements() != 1 {
		panic(fmt.Sprintf("Item() only works for single-element tensors, got shape %v", t.Shape()))
	}
	return t.Data()[0]
}

// At returns the element at the given indices. Panics on out-of-bounds.
func (t *Tensor[B]) At(indices ...int) float32 {
	return t.Data()[t.offsetOf(indices)]
}

// Set sets the element at the given indices. Panics on out-of-bounds.
func (t *Tensor[B]) Set(value float32, indices ...int) {
	t.Data()[t.offsetOf(indices)] = value
}

func (t *Tensor[B]) offsetOf(indices []int) int {
	shape := t.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(shape), len(indices)))
	}
	offset := 0
	strides := t.raw.Strides()
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, shape[i]))
		}
		offset += idx * strides[i]
	}
	return offset
}

// Detach returns a tensor that shares this tensor's storage but has a fresh
// RawTensor identity, severing it from any computation graph.
//
// The gradient tape and the optimizers address tensors by *RawTensor
// pointer, so nothing computed downstream of the detached value can ever
// deposit a gradient on the original. This is the boundary the SRGAN
// discriminator phase relies on: the synthetic images are detached before
// the discriminator scores them, guaranteeing the discriminator update
// cannot reach the generator's parameters.
//
// Example:
//
//	sr := generator.Forward(lr)
//	fake := discriminator.Forward(sr.Detach()) // no gradient path to generator
func (t *Tensor[B]) Detach() *Tensor[B] {
	return &Tensor[B]{
		raw:     t.raw.View(), // shared storage, new identity
		backend: t.backend,
	}
}

// Clone creates a deep copy of the tensor.
func (t *Tensor[B]) Clone() *Tensor[B] {
	return &Tensor[B]{raw: t.raw.Clone(), backend: t.backend}
}

// String returns a human-readable representation.
func (t *Tensor[B]) String() string {
	return fmt.Sprintf("Tensor%v on %s", t.Shape(), t.Device())
}
