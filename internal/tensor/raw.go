package tensor

import "fmt"

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices. Only CPU is implemented; the constant set is
// kept open so an accelerator backend can slot in behind the same interface.
const (
	CPU Device = iota
	GPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level float32 tensor representation: a flat data
// slice plus shape and stride metadata.
//
// Identity matters: the gradient tape and the optimizers key their maps by
// *RawTensor pointer. Detaching a tensor therefore produces a NEW RawTensor
// header over the same storage, so gradients addressed to the detached value
// can never be accumulated onto the original (see Tensor.Detach).
type RawTensor struct {
	data   []float32
	shape  Shape
	stride []int
	device Device
}

// NewRaw allocates a zero-filled RawTensor with the given shape.
func NewRaw(shape Shape, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		data:   make([]float32, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		device: device,
	}, nil
}

// MustNewRaw is NewRaw that panics on an invalid shape. Used internally by
// backends where the shape has already been validated.
func MustNewRaw(shape Shape, device Device) *RawTensor {
	r, err := NewRaw(shape, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's row-major memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// Float32 returns the underlying data slice. Writes are visible to every
// view sharing this storage.
func (r *RawTensor) Float32() []float32 {
	return r.data
}

// Clone creates a deep copy with fresh storage and fresh identity.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]float32, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		device: r.device,
	}
}

// View returns a new RawTensor header over the SAME storage. The result has
// a distinct pointer identity, which is what severs it from any gradient
// bookkeeping keyed on the original.
func (r *RawTensor) View() *RawTensor {
	return &RawTensor{
		data:   r.data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		device: r.device,
	}
}

// WithShape returns a header over the same storage reinterpreted with a new
// shape. Panics if the element counts differ.
func (r *RawTensor) WithShape(shape Shape) *RawTensor {
	if shape.NumElements() != r.NumElements() {
		panic(fmt.Sprintf("cannot reshape %v (%d elements) to %v (%d elements)",
			r.shape, r.NumElements(), shape, shape.NumElements()))
	}
	return &RawTensor{
		data:   r.data,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		device: r.device,
	}
}

// String returns a human-readable representation.
func (r *RawTensor) String() string {
	return fmt.Sprintf("RawTensor%v on %s", r.shape, r.device)
}
