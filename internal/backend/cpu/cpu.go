// Package cpu implements the plain float32 compute backend.
//
// All operations allocate a fresh result tensor; the autodiff decorator
// depends on inputs staying intact so recorded operations can compute their
// backward passes from the original values.
package cpu

import (
	"fmt"
	"math"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Backend is the pure-Go CPU compute backend.
type Backend struct{}

// New creates a new CPU backend.
func New() *Backend {
	return &Backend{}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.CPU
}

// Add performs element-wise addition with broadcasting.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp(x, y, func(a, c float32) float32 { return a + c })
}

// Sub performs element-wise subtraction with broadcasting.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp(x, y, func(a, c float32) float32 { return a - c })
}

// Mul performs element-wise multiplication with broadcasting.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp(x, y, func(a, c float32) float32 { return a * c })
}

// Div performs element-wise division with broadcasting.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return binaryOp(x, y, func(a, c float32) float32 { return a / c })
}

// AddScalar adds a scalar to every element.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return unaryOp(x, func(v float32) float32 { return v + scalar })
}

// MulScalar multiplies every element by a scalar.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return unaryOp(x, func(v float32) float32 { return v * scalar })
}

// Sigmoid applies the logistic function element-wise.
func (b *Backend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(x, func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(float64(-v))))
	})
}

// ReLU applies max(0, x) element-wise.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return 0
	})
}

// LeakyReLU applies max(0, x) + slope*min(0, x) element-wise.
func (b *Backend) LeakyReLU(x *tensor.RawTensor, slope float32) *tensor.RawTensor {
	return unaryOp(x, func(v float32) float32 {
		if v > 0 {
			return v
		}
		return slope * v
	})
}

// Tanh applies the hyperbolic tangent element-wise.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return unaryOp(x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	xs, ys := x.Shape(), y.Shape()
	if len(xs) != 2 || len(ys) != 2 {
		panic(fmt.Sprintf("MatMul: expected 2D tensors, got %v and %v", xs, ys))
	}
	if xs[1] != ys[0] {
		panic(fmt.Sprintf("MatMul: inner dimensions must match, got %v and %v", xs, ys))
	}

	m, k, n := xs[0], xs[1], ys[1]
	out := tensor.MustNewRaw(tensor.Shape{m, n}, b.Device())
	xd, yd, od := x.Float32(), y.Float32(), out.Float32()

	for i := 0; i < m; i++ {
		for l := 0; l < k; l++ {
			xv := xd[i*k+l]
			if xv == 0 {
				continue
			}
			row := yd[l*n : (l+1)*n]
			outRow := od[i*n : (i+1)*n]
			for j, yv := range row {
				outRow[j] += xv * yv
			}
		}
	}
	return out
}

// Reshape returns a view with a new shape over the same storage.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return t.WithShape(newShape)
}

// Transpose permutes dimensions, copying into a fresh tensor.
// With no axes the dimension order is reversed.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("Transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		newShape[i] = shape[ax]
	}
	out := tensor.MustNewRaw(newShape, b.Device())

	inStrides := shape.ComputeStrides()
	outData, inData := out.Float32(), t.Float32()
	idx := make([]int, ndim)
	for flat := 0; flat < t.NumElements(); flat++ {
		srcOffset := 0
		for d := 0; d < ndim; d++ {
			srcOffset += idx[d] * inStrides[axes[d]]
		}
		outData[flat] = inData[srcOffset]

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < newShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

// Sum reduces to the scalar sum, shaped [1].
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	out := tensor.MustNewRaw(tensor.Shape{1}, b.Device())
	var sum float32
	for _, v := range x.Float32() {
		sum += v
	}
	out.Float32()[0] = sum
	return out
}

// Mean reduces to the scalar mean, shaped [1].
func (b *Backend) Mean(x *tensor.RawTensor) *tensor.RawTensor {
	out := b.Sum(x)
	out.Float32()[0] /= float32(x.NumElements())
	return out
}

func unaryOp(x *tensor.RawTensor, f func(float32) float32) *tensor.RawTensor {
	out := tensor.MustNewRaw(x.Shape(), x.Device())
	xd, od := x.Float32(), out.Float32()
	for i, v := range xd {
		od[i] = f(v)
	}
	return out
}

func binaryOp(x, y *tensor.RawTensor, f func(a, b float32) float32) *tensor.RawTensor {
	xs, ys := x.Shape(), y.Shape()

	// Fast path: identical shapes.
	if xs.Equal(ys) {
		out := tensor.MustNewRaw(xs, x.Device())
		xd, yd, od := x.Float32(), y.Float32(), out.Float32()
		for i := range od {
			od[i] = f(xd[i], yd[i])
		}
		return out
	}

	outShape, _, err := tensor.BroadcastShapes(xs, ys)
	if err != nil {
		panic(err)
	}
	out := tensor.MustNewRaw(outShape, x.Device())
	od := out.Float32()
	xd, yd := x.Float32(), y.Float32()
	xStrides := broadcastStrides(xs, outShape)
	yStrides := broadcastStrides(ys, outShape)

	ndim := len(outShape)
	idx := make([]int, ndim)
	for flat := range od {
		var xOff, yOff int
		for d := 0; d < ndim; d++ {
			xOff += idx[d] * xStrides[d]
			yOff += idx[d] * yStrides[d]
		}
		od[flat] = f(xd[xOff], yd[yOff])

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < outShape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return out
}

// broadcastStrides maps a (possibly lower-rank) input shape onto the output
// shape, zeroing the stride of every broadcast dimension.
func broadcastStrides(in, out tensor.Shape) []int {
	inStrides := in.ComputeStrides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for d := range out {
		if d < offset {
			continue // missing dimension, stride 0
		}
		if in[d-offset] == 1 && out[d] != 1 {
			continue // broadcast dimension, stride 0
		}
		strides[d] = inStrides[d-offset]
	}
	return strides
}
