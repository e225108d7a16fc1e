package ops

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// reduceBroadcast folds a gradient back to the target shape when
// broadcasting widened it during the forward pass.
//
// Example:
//
//	Forward:  mean[1,3,1,1] + img[2,3,24,24] -> out[2,3,24,24]
//	Backward: grad[2,3,24,24] -> grad_mean[1,3,1,1] (summed over N, H, W)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad
	}

	// Sum away leading dimensions the target doesn't have.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = sumAlongDim(result, 0)
	}

	// Sum dimensions where the target is 1.
	for d := 0; d < len(targetShape); d++ {
		if targetShape[d] == 1 && result.Shape()[d] > 1 {
			result = sumAlongDim(result, d)
			result = result.WithShape(insertOne(result.Shape(), d))
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = result.WithShape(targetShape)
	}
	return result
}

// sumAlongDim sums a tensor along one dimension, dropping it.
func sumAlongDim(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	outShape := make(tensor.Shape, 0, len(shape)-1)
	outShape = append(outShape, shape[:dim]...)
	outShape = append(outShape, shape[dim+1:]...)
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	out := tensor.MustNewRaw(outShape, t.Device())
	od, td := out.Float32(), t.Float32()

	strides := shape.ComputeStrides()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	inner := strides[dim]
	for o := 0; o < outer; o++ {
		for k := 0; k < shape[dim]; k++ {
			base := o*shape[dim]*inner + k*inner
			for i := 0; i < inner; i++ {
				od[o*inner+i] += td[base+i]
			}
		}
	}
	return out
}

// insertOne inserts a size-1 dimension at position d.
func insertOne(shape tensor.Shape, d int) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape)+1)
	out = append(out, shape[:d]...)
	out = append(out, 1)
	out = append(out, shape[d:]...)
	return out
}

// fullLike builds a tensor of the input's shape filled with a constant.
func fullLike(t *tensor.RawTensor, value float32) *tensor.RawTensor {
	out := tensor.MustNewRaw(t.Shape(), t.Device())
	data := out.Float32()
	for i := range data {
		data[i] = value
	}
	return out
}
