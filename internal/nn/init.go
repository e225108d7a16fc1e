package nn

import (
	"math"
	"math/rand"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Xavier initializes a weight tensor with the Glorot uniform distribution:
// U(-sqrt(6/(fanIn+fanOut)), +sqrt(6/(fanIn+fanOut))).
//
// Keeps activation variance stable across layers; used for Linear weights.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	t := tensor.Zeros(shape, backend)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for weight initialization
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// Kaiming initializes a weight tensor with the He normal distribution,
// N(0, sqrt(2/fanIn)), the usual choice ahead of rectifier activations.
func Kaiming[B tensor.Backend](fanIn int, shape tensor.Shape, backend B) *tensor.Tensor[B] {
	std := math.Sqrt(2.0 / float64(fanIn))
	t := tensor.Zeros(shape, backend)
	data := t.Data()
	for i := range data {
		//nolint:gosec // math/rand for weight initialization
		data[i] = float32(rand.NormFloat64() * std)
	}
	return t
}
