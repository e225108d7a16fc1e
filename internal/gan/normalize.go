package gan

import (
	"fmt"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Normalizer maps generator output in [-1, 1] into the feature
// extractor's expected input space: rescale to [0, 1], then subtract the
// per-channel mean and divide by the per-channel standard deviation.
//
// Apply is built from recorded backend operations, so gradients flow
// through the transform back into the generator.
type Normalizer[B Backend] struct {
	mean *tensor.Tensor[B]
	std  *tensor.Tensor[B]
}

// ImageNet channel statistics, the convention SRGAN's feature extractor
// was trained with.
var (
	imagenetMean = []float32{0.485, 0.456, 0.406}
	imagenetStd  = []float32{0.229, 0.224, 0.225}
)

// NewNormalizer creates a normalizer with explicit channel statistics.
//
// mean and std must have equal shapes broadcastable against the images
// they will be applied to, e.g. [1, 3, 1, 1] for NCHW batches or [1] for
// flattened toy inputs.
func NewNormalizer[B Backend](mean, std *tensor.Tensor[B]) (*Normalizer[B], error) {
	if !mean.Shape().Equal(std.Shape()) {
		return nil, fmt.Errorf("mean shape %v does not match std shape %v", mean.Shape(), std.Shape())
	}
	for _, v := range std.Data() {
		if v == 0 {
			return nil, fmt.Errorf("std contains zero")
		}
	}
	return &Normalizer[B]{mean: mean, std: std}, nil
}

// NewImageNetNormalizer creates a normalizer with the ImageNet channel
// statistics in [1, 3, 1, 1] layout for NCHW image batches.
func NewImageNetNormalizer[B Backend](backend B) *Normalizer[B] {
	shape := tensor.Shape{1, 3, 1, 1}
	mean, err := tensor.FromSlice(imagenetMean, shape, backend)
	if err != nil {
		panic(err)
	}
	std, err := tensor.FromSlice(imagenetStd, shape, backend)
	if err != nil {
		panic(err)
	}
	n, err := NewNormalizer(mean, std)
	if err != nil {
		panic(err)
	}
	return n
}

// NewIdentityNormalizer creates a normalizer whose channel statistics
// leave the [0, 1] rescaling as the only effect. Used by tests and the
// synthetic demo where no pretrained extractor convention applies.
func NewIdentityNormalizer[B Backend](backend B) *Normalizer[B] {
	mean := tensor.Zeros(tensor.Shape{1}, backend)
	std := tensor.Ones(tensor.Shape{1}, backend)
	n, err := NewNormalizer(mean, std)
	if err != nil {
		panic(err)
	}
	return n
}

// Apply transforms x from [-1, 1] into the normalized space.
func (n *Normalizer[B]) Apply(x *tensor.Tensor[B]) *tensor.Tensor[B] {
	rescaled := x.MulScalar(0.5).AddScalar(0.5)
	return rescaled.Sub(n.mean).Div(n.std)
}
