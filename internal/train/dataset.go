package train

import (
	"fmt"
	"math/rand"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Batch is one training step's worth of paired images, stacked along
// the leading dimension.
type Batch[B tensor.Backend] struct {
	LR   *tensor.Tensor[B] // Low-resolution inputs
	HR   *tensor.Tensor[B] // High-resolution targets
	Size int               // Number of pairs in this batch
}

// Dataset yields reshuffled batches of paired low/high-resolution
// images, one full pass per call.
type Dataset[B tensor.Backend] interface {
	// Len returns the number of image pairs.
	Len() int

	// Batches assembles one epoch of batches in a fresh shuffled order.
	// The final batch may be smaller than batchSize.
	Batches(batchSize int, rng *rand.Rand) ([]Batch[B], error)
}

// PairDataset is an in-memory Dataset over pre-loaded sample pairs.
type PairDataset[B tensor.Backend] struct {
	lr      [][]float32
	hr      [][]float32
	lrShape tensor.Shape // Per-sample shape, without the batch dimension
	hrShape tensor.Shape
	backend B
}

// NewPairDataset creates a dataset over parallel low/high-resolution
// sample slices.
//
// Every lr sample must match lrShape and every hr sample hrShape; the
// two slices must pair up one to one. A mismatch is a configuration
// error and fails construction.
func NewPairDataset[B tensor.Backend](lr, hr [][]float32, lrShape, hrShape tensor.Shape, backend B) (*PairDataset[B], error) {
	if len(lr) != len(hr) {
		return nil, fmt.Errorf("dataset pairing broken: %d low-res samples vs %d high-res", len(lr), len(hr))
	}
	if len(lr) == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	for i := range lr {
		if len(lr[i]) != lrShape.NumElements() {
			return nil, fmt.Errorf("low-res sample %d has %d elements, shape %v wants %d", i, len(lr[i]), lrShape, lrShape.NumElements())
		}
		if len(hr[i]) != hrShape.NumElements() {
			return nil, fmt.Errorf("high-res sample %d has %d elements, shape %v wants %d", i, len(hr[i]), hrShape, hrShape.NumElements())
		}
	}
	return &PairDataset[B]{
		lr:      lr,
		hr:      hr,
		lrShape: lrShape.Clone(),
		hrShape: hrShape.Clone(),
		backend: backend,
	}, nil
}

// Len returns the number of image pairs.
func (d *PairDataset[B]) Len() int {
	return len(d.lr)
}

// Batches assembles one epoch of batches in a fresh shuffled order.
func (d *PairDataset[B]) Batches(batchSize int, rng *rand.Rand) ([]Batch[B], error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	order := rng.Perm(len(d.lr))

	var batches []Batch[B]
	for start := 0; start < len(order); start += batchSize {
		end := min(start+batchSize, len(order))
		indices := order[start:end]

		lr, err := d.stack(d.lr, d.lrShape, indices)
		if err != nil {
			return nil, err
		}
		hr, err := d.stack(d.hr, d.hrShape, indices)
		if err != nil {
			return nil, err
		}

		batches = append(batches, Batch[B]{LR: lr, HR: hr, Size: len(indices)})
	}
	return batches, nil
}

func (d *PairDataset[B]) stack(samples [][]float32, sampleShape tensor.Shape, indices []int) (*tensor.Tensor[B], error) {
	batchShape := append(tensor.Shape{len(indices)}, sampleShape...)
	data := make([]float32, 0, batchShape.NumElements())
	for _, idx := range indices {
		data = append(data, samples[idx]...)
	}
	return tensor.FromSlice(data, batchShape, d.backend)
}

// NewSyntheticDataset generates random image pairs for smoke runs and
// tests: high-resolution crops in [-1, 1] with matching downscaled
// low-resolution inputs, as flattened NCHW samples with 3 channels.
func NewSyntheticDataset[B tensor.Backend](numPairs, cropSize, scalingFactor int, rng *rand.Rand, backend B) (*PairDataset[B], error) {
	if cropSize%scalingFactor != 0 {
		return nil, fmt.Errorf("crop size %d is not divisible by scaling factor %d", cropSize, scalingFactor)
	}
	lrSize := cropSize / scalingFactor

	hrShape := tensor.Shape{3, cropSize, cropSize}
	lrShape := tensor.Shape{3, lrSize, lrSize}

	lr := make([][]float32, numPairs)
	hr := make([][]float32, numPairs)
	for i := 0; i < numPairs; i++ {
		hrSample := make([]float32, hrShape.NumElements())
		for j := range hrSample {
			hrSample[j] = rng.Float32()*2 - 1
		}
		hr[i] = hrSample
		lr[i] = downsample(hrSample, cropSize, scalingFactor)
	}

	return NewPairDataset(lr, hr, lrShape, hrShape, backend)
}

// downsample box-averages each scalingFactor x scalingFactor block of a
// 3-channel square image.
func downsample(hr []float32, cropSize, scalingFactor int) []float32 {
	lrSize := cropSize / scalingFactor
	lr := make([]float32, 3*lrSize*lrSize)
	area := float32(scalingFactor * scalingFactor)

	for c := 0; c < 3; c++ {
		for y := 0; y < lrSize; y++ {
			for x := 0; x < lrSize; x++ {
				var sum float32
				for dy := 0; dy < scalingFactor; dy++ {
					for dx := 0; dx < scalingFactor; dx++ {
						sy := y*scalingFactor + dy
						sx := x*scalingFactor + dx
						sum += hr[c*cropSize*cropSize+sy*cropSize+sx]
					}
				}
				lr[c*lrSize*lrSize+y*lrSize+x] = sum / area
			}
		}
	}
	return lr
}
