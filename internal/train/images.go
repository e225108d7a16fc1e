package train

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// LoadImageDataset builds a PairDataset from a directory of training
// images. Each image contributes one pair: a center crop of
// cropSize x cropSize as the high-resolution target in [-1, 1] NCHW
// layout, and its box-downscaled counterpart as the low-resolution
// input.
//
// Images smaller than the crop are skipped with no error; an empty
// result fails construction.
func LoadImageDataset[B tensor.Backend](dir string, cropSize, scalingFactor int, backend B) (*PairDataset[B], error) {
	if cropSize%scalingFactor != 0 {
		return nil, fmt.Errorf("crop size %d is not divisible by scaling factor %d", cropSize, scalingFactor)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var lr, hr [][]float32
	for _, entry := range entries {
		if entry.IsDir() || !isImageFile(entry.Name()) {
			continue
		}
		sample, err := loadCrop(filepath.Join(dir, entry.Name()), cropSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", entry.Name(), err)
		}
		if sample == nil {
			continue // image smaller than the crop
		}
		hr = append(hr, sample)
		lr = append(lr, downsample(sample, cropSize, scalingFactor))
	}

	if len(hr) == 0 {
		return nil, fmt.Errorf("no usable images of at least %dx%d in %s", cropSize, cropSize, dir)
	}

	lrSize := cropSize / scalingFactor
	return NewPairDataset(lr, hr,
		tensor.Shape{3, lrSize, lrSize},
		tensor.Shape{3, cropSize, cropSize},
		backend)
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// loadCrop decodes an image and returns its center crop as a flattened
// NCHW float32 sample in [-1, 1], or nil if the image is too small.
func loadCrop(path string, cropSize int) ([]float32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dx() < cropSize || bounds.Dy() < cropSize {
		return nil, nil
	}
	x0 := bounds.Min.X + (bounds.Dx()-cropSize)/2
	y0 := bounds.Min.Y + (bounds.Dy()-cropSize)/2

	sample := make([]float32, 3*cropSize*cropSize)
	plane := cropSize * cropSize
	for y := 0; y < cropSize; y++ {
		for x := 0; x < cropSize; x++ {
			r, g, b, _ := img.At(x0+x, y0+y).RGBA()
			idx := y*cropSize + x
			sample[idx] = float32(r)/32767.5 - 1
			sample[plane+idx] = float32(g)/32767.5 - 1
			sample[2*plane+idx] = float32(b)/32767.5 - 1
		}
	}
	return sample, nil
}
