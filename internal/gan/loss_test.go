package gan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/autodiff"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/backend/cpu"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/gan"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

type testBackend = *autodiff.Backend[*cpu.Backend]

// toyPlayers builds a small extractor and discriminator over flattened
// 4-feature images.
func toyPlayers(backend testBackend) (extractor, discriminator nn.Module[testBackend]) {
	extractor = nn.NewSequential[testBackend](
		nn.NewLinear(4, 3, backend),
		nn.NewReLU[testBackend](),
	)
	discriminator = nn.NewSequential[testBackend](
		nn.NewLinear(4, 3, backend),
		nn.NewLeakyReLU[testBackend](0.2),
		nn.NewLinear(3, 1, backend),
	)
	return extractor, discriminator
}

func batch(t *testing.T, backend testBackend, values []float32) *tensor.Tensor[testBackend] {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape{2, 4}, backend)
	require.NoError(t, err)
	return x
}

func TestAdversarialLoss_TargetsAllOnes(t *testing.T) {
	backend := autodiff.New(cpu.New())
	extractor, discriminator := toyPlayers(backend)
	criterion := gan.NewPerceptualCriterion(extractor, discriminator,
		gan.NewIdentityNormalizer(backend), 1e-3)

	sr := batch(t, backend, []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8})

	got := criterion.AdversarialLoss(sr)

	// The generator wants its output judged real, so the target is ones.
	logits := discriminator.Forward(sr)
	ones := tensor.Ones(logits.Shape(), backend)
	want := backend.BCEWithLogits(logits.Raw(), ones.Raw())

	assert.InDelta(t, want.Float32()[0], got.Item(), 1e-6)
}

func TestDiscriminatorLoss_LabelPolarity(t *testing.T) {
	backend := autodiff.New(cpu.New())
	_, discriminator := toyPlayers(backend)
	criterion := gan.NewDiscriminatorCriterion(discriminator)

	sr := batch(t, backend, []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8})
	hr := batch(t, backend, []float32{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2})

	got := criterion.Forward(sr, hr)

	// Synthetic images score against zeros, real ones against ones.
	fakeLogits := discriminator.Forward(sr)
	realLogits := discriminator.Forward(hr)
	zeros := tensor.Zeros(fakeLogits.Shape(), backend)
	ones := tensor.Ones(realLogits.Shape(), backend)
	want := backend.BCEWithLogits(fakeLogits.Raw(), zeros.Raw()).Float32()[0] +
		backend.BCEWithLogits(realLogits.Raw(), ones.Raw()).Float32()[0]

	assert.InDelta(t, want, got.Item(), 1e-5)
}

func TestPerceptualLoss_Composition(t *testing.T) {
	backend := autodiff.New(cpu.New())
	extractor, discriminator := toyPlayers(backend)
	beta := float32(0.01)
	criterion := gan.NewPerceptualCriterion(extractor, discriminator,
		gan.NewIdentityNormalizer(backend), beta)

	sr := batch(t, backend, []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8})
	hr := batch(t, backend, []float32{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2})

	loss := criterion.Forward(sr, hr)

	want := loss.Content.Item() + beta*loss.Adversarial.Item()
	assert.InDelta(t, want, loss.Total.Item(), 1e-6)
	assert.Greater(t, loss.Content.Item(), float32(0))
	assert.Greater(t, loss.Adversarial.Item(), float32(0))
}

func TestContentLoss_IdenticalImagesIsZero(t *testing.T) {
	backend := autodiff.New(cpu.New())
	extractor, discriminator := toyPlayers(backend)
	criterion := gan.NewPerceptualCriterion(extractor, discriminator,
		gan.NewIdentityNormalizer(backend), 1e-3)

	x := batch(t, backend, []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8})

	assert.InDelta(t, 0.0, criterion.ContentLoss(x, x).Item(), 1e-7)
}

func TestContentLoss_NoGradientToRealPath(t *testing.T) {
	backend := autodiff.New(cpu.New())
	extractor, discriminator := toyPlayers(backend)
	criterion := gan.NewPerceptualCriterion(extractor, discriminator,
		gan.NewIdentityNormalizer(backend), 1e-3)

	sr := batch(t, backend, []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8})
	hr := batch(t, backend, []float32{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2})

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()
	defer backend.Tape().Clear()

	loss := criterion.ContentLoss(sr, hr)
	grads := backend.Backward(loss.Raw())

	// Gradients flow to the synthetic input, never to the real one.
	assert.Contains(t, grads, sr.Raw())
	assert.NotContains(t, grads, hr.Raw())
}

func TestDiscriminatorLoss_NoGradientThroughDetachedInput(t *testing.T) {
	backend := autodiff.New(cpu.New())
	_, discriminator := toyPlayers(backend)
	criterion := gan.NewDiscriminatorCriterion(discriminator)

	sr := batch(t, backend, []float32{0.1, -0.2, 0.3, -0.4, 0.5, -0.6, 0.7, -0.8})
	hr := batch(t, backend, []float32{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2})

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()
	defer backend.Tape().Clear()

	loss := criterion.Forward(sr, hr)
	grads := backend.Backward(loss.Raw())

	// The detached synthetic batch has a fresh identity; the original
	// tensor collects nothing.
	assert.NotContains(t, grads, sr.Raw())

	// Discriminator parameters all receive gradients.
	for _, param := range discriminator.Parameters() {
		assert.Contains(t, grads, param.Tensor().Raw(), "parameter %s", param.Name())
	}
}

func TestNormalizer_Apply(t *testing.T) {
	backend := autodiff.New(cpu.New())
	normalizer := gan.NewIdentityNormalizer(backend)

	x, err := tensor.FromSlice([]float32{-1, 0, 1}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	got := normalizer.Apply(x)

	// [-1, 1] maps onto [0, 1].
	assert.InDeltaSlice(t, []float32{0, 0.5, 1}, got.Data(), 1e-6)
}

func TestNormalizer_ImageNetStatistics(t *testing.T) {
	backend := autodiff.New(cpu.New())
	normalizer := gan.NewImageNetNormalizer(backend)

	// A constant 0 image rescales to 0.5 in every channel.
	x := tensor.Zeros(tensor.Shape{1, 3, 2, 2}, backend)
	got := normalizer.Apply(x)

	wantPerChannel := []float32{
		(0.5 - 0.485) / 0.229,
		(0.5 - 0.456) / 0.224,
		(0.5 - 0.406) / 0.225,
	}
	data := got.Data()
	for c := 0; c < 3; c++ {
		for i := 0; i < 4; i++ {
			assert.InDelta(t, wantPerChannel[c], data[c*4+i], 1e-5)
		}
	}
}

func TestNormalizer_GradientsFlowThrough(t *testing.T) {
	backend := autodiff.New(cpu.New())
	normalizer := gan.NewIdentityNormalizer(backend)

	x, err := tensor.FromSlice([]float32{0.5, -0.5}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	defer backend.Tape().StopRecording()
	defer backend.Tape().Clear()

	loss := normalizer.Apply(x).Mean()
	grads := backend.Backward(loss.Raw())

	assert.Contains(t, grads, x.Raw())
}

func TestNewNormalizer_RejectsZeroStd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	mean := tensor.Zeros(tensor.Shape{1}, backend)
	std := tensor.Zeros(tensor.Shape{1}, backend)

	_, err := gan.NewNormalizer(mean, std)
	require.Error(t, err)
}
