package gan

import (
	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// PerceptualCriterion computes the generator's training loss:
//
//	perceptual = content + beta * adversarial
//
// where content is the MSE between feature-extractor activations of the
// synthetic and real images, and adversarial is BCEWithLogits between
// the discriminator's scores for the synthetic images and a target of
// all ones (the generator wants its output judged real).
type PerceptualCriterion[B Backend] struct {
	extractor     nn.Module[B]
	discriminator nn.Module[B]
	normalizer    *Normalizer[B]
	beta          float32
}

// PerceptualLoss bundles the composite loss with its components, which
// the trainer accumulates separately.
type PerceptualLoss[B Backend] struct {
	Total       *tensor.Tensor[B]
	Content     *tensor.Tensor[B]
	Adversarial *tensor.Tensor[B]
}

// NewPerceptualCriterion creates the generator's criterion.
//
// The discriminator is shared with the discriminator's own criterion;
// only its forward pass is used here.
func NewPerceptualCriterion[B Backend](
	extractor, discriminator nn.Module[B],
	normalizer *Normalizer[B],
	beta float32,
) *PerceptualCriterion[B] {
	return &PerceptualCriterion[B]{
		extractor:     extractor,
		discriminator: discriminator,
		normalizer:    normalizer,
		beta:          beta,
	}
}

// Beta returns the adversarial weight.
func (c *PerceptualCriterion[B]) Beta() float32 {
	return c.beta
}

// ContentLoss computes the MSE between extractor features of the
// synthetic and real images.
//
// The real image's features are computed with the tape stopped and then
// detached: the target is a fixed value, so neither the extractor nor
// the real path can receive gradients through it.
func (c *PerceptualCriterion[B]) ContentLoss(sr, hr *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := sr.Backend()

	srFeatures := c.extractor.Forward(c.normalizer.Apply(sr))

	tape := backend.Tape()
	wasRecording := tape.IsRecording()
	tape.StopRecording()
	hrFeatures := c.extractor.Forward(c.normalizer.Apply(hr))
	if wasRecording {
		tape.StartRecording()
	}

	target := hrFeatures.Detach()
	return tensor.New(backend.MSE(srFeatures.Raw(), target.Raw()), backend)
}

// AdversarialLoss scores the synthetic images through the discriminator
// against an all-ones target.
func (c *PerceptualCriterion[B]) AdversarialLoss(sr *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := sr.Backend()
	logits := c.discriminator.Forward(sr)
	ones := tensor.Ones(logits.Shape(), backend)
	return tensor.New(backend.BCEWithLogits(logits.Raw(), ones.Raw()), backend)
}

// Forward computes the composite perceptual loss and its components.
//
// sr and hr are expected in the generator's output range [-1, 1]; both
// are normalized into the extractor's space internally.
func (c *PerceptualCriterion[B]) Forward(sr, hr *tensor.Tensor[B]) PerceptualLoss[B] {
	content := c.ContentLoss(sr, hr)
	adversarial := c.AdversarialLoss(sr)

	total := content.Add(adversarial.MulScalar(c.beta))
	return PerceptualLoss[B]{
		Total:       total,
		Content:     content,
		Adversarial: adversarial,
	}
}

// DiscriminatorCriterion computes the discriminator's training loss:
//
//	loss = BCEWithLogits(D(sr.Detach()), zeros) + BCEWithLogits(D(hr), ones)
//
// The synthetic images are detached before entering the discriminator,
// giving them a fresh tensor identity: gradients computed in this phase
// can never be accumulated onto the generator's graph.
type DiscriminatorCriterion[B Backend] struct {
	discriminator nn.Module[B]
}

// NewDiscriminatorCriterion creates the discriminator's criterion.
func NewDiscriminatorCriterion[B Backend](discriminator nn.Module[B]) *DiscriminatorCriterion[B] {
	return &DiscriminatorCriterion[B]{discriminator: discriminator}
}

// Forward computes the discriminator loss for a batch of synthetic and
// real images.
func (c *DiscriminatorCriterion[B]) Forward(sr, hr *tensor.Tensor[B]) *tensor.Tensor[B] {
	backend := sr.Backend()

	fakeLogits := c.discriminator.Forward(sr.Detach())
	realLogits := c.discriminator.Forward(hr)

	zeros := tensor.Zeros(fakeLogits.Shape(), backend)
	ones := tensor.Ones(realLogits.Shape(), backend)

	fakeLoss := tensor.New(backend.BCEWithLogits(fakeLogits.Raw(), zeros.Raw()), backend)
	realLoss := tensor.New(backend.BCEWithLogits(realLogits.Raw(), ones.Raw()), backend)

	return fakeLoss.Add(realLoss)
}
