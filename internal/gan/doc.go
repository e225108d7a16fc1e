// Package gan composes the SRGAN training losses.
//
// The generator is trained against a perceptual criterion: mean squared
// error between feature-extractor activations (content) plus a weighted
// adversarial term that rewards fooling the discriminator. The
// discriminator is trained with binary cross entropy to score real
// high-resolution images as 1 and synthetic ones as 0.
//
// The generator, discriminator and feature extractor are collaborators
// supplied as nn.Module values; this package defines only how their
// outputs combine into losses.
package gan
