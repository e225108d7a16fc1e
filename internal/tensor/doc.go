// Package tensor provides the float32 tensor representation used by the
// SRGAN training loop.
//
// The package deliberately supports a single data type: super-resolution
// batches, feature maps, logits and losses are all float32. Tensors are
// generic over a compute Backend so the same training code can run against
// the plain CPU backend or the autodiff decorator that records a gradient
// tape.
package tensor
