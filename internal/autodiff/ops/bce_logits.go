package ops

import (
	"math"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// BCEWithLogitsOp represents binary cross entropy computed directly on
// logits: output = mean(max(x, 0) - x·z + log(1 + exp(-|x|))), shaped [1].
//
// This is the adversarial loss for both players. The formulation folds the
// sigmoid into the loss for numerical stability (no overflow for large
// |x|), and its backward pass collapses to
//
//	dL/dx = (σ(x) - z) / N
//
// Targets are labels, never optimized: no gradient is produced for z. Label
// polarity is the callers' contract. The generator phase scores synthetic
// logits against ones, the discriminator phase against zeros (and real
// logits against ones).
type BCEWithLogitsOp struct {
	inputs []*tensor.RawTensor // [logits, targets]
	output *tensor.RawTensor
}

// BCEWithLogitsForward computes the stable mean BCE over logits.
func BCEWithLogitsForward(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	if !logits.Shape().Equal(targets.Shape()) {
		panic("bce: logits and targets must have the same shape")
	}
	out := tensor.MustNewRaw(tensor.Shape{1}, logits.Device())
	xd, zd := logits.Float32(), targets.Float32()
	var sum float64
	for i := range xd {
		x := float64(xd[i])
		z := float64(zd[i])
		sum += math.Max(x, 0) - x*z + math.Log1p(math.Exp(-math.Abs(x)))
	}
	out.Float32()[0] = float32(sum / float64(len(xd)))
	return out
}

// NewBCEWithLogitsOp creates a new BCEWithLogitsOp.
func NewBCEWithLogitsOp(logits, targets, output *tensor.RawTensor) *BCEWithLogitsOp {
	return &BCEWithLogitsOp{inputs: []*tensor.RawTensor{logits, targets}, output: output}
}

// Backward computes the logits gradient; the targets entry is nil.
func (op *BCEWithLogitsOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	logits, targets := op.inputs[0], op.inputs[1]
	scale := outputGrad.Float32()[0] / float32(logits.NumElements())

	grad := tensor.MustNewRaw(logits.Shape(), logits.Device())
	xd, zd, gd := logits.Float32(), targets.Float32(), grad.Float32()
	for i := range xd {
		sig := float32(1.0 / (1.0 + math.Exp(float64(-xd[i]))))
		gd[i] = scale * (sig - zd[i])
	}
	return []*tensor.RawTensor{grad, nil}
}

// Inputs returns [logits, targets].
func (op *BCEWithLogitsOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the scalar loss.
func (op *BCEWithLogitsOp) Output() *tensor.RawTensor { return op.output }
