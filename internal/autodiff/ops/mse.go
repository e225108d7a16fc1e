package ops

import "github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"

// MSEOp represents mean squared error: output = mean((a - b)²), shaped [1].
//
// This is the SRGAN content loss, computed between the feature maps of the
// generated and the real high-resolution images. Recording it as one fused
// operation keeps the tape short and makes the backward pass exact:
//
//	dL/da = 2(a - b)/N
//	dL/db = -2(a - b)/N
//
// When b is a detached target (the real-image features), its gradient is
// computed but lands on an identity nothing else references, so it is
// dropped by the tape.
type MSEOp struct {
	inputs []*tensor.RawTensor // [a, b]
	output *tensor.RawTensor
}

// MSEForward computes mean((a - b)²). Panics on shape mismatch: paired
// predictions and targets always agree in shape or the run is misconfigured.
func MSEForward(a, b *tensor.RawTensor) *tensor.RawTensor {
	if !a.Shape().Equal(b.Shape()) {
		panic("mse: inputs must have the same shape")
	}
	out := tensor.MustNewRaw(tensor.Shape{1}, a.Device())
	ad, bd := a.Float32(), b.Float32()
	var sum float64
	for i := range ad {
		d := float64(ad[i] - bd[i])
		sum += d * d
	}
	out.Float32()[0] = float32(sum / float64(len(ad)))
	return out
}

// NewMSEOp creates a new MSEOp.
func NewMSEOp(a, b, output *tensor.RawTensor) *MSEOp {
	return &MSEOp{inputs: []*tensor.RawTensor{a, b}, output: output}
}

// Backward computes input gradients for the mean squared error.
func (op *MSEOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	scale := outputGrad.Float32()[0] * 2 / float32(a.NumElements())

	gradA := tensor.MustNewRaw(a.Shape(), a.Device())
	gradB := tensor.MustNewRaw(b.Shape(), b.Device())
	ad, bd := a.Float32(), b.Float32()
	ga, gb := gradA.Float32(), gradB.Float32()
	for i := range ad {
		g := scale * (ad[i] - bd[i])
		ga[i] = g
		gb[i] = -g
	}
	return []*tensor.RawTensor{gradA, gradB}
}

// Inputs returns [a, b].
func (op *MSEOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the scalar loss.
func (op *MSEOp) Output() *tensor.RawTensor { return op.output }
