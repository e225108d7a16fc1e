package optim

import (
	"fmt"
	"math"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)   // Parameter update
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam[B tensor.Backend] struct {
	params  []*nn.Parameter[B]
	lr      float32
	beta1   float32
	beta2   float32
	eps     float32
	t       int // Timestep for bias correction
	m       []*tensor.RawTensor
	v       []*tensor.RawTensor
	backend B
}

// AdamConfig holds configuration for the Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for the running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer over the given parameters.
//
// Zero-valued config fields fall back to the defaults above. Moment
// buffers are allocated lazily on the first Step so an optimizer that
// never steps carries no state.
func NewAdam[B tensor.Backend](params []*nn.Parameter[B], config AdamConfig, backend B) *Adam[B] {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam[B]{
		params:  params,
		lr:      config.LR,
		beta1:   config.Betas[0],
		beta2:   config.Betas[1],
		eps:     config.Eps,
		t:       0,
		m:       make([]*tensor.RawTensor, len(params)),
		v:       make([]*tensor.RawTensor, len(params)),
		backend: backend,
	}
}

// Step performs a single optimization step.
//
// Parameters with no gradient in the map are skipped; their moment
// buffers are left untouched.
func (a *Adam[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	a.t++

	biasCorrection1 := float32(1.0 - math.Pow(float64(a.beta1), float64(a.t)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(a.beta2), float64(a.t)))

	for i, param := range a.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		if a.m[i] == nil {
			a.m[i] = tensor.MustNewRaw(param.Tensor().Shape(), a.backend.Device())
		}
		if a.v[i] == nil {
			a.v[i] = tensor.MustNewRaw(param.Tensor().Shape(), a.backend.Device())
		}

		gradData := grad.Float32()
		mData := a.m[i].Float32()
		vData := a.v[i].Float32()
		paramData := param.Tensor().Raw().Float32()

		for j := range paramData {
			g := gradData[j]

			mData[j] = a.beta1*mData[j] + (1.0-a.beta1)*g
			vData[j] = a.beta2*vData[j] + (1.0-a.beta2)*g*g

			mHat := mData[j] / biasCorrection1
			vHat := vData[j] / biasCorrection2

			paramData[j] -= a.lr * mHat / (float32(math.Sqrt(float64(vHat))) + a.eps)
		}
	}
}

// ZeroGrad is a protocol hook; gradients are produced fresh by each
// backward pass and cleared with the tape.
func (a *Adam[B]) ZeroGrad() {}

// GetLR returns the current learning rate.
func (a *Adam[B]) GetLR() float32 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam[B]) SetLR(lr float32) {
	a.lr = lr
}

// GetTimestep returns the current timestep.
func (a *Adam[B]) GetTimestep() int {
	return a.t
}

// StateDict returns the optimizer state: moment buffers keyed by
// parameter index ("m.0", "v.0", ...) plus the timestep and learning
// rate. The learning rate is included so a resumed run keeps any decay
// applied before the checkpoint was written.
func (a *Adam[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)

	for i := range a.params {
		if a.m[i] != nil {
			stateDict[fmt.Sprintf("m.%d", i)] = a.m[i]
		}
		if a.v[i] != nil {
			stateDict[fmt.Sprintf("v.%d", i)] = a.v[i]
		}
	}
	stateDict["t"] = scalarTensor(float32(a.t))
	stateDict["lr"] = scalarTensor(a.lr)

	return stateDict
}

// LoadStateDict restores optimizer state from a state dictionary.
//
// Moment buffers must match the current parameter shapes. Missing
// moment entries are allowed (the parameter had not stepped yet when
// the state was saved).
func (a *Adam[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, param := range a.params {
		if raw, ok := stateDict[fmt.Sprintf("m.%d", i)]; ok {
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("m.%d shape mismatch: expected %v, got %v", i, param.Tensor().Shape(), raw.Shape())
			}
			a.m[i] = raw.Clone()
		}
		if raw, ok := stateDict[fmt.Sprintf("v.%d", i)]; ok {
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("v.%d shape mismatch: expected %v, got %v", i, param.Tensor().Shape(), raw.Shape())
			}
			a.v[i] = raw.Clone()
		}
	}

	if raw, ok := stateDict["t"]; ok {
		a.t = int(raw.Float32()[0])
	}
	if raw, ok := stateDict["lr"]; ok {
		a.lr = raw.Float32()[0]
	}

	return nil
}
