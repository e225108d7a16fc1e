package optim

import (
	"fmt"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/nn"
	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// SGD implements stochastic gradient descent with optional momentum.
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// Without momentum (momentum = 0) this reduces to vanilla SGD.
type SGD[B tensor.Backend] struct {
	params   []*nn.Parameter[B]
	lr       float32
	momentum float32
	velocity []*tensor.RawTensor
	backend  B
}

// SGDConfig holds configuration for the SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0, disabled)
}

// NewSGD creates a new SGD optimizer over the given parameters.
func NewSGD[B tensor.Backend](params []*nn.Parameter[B], config SGDConfig, backend B) *SGD[B] {
	if config.LR == 0 {
		config.LR = 0.01
	}

	return &SGD[B]{
		params:   params,
		lr:       config.LR,
		momentum: config.Momentum,
		velocity: make([]*tensor.RawTensor, len(params)),
		backend:  backend,
	}
}

// Step performs a single optimization step.
func (s *SGD[B]) Step(grads map[*tensor.RawTensor]*tensor.RawTensor) {
	for i, param := range s.params {
		grad := getGradient(param, grads)
		if grad == nil {
			continue
		}

		gradData := grad.Float32()
		paramData := param.Tensor().Raw().Float32()

		if s.momentum == 0 {
			for j := range paramData {
				paramData[j] -= s.lr * gradData[j]
			}
			continue
		}

		if s.velocity[i] == nil {
			s.velocity[i] = tensor.MustNewRaw(param.Tensor().Shape(), s.backend.Device())
		}
		velData := s.velocity[i].Float32()

		for j := range paramData {
			velData[j] = s.momentum*velData[j] + gradData[j]
			paramData[j] -= s.lr * velData[j]
		}
	}
}

// ZeroGrad is a protocol hook; gradients are produced fresh by each
// backward pass and cleared with the tape.
func (s *SGD[B]) ZeroGrad() {}

// GetLR returns the current learning rate.
func (s *SGD[B]) GetLR() float32 {
	return s.lr
}

// SetLR updates the learning rate.
func (s *SGD[B]) SetLR(lr float32) {
	s.lr = lr
}

// StateDict returns the optimizer state: velocity buffers keyed by
// parameter index plus the learning rate.
func (s *SGD[B]) StateDict() map[string]*tensor.RawTensor {
	stateDict := make(map[string]*tensor.RawTensor)

	for i := range s.params {
		if s.velocity[i] != nil {
			stateDict[fmt.Sprintf("velocity.%d", i)] = s.velocity[i]
		}
	}
	stateDict["lr"] = scalarTensor(s.lr)

	return stateDict
}

// LoadStateDict restores optimizer state from a state dictionary.
func (s *SGD[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	for i, param := range s.params {
		if raw, ok := stateDict[fmt.Sprintf("velocity.%d", i)]; ok {
			if !raw.Shape().Equal(param.Tensor().Shape()) {
				return fmt.Errorf("velocity.%d shape mismatch: expected %v, got %v", i, param.Tensor().Shape(), raw.Shape())
			}
			s.velocity[i] = raw.Clone()
		}
	}

	if raw, ok := stateDict["lr"]; ok {
		s.lr = raw.Float32()[0]
	}

	return nil
}
