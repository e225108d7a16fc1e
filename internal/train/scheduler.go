package train

import "github.com/wangw123nbbbb/Intelligent-RS/internal/optim"

// LRDecay multiplies optimizer learning rates by Factor once, at the
// start of epoch Epoch.
//
// The applied guard makes the decay one-shot: a run that resumes from a
// checkpoint and revisits the trigger epoch cannot shrink the rate a
// second time (0.1 applied twice would be a silent 100x reduction).
type LRDecay struct {
	Epoch   int     // Zero-based epoch at which the decay fires
	Factor  float32 // Multiplier, e.g. 0.1
	applied bool
}

// NewLRDecay creates a decay schedule that fires at the start of the
// given epoch.
func NewLRDecay(epoch int, factor float32) *LRDecay {
	return &LRDecay{Epoch: epoch, Factor: factor}
}

// MaybeApply shrinks the learning rate of each optimizer if epoch has
// reached the trigger and the decay has not fired yet. Reports whether
// it fired.
func (d *LRDecay) MaybeApply(epoch int, optimizers ...optim.Optimizer) bool {
	if d.applied || epoch < d.Epoch {
		return false
	}
	for _, opt := range optimizers {
		opt.SetLR(opt.GetLR() * d.Factor)
	}
	d.applied = true
	return true
}

// Applied reports whether the decay has fired.
func (d *LRDecay) Applied() bool {
	return d.applied
}

// MarkApplied arms the guard without touching any learning rate. The
// trainer calls this when resuming from a checkpoint past the trigger
// epoch: the restored optimizer state already carries the decayed rate.
func (d *LRDecay) MarkApplied() {
	d.applied = true
}
