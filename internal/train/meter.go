package train

// AverageMeter accumulates a running weighted average of a scalar
// metric. The trainer keeps one per loss component and resets them at
// the start of every epoch.
type AverageMeter struct {
	sum   float64
	count int
}

// NewAverageMeter creates an empty meter.
func NewAverageMeter() *AverageMeter {
	return &AverageMeter{}
}

// Reset discards all accumulated observations.
func (m *AverageMeter) Reset() {
	m.sum = 0
	m.count = 0
}

// Update folds in an observation of value averaged over n samples.
//
// Panics if n <= 0: a non-positive batch size is a programmer error.
func (m *AverageMeter) Update(value float32, n int) {
	if n <= 0 {
		panic("AverageMeter.Update: n must be positive")
	}
	m.sum += float64(value) * float64(n)
	m.count += n
}

// Average returns the weighted mean of all observations, or 0 when the
// meter is empty.
func (m *AverageMeter) Average() float64 {
	if m.count == 0 {
		return 0
	}
	return m.sum / float64(m.count)
}

// Count returns the total number of samples observed.
func (m *AverageMeter) Count() int {
	return m.count
}
