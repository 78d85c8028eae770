package actuator

// SMA is a simple moving average over the last N current samples.
// Samples above limit are clamped so one spike cannot dominate the window.
type SMA struct {
	size   int
	limit  float64
	window []float64
	sum    float64
}

// NewSMA creates a filter averaging the last size samples, each clamped to limit.
func NewSMA(size int, limit float64) *SMA {
	if size < 1 {
		size = 1
	}
	return &SMA{
		size:   size,
		limit:  limit,
		window: make([]float64, 0, size),
	}
}

// Push adds a sample and returns the smoothed value.
// While the window is still filling the mean of the samples seen so far is returned.
func (f *SMA) Push(sample float64) float64 {
	if sample > f.limit {
		sample = f.limit
	}

	f.window = append(f.window, sample)
	if len(f.window) > f.size {
		f.window = f.window[1:]
	}

	// sum is always exactly the sum of the window.
	f.sum = 0
	for _, v := range f.window {
		f.sum += v
	}

	return f.sum / float64(len(f.window))
}

// Reset empties the window.
func (f *SMA) Reset() {
	f.window = f.window[:0]
	f.sum = 0
}

// Len returns the number of samples currently in the window.
func (f *SMA) Len() int {
	return len(f.window)
}

// Sum returns the sum of the samples in the window.
func (f *SMA) Sum() float64 {
	return f.sum
}
