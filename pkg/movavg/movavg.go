// Package movavg provides a fixed-capacity moving average over the most
// recent N samples. The averaging interval can be changed at runtime (which
// clears any accumulated state) and the backing storage is sized to the
// maximum interval up front, so no allocation ever happens on the Add path.
package movavg

const (

	// MinSize denotes the minimum averaging interval
	MinSize = 1

	// MaxSize denotes the maximum averaging interval
	MaxSize = 100
)

// Number covers the sample / total types the moving average can operate on
type Number interface {
	~int32 | ~int64 | ~float32 | ~float64
}

// MovingAverage maintains a running total / average over the last Size()
// samples. The total type T is deliberately separate from the sample type V
// so that narrow integer samples can accumulate into a wider total without
// overflowing (e.g. int32 samples into an int64 total)
type MovingAverage[V Number, T Number] struct {
	values    [MaxSize]V
	numValues int
	size      int
	total     T
}

// New instantiates a new moving average with the given averaging interval
// (clipped to [MinSize, MaxSize])
func New[V Number, T Number](size int) *MovingAverage[V, T] {
	m := &MovingAverage[V, T]{}
	m.SetSize(size)

	return m
}

// Add folds a new value into the running total, evicting the oldest value
// once the averaging interval has been filled. It returns the updated
// running total
func (m *MovingAverage[V, T]) Add(val V) T {

	m.total += T(val)

	if m.numValues < m.size {
		m.values[m.numValues] = val
		m.numValues++
	} else {
		oldest := &m.values[m.numValues%m.size]
		m.total -= T(*oldest)
		*oldest = val
		m.numValues++
	}

	return m.total
}

// Average returns the moving average of the values added so far. An empty
// window yields 0
func (m *MovingAverage[V, T]) Average() V {
	n := m.numValues
	if n > m.size {
		n = m.size
	}
	if n == 0 {
		return 0
	}

	return V(m.total / T(n))
}

// Total returns the moving total of the values added so far
func (m *MovingAverage[V, T]) Total() T {
	return m.total
}

// Reset clears the running total and sample count, keeping the averaging
// interval unchanged
func (m *MovingAverage[V, T]) Reset() {
	m.total = 0
	m.numValues = 0
}

// SetSize changes the averaging interval, clipping the requested value to
// [MinSize, MaxSize]. If the (clipped) interval differs from the current one
// all accumulated state is cleared. The interval actually applied is returned
func (m *MovingAverage[V, T]) SetSize(newSize int) int {

	if newSize < MinSize {
		newSize = MinSize
	} else if newSize > MaxSize {
		newSize = MaxSize
	}

	if newSize != m.size {
		m.size = newSize
		m.Reset()
	}

	return m.size
}

// Size returns the current averaging interval
func (m *MovingAverage[V, T]) Size() int {
	return m.size
}
