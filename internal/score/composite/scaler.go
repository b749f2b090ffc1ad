package composite

// MinMaxScaler normalizes values to [0,1] against the min/max observed over
// the full dataset. Fit once before any per-row normalization: fitting per
// partition would score identical rows differently across chunks.
type MinMaxScaler struct {
	min  float64
	max  float64
	seen bool
}

// Observe folds one value into the scaler state.
func (s *MinMaxScaler) Observe(v float64) {
	if !s.seen {
		s.min, s.max = v, v
		s.seen = true
		return
	}

	if v < s.min {
		s.min = v
	}
	if v > s.max {
		s.max = v
	}
}

// Norm maps v into [0,1]. A degenerate column (all values equal, or nothing
// observed) normalizes to 0.
func (s *MinMaxScaler) Norm(v float64) float64 {
	if !s.seen || s.max == s.min {
		return 0
	}
	return (v - s.min) / (s.max - s.min)
}
