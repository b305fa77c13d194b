package model

// Tally holds pass/fail counts attributed to a single center.
type Tally struct {
	Passes   int
	Failures int
}

// CenterStats maps center id to its tally for one input file.
type CenterStats map[int]*Tally

// NewCenterStats returns a stats map with a zeroed tally for every center.
func NewCenterStats(centers []*ServiceCenter) CenterStats {
	stats := make(CenterStats, len(centers))
	for _, c := range centers {
		stats[c.ID] = &Tally{}
	}
	return stats
}

// Add records a result count against a center. Results other than Pass or
// Fail are ignored.
func (s CenterStats) Add(centerID int, result string, count int) {
	t, ok := s[centerID]
	if !ok {
		t = &Tally{}
		s[centerID] = t
	}
	switch result {
	case ResultPass:
		t.Passes += count
	case ResultFail:
		t.Failures += count
	}
}

// MergeInto adds the per-file tallies onto the centers' running totals.
// Merging is commutative and associative, so file order does not affect the
// final totals.
func (s CenterStats) MergeInto(centers []*ServiceCenter) {
	for _, c := range centers {
		if t, ok := s[c.ID]; ok {
			c.Passes += t.Passes
			c.Failures += t.Failures
		}
	}
}
