// Package ranking converts raw rank observations into visibility, trend,
// and priority signals.
//
// The visibility and CTR curves below are heuristic tenant-wide defaults
// with no empirical derivation; they exist to make ranks comparable across
// keywords, not to predict traffic accurately.
package ranking

// Trend describes rank movement between two observations.
type Trend string

const (
	// TrendImproving means the rank moved toward position 1.
	TrendImproving Trend = "improving"
	// TrendDeclining means the rank moved away from position 1.
	TrendDeclining Trend = "declining"
	// TrendStable means no movement, or not enough data to compare.
	TrendStable Trend = "stable"
)

// Priority tiers for optimization work.
type Priority string

const (
	// PriorityCritical: unranked or ranked beyond position 50.
	PriorityCritical Priority = "critical"
	// PriorityHigh: ranked 11-50.
	PriorityHigh Priority = "high"
	// PriorityMedium: flagged for optimization but inside the top 10.
	PriorityMedium Priority = "medium"
	// PriorityNone: not flagged.
	PriorityNone Priority = "none"
)

// DefaultRankThreshold flags anything outside the top 10 for optimization.
const DefaultRankThreshold = 10

// Signals is the classified view of one rank observation.
// Rank 0 means "not observed in measured results".
type Signals struct {
	Rank              int      `json:"rank"`
	PreviousRank      int      `json:"previous_rank"`
	PositionChange    int      `json:"position_change"`
	HasChange         bool     `json:"has_change"`
	Trend             Trend    `json:"trend"`
	Visibility        float64  `json:"visibility"`
	EstimatedTraffic  float64  `json:"estimated_traffic"`
	NeedsOptimization bool     `json:"needs_optimization"`
	Priority          Priority `json:"priority"`
}

// Classify derives signals from the current and previous rank of a keyword.
// previous == 0 means no prior observation; the trend is then stable.
func Classify(current, previous, searchVolume, threshold int) Signals {
	if threshold <= 0 {
		threshold = DefaultRankThreshold
	}

	s := Signals{
		Rank:         current,
		PreviousRank: previous,
		Trend:        TrendStable,
	}

	if current > 0 && previous > 0 {
		s.PositionChange = previous - current
		s.HasChange = true
		switch {
		case s.PositionChange > 0:
			s.Trend = TrendImproving
		case s.PositionChange < 0:
			s.Trend = TrendDeclining
		}
	}

	s.Visibility = visibilityScore(current)
	s.EstimatedTraffic = float64(searchVolume) * ctrForPosition(current)

	s.NeedsOptimization = current == 0 || current > threshold
	s.Priority = priorityFor(current, s.NeedsOptimization)

	return s
}

// visibilityScore maps a rank to [0,100], concentrated at the top positions:
// the top 3 occupy the 90-100 band, positions 4-10 decay to the mid-50s, and
// the score approaches 0 by rank 100. Rank 0 (unranked) scores 0.
func visibilityScore(rank int) float64 {
	const (
		topBandBase    = 100.0
		topBandStep    = 5.0
		midBandBase    = 90.0
		midBandStep    = 5.0
		lowBandBase    = 55.0
		lowBandStep    = 1.5
		tailBandBase   = 25.0
		tailBandStart  = 30
		tailBandLength = 70.0
	)

	switch {
	case rank <= 0:
		return 0
	case rank <= 3:
		return topBandBase - float64(rank-1)*topBandStep
	case rank <= 10:
		return midBandBase - float64(rank-3)*midBandStep
	case rank <= tailBandStart:
		return lowBandBase - float64(rank-10)*lowBandStep
	case rank <= 100:
		v := tailBandBase - float64(rank-tailBandStart)*(tailBandBase/tailBandLength)
		if v < 0 {
			return 0
		}
		return v
	default:
		return 0
	}
}

// topCTR is the fixed position-to-CTR curve for the first page.
var topCTR = map[int]float64{
	1:  0.284,
	2:  0.147,
	3:  0.103,
	4:  0.073,
	5:  0.053,
	6:  0.040,
	7:  0.030,
	8:  0.023,
	9:  0.018,
	10: 0.015,
}

// Beyond-first-page CTR bands.
const (
	secondPageCTR = 0.010 // 11-20
	deepCTR       = 0.005 // 21-50
	residualCTR   = 0.002 // 51-100
)

// ctrForPosition returns the click-through rate for a rank, 0 when unranked
// or beyond position 100.
func ctrForPosition(rank int) float64 {
	switch {
	case rank <= 0:
		return 0
	case rank <= 10:
		return topCTR[rank]
	case rank <= 20:
		return secondPageCTR
	case rank <= 50:
		return deepCTR
	case rank <= 100:
		return residualCTR
	default:
		return 0
	}
}

func priorityFor(rank int, flagged bool) Priority {
	if !flagged {
		return PriorityNone
	}
	switch {
	case rank == 0 || rank > 50:
		return PriorityCritical
	case rank >= 11:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
