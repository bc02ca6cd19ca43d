//nolint:testpackage // Testing internal curve helpers requires same package access
package ranking

import "testing"

func TestClassify_TopRankNotFlagged(t *testing.T) {
	s := Classify(2, 0, 1000, DefaultRankThreshold)

	if s.NeedsOptimization {
		t.Error("rank 2 should not need optimization")
	}
	if s.Priority != PriorityNone {
		t.Errorf("Priority = %s, want none", s.Priority)
	}
	if s.Visibility != 95 {
		t.Errorf("Visibility = %v, want 95", s.Visibility)
	}
	if s.EstimatedTraffic != 1000*0.147 {
		t.Errorf("EstimatedTraffic = %v, want %v", s.EstimatedTraffic, 1000*0.147)
	}
}

func TestClassify_DeepRankIsCritical(t *testing.T) {
	s := Classify(55, 0, 500, DefaultRankThreshold)

	if !s.NeedsOptimization {
		t.Error("rank 55 should need optimization")
	}
	if s.Priority != PriorityCritical {
		t.Errorf("Priority = %s, want critical", s.Priority)
	}
}

func TestClassify_UnrankedZeroesOut(t *testing.T) {
	s := Classify(0, 12, 2400, DefaultRankThreshold)

	if s.Visibility != 0 {
		t.Errorf("Visibility = %v, want 0", s.Visibility)
	}
	if s.EstimatedTraffic != 0 {
		t.Errorf("EstimatedTraffic = %v, want 0", s.EstimatedTraffic)
	}
	if s.Priority != PriorityCritical {
		t.Errorf("Priority = %s, want critical", s.Priority)
	}
	if s.HasChange {
		t.Error("position change is undefined when current rank is 0")
	}
	if s.Trend != TrendStable {
		t.Errorf("Trend = %s, want stable", s.Trend)
	}
}

func TestClassify_Trend(t *testing.T) {
	cases := []struct {
		name     string
		current  int
		previous int
		want     Trend
		change   int
	}{
		{"improving", 4, 9, TrendImproving, 5},
		{"declining", 15, 8, TrendDeclining, -7},
		{"unchanged", 6, 6, TrendStable, 0},
		{"no previous", 6, 0, TrendStable, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Classify(tc.current, tc.previous, 0, DefaultRankThreshold)
			if s.Trend != tc.want {
				t.Errorf("Trend = %s, want %s", s.Trend, tc.want)
			}
			if s.PositionChange != tc.change {
				t.Errorf("PositionChange = %d, want %d", s.PositionChange, tc.change)
			}
		})
	}
}

func TestClassify_MidRankIsHigh(t *testing.T) {
	s := Classify(25, 0, 100, DefaultRankThreshold)
	if s.Priority != PriorityHigh {
		t.Errorf("Priority = %s, want high", s.Priority)
	}
}

func TestVisibilityScore_Monotonic(t *testing.T) {
	prev := 101.0
	for rank := 1; rank <= 100; rank++ {
		v := visibilityScore(rank)
		if v > prev {
			t.Fatalf("visibility increased from rank %d to %d (%v -> %v)", rank-1, rank, prev, v)
		}
		if v < 0 || v > 100 {
			t.Fatalf("visibility out of range at rank %d: %v", rank, v)
		}
		prev = v
	}

	if visibilityScore(100) > 1 {
		t.Errorf("visibility at rank 100 = %v, want near 0", visibilityScore(100))
	}
	if visibilityScore(101) != 0 {
		t.Errorf("visibility beyond rank 100 = %v, want 0", visibilityScore(101))
	}
}
