package models

import (
	"math"
	"testing"
)

func TestExpectedScore(t *testing.T) {
	tests := []struct {
		name     string
		rating   int
		opponent int
		want     float64
	}{
		{"equal ratings split evenly", 1200, 1200, 0.5},
		{"400 points up is ten to one", 1600, 1200, 10.0 / 11.0},
		{"400 points down is one in eleven", 1200, 1600, 1.0 / 11.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedScore(tt.rating, tt.opponent)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ExpectedScore(%d, %d) = %v, want %v", tt.rating, tt.opponent, got, tt.want)
			}
		})
	}
}

func TestExpectedScoreSymmetry(t *testing.T) {
	pairs := [][2]int{{1200, 1200}, {1500, 1100}, {800, 2000}}
	for _, p := range pairs {
		sum := ExpectedScore(p[0], p[1]) + ExpectedScore(p[1], p[0])
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("expected scores for %v should sum to 1, got %v", p, sum)
		}
	}
}

func TestApplyOutcome(t *testing.T) {
	t.Run("equal ratings move by half K", func(t *testing.T) {
		newWinner, newLoser, wd, ld := ApplyOutcome(DefaultKFactor, 1200, 1200)

		half := int(math.Round(float64(DefaultKFactor) * 0.5))
		if gap := newWinner - newLoser; gap != 2*half {
			t.Errorf("rating gap after equal match = %d, want %d", gap, 2*half)
		}
		if wd != half || ld != -half {
			t.Errorf("deltas = (%d, %d), want (%d, %d)", wd, ld, half, -half)
		}
	})

	t.Run("upset win moves more than expected win", func(t *testing.T) {
		_, _, upsetDelta, _ := ApplyOutcome(DefaultKFactor, 1100, 1500)
		_, _, favoredDelta, _ := ApplyOutcome(DefaultKFactor, 1500, 1100)
		if upsetDelta <= favoredDelta {
			t.Errorf("upset delta %d should exceed favored delta %d", upsetDelta, favoredDelta)
		}
	})

	t.Run("loser rating floors at zero", func(t *testing.T) {
		_, newLoser, _, _ := ApplyOutcome(DefaultKFactor, 1200, 5)
		if newLoser < 0 {
			t.Errorf("loser rating went negative: %d", newLoser)
		}
	})

	t.Run("zero sum away from the floor", func(t *testing.T) {
		newWinner, newLoser, _, _ := ApplyOutcome(DefaultKFactor, 1400, 1300)
		if newWinner+newLoser != 1400+1300 {
			t.Errorf("ratings should be conserved: %d + %d != %d", newWinner, newLoser, 1400+1300)
		}
	})
}
