// internal/services/rhythm_analyzer_test.go
package services

import (
	"math"
	"testing"

	"github.com/Corphon/StoryPulseMCP/internal/models"
)

func TestClassify(t *testing.T) {
	r := NewRhythmAnalyzer()

	tests := []struct {
		description string
		want        string
	}{
		{"he ran and the chase began in a sudden burst", "fast"},
		{"she slowly gazed at the quiet garden", "slow"},
		{"they discussed the plan over dinner", "balanced"},
		{"he ran slowly", "balanced"}, // tie goes to balanced
	}

	for _, tt := range tests {
		if got := r.classify(tt.description); got != tt.want {
			t.Errorf("classify(%q) = %q, want %q", tt.description, got, tt.want)
		}
	}
}

func TestAnalyzeCountsSections(t *testing.T) {
	r := NewRhythmAnalyzer()

	beats := []models.InputBeat{
		{Description: "a sudden sprint through the alley"},
		{Description: "a quiet, calm evening"},
		{Description: "they shared a meal"},
		{Description: "the chase resumed at full burst"},
	}
	curve := []float64{0.5, 0.3, 0.4, 0.8}

	analysis := r.Analyze(beats, curve)
	if analysis.FastSections != 2 {
		t.Errorf("fast sections = %d, want 2", analysis.FastSections)
	}
	if analysis.SlowSections != 1 {
		t.Errorf("slow sections = %d, want 1", analysis.SlowSections)
	}
	if analysis.BalancedSections != 1 {
		t.Errorf("balanced sections = %d, want 1", analysis.BalancedSections)
	}
	if analysis.RhythmScore < 0.1 || analysis.RhythmScore > 1 {
		t.Errorf("rhythm score %v outside [0.1, 1]", analysis.RhythmScore)
	}
	if analysis.VariationScore < 0.1 || analysis.VariationScore > 1 {
		t.Errorf("variation score %v outside [0.1, 1]", analysis.VariationScore)
	}
}

func TestRhythmScoreIdealDistribution(t *testing.T) {
	r := NewRhythmAnalyzer()

	// 3 fast, 3 slow, 4 balanced out of 10 matches the ideal ratios exactly.
	analysis := models.RhythmAnalysis{FastSections: 3, SlowSections: 3, BalancedSections: 4}
	if got := r.rhythmScore(analysis, 10); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("ideal distribution rhythm score = %v, want 1.0", got)
	}

	// All beats in one bucket deviates maximally.
	skewed := models.RhythmAnalysis{FastSections: 10}
	got := r.rhythmScore(skewed, 10)
	// deviation = (0.7 + 0.3 + 0.4) / 3
	want := 1.0 - (0.7+0.3+0.4)/3.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("skewed rhythm score = %v, want %v", got, want)
	}
}

func TestVariationScoreIdealCurve(t *testing.T) {
	r := NewRhythmAnalyzer()

	// Range 0.6 hits the ideal exactly; stddev term keeps the score below 1.
	got := r.variationScore([]float64{0.2, 0.8})
	if got < 0.1 || got > 1 {
		t.Fatalf("variation score %v outside [0.1, 1]", got)
	}

	flat := r.variationScore([]float64{0.5, 0.5, 0.5})
	if flat != 0.1 {
		t.Errorf("flat curve variation score = %v, want floor 0.1", flat)
	}
}
