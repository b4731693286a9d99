// internal/services/beat_detector_test.go
package services

import (
	"math"
	"testing"

	"github.com/Corphon/StoryPulseMCP/internal/models"
)

func segmentsAt(texts map[float64]string) []Segment {
	out := make([]Segment, 0, len(texts))
	i := 0
	for pos, text := range texts {
		out = append(out, Segment{Index: i, Text: text, Position: pos})
		i++
	}
	return out
}

func findBeat(beats []models.NarrativeBeat, bt models.BeatType) (models.NarrativeBeat, bool) {
	for _, b := range beats {
		if b.Type == bt {
			return b, true
		}
	}
	return models.NarrativeBeat{}, false
}

func TestDetectFindsCanonicalBeats(t *testing.T) {
	segments := []Segment{
		{Index: 0, Position: 0.1, Text: "She discovered the hidden letter in the attic."},
		{Index: 1, Position: 0.3, Text: "He decided there was no turning back now."},
		{Index: 2, Position: 0.5, Text: "The truth was revealed and everything changed."},
		{Index: 3, Position: 0.7, Text: "All was lost, their last chance gone."},
		{Index: 4, Position: 0.9, Text: "The final battle began at dawn."},
	}

	beats := NewBeatDetector().Detect(segments)
	if len(beats) != 5 {
		t.Fatalf("expected 5 beats, got %d", len(beats))
	}

	wantPositions := map[models.BeatType]float64{
		models.BeatIncitingIncident: 0.1,
		models.BeatPlotPoint1:       0.3,
		models.BeatMidpoint:         0.5,
		models.BeatPlotPoint2:       0.7,
		models.BeatClimax:           0.9,
	}
	for bt, pos := range wantPositions {
		beat, ok := findBeat(beats, bt)
		if !ok {
			t.Errorf("beat %s not detected", bt)
			continue
		}
		if math.Abs(beat.Position-pos) > 1e-9 {
			t.Errorf("beat %s position = %v, want %v", bt, beat.Position, pos)
		}
		if beat.Confidence < 0.1 || beat.Confidence > 0.95 {
			t.Errorf("beat %s confidence %v outside [0.1, 0.95]", bt, beat.Confidence)
		}
		if beat.Excerpt == "" {
			t.Errorf("beat %s has empty excerpt", bt)
		}
	}
}

func TestDetectPrefersCandidateNearExpectedPosition(t *testing.T) {
	// Both segments match inciting-incident patterns; the canonical
	// expected position is 0.12, so the earlier candidate wins.
	segments := []Segment{
		{Index: 0, Position: 0.10, Text: "She discovered the body in the garden."},
		{Index: 1, Position: 0.60, Text: "Later they discovered another clue."},
	}

	beats := NewBeatDetector().Detect(segments)
	beat, ok := findBeat(beats, models.BeatIncitingIncident)
	if !ok {
		t.Fatal("inciting incident not detected")
	}
	if beat.Position != 0.10 {
		t.Errorf("picked candidate at %v, want 0.10", beat.Position)
	}
}

func TestDetectNoMatches(t *testing.T) {
	segments := []Segment{
		{Index: 0, Position: 0.25, Text: "The garden lay still in the morning light."},
		{Index: 1, Position: 0.75, Text: "Birds sang over the rooftops."},
	}

	beats := NewBeatDetector().Detect(segments)
	if len(beats) != 0 {
		t.Fatalf("expected no beats, got %d", len(beats))
	}
}

func TestBeatConfidence(t *testing.T) {
	tests := []struct {
		name string
		hits int
		dist float64
		want float64
	}{
		{"single hit at expected position", 1, 0.0, 0.6},
		{"single hit with small offset", 1, 0.02, 0.56},
		{"three hits far away", 3, 0.5, 0.1},
		{"many hits capped", 5, 0.0, 0.95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := beatConfidence(tt.hits, tt.dist)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("beatConfidence(%d, %v) = %v, want %v", tt.hits, tt.dist, got, tt.want)
			}
		})
	}
}

func TestExcerptTruncation(t *testing.T) {
	long := make([]rune, 200)
	for i := range long {
		long[i] = 'a'
	}
	got := excerpt(string(long), 160)
	if len([]rune(got)) != 163 {
		t.Errorf("excerpt length = %d, want 163 (160 runes + ellipsis)", len([]rune(got)))
	}

	if got := excerpt("short", 160); got != "short" {
		t.Errorf("short text altered: %q", got)
	}
}
