// internal/services/structure_service_test.go
package services

import (
	"sort"
	"strings"
	"testing"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
)

func testAnalyzer() *StructureAnalyzer {
	resolver := &stubResolver{templates: map[string]*models.GenreTemplate{
		"thriller": {
			ID:   "thriller",
			Name: "Thriller",
			Conventions: []models.Convention{
				{Name: "High stakes", Importance: models.ImportanceEssential},
			},
		},
	}}
	return NewStructureAnalyzer(NewTensionCurveEngine(resolver), resolver)
}

const sampleStory = `The Long Night

Mara lived quietly at the edge of town, tending her garden.

One evening she discovered a letter hidden under the floorboards, and learned that her brother was alive.

She decided to find him. There was no turning back once she set out on the road north.

On the road she met a smuggler who offered passage across the border.

At the halfway point the truth was revealed: the smuggler had betrayed her, and everything changed.

All was lost when the soldiers took her papers. It was her last chance to reach the city.

In the final confrontation she faced the captain once and for all.

Afterward the town was calm again, and she rested at last.`

func TestAnalyzeEmptyText(t *testing.T) {
	_, err := testAnalyzer().Analyze("   \n  ", "thriller")
	if err == nil {
		t.Fatal("expected error for empty text")
	}
	if !errors.IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
	if !errors.IsAnalysisError(err) {
		t.Errorf("expected analysis wrapper, got %v", err)
	}
}

func TestAnalyzeUnknownGenre(t *testing.T) {
	_, err := testAnalyzer().Analyze(sampleStory, "western")
	if err == nil {
		t.Fatal("expected error for unknown genre")
	}
	if !errors.IsLookupError(err) {
		t.Errorf("expected lookup error, got %v", err)
	}
}

func TestAnalyzeProducesThreeActs(t *testing.T) {
	arc, err := testAnalyzer().Analyze(sampleStory, "thriller")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if arc.ID == "" {
		t.Error("arc has no id")
	}
	if arc.Genre != "thriller" {
		t.Errorf("genre = %q, want thriller", arc.Genre)
	}
	if arc.Title != "The Long Night" {
		t.Errorf("title = %q, want first line", arc.Title)
	}
	if arc.Status != models.ArcStatusAnalyzed {
		t.Errorf("status = %q", arc.Status)
	}

	acts := arc.ActStructure
	if acts.ActOne.StartPosition != 0.0 {
		t.Errorf("act one starts at %v", acts.ActOne.StartPosition)
	}
	if acts.ActThree.EndPosition != 1.0 {
		t.Errorf("act three ends at %v", acts.ActThree.EndPosition)
	}
	if acts.ActOne.EndPosition != acts.ActTwo.StartPosition {
		t.Error("act one/two boundary mismatch")
	}
	if acts.ActTwo.EndPosition != acts.ActThree.StartPosition {
		t.Error("act two/three boundary mismatch")
	}
	if !(acts.ActOne.EndPosition < acts.ActTwo.EndPosition) {
		t.Errorf("act boundaries not monotonic: %v, %v", acts.ActOne.EndPosition, acts.ActTwo.EndPosition)
	}

	for _, act := range []models.Act{acts.ActOne, acts.ActTwo, acts.ActThree} {
		if len(act.KeyEvents) == 0 {
			t.Errorf("act %q has no key events", act.Purpose)
		}
	}

	if len(acts.TurningPoints) == 0 {
		t.Fatal("no turning points")
	}
	if !sort.SliceIsSorted(acts.TurningPoints, func(i, j int) bool {
		return acts.TurningPoints[i].Position < acts.TurningPoints[j].Position
	}) {
		t.Error("turning points not sorted by position")
	}

	if arc.ConfidenceScore < 0.1 || arc.ConfidenceScore > 0.95 {
		t.Errorf("confidence %v outside [0.1, 0.95]", arc.ConfidenceScore)
	}
	if acts.ConfidenceScore < 0.1 || acts.ConfidenceScore > 0.95 {
		t.Errorf("act confidence %v outside [0.1, 0.95]", acts.ConfidenceScore)
	}
}

func TestAnalyzePacingProfile(t *testing.T) {
	arc, err := testAnalyzer().Analyze(sampleStory, "thriller")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	pacing := arc.PacingAnalysis
	if len(pacing.TensionCurve) == 0 {
		t.Fatal("empty tension curve")
	}
	if len(pacing.TensionCurve) > 10 {
		t.Errorf("tension curve has %d points, cap is 10", len(pacing.TensionCurve))
	}
	for i, v := range pacing.TensionCurve {
		if v < 0 || v > 1 {
			t.Errorf("curve[%d] = %v outside [0,1]", i, v)
		}
	}
	if pacing.ConfidenceScore < 0.1 || pacing.ConfidenceScore > 0.95 {
		t.Errorf("pacing confidence %v outside [0.1, 0.95]", pacing.ConfidenceScore)
	}
}

func TestAnalyzeDeterministicExceptID(t *testing.T) {
	a := testAnalyzer()

	first, err := a.Analyze(sampleStory, "thriller")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	second, err := a.Analyze(sampleStory, "thriller")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if first.ID == second.ID {
		t.Error("ids should be unique per analysis")
	}
	if first.ConfidenceScore != second.ConfidenceScore {
		t.Errorf("confidence not deterministic: %v vs %v", first.ConfidenceScore, second.ConfidenceScore)
	}
	if first.ActStructure.ActOne.EndPosition != second.ActStructure.ActOne.EndPosition {
		t.Error("act boundaries not deterministic")
	}
	if len(first.ActStructure.TurningPoints) != len(second.ActStructure.TurningPoints) {
		t.Error("turning points not deterministic")
	}
}

func TestAnalyzeShortStoryWarnings(t *testing.T) {
	arc, err := testAnalyzer().Analyze("A single sentence without much drama", "thriller")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var short, estimated bool
	for _, w := range arc.ContentWarnings {
		if strings.Contains(w, "very short") {
			short = true
		}
		if strings.Contains(w, "no canonical narrative beats") {
			estimated = true
		}
	}
	if !short {
		t.Error("missing short-story warning")
	}
	if !estimated {
		t.Error("missing estimated-boundaries warning")
	}

	// With no detected plot points, turning points fall back to estimates.
	tps := arc.ActStructure.TurningPoints
	if len(tps) != 2 {
		t.Fatalf("expected 2 estimated turning points, got %d", len(tps))
	}
	if tps[0].Position != 0.25 || tps[1].Position != 0.75 {
		t.Errorf("estimated turning points at %v, %v", tps[0].Position, tps[1].Position)
	}
	if tps[0].Confidence != 0.5 || tps[1].Confidence != 0.5 {
		t.Error("estimated turning points should carry 0.5 confidence")
	}
}

func TestAnalyzeContentWarningsForViolence(t *testing.T) {
	story := `The duel

He drew his knife and blood spilled across the floor.

The town buried him after the funeral, and his killer vanished.

Years passed before anyone spoke of it again.`

	arc, err := testAnalyzer().Analyze(story, "thriller")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	var violence, death bool
	for _, w := range arc.ContentWarnings {
		if w == "contains depictions of violence" {
			violence = true
		}
		if w == "contains depictions of death" {
			death = true
		}
	}
	if !violence {
		t.Errorf("missing violence warning: %v", arc.ContentWarnings)
	}
	if !death {
		t.Errorf("missing death warning: %v", arc.ContentWarnings)
	}
}

func TestStoryTitle(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"My Title\nBody text", "My Title"},
		{"no newline at all", "no newline at all"},
	}
	for _, tt := range tests {
		if got := storyTitle(tt.text); got != tt.want {
			t.Errorf("storyTitle(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
