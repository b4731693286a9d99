// internal/services/plot_thread_service_test.go
package services

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
)

// 8 paragraphs, positions (i+0.5)/8. Engineered so the main plot,
// a romance subplot, a rivalry subplot, and two character arcs are all found.
const threadSampleStory = `The village slept under gray clouds. Word came that Mara would lead the harvest watch.

Raiders struck at dawn, and Mara knew she must stop them before the granary burned. The quest to find help began.

On the road she met Joren, a quiet hunter. She trusted Joren more with every mile.

Her heart ached whenever Joren smiled, though Mara said nothing of it.

The raiders' champion was a rival from her childhood, jealous of everything she had.

Together they had to defeat the champion at the ford, where Mara fought while Joren loosed arrows.

The champion yielded, and Mara learned that mercy could win what anger could not.

The granary they had fought to protect stood safe, the village was at peace, and at last Mara came home with Joren at her side.`

func findThread(t *testing.T, threads []models.PlotThread, id string) models.PlotThread {
	t.Helper()
	for _, thread := range threads {
		if thread.ID == id {
			return thread
		}
	}
	t.Fatalf("thread %q not found in %d threads", id, len(threads))
	return models.PlotThread{}
}

func TestTrackExtractsAllThreadKinds(t *testing.T) {
	tracker := NewPlotThreadTracker()

	report, err := tracker.Track(threadSampleStory, "all")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if report.ThreadFocus != "all" {
		t.Errorf("focus = %q", report.ThreadFocus)
	}
	if len(report.Threads) != 5 {
		t.Fatalf("threads = %d, want 5", len(report.Threads))
	}

	main := findThread(t, report.Threads, "main_plot")
	if main.Type != models.ThreadMainPlot || main.Confidence != 0.85 {
		t.Errorf("main thread = %+v", main)
	}
	if main.FirstMention != 0.1875 || main.LastMention != 0.9375 {
		t.Errorf("main span = [%v, %v]", main.FirstMention, main.LastMention)
	}
	if main.Status != models.ThreadResolved {
		t.Errorf("main status = %q", main.Status)
	}
	if !reflect.DeepEqual(main.Characters, []string{"Mara", "Joren"}) {
		t.Errorf("main characters = %v", main.Characters)
	}
	if len(main.KeyMoments) != 3 {
		t.Errorf("main key moments = %d", len(main.KeyMoments))
	}

	romance := findThread(t, report.Threads, "subplot_romance")
	if romance.Type != models.ThreadSubplot || romance.Confidence != 0.70 {
		t.Errorf("romance thread = %+v", romance)
	}
	if romance.Status != models.ThreadDeveloping {
		t.Errorf("romance status = %q", romance.Status)
	}
	if romance.FirstMention != 0.4375 || romance.Coverage != 0 {
		t.Errorf("romance span = [%v, cov %v]", romance.FirstMention, romance.Coverage)
	}

	rivalry := findThread(t, report.Threads, "subplot_rivalry")
	if len(rivalry.Characters) != 0 {
		t.Errorf("rivalry characters = %v", rivalry.Characters)
	}

	mara := findThread(t, report.Threads, "character_mara")
	if mara.Type != models.ThreadCharacterArc || mara.Confidence != 0.75 {
		t.Errorf("mara thread = %+v", mara)
	}
	if mara.FirstMention != 0.0625 || mara.LastMention != 0.9375 {
		t.Errorf("mara span = [%v, %v]", mara.FirstMention, mara.LastMention)
	}
	if mara.Status != models.ThreadResolved {
		t.Errorf("mara status = %q", mara.Status)
	}

	joren := findThread(t, report.Threads, "character_joren")
	if joren.FirstMention != 0.3125 {
		t.Errorf("joren first mention = %v", joren.FirstMention)
	}
}

func TestTrackCharacterArcs(t *testing.T) {
	tracker := NewPlotThreadTracker()

	report, err := tracker.Track(threadSampleStory, "all")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(report.CharacterArcs) != 2 {
		t.Fatalf("arcs = %d, want 2", len(report.CharacterArcs))
	}

	// Mara appears more often, so her arc comes first.
	mara := report.CharacterArcs[0]
	if mara.Name != "Mara" || mara.ArcType != "growth" {
		t.Errorf("mara arc = %+v", mara)
	}
	if mara.Stage != models.ThreadResolved {
		t.Errorf("mara stage = %q", mara.Stage)
	}

	joren := report.CharacterArcs[1]
	if joren.Name != "Joren" || joren.ArcType != "steady" {
		t.Errorf("joren arc = %+v", joren)
	}
}

func TestTrackInteractions(t *testing.T) {
	tracker := NewPlotThreadTracker()

	report, err := tracker.Track(threadSampleStory, "all")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(report.Interactions) != 5 {
		t.Fatalf("interactions = %d, want 5", len(report.Interactions))
	}

	var mainRomance *models.ThreadInteraction
	for i := range report.Interactions {
		in := report.Interactions[i]
		if in.ThreadA == "main_plot" && in.ThreadB == "subplot_romance" {
			mainRomance = &report.Interactions[i]
		}
		if in.InteractionType != "character_overlap" {
			t.Errorf("interaction type = %q", in.InteractionType)
		}
	}
	if mainRomance == nil {
		t.Fatal("main/romance interaction missing")
	}
	if mainRomance.Strength != 1.0 {
		t.Errorf("main/romance strength = %v", mainRomance.Strength)
	}
	if !reflect.DeepEqual(mainRomance.SharedCharacters, []string{"Mara", "Joren"}) {
		t.Errorf("shared = %v", mainRomance.SharedCharacters)
	}
}

func TestTrackLifecycle(t *testing.T) {
	tracker := NewPlotThreadTracker()

	report, err := tracker.Track(threadSampleStory, "all")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	lc := report.Lifecycle
	if len(lc.Stages["resolution"]) != 3 {
		t.Errorf("resolution stage = %v", lc.Stages["resolution"])
	}
	if len(lc.Stages["development"]) != 2 {
		t.Errorf("development stage = %v", lc.Stages["development"])
	}
	if math.Abs(lc.CompletionRate-0.6) > 1e-9 {
		t.Errorf("completion rate = %v", lc.CompletionRate)
	}
	if lc.ActiveThreads != 2 {
		t.Errorf("active threads = %d", lc.ActiveThreads)
	}
	// Counts 3/2/0/0 are heavily skewed, so balance bottoms out.
	if lc.BalanceScore != 0.0 {
		t.Errorf("balance score = %v", lc.BalanceScore)
	}
}

func TestTrackConfidenceAndRecommendations(t *testing.T) {
	tracker := NewPlotThreadTracker()

	report, err := tracker.Track(threadSampleStory, "all")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}

	// avg(0.85+0.70+0.70+0.75+0.75)/5 = 0.75, plus capped arc and
	// thread bonuses 0.2 and 0.15, clamped to 1.0.
	if report.Confidence != 1.0 {
		t.Errorf("confidence = %v", report.Confidence)
	}
	if len(report.Recommendations) != 1 ||
		!strings.Contains(report.Recommendations[0], "character arcs") {
		t.Errorf("recommendations = %v", report.Recommendations)
	}
}

func TestTrackFocusFiltering(t *testing.T) {
	tracker := NewPlotThreadTracker()

	report, err := tracker.Track(threadSampleStory, "main")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(report.Threads) != 1 || report.Threads[0].ID != "main_plot" {
		t.Errorf("main focus threads = %+v", report.Threads)
	}

	report, err = tracker.Track(threadSampleStory, "character")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(report.Threads) != 2 {
		t.Fatalf("character focus threads = %d", len(report.Threads))
	}
	for _, thread := range report.Threads {
		if thread.Type != models.ThreadCharacterArc {
			t.Errorf("unexpected thread type %q", thread.Type)
		}
	}

	// 空focus按all处理
	report, err = tracker.Track(threadSampleStory, "")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if report.ThreadFocus != "all" || len(report.Threads) != 5 {
		t.Errorf("default focus report: focus=%q threads=%d", report.ThreadFocus, len(report.Threads))
	}
}

func TestTrackNoThreads(t *testing.T) {
	tracker := NewPlotThreadTracker()

	story := "the rain fell on the quiet hills.\n\nthe grass was greener each day.\n\nnothing else happened for a long while."
	report, err := tracker.Track(story, "all")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if len(report.Threads) != 0 || len(report.CharacterArcs) != 0 {
		t.Errorf("unexpected extraction: %+v", report.Threads)
	}
	if report.Confidence != 0.0 {
		t.Errorf("confidence = %v", report.Confidence)
	}
	if report.Lifecycle.BalanceScore != 1.0 {
		t.Errorf("balance = %v", report.Lifecycle.BalanceScore)
	}
	if len(report.Recommendations) != 3 ||
		!strings.Contains(report.Recommendations[1], "subplot") {
		t.Errorf("recommendations = %v", report.Recommendations)
	}
}

func TestTrackInvalidInput(t *testing.T) {
	tracker := NewPlotThreadTracker()

	_, err := tracker.Track("   ", "all")
	if err == nil {
		t.Fatal("expected error for empty text")
	}
	if !errors.IsAnalysisError(err) || !errors.IsValidationError(err) {
		t.Errorf("unexpected error type: %v", err)
	}

	_, err = tracker.Track(threadSampleStory, "everything")
	if err == nil {
		t.Fatal("expected error for unknown focus")
	}
	if !errors.IsValidationError(err) {
		t.Errorf("unexpected error type: %v", err)
	}
}

func TestTrackDeterminism(t *testing.T) {
	tracker := NewPlotThreadTracker()

	first, err := tracker.Track(threadSampleStory, "all")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	second, err := tracker.Track(threadSampleStory, "all")
	if err != nil {
		t.Fatalf("Track failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated analysis produced different reports")
	}
}
