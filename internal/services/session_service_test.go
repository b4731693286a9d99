// internal/services/session_service_test.go
package services

import (
	"strings"
	"testing"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/storage"
)

func testSessionService(t *testing.T) *SessionService {
	t.Helper()
	fs, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}
	return NewSessionService(fs)
}

func TestSaveResultValidation(t *testing.T) {
	s := testSessionService(t)

	if _, err := s.SaveResult("  ", "calculate_pacing", map[string]int{"x": 1}); err == nil || !errors.IsValidationError(err) {
		t.Errorf("expected validation error for empty project id, got %v", err)
	}
	if _, err := s.SaveResult("proj-1", "", map[string]int{"x": 1}); err == nil || !errors.IsValidationError(err) {
		t.Errorf("expected validation error for empty tool, got %v", err)
	}
}

func TestProjectIDRejectsPathSeparators(t *testing.T) {
	s := testSessionService(t)

	bad := []string{"../escape", "a/b", `a\b`, "dot.dot", "proj 1", strings.Repeat("x", 51)}
	for _, id := range bad {
		if _, err := s.SaveResult(id, "calculate_pacing", 1); err == nil || !errors.IsValidationError(err) {
			t.Errorf("SaveResult(%q) err = %v, want validation error", id, err)
		}
		if _, err := s.GetProjectResults(id); err == nil || !errors.IsValidationError(err) {
			t.Errorf("GetProjectResults(%q) err = %v, want validation error", id, err)
		}
	}

	// Nothing may land outside the results dir.
	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("unexpected stored projects: %v", projects)
	}

	if _, err := s.SaveResult("ok_id-1", "calculate_pacing", 1); err != nil {
		t.Errorf("valid id rejected: %v", err)
	}
}

func TestSaveAndGetResults(t *testing.T) {
	s := testSessionService(t)

	first, err := s.SaveResult("proj-1", "calculate_pacing", map[string]float64{"pacing_score": 0.8})
	if err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	if first.ID == "" || first.ProjectID != "proj-1" || first.Tool != "calculate_pacing" {
		t.Errorf("unexpected record: %+v", first)
	}

	second, err := s.SaveResult("proj-1", "validate_consistency", map[string]float64{"overall_score": 1.0})
	if err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("record ids should be unique")
	}

	results, err := s.GetProjectResults("proj-1")
	if err != nil {
		t.Fatalf("GetProjectResults failed: %v", err)
	}
	if results.ProjectID != "proj-1" {
		t.Errorf("project id = %q", results.ProjectID)
	}
	if len(results.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(results.Records))
	}
	if results.Records[0].Tool != "calculate_pacing" || results.Records[1].Tool != "validate_consistency" {
		t.Errorf("records out of order: %+v", results.Records)
	}
	if results.UpdatedAt.Before(results.Records[1].CreatedAt) {
		t.Error("updated_at older than last record")
	}
}

func TestGetProjectResultsNotFound(t *testing.T) {
	s := testSessionService(t)

	_, err := s.GetProjectResults("missing")
	if err == nil {
		t.Fatal("expected error for unknown project")
	}
	if !errors.IsNotFoundError(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestListProjects(t *testing.T) {
	s := testSessionService(t)

	if _, err := s.SaveResult("beta", "calculate_pacing", 1); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	if _, err := s.SaveResult("alpha", "calculate_pacing", 2); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %v", projects)
	}
	// ListFiles sorts, so project ids come back ordered.
	if projects[0] != "alpha" || projects[1] != "beta" {
		t.Errorf("projects = %v", projects)
	}
}

func TestListProjectsEmpty(t *testing.T) {
	s := testSessionService(t)

	projects, err := s.ListProjects()
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("expected no projects, got %v", projects)
	}
}
