// internal/genre/loader_test.go
package genre

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func writeTemplate(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}
}

func TestNewLibraryBuiltinsOnly(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}

	for _, id := range []string{"thriller", "romance", "horror", "comedy", "drama"} {
		tmpl, ok := lib.Resolve(id)
		if !ok {
			t.Errorf("builtin genre %q missing", id)
			continue
		}
		if len(tmpl.Conventions) == 0 {
			t.Errorf("builtin genre %q has no conventions", id)
		}
		if len(tmpl.PacingProfile.Curve) == 0 {
			t.Errorf("builtin genre %q has no pacing curve", id)
		}
	}
}

func TestNewLibraryMissingDirFallsBack(t *testing.T) {
	lib, err := NewLibrary(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	if _, ok := lib.Resolve("thriller"); !ok {
		t.Error("builtins not available with missing dir")
	}
}

func TestNewLibraryLoadsYAMLTemplates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "noir.yaml", `
id: noir
name: Noir
conventions:
  - name: Moral ambiguity
    description: No character is clean
    importance: essential
    confidence_weight: 0.8
pacing_profile:
  name: smoldering
  curve: [0.3, 0.4, 0.5, 0.7, 0.6]
character_archetypes:
  - weary investigator
`)

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}

	tmpl, ok := lib.Resolve("noir")
	if !ok {
		t.Fatal("yaml template not loaded")
	}
	if tmpl.Name != "Noir" {
		t.Errorf("name = %q", tmpl.Name)
	}
	if len(tmpl.Conventions) != 1 || tmpl.Conventions[0].Name != "Moral ambiguity" {
		t.Errorf("conventions = %+v", tmpl.Conventions)
	}
	if tmpl.PacingProfile.Name != "smoldering" || len(tmpl.PacingProfile.Curve) != 5 {
		t.Errorf("pacing profile = %+v", tmpl.PacingProfile)
	}
}

func TestNewLibraryFileOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "thriller.yaml", `
id: thriller
name: Custom Thriller
conventions:
  - name: High stakes
    importance: essential
    confidence_weight: 0.9
`)

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}

	tmpl, ok := lib.Resolve("thriller")
	if !ok {
		t.Fatal("thriller missing")
	}
	if tmpl.Name != "Custom Thriller" {
		t.Errorf("builtin not overridden: %q", tmpl.Name)
	}
}

func TestNewLibraryIDDefaultsFromFilename(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "heist.yml", `
name: Heist
conventions:
  - name: The crew assembles
    importance: typical
`)

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	if _, ok := lib.Resolve("heist"); !ok {
		t.Error("id not defaulted from filename")
	}
}

func TestNewLibrarySkipsInvalidTemplates(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "broken.yaml", "conventions: [")
	writeTemplate(t, dir, "empty.yaml", `
id: empty
name: Empty
conventions: []
`)
	writeTemplate(t, dir, "notes.txt", "not a template")

	lib, err := NewLibrary(dir)
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}

	if _, ok := lib.Resolve("broken"); ok {
		t.Error("unparseable template loaded")
	}
	if _, ok := lib.Resolve("empty"); ok {
		t.Error("template without conventions loaded")
	}
	// Builtins survive invalid files.
	if _, ok := lib.Resolve("drama"); !ok {
		t.Error("builtins lost after invalid file")
	}
}

func TestResolveCaseInsensitive(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}

	for _, q := range []string{"Thriller", "THRILLER", "  thriller  "} {
		if _, ok := lib.Resolve(q); !ok {
			t.Errorf("Resolve(%q) missed", q)
		}
	}
	if _, ok := lib.Resolve("unknown"); ok {
		t.Error("Resolve returned template for unknown genre")
	}
}

func TestListSorted(t *testing.T) {
	lib, err := NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}

	templates := lib.List()
	if len(templates) < 5 {
		t.Fatalf("expected at least 5 templates, got %d", len(templates))
	}
	ids := make([]string, len(templates))
	for i, tmpl := range templates {
		ids[i] = tmpl.ID
	}
	if !sort.StringsAreSorted(ids) {
		t.Errorf("templates not sorted by id: %v", ids)
	}
}
