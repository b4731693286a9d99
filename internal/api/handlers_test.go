// internal/api/handlers_test.go
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/StoryPulseMCP/internal/genre"
	"github.com/Corphon/StoryPulseMCP/internal/services"
	"github.com/Corphon/StoryPulseMCP/internal/storage"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	library, err := genre.NewLibrary("")
	if err != nil {
		t.Fatalf("NewLibrary failed: %v", err)
	}
	fs, err := storage.NewFileStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStorage failed: %v", err)
	}

	tension := services.NewTensionCurveEngine(library)
	handler := NewHandler(
		services.NewStructureAnalyzer(tension, library),
		tension,
		services.NewGenrePatternMatcher(library),
		services.NewConsistencyRuleEngine(),
		services.NewPlotThreadTracker(),
		services.NewSessionService(fs),
		library,
	)

	r := gin.New()
	r.Use(RequestIDMiddleware())
	api := r.Group("/api")
	api.GET("/health", handler.Health)
	api.POST("/analysis/structure", handler.AnalyzeStructure)
	api.POST("/analysis/pacing", handler.CalculatePacing)
	api.POST("/analysis/genre", handler.ApplyGenrePatterns)
	api.POST("/analysis/consistency", handler.ValidateConsistency)
	api.POST("/analysis/threads", handler.TrackPlotThreads)
	api.GET("/genres", handler.GetGenres)
	api.GET("/genres/:id", handler.GetGenre)
	api.GET("/projects", handler.ListProjects)
	api.GET("/projects/:id/results", handler.GetProjectResults)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return w, resp
}

func TestHealthEndpoint(t *testing.T) {
	r := testRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !resp.Success {
		t.Error("health response not successful")
	}
	if resp.RequestID == "" {
		t.Error("request id missing from response")
	}
}

func TestCalculatePacingEndpoint(t *testing.T) {
	r := testRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/analysis/pacing", map[string]interface{}{
		"narrative_beats": []map[string]interface{}{
			{"description": "a calm opening in the village"},
			{"description": "danger arrives with the storm", "tension_level": 0.8},
			{"description": "the final chase through the hills"},
		},
		"genre": "thriller",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !resp.Success || resp.Data == nil {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestCalculatePacingEmptyBeats(t *testing.T) {
	r := testRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/analysis/pacing", map[string]interface{}{
		"narrative_beats": []map[string]interface{}{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if resp.Success || resp.Error == nil {
		t.Fatalf("expected error payload: %+v", resp)
	}
	if resp.Error.Code != ErrorBadRequest {
		t.Errorf("error code = %q", resp.Error.Code)
	}
}

func TestAnalyzeStructureUnknownGenre(t *testing.T) {
	r := testRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/analysis/structure", map[string]interface{}{
		"story_content": "Once upon a time there was a story.",
		"genre":         "unknown-genre",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrorGenreNotFound {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestValidateConsistencyEndpoint(t *testing.T) {
	r := testRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/analysis/consistency", map[string]interface{}{
		"story_elements": map[string]interface{}{
			"events": []map[string]interface{}{
				{"description": "They reach the harbor", "timestamp": "day_3"},
				{"description": "They pack their bags", "timestamp": "day_1"},
			},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !resp.Success {
		t.Errorf("unexpected response: %+v", resp)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is not an object: %T", resp.Data)
	}
	issues, ok := data["issues"].([]interface{})
	if !ok || len(issues) != 1 {
		t.Errorf("issues = %v", data["issues"])
	}
}

func TestGenreEndpoints(t *testing.T) {
	r := testRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/genres", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	templates, ok := resp.Data.([]interface{})
	if !ok || len(templates) < 5 {
		t.Errorf("genre list = %v", resp.Data)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/genres/thriller", nil)
	if w.Code != http.StatusOK {
		t.Errorf("thriller lookup status = %d", w.Code)
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/genres/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing genre status = %d", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrorGenreNotFound {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestProjectResultsFlow(t *testing.T) {
	r := testRouter(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/projects/proj-9/results", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status before any analysis = %d, want 404", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/analysis/pacing", map[string]interface{}{
		"narrative_beats": []map[string]interface{}{
			{"description": "the chase begins"},
			{"description": "a quiet pause"},
		},
		"project_id": "proj-9",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("pacing status = %d", w.Code)
	}

	w, resp := doJSON(t, r, http.MethodGet, "/api/projects/proj-9/results", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("results status = %d, body %s", w.Code, w.Body.String())
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is not an object: %T", resp.Data)
	}
	records, ok := data["records"].([]interface{})
	if !ok || len(records) != 1 {
		t.Errorf("records = %v", data["records"])
	}
}

func TestTrackPlotThreadsEndpoint(t *testing.T) {
	r := testRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/analysis/threads", map[string]interface{}{
		"story_content": "Raiders struck at dawn, and Mara knew she must stop them.\n\n" +
			"On the road she met Joren, a quiet hunter. She trusted Joren more with every mile.\n\n" +
			"Together they had to defeat the champion, where Mara fought while Joren loosed arrows.",
		"thread_focus": "all",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is not an object: %T", resp.Data)
	}
	threads, ok := data["threads"].([]interface{})
	if !ok || len(threads) == 0 {
		t.Errorf("threads = %v", data["threads"])
	}

	w, resp = doJSON(t, r, http.MethodPost, "/api/analysis/threads", map[string]interface{}{
		"story_content": "",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty content status = %d, want 400", w.Code)
	}
	if resp.Error == nil || resp.Error.Code != ErrorBadRequest {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestListProjectsEndpoint(t *testing.T) {
	r := testRouter(t)

	w, resp := doJSON(t, r, http.MethodGet, "/api/projects", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data, ok := resp.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data is not an object: %T", resp.Data)
	}
	projects, ok := data["projects"].([]interface{})
	if !ok || len(projects) != 0 {
		t.Errorf("projects = %v", data["projects"])
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/analysis/pacing", map[string]interface{}{
		"narrative_beats": []map[string]interface{}{
			{"description": "the chase begins"},
		},
		"project_id": "proj-list",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("pacing status = %d", w.Code)
	}

	_, resp = doJSON(t, r, http.MethodGet, "/api/projects", nil)
	data = resp.Data.(map[string]interface{})
	projects, _ = data["projects"].([]interface{})
	if len(projects) != 1 || projects[0] != "proj-list" {
		t.Errorf("projects = %v", projects)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analysis/structure", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
