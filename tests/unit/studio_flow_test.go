package unit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ai/atelier-backend/internal/archive"
	"github.com/atelier-ai/atelier-backend/internal/auth"
	"github.com/atelier-ai/atelier-backend/internal/gateway"
	"github.com/atelier-ai/atelier-backend/internal/studio/generate"
	studiohttp "github.com/atelier-ai/atelier-backend/internal/studio/http"
	"github.com/atelier-ai/atelier-backend/internal/studio/refine"
	"github.com/atelier-ai/atelier-backend/internal/studio/session"
)

// scriptedGenerator answers every gateway call deterministically so the flow
// test exercises the handlers, not the engine.
type scriptedGenerator struct{}

func (scriptedGenerator) GenerateResearch(ctx context.Context, req gateway.ResearchRequest) (*gateway.Research, error) {
	return &gateway.Research{
		Summary:    "Hot arid climate with strong shading traditions.",
		Materials:  []string{"limestone", "rammed earth"},
		Lighting:   "Harsh sun, filtered courtyards.",
		Vernacular: "Najdi courtyard typology.",
	}, nil
}

func (scriptedGenerator) GenerateImage(ctx context.Context, req gateway.ImageRequest) (string, error) {
	return "img-generated", nil
}

func setupRouter(t *testing.T, mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	repo, err := archive.NewRepo(context.Background(), archive.NewMemoryStore())
	require.NoError(t, err)

	gen := scriptedGenerator{}
	sessions := session.NewManager(repo)
	handler := studiohttp.NewHandler(
		sessions,
		generate.NewService(gen, repo),
		refine.NewService(gen, repo),
		repo,
	)

	router := gin.New()
	router.Use(mw...)
	studiohttp.Register(router.Group("/api/v1"), handler)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) (int, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return rr.Code, out
}

func sessionState(t *testing.T, resp map[string]any) map[string]any {
	state, ok := resp["session"].(map[string]any)
	require.True(t, ok, "response carries no session state")
	return state
}

func TestGuidedFlow(t *testing.T) {
	router := setupRouter(t)

	// Create a session; it opens at the briefing stage.
	code, resp := doJSON(t, router, "POST", "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, code)
	state := sessionState(t, resp)
	sid := state["id"].(string)
	assert.Equal(t, "briefing", state["stage"])

	base := fmt.Sprintf("/api/v1/sessions/%s", sid)

	// A briefing without the required fields is rejected.
	code, _ = doJSON(t, router, "POST", base+"/briefing", map[string]any{"typology": "Museum"})
	assert.Equal(t, http.StatusBadRequest, code)

	// Mood intensity outside 0..100 never reaches a prompt.
	code, _ = doJSON(t, router, "POST", base+"/briefing", map[string]any{
		"typology":       "Museum",
		"location":       "Riyadh",
		"mood_intensity": 500,
	})
	assert.Equal(t, http.StatusBadRequest, code)

	// Briefing runs research inline and lands on the proposal stage.
	code, resp = doJSON(t, router, "POST", base+"/briefing", map[string]any{
		"typology": "Museum",
		"location": "Riyadh",
	})
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp["research"])
	assert.Equal(t, "proposal", sessionState(t, resp)["stage"])

	// Three candidate options come back.
	code, resp = doJSON(t, router, "POST", base+"/proposals", nil)
	require.Equal(t, http.StatusOK, code)
	options := resp["options"].([]any)
	require.Len(t, options, 3)
	firstOption := options[0].(map[string]any)["id"].(string)

	// Selecting an unknown option is a 404.
	code, _ = doJSON(t, router, "POST", base+"/select", map[string]any{"option_id": "missing"})
	assert.Equal(t, http.StatusNotFound, code)

	// Selecting seeds the version history with the original concept.
	code, resp = doJSON(t, router, "POST", base+"/select", map[string]any{"option_id": firstOption})
	require.Equal(t, http.StatusOK, code)
	state = sessionState(t, resp)
	assert.Equal(t, "refinement", state["stage"])
	versions := state["versions"].([]any)
	require.Len(t, versions, 1)
	v0 := versions[0].(map[string]any)
	assert.Equal(t, "Original Concept", v0["instruction"])

	// One refinement adds a version and a pair of conversation turns.
	code, resp = doJSON(t, router, "POST", base+"/refine", map[string]any{"instruction": "make the entrance taller"})
	require.Equal(t, http.StatusOK, code)
	state = sessionState(t, resp)
	assert.Len(t, state["versions"].([]any), 2)
	assert.Len(t, state["conversation"].([]any), 2)

	// Restoring the original keeps the full history.
	code, resp = doJSON(t, router, "POST", base+"/restore", map[string]any{"version_id": v0["id"].(string)})
	require.Equal(t, http.StatusOK, code)
	state = sessionState(t, resp)
	assert.Len(t, state["versions"].([]any), 2)
	assert.Len(t, state["conversation"].([]any), 3)

	// Finalizing without an explicit image takes the current version.
	code, resp = doJSON(t, router, "POST", base+"/finalize", map[string]any{})
	require.Equal(t, http.StatusOK, code)
	state = sessionState(t, resp)
	assert.Equal(t, "final", state["stage"])
	assert.NotEmpty(t, state["final_image"])

	// Refinement is closed once the project is final.
	code, _ = doJSON(t, router, "POST", base+"/refine", map[string]any{"instruction": "one more change"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	// The three fixed viewpoints render from the final image.
	code, resp = doJSON(t, router, "POST", base+"/angles", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, resp["images"].([]any), 3)

	// The dossier assembles cover, evolution and context pages.
	code, resp = doJSON(t, router, "GET", base+"/export", nil)
	require.Equal(t, http.StatusOK, code)
	doc := resp["document"].(map[string]any)
	assert.Equal(t, "Museum in Riyadh", doc["title"])
	assert.GreaterOrEqual(t, len(doc["pages"].([]any)), 3)

	// The archive lists the project under its derived name.
	code, resp = doJSON(t, router, "GET", "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, code)
	projects := resp["projects"].([]any)
	require.Len(t, projects, 1)
	finished := projects[0].(map[string]any)
	assert.Equal(t, "Museum in Riyadh", finished["name"])
	projectID := finished["id"].(string)

	// A new project resets the session to briefing with a fresh id.
	code, resp = doJSON(t, router, "POST", base+"/new-project", nil)
	require.Equal(t, http.StatusOK, code)
	state = sessionState(t, resp)
	assert.Equal(t, "briefing", state["stage"])
	assert.NotEqual(t, projectID, state["project_id"])

	// Loading the finished project reenters at the final stage.
	code, resp = doJSON(t, router, "POST", base+"/load/"+projectID, nil)
	require.Equal(t, http.StatusOK, code)
	state = sessionState(t, resp)
	assert.Equal(t, "final", state["stage"])
	assert.Equal(t, projectID, state["project_id"])
}

func TestGuidedFlow_OwnerStamping(t *testing.T) {
	// Stands in for the auth middleware chain resolving a db user.
	router := setupRouter(t, func(c *gin.Context) {
		c.Set(auth.CtxUserDBID, "user-42")
	})

	_, resp := doJSON(t, router, "POST", "/api/v1/sessions", nil)
	sid := sessionState(t, resp)["id"].(string)

	code, _ := doJSON(t, router, "POST", fmt.Sprintf("/api/v1/sessions/%s/briefing", sid), map[string]any{
		"typology": "Museum",
		"location": "Riyadh",
	})
	require.Equal(t, http.StatusOK, code)

	code, resp = doJSON(t, router, "GET", "/api/v1/projects", nil)
	require.Equal(t, http.StatusOK, code)
	projects := resp["projects"].([]any)
	require.Len(t, projects, 1)
	assert.Equal(t, "user-42", projects[0].(map[string]any)["owner"])
}

func TestGuidedFlow_UnknownSession(t *testing.T) {
	router := setupRouter(t)

	code, resp := doJSON(t, router, "GET", "/api/v1/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, false, resp["ok"])
}

func TestGuidedFlow_StageGating(t *testing.T) {
	router := setupRouter(t)

	_, resp := doJSON(t, router, "POST", "/api/v1/sessions", nil)
	sid := sessionState(t, resp)["id"].(string)
	base := fmt.Sprintf("/api/v1/sessions/%s", sid)

	// Proposals before briefing violate the stage order.
	code, _ := doJSON(t, router, "POST", base+"/proposals", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	// Finalize before any selection as well.
	code, _ = doJSON(t, router, "POST", base+"/finalize", map[string]any{})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}
