package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelcast/internal/config"
	"reelcast/internal/events"
	"reelcast/internal/logging"
	"reelcast/internal/project"
	"reelcast/internal/script"
	"reelcast/internal/stage"
	"reelcast/internal/workflow"
)

type stubHandler struct {
	step project.Step
	err  error
}

func (h *stubHandler) Step() project.Step { return h.step }

func (h *stubHandler) Execute(_ context.Context, _ *project.Project) (project.Patch, error) {
	if h.err != nil {
		return project.Patch{}, h.err
	}
	switch h.step {
	case project.StepScript:
		return project.Patch{Script: project.Ptr("hello world"), ScriptDuration: project.Ptr(1), WordCount: project.Ptr(2)}, nil
	case project.StepVoice:
		return project.Patch{AudioURL: project.Ptr("https://cdn/a.mp3"), AudioDuration: project.Ptr(1)}, nil
	case project.StepBackground:
		return project.Patch{BackgroundVideoURL: project.Ptr("https://cdn/bg.mp4"), SceneProvider: project.Ptr("kling")}, nil
	default:
		return project.Patch{FinalVideoURL: project.Ptr("https://cdn/final.mp4")}, nil
	}
}

func (h *stubHandler) HealthCheck(context.Context) stage.Health { return stage.Healthy(string(h.step)) }

type fakeScripts struct {
	calls int
	last  script.Request
}

func (f *fakeScripts) Generate(_ context.Context, req script.Request) (script.Result, error) {
	f.calls++
	f.last = req
	return script.Result{Script: "about " + req.Topic, EstimatedDurationSeconds: 1, WordCount: 2}, nil
}

type fakeQueue struct {
	mu       sync.Mutex
	projects []string
}

func (q *fakeQueue) EnqueueProject(_ context.Context, id string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.projects = append(q.projects, id)
	return "task-" + id, nil
}

func (q *fakeQueue) EnqueueStep(context.Context, string, project.Step) (string, error) {
	return "task-step", nil
}

type fixture struct {
	server *Server
	store  *project.MemoryStore
	hub    *events.Hub
	mgr    *workflow.Manager
}

func newFixture(t *testing.T, apiCfg config.API, mutate func(*Deps)) *fixture {
	t.Helper()
	store := project.NewMemoryStore()
	hub := events.NewHub(64)
	mgr := workflow.NewManager(store, workflow.StageSet{
		Script:     &stubHandler{step: project.StepScript},
		Voice:      &stubHandler{step: project.StepVoice},
		Background: &stubHandler{step: project.StepBackground},
		LipSync:    &stubHandler{step: project.StepLipSync},
	}, workflow.WithEvents(hub), workflow.WithLogger(logging.NewNop()))
	deps := Deps{
		Config:   apiCfg,
		Workflow: mgr,
		Store:    store,
		Scripts:  &fakeScripts{},
		Events:   hub,
		Logger:   logging.NewNop(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv, err := New(deps)
	require.NoError(t, err)
	t.Cleanup(srv.Stop)
	return &fixture{server: srv, store: store, hub: hub, mgr: mgr}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func validRequest() map[string]any {
	return map[string]any{
		"topic":          "Why Go",
		"sourcePhotoUrl": "https://img.example/host.jpg",
		"sceneStyle":     "office",
	}
}

func TestHealthIsPublic(t *testing.T) {
	f := newFixture(t, config.API{Token: "secret"}, nil)
	rec := f.do(t, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := decode[HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Len(t, health.Stages, 4)
	assert.False(t, health.Worker)
}

func TestBearerTokenRequired(t *testing.T) {
	f := newFixture(t, config.API{Token: "secret"}, nil)

	rec := f.do(t, http.MethodGet, "/api/projects", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/projects", nil, http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/projects", nil, http.Header{"Authorization": {"Bearer secret"}})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/projects?token=secret", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	rec := f.do(t, http.MethodGet, "/api/scene-styles", nil, http.Header{"X-Request-Id": {"req-42"}})
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, "/api/scene-styles", nil, nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestActionRunWorkflow(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	body := validRequest()
	body["action"] = ActionRunWorkflow

	rec := f.do(t, http.MethodPost, "/api/talking-video", body, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[workflow.Result](t, rec)
	assert.Equal(t, project.StatusComplete, result.Status)
	assert.Equal(t, "https://cdn/final.mp4", result.FinalVideoURL)
	assert.Equal(t, "hello world", result.Script)
	assert.Empty(t, result.Error)
}

func TestActionRunWorkflowReportsStageFailure(t *testing.T) {
	f := newFixture(t, config.API{}, func(d *Deps) {
		d.Workflow = workflow.NewManager(project.NewMemoryStore(), workflow.StageSet{
			Script:     &stubHandler{step: project.StepScript},
			Voice:      &stubHandler{step: project.StepVoice, err: assert.AnError},
			Background: &stubHandler{step: project.StepBackground},
			LipSync:    &stubHandler{step: project.StepLipSync},
		})
	})
	body := validRequest()
	body["action"] = ActionRunWorkflow

	rec := f.do(t, http.MethodPost, "/api/talking-video", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[workflow.Result](t, rec)
	assert.Equal(t, project.StatusError, result.Status)
	assert.Equal(t, assert.AnError.Error(), result.Error)
	assert.Empty(t, result.AudioURL)
}

func TestActionValidationErrors(t *testing.T) {
	f := newFixture(t, config.API{}, nil)

	rec := f.do(t, http.MethodPost, "/api/talking-video", map[string]any{"action": ActionRunWorkflow, "topic": "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "sourcePhotoUrl")

	rec = f.do(t, http.MethodPost, "/api/talking-video", map[string]any{"action": "dance"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Error, "unknown action")

	rec = f.do(t, http.MethodPost, "/api/talking-video", map[string]any{"action": ActionGetProject, "projectId": "proj_404"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestActionRunStepRequiresPrerequisites(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	body := validRequest()
	body["action"] = ActionCreateProject
	rec := f.do(t, http.MethodPost, "/api/talking-video", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	created := decode[struct {
		ProjectID string `json:"projectId"`
	}](t, rec)
	require.NotEmpty(t, created.ProjectID)

	rec = f.do(t, http.MethodPost, "/api/talking-video", map[string]any{
		"action": ActionRunStep, "projectId": created.ProjectID, "step": "lipsync",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decode[ErrorResponse](t, rec)
	assert.Equal(t, "prerequisite", errBody.Kind)

	rec = f.do(t, http.MethodPost, "/api/talking-video", map[string]any{
		"action": ActionRunStep, "projectId": created.ProjectID, "step": "script",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, project.StatusScriptReady, decode[workflow.Result](t, rec).Status)
}

func TestActionGenerateScript(t *testing.T) {
	scripts := &fakeScripts{}
	f := newFixture(t, config.API{}, func(d *Deps) { d.Scripts = scripts })

	rec := f.do(t, http.MethodPost, "/api/talking-video", map[string]any{"action": ActionGenerateScript, "topic": "tea", "duration": 30}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[script.Result](t, rec)
	assert.Equal(t, "about tea", result.Script)
	assert.Equal(t, 1, scripts.calls)
	assert.Equal(t, 30, scripts.last.DurationSeconds)
}

func TestScriptDefaultsDurationWhenOmitted(t *testing.T) {
	scripts := &fakeScripts{}
	f := newFixture(t, config.API{}, func(d *Deps) { d.Scripts = scripts })

	rec := f.do(t, http.MethodPost, "/api/talking-video", map[string]any{"action": ActionGenerateScript, "topic": "tea"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, scripts.last.DurationSeconds)

	rec = f.do(t, http.MethodPost, "/api/script", map[string]any{"topic": "tea"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, scripts.last.DurationSeconds)
	assert.Equal(t, 2, scripts.calls)
}

func TestCreateProjectEnqueuesWhenQueueConfigured(t *testing.T) {
	queue := &fakeQueue{}
	f := newFixture(t, config.API{}, func(d *Deps) { d.Queue = queue })

	rec := f.do(t, http.MethodPost, "/api/projects", validRequest(), nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	resp := decode[ProjectResponse](t, rec)
	assert.Equal(t, string(project.StatusDraft), resp.Project.Status)
	assert.Equal(t, "task-"+resp.Project.ID, resp.TaskID)
	assert.Equal(t, []string{resp.Project.ID}, queue.projects)
}

func TestCreateProjectRunsInlineWithoutQueue(t *testing.T) {
	f := newFixture(t, config.API{}, nil)

	rec := f.do(t, http.MethodPost, "/api/projects", validRequest(), nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	id := decode[ProjectResponse](t, rec).Project.ID

	require.Eventually(t, func() bool {
		p, ok, _ := f.store.Get(context.Background(), id)
		return ok && p.Status == project.StatusComplete
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListFilterAndDelete(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	ctx := context.Background()
	draft, err := f.mgr.CreateProject(ctx, project.Request{Topic: "a", SourcePhotoURL: "https://x/a.jpg"})
	require.NoError(t, err)
	done, err := f.mgr.RunWorkflow(ctx, project.Request{Topic: "b", SourcePhotoURL: "https://x/b.jpg"}, nil)
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/projects?status=complete", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[ProjectListResponse](t, rec)
	require.Len(t, list.Projects, 1)
	assert.Equal(t, done.ProjectID, list.Projects[0].ID)

	rec = f.do(t, http.MethodGet, "/api/projects?status=bogus", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/projects/"+draft.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/projects/"+draft.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunStepRoute(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	p, err := f.mgr.CreateProject(context.Background(), project.Request{Topic: "a", SourcePhotoURL: "https://x/a.jpg"})
	require.NoError(t, err)

	rec := f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/steps/render", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/steps/voice", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/steps/script", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", decode[workflow.Result](t, rec).Script)
}

func TestSceneStyles(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	rec := f.do(t, http.MethodGet, "/api/scene-styles", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Styles []SceneStyle `json:"styles"`
	}](t, rec)
	ids := make([]string, 0, len(body.Styles))
	for _, s := range body.Styles {
		ids = append(ids, s.ID)
	}
	assert.Contains(t, ids, "podcast_studio")
	assert.Contains(t, ids, "custom")
}

func TestVoicesUnconfigured(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	rec := f.do(t, http.MethodGet, "/api/voices", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "configuration", decode[ErrorResponse](t, rec).Kind)
}

func TestGenerationEndpointsAreRateLimited(t *testing.T) {
	f := newFixture(t, config.API{RateLimitPerMinute: 1, RateLimitBurst: 1}, nil)
	body := map[string]any{"topic": "tea", "duration": 30}

	rec := f.do(t, http.MethodPost, "/api/script", body, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/script", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Reads are not limited.
	rec = f.do(t, http.MethodGet, "/api/projects", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func dialEvents(t *testing.T, srv *httptest.Server, id, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/projects/" + id + "/events" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestEventsStreamFollowsProjectToCompletion(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	httpSrv := httptest.NewServer(f.server.Handler())
	defer httpSrv.Close()

	p, err := f.mgr.CreateProject(context.Background(), project.Request{Topic: "a", SourcePhotoURL: "https://x/a.jpg"})
	require.NoError(t, err)

	conn := dialEvents(t, httpSrv, p.ID, "")
	var first EventMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "status", first.Kind)
	require.NotNil(t, first.Project)
	assert.Equal(t, string(project.StatusDraft), first.Project.Status)

	go func() { _, _ = f.mgr.RunProject(context.Background(), p.ID, nil) }()

	var last EventMessage
	for {
		var msg EventMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		last = msg
	}
	require.NotNil(t, last.Project)
	assert.Equal(t, string(project.StatusComplete), last.Project.Status)
}

func TestEventsUnknownProject(t *testing.T) {
	f := newFixture(t, config.API{}, nil)
	rec := f.do(t, http.MethodGet, "/api/projects/proj_missing/events", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
