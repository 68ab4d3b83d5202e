package debugserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/render"
	"github.com/kbukum/framegraph/security"
)

type limitParams struct {
	Limit int `mapstructure:"limit" validate:"gte=0"`
}

type limitJob struct {
	cfg limitParams
}

func (j *limitJob) DefaultConfig() limitParams { return limitParams{Limit: 3} }

func (j *limitJob) Configure(c limitParams) { j.cfg = c }

func (j *limitJob) Run(_ *render.Context, out *int) error {
	*out = j.cfg.Limit
	return nil
}

func newPipeline(t *testing.T) *render.Pipeline {
	t.Helper()
	b := render.NewBuilder("Debug")
	render.AddJobO[int](b, "Limit", &limitJob{})
	render.AddJob(b, "Broken", render.RunnerFunc(func(*render.Context) error {
		return errors.ResourceMissing("thing")
	}))
	task, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	p, err := render.NewPipeline(task, render.WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newServer(t *testing.T, p *render.Pipeline, secret string) http.Handler {
	t.Helper()
	cfg := Config{JWTSecret: secret}
	cfg.ApplyDefaults()
	return New(cfg, p, "test", logger.NewNop()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, http.NoBody)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON %q: %v", rr.Body.String(), err)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("invalid data %q: %v", env.Data, err)
	}
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) errors.ErrorCode {
	t.Helper()
	var resp errors.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid error JSON %q: %v", rr.Body.String(), err)
	}
	return resp.Error.Code
}

func renderOnce(t *testing.T, p *render.Pipeline) {
	t.Helper()
	if _, err := p.RenderFrame(context.Background(), render.Args{}); err != nil {
		t.Fatal(err)
	}
}

func TestAPI_Health(t *testing.T) {
	p := newPipeline(t)
	h := newServer(t, p, "")

	rr := do(t, h, http.MethodGet, "/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var health struct {
		Status string `json:"status"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &health)
	if health.Status != "up" {
		t.Errorf("expected up before any frame, got %q", health.Status)
	}

	renderOnce(t, p)
	rr = do(t, h, http.MethodGet, "/health", "", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &health)
	if rr.Code != http.StatusOK || health.Status != "degraded" {
		t.Errorf("expected 200 degraded, got %d %q", rr.Code, health.Status)
	}
}

func TestAPI_Stats(t *testing.T) {
	p := newPipeline(t)
	h := newServer(t, p, "")

	rr := do(t, h, http.MethodGet, "/stats", "", "")
	if rr.Code != http.StatusServiceUnavailable || errorCode(t, rr) != errors.ErrCodeResourceMissing {
		t.Fatalf("expected 503 RESOURCE_MISSING before the first frame, got %d %s", rr.Code, rr.Body.String())
	}

	renderOnce(t, p)
	rr = do(t, h, http.MethodGet, "/stats", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var view FrameView
	decodeData(t, rr, &view)
	if view.Frame != 1 || view.Pipeline != "debug" {
		t.Errorf("unexpected frame header %+v", view)
	}
	want := []NodeView{
		{Path: "Debug", Kind: "task", Status: "completed"},
		{Path: "Debug.Limit", Kind: "job", Status: "completed"},
		{Path: "Debug.Broken", Kind: "job", Status: "failed", Code: "RESOURCE_MISSING"},
	}
	got := make([]NodeView, len(view.Nodes))
	for i, n := range view.Nodes {
		got[i] = NodeView{Path: n.Path, Kind: n.Kind, Status: n.Status, Code: n.Code}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestAPI_GetConfig(t *testing.T) {
	h := newServer(t, newPipeline(t), "")

	rr := do(t, h, http.MethodGet, "/config", "", "")
	var all []render.NodeSnapshot
	decodeData(t, rr, &all)
	if len(all) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(all))
	}

	rr = do(t, h, http.MethodGet, "/config/Debug.Limit", "", "")
	var snap render.NodeSnapshot
	decodeData(t, rr, &snap)
	if snap.Path != "Debug.Limit" || snap.Params["limit"] != float64(3) {
		t.Errorf("unexpected snapshot %+v", snap)
	}

	rr = do(t, h, http.MethodGet, "/config/Debug.Nope", "", "")
	if rr.Code != http.StatusNotFound || errorCode(t, rr) != errors.ErrCodeConfigNotFound {
		t.Errorf("expected 404 CONFIG_NOT_FOUND, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestAPI_PatchConfig(t *testing.T) {
	p := newPipeline(t)
	h := newServer(t, p, "")

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.ErrorCode
	}{
		{"valid", "/config/Debug.Limit", `{"limit": 7}`, http.StatusOK, ""},
		{"validation", "/config/Debug.Limit", `{"limit": -1}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"unknown field", "/config/Debug.Limit", `{"depth": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"not an object", "/config/Debug.Limit", `[1]`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"no params", "/config/Debug.Broken", `{"limit": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"unknown node", "/config/Debug.Nope", `{"limit": 1}`, http.StatusNotFound, errors.ErrCodeConfigNotFound},
		{"malformed path", "/config/Debug..Limit", `{"limit": 1}`, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPatch, tc.path, tc.body, "")
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
			if tc.code != "" && errorCode(t, rr) != tc.code {
				t.Errorf("expected %s, got %s", tc.code, rr.Body.String())
			}
		})
	}

	params, err := p.Config().Params("Debug.Limit")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(limitParams{Limit: 7}, params); diff != "" {
		t.Errorf("rejected edits must not change params (-want +got):\n%s", diff)
	}
}

func TestAPI_PutEnabled(t *testing.T) {
	p := newPipeline(t)
	h := newServer(t, p, "")

	rr := do(t, h, http.MethodPut, "/config/Debug.Broken/enabled", `{"enabled": false}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var snap render.NodeSnapshot
	decodeData(t, rr, &snap)
	if snap.Enabled {
		t.Error("expected node disabled")
	}
	renderOnce(t, p)
	last, _ := p.LastResult()
	if len(last.Failed()) != 0 {
		t.Errorf("disabled job must not fail, got %+v", last.Failed())
	}

	if rr := do(t, h, http.MethodPut, "/config/Debug.Broken/enabled", `{}`, ""); rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing field, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPut, "/config/Debug.Limit", `{"enabled": true}`, ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestAPI_Auth(t *testing.T) {
	const secret = "0123456789abcdef0123"
	h := newServer(t, newPipeline(t), secret)
	tokens := NewTokens(secret)
	reader, err := tokens.Issue("viewer", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	writer, err := tokens.Issue("tuner", time.Minute, ScopeWrite)
	if err != nil {
		t.Fatal(err)
	}
	expired, _ := tokens.Issue("late", -time.Minute)
	forged, _ := NewTokens("another-secret-of-16").Issue("mallory", time.Minute, ScopeWrite)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		status int
	}{
		{"health is open", http.MethodGet, "/health", "", "", http.StatusOK},
		{"no token", http.MethodGet, "/config", "", "", http.StatusUnauthorized},
		{"reader reads", http.MethodGet, "/config", "", reader, http.StatusOK},
		{"expired", http.MethodGet, "/config", "", expired, http.StatusUnauthorized},
		{"forged", http.MethodGet, "/config", "", forged, http.StatusUnauthorized},
		{"reader cannot edit", http.MethodPatch, "/config/Debug.Limit", `{"limit": 2}`, reader, http.StatusForbidden},
		{"writer edits", http.MethodPatch, "/config/Debug.Limit", `{"limit": 2}`, writer, http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, tc.method, tc.path, tc.body, tc.token)
			if rr.Code != tc.status {
				t.Errorf("expected %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestAPI_RequestID(t *testing.T) {
	h := newServer(t, newPipeline(t), "")

	rr := do(t, h, http.MethodGet, "/config", "", "")
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("expected a generated request id")
	}

	r := httptest.NewRequest(http.MethodGet, "/config", http.NoBody)
	r.Header.Set("X-Request-Id", "frame-42")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	if got := rr.Header().Get("X-Request-Id"); got != "frame-42" {
		t.Errorf("expected the incoming id, got %q", got)
	}
}

func TestAPI_BodyLimit(t *testing.T) {
	h := newServer(t, newPipeline(t), "")
	body := `{"limit": 1, "pad": "` + string(bytes.Repeat([]byte("x"), 128<<10)) + `"}`
	rr := do(t, h, http.MethodPatch, "/config/Debug.Limit", body, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an oversized body, got %d", rr.Code)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"bad addr", Config{Addr: "nowhere"}, true},
		{"short secret", Config{JWTSecret: "short"}, true},
		{"negative timeout", Config{ReadTimeout: -1}, true},
		{"negative event interval", Config{FrameEvents: -1}, true},
		{"bad body size", Config{MaxBodySize: "lots"}, true},
		{"tls cert without key", Config{TLS: security.TLSConfig{CertFile: "c.pem"}}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.ApplyDefaults()
			if err := cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
