package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ivlev/scenevideo/internal/config"
	"github.com/ivlev/scenevideo/internal/engine"
	"github.com/ivlev/scenevideo/internal/jobs"
	"github.com/ivlev/scenevideo/internal/logging"
	"github.com/ivlev/scenevideo/internal/props"
	"github.com/ivlev/scenevideo/internal/storage"
)

const propsJSON = `{"title":"t","media":[{"script":{"text":"hello"},"audioDuration":1}]}`

type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	opts  engine.Options
	fail  string
}

func (f *fakeRenderer) RenderVideo(ctx context.Context, p *props.VideoProps, opts engine.Options) engine.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.opts = opts
	if f.fail != "" {
		return engine.Result{Error: f.fail}
	}
	if len(p.Media) != 1 || p.Media[0].Script.Text != "hello" {
		return engine.Result{Error: "unexpected props"}
	}
	if err := os.WriteFile(opts.OutputPath, []byte("mp4"), 0644); err != nil {
		return engine.Result{Error: err.Error()}
	}
	return engine.Result{Success: true, OutputPath: opts.OutputPath}
}

type fakeUploader struct {
	mu     sync.Mutex
	target storage.Target
	data   []byte
}

func (f *fakeUploader) Upload(ctx context.Context, localPath string, t storage.Target) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.target = t
	f.data, _ = os.ReadFile(localPath)
	return "https://x.supabase.co/storage/v1/object/public/" + t.String(), nil
}

type testEnv struct {
	srv      *Server
	renderer *fakeRenderer
	uploader *fakeUploader
	propsURL string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, ".json") {
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, propsJSON)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(origin.Close)

	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	env := &testEnv{
		renderer: &fakeRenderer{},
		uploader: &fakeUploader{},
		propsURL: origin.URL + "/storage/v1/object/public/ssul/FinalResult/a.json",
	}
	env.srv = New(Deps{
		Config:   cfg,
		Log:      logging.Discard(),
		Renderer: env.renderer,
		Fetcher:  HTTPPropsFetcher{Client: origin.Client()},
		Uploader: env.uploader,
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	data, _ := io.ReadAll(resp.Body)
	if len(data) > 0 && json.Unmarshal(data, &out) != nil {
		t.Fatalf("%s %s: non-JSON body %q", method, path, data)
	}
	return resp.StatusCode, out
}

func renderBody(t *testing.T, v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestRenderRequiresInputURL(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{`{}`, `{"inputUrl":"  "}`} {
		code, out := env.do(t, http.MethodPost, "/render", body)
		if code != http.StatusBadRequest || out["error"] != "inputUrl is required" {
			t.Errorf("body %s: got %d %v", body, code, out)
		}
	}
	if env.renderer.calls != 0 {
		t.Error("renderer should not run")
	}
}

func TestRenderSync(t *testing.T) {
	env := newTestEnv(t)
	code, out := env.do(t, http.MethodPost, "/render", renderBody(t, map[string]any{"inputUrl": env.propsURL, "qr": true}))
	if code != http.StatusOK || out["success"] != true {
		t.Fatalf("got %d %v", code, out)
	}

	wantURL := "https://x.supabase.co/storage/v1/object/public/ssul/FinalResult/a.mp4"
	if out["videoUrl"] != wantURL {
		t.Errorf("videoUrl = %v, expected %s", out["videoUrl"], wantURL)
	}
	if env.uploader.target != (storage.Target{Bucket: "ssul", Path: "FinalResult/a.mp4"}) {
		t.Errorf("unexpected target %+v", env.uploader.target)
	}
	if !bytes.Equal(env.uploader.data, []byte("mp4")) {
		t.Error("uploaded data mismatch")
	}
	if env.renderer.opts.Codec != "h264" {
		t.Errorf("codec = %s", env.renderer.opts.Codec)
	}
	if _, err := os.Stat(env.renderer.opts.OutputPath); !os.IsNotExist(err) {
		t.Error("local video should be deleted after upload")
	}
	if _, ok := out["duration"].(float64); !ok {
		t.Error("duration missing")
	}

	if out["qrUrl"] != "/output/qr/FinalResult_a.png" {
		t.Errorf("qrUrl = %v", out["qrUrl"])
	}
	if _, err := os.Stat(filepath.Join(env.srv.Config.OutputDir, "qr", "FinalResult_a.png")); err != nil {
		t.Errorf("qr code not written: %v", err)
	}
}

func TestRenderFailures(t *testing.T) {
	env := newTestEnv(t)
	env.renderer.fail = "at least one scene (media) is required"

	code, out := env.do(t, http.MethodPost, "/render", renderBody(t, map[string]any{"inputUrl": env.propsURL}))
	if code != http.StatusInternalServerError || out["success"] != false || out["error"] != env.renderer.fail {
		t.Errorf("render failure: got %d %v", code, out)
	}

	missing := strings.Replace(env.propsURL, "a.json", "missing.txt", 1)
	code, out = env.do(t, http.MethodPost, "/render", renderBody(t, map[string]any{"inputUrl": missing}))
	if code != http.StatusInternalServerError || !strings.Contains(out["error"].(string), "failed to fetch JSON") {
		t.Errorf("fetch failure: got %d %v", code, out)
	}
}

func TestRenderAsync(t *testing.T) {
	env := newTestEnv(t)
	code, out := env.do(t, http.MethodPost, "/render", renderBody(t, map[string]any{"inputUrl": env.propsURL, "async": true}))
	if code != http.StatusAccepted {
		t.Fatalf("got %d %v", code, out)
	}
	id, _ := out["jobId"].(string)
	if id == "" {
		t.Fatal("jobId missing")
	}
	env.srv.wg.Wait()

	code, out = env.do(t, http.MethodGet, "/jobs/"+id, "")
	if code != http.StatusOK {
		t.Fatalf("job lookup: %d %v", code, out)
	}
	job := out["job"].(map[string]any)
	if job["status"] != string(jobs.StatusSucceeded) || job["videoUrl"] == "" {
		t.Errorf("unexpected job %v", job)
	}

	code, _ = env.do(t, http.MethodGet, "/jobs/unknown", "")
	if code != http.StatusNotFound {
		t.Errorf("unknown job: %d", code)
	}
}

func TestAnimations(t *testing.T) {
	env := newTestEnv(t)
	code, out := env.do(t, http.MethodGet, "/animations?category=transition", "")
	if code != http.StatusOK {
		t.Fatalf("got %d %v", code, out)
	}
	names := map[string]bool{}
	for _, a := range out["animations"].([]any) {
		entry := a.(map[string]any)
		if entry["category"] != "transition" {
			t.Errorf("unexpected category in %v", entry)
		}
		names[entry["name"].(string)] = true
	}
	for _, want := range []string{"none", "fade", "slide-left", "slide-right", "wipe-up"} {
		if !names[want] {
			t.Errorf("transition %s missing", want)
		}
	}

	if code, _ := env.do(t, http.MethodGet, "/animations?category=spin", ""); code != http.StatusBadRequest {
		t.Errorf("unknown category: %d", code)
	}
}

func TestNotFoundAndHealth(t *testing.T) {
	env := newTestEnv(t)
	code, out := env.do(t, http.MethodGet, "/nope", "")
	if code != http.StatusNotFound || out["message"] != "Route GET /nope not found" {
		t.Errorf("got %d %v", code, out)
	}

	code, out = env.do(t, http.MethodGet, "/health", "")
	if code != http.StatusOK || out["status"] != "ok" {
		t.Errorf("health: %d %v", code, out)
	}
}

func TestShutdownWaitsForJobs(t *testing.T) {
	env := newTestEnv(t)
	_, out := env.do(t, http.MethodPost, "/render", renderBody(t, map[string]any{"inputUrl": env.propsURL, "async": true}))
	id, _ := out["jobId"].(string)

	// the app never listened, so only the job wait matters here
	env.srv.Shutdown(context.Background())

	job, err := env.srv.Jobs.Get(context.Background(), id)
	if err != nil {
		t.Fatal(err)
	}
	if !job.Status.Done() {
		t.Errorf("job should be finished after shutdown, status %s", job.Status)
	}
}
