package vizserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sensorsim/internal/config"
	"sensorsim/internal/experiment"
	"sensorsim/internal/model"
	"sensorsim/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}

	hub := NewHub(nil)
	runner := experiment.NewRunner(experiment.Config{Store: store, Observer: hub})

	base := *config.Default()
	base.Agents.Count = 3
	base.Ticks = 5

	srv := NewServer(Config{Store: store, Hub: hub, Base: base, Run: runner.Run})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts, store
}

func TestListTopologies(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/topologies")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var names []string
	if err := json.NewDecoder(resp.Body).Decode(&names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Join(names, ",") != "grid,line,ring" {
		t.Fatalf("unexpected topologies: %v", names)
	}
}

func TestRunsRoundTrip(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/runs")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var runs []model.RunRecord
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		t.Fatalf("decode empty list: %v", err)
	}
	resp.Body.Close()
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}

	body := bytes.NewBufferString(`{"topology":{"name":"line","size":15},"ticks":4}`)
	resp, err = http.Post(ts.URL+"/api/runs", "application/json", body)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created model.RunRecord
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	resp.Body.Close()
	if created.Topology != "line" || created.Summary.Ticks != 4 || created.Summary.Agents != 3 {
		t.Fatalf("unexpected run: %+v", created)
	}

	resp, err = http.Get(ts.URL + "/api/runs/" + created.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	defer resp.Body.Close()
	var detail runDetail
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Run.ID != created.ID || len(detail.Agents) != 3 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}

func TestGetRunNotFound(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/runs/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStartRunRejectsBadInput(t *testing.T) {
	_, ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"ticks":`},
		{"invalid experiment", `{"agents":{"count":0}}`},
		{"unknown topology", `{"topology":{"name":"sphere"}}`},
		{"too many ticks", `{"ticks":10001}`},
		{"too many agents", `{"agents":{"count":1001}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/runs", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestStartRunRejectsServerOnlyFields(t *testing.T) {
	_, ts, store := newTestServer(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "keep.txt")
	if err := os.WriteFile(target, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	artifacts := filepath.Join(dir, "artifacts")

	tests := []struct {
		name string
		body string
	}{
		{"trace path", fmt.Sprintf(`{"ticks":1,"logging":{"trace_path":%q}}`, target)},
		{"artifacts dir", fmt.Sprintf(`{"ticks":1,"artifacts_dir":%q}`, artifacts)},
		{"storage", `{"ticks":1,"storage":{"kind":"sqlite","path":"other.db"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/api/runs", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read target: %v", err)
	}
	if string(data) != "keep" {
		t.Fatalf("target overwritten: %q", data)
	}
	if _, err := os.Stat(artifacts); !os.IsNotExist(err) {
		t.Fatalf("expected no artifacts dir, stat err=%v", err)
	}
	runs, err := store.ListRuns(context.Background())
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}

func TestStartRunRequiresJSONContentType(t *testing.T) {
	_, ts, store := newTestServer(t)

	for _, contentType := range []string{"text/plain", ""} {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/runs", strings.NewReader(`{"ticks":1}`))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("post: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnsupportedMediaType {
			t.Fatalf("content type %q: expected 415, got %d", contentType, resp.StatusCode)
		}
	}

	runs, _ := store.ListRuns(context.Background())
	if len(runs) != 0 {
		t.Fatalf("expected no runs, got %d", len(runs))
	}
}

func TestStartRunKeepsBaseForOmittedFields(t *testing.T) {
	_, ts, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/runs", "application/json; charset=utf-8", strings.NewReader(`{"ticks":2}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var run model.RunRecord
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if run.Summary.Ticks != 2 || run.Summary.Agents != 3 || run.Topology != "ring" {
		t.Fatalf("unexpected run: %+v", run.Summary)
	}
}

func TestStartRunDisabledWithoutRunner(t *testing.T) {
	store := storage.NewMemoryStore()
	_ = store.Init(context.Background())
	ts := httptest.NewServer(NewServer(Config{Store: store}).Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/runs", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestWebsocketReceivesTicks(t *testing.T) {
	srv, ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.Hub().Watchers() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	srv.Hub().ObserveTick([]experiment.TickEvent{{RunID: "live", Tick: 3, Agent: 1}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg tickMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if msg.Type != "tick" || len(msg.Data) != 1 || msg.Data[0].Tick != 3 || msg.Data[0].RunID != "live" {
		t.Fatalf("unexpected frame: %+v", msg)
	}

	conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for srv.Hub().Watchers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never unregistered")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestObserveTickWithoutWatchers(t *testing.T) {
	hub := NewHub(nil)
	hub.ObserveTick([]experiment.TickEvent{{Tick: 0}})
	if hub.Watchers() != 0 {
		t.Fatalf("expected no watchers, got %d", hub.Watchers())
	}
}
