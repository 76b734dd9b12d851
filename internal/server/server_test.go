package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/edalab/copperview/pkg/pipeline"
	"github.com/edalab/copperview/pkg/wire"
)

const testBoard = `{
  "name": "two-trace",
  "layers": [
    {
      "id": "F.Cu",
      "name": "Front Copper",
      "function": "SIGNAL",
      "polylines": [
        {"points": [[0, 0], [2, 0]], "width": 0.1, "net": "A"},
        {"points": [[0, 0.2], [2, 0.2]], "width": 0.1, "net": "B"}
      ]
    }
  ],
  "primitives": {}
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	srv := New(Options{
		Runner: pipeline.NewRunner(nil, nil, logger),
		Logger: logger,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func createBoard(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(ts.URL+"/boards?name=two-trace", "application/json", strings.NewReader(testBoard))
	if err != nil {
		t.Fatalf("POST /boards: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /boards status = %d", resp.StatusCode)
	}

	var body struct {
		ID     string `json:"id"`
		Layers []struct {
			ID     string `json:"id"`
			Copper bool   `json:"copper"`
		} `json:"layers"`
		Stats struct {
			Objects int `json:"objects"`
		} `json:"stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.ID == "" {
		t.Fatal("response should carry a session id")
	}
	if len(body.Layers) != 1 || !body.Layers[0].Copper {
		t.Errorf("layers = %+v", body.Layers)
	}
	if body.Stats.Objects != 2 {
		t.Errorf("objects = %d, want 2", body.Stats.Objects)
	}
	return body.ID
}

func TestHealth(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestCreateBoardInvalid(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Post(ts.URL+"/boards", "application/json", strings.NewReader(`{"layers": []}`))
	if err != nil {
		t.Fatalf("POST /boards: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if envelope.Error.Code != "INVALID_BOARD" {
		t.Errorf("error code = %q", envelope.Error.Code)
	}
}

func TestGetBoardNotFound(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/boards/nope")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestGeometryEndpoint(t *testing.T) {
	ts := testServer(t)
	id := createBoard(t, ts)

	resp, err := http.Get(ts.URL + "/boards/" + id + "/geometry")
	if err != nil {
		t.Fatalf("GET geometry: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if resp.Header.Get("X-Board-Hash") == "" {
		t.Error("X-Board-Hash should be set")
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	buffers, err := wire.DecodeGeometry(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeGeometry: %v", err)
	}
	if len(buffers) != 1 || buffers[0].ID != "F.Cu" {
		t.Errorf("decoded %d buffers", len(buffers))
	}
}

func TestObjectsEndpoint(t *testing.T) {
	ts := testServer(t)
	id := createBoard(t, ts)

	// A point on the first trace.
	resp, err := http.Get(ts.URL + "/boards/" + id + "/objects?x=1&y=0")
	if err != nil {
		t.Fatalf("GET objects: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Objects []struct {
			Kind string `json:"kind"`
			Net  string `json:"net"`
		} `json:"objects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Objects) != 1 {
		t.Fatalf("objects = %d, want 1", len(body.Objects))
	}
	if body.Objects[0].Kind != "polyline" || body.Objects[0].Net != "A" {
		t.Errorf("hit = %+v", body.Objects[0])
	}

	// Missing coordinates are rejected.
	resp2, err := http.Get(ts.URL + "/boards/" + id + "/objects")
	if err != nil {
		t.Fatalf("GET objects: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp2.StatusCode)
	}
}

func TestCheckEndpoint(t *testing.T) {
	ts := testServer(t)
	id := createBoard(t, ts)

	resp, err := http.Post(ts.URL+"/boards/"+id+"/check", "application/json", nil)
	if err != nil {
		t.Fatalf("POST check: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 1 {
		t.Fatalf("total = %d, want 1", body.Total)
	}
	if body.Violations[0].LayerID != "F.Cu" {
		t.Errorf("violation = %+v", body.Violations[0])
	}
	if body.ByLayer["F.Cu"] != 1 {
		t.Errorf("by_layer = %v", body.ByLayer)
	}
}

func TestCheckEndpointWideClearance(t *testing.T) {
	ts := testServer(t)
	id := createBoard(t, ts)

	// A clearance below the trace gap finds nothing.
	reqBody := `{"clearance_mm": 0.05}`
	resp, err := http.Post(ts.URL+"/boards/"+id+"/check", "application/json", strings.NewReader(reqBody))
	if err != nil {
		t.Fatalf("POST check: %v", err)
	}
	defer resp.Body.Close()

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 0 {
		t.Errorf("total = %d, want 0 at 0.05mm clearance", body.Total)
	}
}

func TestDeleteBoard(t *testing.T) {
	ts := testServer(t)
	id := createBoard(t, ts)

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/boards/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}

	resp2, err := http.Get(ts.URL + "/boards/" + id)
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp2.StatusCode)
	}
}
