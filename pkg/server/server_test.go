package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gradlayer/pkg/autograd"
	"github.com/matzehuels/gradlayer/pkg/errors"
	"github.com/matzehuels/gradlayer/pkg/graph"
	pkgio "github.com/matzehuels/gradlayer/pkg/io"
	"github.com/matzehuels/gradlayer/pkg/store"
	"github.com/matzehuels/gradlayer/pkg/tensor"
)

const chainDoc = `{
  "tensors": {
    "t-0": {"data": [1, 2, 3, 4], "shape": [2, 2]},
    "g-1": {"data": [1, 1, 1, 1], "shape": [2, 2]}
  },
  "nodes": {
    "n-10": {"name": "GradAccum", "origin": "t-0", "gradient": "g-1"},
    "n-2":  {"name": "MulBackward0", "origin": "t-0", "gradient": "g-1"},
    "n-0":  {"name": "SumBackward0", "origin": "t-0", "gradient": "g-1"}
  },
  "edges": [["n-0", "n-2"], ["n-2", "n-10"]]
}`

const cycleDoc = `{
  "tensors": {"t-0": {"data": [1], "shape": [1]}},
  "nodes": {
    "n-0": {"name": "AddBackward0", "origin": "t-0", "gradient": "t-0"},
    "n-1": {"name": "MulBackward0", "origin": "t-0", "gradient": "t-0"}
  },
  "edges": [["n-0", "n-1"], ["n-1", "n-0"]]
}`

const danglingDoc = `{
  "tensors": {"t-0": {"data": [1], "shape": [1]}},
  "nodes": {"n-0": {"name": "AddBackward0", "origin": "t-0", "gradient": "t-0"}},
  "edges": [["n-0", "n-9"]]
}`

func treeDoc(t *testing.T) string {
	t.Helper()
	v := tensor.MustNew([]float64{1, 2}, []int{2}, 0)
	tree := autograd.NewTree()
	root := tree.Add("AddBackward0", v, v)
	for range 2 {
		if err := tree.AppendChild(root, tree.Add("GradAccum", v, v)); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := pkgio.WriteTree(tree, &buf); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(Config{
		Store:  store.NewMemoryStore(),
		Logger: log.New(io.Discard),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return ts
}

func request(input, options string) string {
	if options == "" {
		return `{"input": ` + input + `}`
	}
	return `{"options": ` + options + `, "input": ` + input + `}`
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := decode[map[string]string](t, resp)["status"]; got != "ok" {
		t.Errorf("status field = %q, want ok", got)
	}
}

func TestAcyclicLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/layouts/acyclic", request(chainDoc, `{"formats": ["json", "dot"]}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	created := decode[LayoutResponse](t, resp)
	if created.ID == "" || created.ID != created.Layout.ID {
		t.Fatalf("id = %q, layout id = %q", created.ID, created.Layout.ID)
	}
	if want := []string{"n-0", "n-2", "n-10"}; !slices.Equal(created.Layout.Order, want) {
		t.Errorf("order = %v, want %v", created.Layout.Order, want)
	}
	if created.Cached {
		t.Error("first request reported a cache hit")
	}
	if !strings.Contains(string(created.Artifacts["dot"]), `"n-0" -> "n-2"`) {
		t.Errorf("dot artifact missing edge:\n%s", created.Artifacts["dot"])
	}
	if len(created.Artifacts["json"]) == 0 {
		t.Error("json artifact is empty")
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/layouts/"+created.ID, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	if got := decode[graph.Layout](t, resp); got.ID != created.ID || !slices.Equal(got.Order, created.Layout.Order) {
		t.Errorf("stored layout = %q %v", got.ID, got.Order)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/layouts", "")
	if ids := decode[ListResponse](t, resp).IDs; !slices.Equal(ids, []string{created.ID}) {
		t.Errorf("list = %v, want [%s]", ids, created.ID)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/layouts/"+created.ID+"/dot", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("render status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/vnd.graphviz") {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(body), "digraph G {") {
		t.Errorf("render body = %q", body)
	}

	resp = do(t, http.MethodDelete, ts.URL+"/v1/layouts/"+created.ID, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp = do(t, http.MethodGet, ts.URL+"/v1/layouts/"+created.ID, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete status = %d, want 404", resp.StatusCode)
	}
	if code := decode[ErrorBody](t, resp).Error.Code; code != errors.ErrCodeNotFound {
		t.Errorf("code = %q, want NOT_FOUND", code)
	}
}

func TestCreateTree(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/layouts/tree", request(treeDoc(t), ""))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	created := decode[LayoutResponse](t, resp)
	if !created.Layout.IsTree() {
		t.Errorf("variant = %q, want tree", created.Layout.Variant)
	}
	if len(created.Layout.Layers) != 4 {
		t.Errorf("len(Layers) = %d, want 4", len(created.Layout.Layers))
	}
	if created.Stats.NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", created.Stats.NodeCount)
	}
}

func TestCreateSameInputTwice(t *testing.T) {
	ts := newTestServer(t)

	first := decode[LayoutResponse](t, do(t, http.MethodPost, ts.URL+"/v1/layouts/acyclic", request(chainDoc, "")))
	second := decode[LayoutResponse](t, do(t, http.MethodPost, ts.URL+"/v1/layouts/acyclic", request(chainDoc, "")))
	if first.ID != second.ID || first.InputHash != second.InputHash {
		t.Errorf("ids %q/%q, hashes %q/%q differ", first.ID, second.ID, first.InputHash, second.InputHash)
	}

	ids := decode[ListResponse](t, do(t, http.MethodGet, ts.URL+"/v1/layouts", "")).IDs
	if len(ids) != 1 {
		t.Errorf("list = %v, want one id", ids)
	}
}

func TestCreateErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   errors.Code
	}{
		{"bad json", "acyclic", `{"input":`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no input", "acyclic", `{}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad option", "acyclic", request(chainDoc, `{"width_fraction": 2}`), http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"bad format", "acyclic", request(chainDoc, `{"formats": ["pdf"]}`), http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"variant mismatch", "acyclic", request(chainDoc, `{"variant": "tree"}`), http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"cycle", "acyclic", request(cycleDoc, ""), http.StatusUnprocessableEntity, errors.ErrCodeCycleDetected},
		{"dangling edge", "acyclic", request(danglingDoc, ""), http.StatusUnprocessableEntity, errors.ErrCodeMalformedRecord},
		{"malformed tree", "tree", request(`[1, 2]`, ""), http.StatusUnprocessableEntity, errors.ErrCodeMalformedRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, ts.URL+"/v1/layouts/"+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decode[ErrorBody](t, resp)
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			if body.Error.Message == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestCycleBrokenByOption(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodPost, ts.URL+"/v1/layouts/acyclic", request(cycleDoc, `{"break_cycles": true}`))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if edges := decode[LayoutResponse](t, resp).Layout.Edges; len(edges) != 1 {
		t.Errorf("len(Edges) = %d, want 1", len(edges))
	}
}

func TestUnknownRoutes(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/v1/layouts/missing", http.StatusNotFound},
		{http.MethodGet, "/v1/layouts/missing/svg", http.StatusNotFound},
		{http.MethodGet, "/v1/layouts/missing/pdf", http.StatusNotFound},
		{http.MethodGet, "/v1/layouts?limit=-1", http.StatusBadRequest},
		{http.MethodGet, "/metrics", http.StatusNotFound},
	}
	for _, tt := range tests {
		if resp := do(t, tt.method, ts.URL+tt.path, ""); resp.StatusCode != tt.want {
			t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "gradlayer_up 1\n")
	})
	s := New(Config{Logger: log.New(io.Discard), Metrics: metrics})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := do(t, http.MethodGet, ts.URL+"/metrics", "")
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "gradlayer_up 1\n" {
		t.Errorf("metrics = %d %q", resp.StatusCode, body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidPath, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidConfig, "x"), http.StatusBadRequest},
		{errors.Malformed("x"), http.StatusUnprocessableEntity},
		{errors.ShapeMismatch("x"), http.StatusUnprocessableEntity},
		{errors.Cycle("x"), http.StatusUnprocessableEntity},
		{errors.NotFound("x"), http.StatusNotFound},
		{asInputError(errors.NotFound("x")), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeUnsupported, "x"), http.StatusNotImplemented},
		{errors.New(errors.ErrCodeInternal, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
