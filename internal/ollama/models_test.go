package ollama

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"ollamachat/pkg/types"
)

func listing(names ...string) []types.ModelDescriptor {
	out := make([]types.ModelDescriptor, 0, len(names))
	for _, n := range names {
		out = append(out, types.ModelDescriptor{Name: n})
	}
	return out
}

func TestModelListed(t *testing.T) {
	cases := []struct {
		name   string
		models []types.ModelDescriptor
		model  string
		want   bool
	}{
		{"exact", listing("llama3.2:1b", "mistral:7b"), "llama3.2:1b", true},
		{"tag differs, family listed", listing("llama3.2:latest"), "llama3.2:1b", true},
		{"bare family requested", listing("llama3.2:1b"), "llama3.2", true},
		{"prefix of a longer family", listing("llama3.2-vision:11b"), "llama3.2:1b", true},
		{"absent", listing("mistral:7b", "qwen2:0.5b"), "llama3.2:1b", false},
		{"listed name shorter than prefix", listing("llama"), "llama3.2:1b", false},
		{"empty listing", nil, "llama3.2:1b", false},
	}
	for _, c := range cases {
		if got := ModelListed(c.models, c.model); got != c.want {
			t.Fatalf("%s: ModelListed(%q) = %v, want %v", c.name, c.model, got, c.want)
		}
	}
}

func TestCheckAvailability_ExactAndPrefix(t *testing.T) {
	fb := newFakeBackend(t, []string{"llama3.2:1b", "mistral:latest"}, nil)
	c := newTestClient(t, fb.URL, nil)

	if !c.CheckAvailability(testCtx(t), "llama3.2:1b") {
		t.Fatalf("expected exact match to be available")
	}
	if !c.CheckAvailability(testCtx(t), "mistral:7b") {
		t.Fatalf("expected prefix match to be available")
	}
	if c.CheckAvailability(testCtx(t), "phi3:mini") {
		t.Fatalf("expected unknown model to be unavailable")
	}
	if n := fb.tagsCalls.Load(); n != 3 {
		t.Fatalf("tags calls=%d, want 3", n)
	}
}

func TestCheckAvailability_BackendDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := newTestClient(t, srv.URL, nil)
	if c.CheckAvailability(testCtx(t), "llama3.2:1b") {
		t.Fatalf("expected false when backend is unreachable")
	}
}

func TestCheckAvailability_MalformedListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models": "nope"`))
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, nil)
	if c.CheckAvailability(testCtx(t), "llama3.2:1b") {
		t.Fatalf("expected false for malformed listing")
	}
}

func TestCheckAvailability_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, nil)
	if c.CheckAvailability(testCtx(t), "llama3.2:1b") {
		t.Fatalf("expected false for 500 listing")
	}
}

func TestListModels_PreservesOrder(t *testing.T) {
	fb := newFakeBackend(t, []string{"b:1", "a:2", "c:3"}, nil)
	c := newTestClient(t, fb.URL, nil)
	models := c.ListModels(testCtx(t))
	if len(models) != 3 {
		t.Fatalf("len=%d", len(models))
	}
	for i, want := range []string{"b:1", "a:2", "c:3"} {
		if models[i].Name != want {
			t.Fatalf("models[%d]=%q, want %q", i, models[i].Name, want)
		}
	}
	if models[0].Size != 1 {
		t.Fatalf("backend metadata not passed through: %+v", models[0])
	}
}

func TestListModels_FailureReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := newTestClient(t, srv.URL, nil)
	models := c.ListModels(testCtx(t))
	if models == nil || len(models) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", models)
	}
}
