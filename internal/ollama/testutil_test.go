package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"ollamachat/pkg/types"
)

// fakeBackend is an httptest server speaking the subset of the Ollama API the
// client uses. generate is nil when the test expects no generation call.
type fakeBackend struct {
	*httptest.Server
	models       []string
	generate     http.HandlerFunc
	tagsCalls    atomic.Int32
	genCalls     atomic.Int32
	lastGenerate atomic.Value // map[string]any
}

func newFakeBackend(t *testing.T, models []string, generate http.HandlerFunc) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{models: models, generate: generate}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		fb.tagsCalls.Add(1)
		list := types.TagsResponse{Models: []types.ModelDescriptor{}}
		for _, m := range fb.models {
			list.Models = append(list.Models, types.ModelDescriptor{Name: m, Model: m, Size: 1})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		fb.genCalls.Add(1)
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		fb.lastGenerate.Store(payload)
		if fb.generate == nil {
			t.Errorf("unexpected /api/generate call")
			http.Error(w, "unexpected", http.StatusTeapot)
			return
		}
		fb.generate(w, r)
	})
	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) payload() map[string]any {
	v, _ := fb.lastGenerate.Load().(map[string]any)
	return v
}

// newTestClient builds a client against url and closes it on cleanup.
func newTestClient(t *testing.T, url string, mut func(*Options)) *Client {
	t.Helper()
	opts := Options{BaseURL: url, RequestTimeout: 2 * time.Second, ReadTimeout: 2 * time.Second}
	if mut != nil {
		mut(&opts)
	}
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// ndjson writes body lines, flushing after each one.
func ndjson(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		f, _ := w.(http.Flusher)
		for _, l := range lines {
			_, _ = w.Write([]byte(l))
			if f != nil {
				f.Flush()
			}
		}
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}
