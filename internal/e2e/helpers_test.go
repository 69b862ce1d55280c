package e2e

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ollamachat/internal/chatlog"
	"ollamachat/internal/httpapi"
	"ollamachat/internal/ollama"
	"ollamachat/pkg/types"
)

// backend is an in-process stand-in for an Ollama server.
type backend struct {
	*httptest.Server
	models    []string
	fragments []string
	// gate, when set, holds /api/generate until it is closed.
	gate     chan struct{}
	started  chan struct{}
	canceled chan struct{}
	genCalls atomic.Int32
}

func newBackend(t *testing.T, models []string, fragments ...string) *backend {
	t.Helper()
	b := &backend{
		models:    models,
		fragments: fragments,
		started:   make(chan struct{}, 16),
		canceled:  make(chan struct{}, 16),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		list := types.TagsResponse{Models: []types.ModelDescriptor{}}
		for _, m := range b.models {
			list.Models = append(list.Models, types.ModelDescriptor{Name: m})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		b.genCalls.Add(1)
		var req types.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(types.BackendError{Error: err.Error()})
			return
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		f, _ := w.(http.Flusher)
		for i, frag := range b.fragments {
			fmt.Fprintf(w, `{"model":%q,"response":%q,"done":false}`+"\n", req.Model, frag)
			if f != nil {
				f.Flush()
			}
			if i == 0 {
				b.started <- struct{}{}
				if b.gate != nil {
					select {
					case <-b.gate:
					case <-r.Context().Done():
						b.canceled <- struct{}{}
						return
					}
				}
			}
		}
		fmt.Fprintf(w, `{"model":%q,"response":"","done":true,"done_reason":"stop"}`+"\n", req.Model)
	})
	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Close)
	return b
}

// newApp wires a real client and router against the backend and serves them.
func newApp(t *testing.T, b *backend) (*httptest.Server, *chatlog.Log) {
	t.Helper()
	client, err := ollama.New(ollama.Options{
		BaseURL:        b.URL,
		RequestTimeout: 5 * time.Second,
		ReadTimeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("ollama.New: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	log := chatlog.New()
	srv := httptest.NewServer(httpapi.NewMux(httpapi.FromClient(client), log))
	t.Cleanup(srv.Close)
	return srv, log
}

func postForm(t *testing.T, u string, vals url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := http.PostForm(u, vals)
	if err != nil {
		t.Fatalf("POST %s: %v", u, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

type event struct{ name, data string }

// readEvents consumes an event stream until EOF.
func readEvents(t *testing.T, r io.Reader) []event {
	t.Helper()
	var out []event
	var cur event
	var data []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if cur.name != "" {
				cur.data = strings.Join(data, "\n")
				out = append(out, cur)
			}
			cur, data = event{}, nil
		case strings.HasPrefix(line, "event: "):
			cur.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	return out
}

func wait(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
