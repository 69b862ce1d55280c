//go:build !swagger

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestMountSwagger_NoOp(t *testing.T) {
	r := chi.NewRouter()
	MountSwagger(r)
	if r.Match(chi.NewRouteContext(), http.MethodGet, "/swagger/index.html") {
		t.Fatalf("swagger route mounted without the swagger build tag")
	}
}

func TestSwaggerNotServedByDefault(t *testing.T) {
	w := httptest.NewRecorder()
	NewMux(&mockService{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
