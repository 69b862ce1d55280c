package httpapi

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"ollamachat/internal/chatlog"
	"ollamachat/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// pageData feeds the full page.
type pageData struct {
	Title        string
	Messages     []chatlog.Message
	Models       []types.ModelDescriptor
	DefaultModel string
}

// selectorData feeds the model selector fragment.
type selectorData struct {
	Models       []types.ModelDescriptor
	DefaultModel string
}

// startData feeds the streaming assistant placeholder.
type startData struct {
	ID    string
	Model string
}

// renderString executes the named template into a string.
func renderString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderHTML executes the named template and writes it with status 200. The
// template is rendered fully before anything is written so a template error
// can still become a 500.
func renderHTML(w http.ResponseWriter, r *http.Request, name string, data any) {
	out, err := renderString(name, data)
	if err != nil {
		newReqLogger(r).error(err).Str("template", name).Msg("render failed")
		writeJSONError(w, http.StatusInternalServerError, "failed to render response")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// staticHandler serves the embedded browser assets under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
