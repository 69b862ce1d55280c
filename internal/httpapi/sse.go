package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// SSE event names understood by the browser client.
const (
	eventUserMessage    = "user_message"
	eventAssistantStart = "assistant_start"
	eventToken          = "token"
	eventDone           = "done"
	eventError          = "error"
)

var errNoFlusher = errors.New("streaming unsupported by response writer")

// sseWriter frames Server-Sent Events and flushes after each one.
type sseWriter struct {
	w http.ResponseWriter
	f http.Flusher
}

// newSSEWriter writes the event-stream headers. It fails when w cannot flush.
func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errNoFlusher
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &sseWriter{w: w, f: f}, nil
}

// lineBreaks maps every line terminator EventSource recognises to '\n'.
var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// send writes one event. Multi-line data is split into several data: fields,
// which the client joins back with '\n'.
func (s *sseWriter) send(event, data string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "event: %s\n", event)
	for _, line := range strings.Split(lineBreaks.Replace(data), "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if _, err := s.w.Write([]byte(b.String())); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}
