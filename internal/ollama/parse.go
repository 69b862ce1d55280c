package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"ollamachat/pkg/types"
)

// FallbackText is returned by Generate when no fragment of the body parsed.
const FallbackText = "Could not parse response from Ollama API"

// maxPending caps the bytes of an unterminated line a stream keeps while
// waiting for the rest of a JSON object.
const maxPending = 1 << 20

// Answer is the fully materialised result of a single-shot generation.
type Answer struct {
	Text string
	// Done reports whether any fragment carried done=true. It is informational:
	// an answer whose body never reported completion still carries its text.
	Done bool
	// Parsed is the number of fragments that parsed successfully.
	Parsed int
	// Dropped is the number of non-blank lines that did not parse.
	Dropped int
}

var errNotObject = errors.New("fragment is not a JSON object")

// parseFragment decodes one fragment. Only JSON objects are accepted; a field
// of an unexpected type is ignored rather than voiding the whole fragment.
func parseFragment(b []byte) (types.GenerateResponse, error) {
	var frag types.GenerateResponse
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return frag, errNotObject
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return frag, err
	}
	decodeField(fields, "response", &frag.Response)
	decodeField(fields, "done", &frag.Done)
	decodeField(fields, "model", &frag.Model)
	decodeField(fields, "created_at", &frag.CreatedAt)
	decodeField(fields, "done_reason", &frag.DoneReason)
	return frag, nil
}

// decodeField fills dst from fields[key] when the value has dst's type.
func decodeField(fields map[string]json.RawMessage, key string, dst any) {
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, dst)
	}
}

// ParseGenerateBody aggregates a complete newline-delimited /api/generate body.
// Lines that fail to parse are skipped. If nothing parsed, the answer text is
// FallbackText.
func ParseGenerateBody(body []byte) Answer {
	var (
		ans Answer
		sb  strings.Builder
	)
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), len(body)+1)
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		frag, err := parseFragment(line)
		if err != nil {
			ans.Dropped++
			continue
		}
		ans.Parsed++
		sb.WriteString(frag.Response)
		if frag.Done {
			ans.Done = true
		}
	}
	if ans.Parsed == 0 {
		ans.Text = FallbackText
		return ans
	}
	ans.Text = sb.String()
	return ans
}

// fragmentBuffer turns arbitrarily split chunks into fragments. Complete lines
// are parsed as they appear; an unterminated tail is emitted at once if it is
// a whole object, kept if it is a truncated object, and dropped otherwise.
type fragmentBuffer struct {
	pending []byte
	dropped int
}

// feed appends chunk and returns the fragments it completed, in order. When
// bytes held from earlier chunks cannot complete an object, they are dropped
// and the new bytes are parsed on their own.
func (fb *fragmentBuffer) feed(chunk []byte) []types.GenerateResponse {
	held := len(fb.pending)
	fb.pending = append(fb.pending, chunk...)
	var out []types.GenerateResponse
	for {
		idx := bytes.IndexByte(fb.pending, '\n')
		if idx < 0 {
			break
		}
		line := fb.pending[:idx]
		fb.pending = fb.pending[idx+1:]
		if held > 0 && held < len(line) {
			out = fb.takeJoined(out, line, held)
		} else {
			out = fb.take(out, line)
		}
		held = 0
	}
	return fb.settle(out, held)
}

// takeJoined parses a line whose first held bytes came from earlier chunks.
func (fb *fragmentBuffer) takeJoined(out []types.GenerateResponse, line []byte, held int) []types.GenerateResponse {
	if frag, err := parseFragment(line); err == nil {
		return append(out, frag)
	}
	fb.dropped++
	return fb.take(out, line[held:])
}

// settle decides the fate of the unterminated tail: emitted if it is a whole
// object, kept if it is a truncated one, dropped otherwise. held is the length
// of its prefix carried over from earlier chunks.
func (fb *fragmentBuffer) settle(out []types.GenerateResponse, held int) []types.GenerateResponse {
	for {
		tail := bytes.TrimSpace(fb.pending)
		if len(tail) == 0 {
			fb.pending = fb.pending[:0]
			return out
		}
		if frag, err := parseFragment(tail); err == nil {
			fb.pending = fb.pending[:0]
			return append(out, frag)
		}
		keep := truncated(tail) && len(fb.pending) <= maxPending
		if held == 0 || held >= len(fb.pending) {
			if !keep {
				fb.dropped++
				fb.pending = fb.pending[:0]
			}
			return out
		}
		fresh := fb.pending[held:]
		if keep {
			// a complete object in the new bytes means the held prefix was junk
			if frag, err := parseFragment(fresh); err == nil {
				fb.dropped++
				fb.pending = fb.pending[:0]
				return append(out, frag)
			}
			return out
		}
		fb.dropped++
		fb.pending = append(fb.pending[:0], fresh...)
		held = 0
	}
}

// flush parses whatever is left once the body has ended.
func (fb *fragmentBuffer) flush() []types.GenerateResponse {
	out := fb.take(nil, fb.pending)
	fb.pending = nil
	return out
}

func (fb *fragmentBuffer) take(out []types.GenerateResponse, line []byte) []types.GenerateResponse {
	if len(bytes.TrimSpace(line)) == 0 {
		return out
	}
	frag, err := parseFragment(line)
	if err != nil {
		fb.dropped++
		return out
	}
	return append(out, frag)
}

// truncated reports whether b is the beginning of a JSON object that simply
// has not been fully received yet.
func truncated(b []byte) bool {
	if len(b) == 0 || b[0] != '{' {
		return false
	}
	var v json.RawMessage
	err := json.NewDecoder(bytes.NewReader(b)).Decode(&v)
	return errors.Is(err, io.ErrUnexpectedEOF)
}
