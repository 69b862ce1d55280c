package ollama

import (
	"strings"
	"testing"
)

func TestParseGenerateBody_ConcatenatesInOrder(t *testing.T) {
	body := `{"response":"Hel","done":false}` + "\n" + `{"response":"lo","done":true}`
	ans := ParseGenerateBody([]byte(body))
	if ans.Text != "Hello" {
		t.Fatalf("text=%q", ans.Text)
	}
	if !ans.Done || ans.Parsed != 2 || ans.Dropped != 0 {
		t.Fatalf("unexpected answer: %+v", ans)
	}
}

func TestParseGenerateBody_SkipsMalformedLine(t *testing.T) {
	body := strings.Join([]string{
		`{"response":"A","done":false}`,
		`{"response": broken`,
		`{"response":"B","done":true}`,
	}, "\n")
	ans := ParseGenerateBody([]byte(body))
	if ans.Text != "AB" {
		t.Fatalf("text=%q", ans.Text)
	}
	if ans.Dropped != 1 {
		t.Fatalf("dropped=%d", ans.Dropped)
	}
}

func TestParseGenerateBody_NoParseableLinesFallsBack(t *testing.T) {
	for _, body := range []string{"", "\n\n", "not json\nstill not", "null\n42\n[1,2]"} {
		ans := ParseGenerateBody([]byte(body))
		if ans.Text != FallbackText {
			t.Fatalf("body %q: text=%q, want fallback", body, ans.Text)
		}
	}
}

func TestParseGenerateBody_DoneIsObservational(t *testing.T) {
	body := `{"response":"partial","done":false}` + "\n"
	ans := ParseGenerateBody([]byte(body))
	if ans.Text != "partial" || ans.Done {
		t.Fatalf("unexpected answer: %+v", ans)
	}
}

func TestParseGenerateBody_EmptyResponsesStillCount(t *testing.T) {
	ans := ParseGenerateBody([]byte(`{"done":true}` + "\r\n"))
	if ans.Text != "" || ans.Parsed != 1 {
		t.Fatalf("expected empty text from one parsed fragment, got %+v", ans)
	}
}

func collect(frags []string, fb *fragmentBuffer, chunk string) []string {
	for _, f := range fb.feed([]byte(chunk)) {
		if f.Response != "" {
			frags = append(frags, f.Response)
		}
	}
	return frags
}

func TestFragmentBuffer_ChunkPerObject(t *testing.T) {
	var fb fragmentBuffer
	var got []string
	for _, chunk := range []string{`{"response":"A"}`, `<invalid>`, `{"response":"B"}`} {
		got = collect(got, &fb, chunk)
	}
	if strings.Join(got, "|") != "A|B" {
		t.Fatalf("tokens=%v", got)
	}
	if fb.dropped != 1 {
		t.Fatalf("dropped=%d", fb.dropped)
	}
}

func TestFragmentBuffer_ReassemblesSplitObject(t *testing.T) {
	var fb fragmentBuffer
	var got []string
	got = collect(got, &fb, `{"respo`)
	if len(got) != 0 {
		t.Fatalf("emitted too early: %v", got)
	}
	got = collect(got, &fb, `nse":"Hi","done":false}`+"\n"+`{"response":" there"`)
	got = collect(got, &fb, `,"done":true}`+"\n")
	if strings.Join(got, "") != "Hi there" {
		t.Fatalf("tokens=%v", got)
	}
	if fb.dropped != 0 {
		t.Fatalf("dropped=%d", fb.dropped)
	}
}

func TestFragmentBuffer_SeveralLinesInOneChunk(t *testing.T) {
	var fb fragmentBuffer
	got := collect(nil, &fb, "{\"response\":\"a\"}\n{\"response\":\"b\"}\n\n{oops}\n{\"response\":\"c\"}\n")
	if strings.Join(got, "") != "abc" || fb.dropped != 1 {
		t.Fatalf("tokens=%v dropped=%d", got, fb.dropped)
	}
}

func TestFragmentBuffer_FlushDropsTruncatedTail(t *testing.T) {
	var fb fragmentBuffer
	_ = fb.feed([]byte(`{"response":"never finished`))
	if out := fb.flush(); len(out) != 0 {
		t.Fatalf("expected nothing from truncated tail, got %v", out)
	}
	if fb.dropped != 1 {
		t.Fatalf("dropped=%d", fb.dropped)
	}
}

func TestFragmentBuffer_TruncatedJunkDoesNotSwallowNextObject(t *testing.T) {
	for _, junk := range []string{`{"response":"junk`, `{`, `{"a":[`} {
		var fb fragmentBuffer
		var got []string
		for _, chunk := range []string{`{"response":"A"}`, junk, `{"response":"B"}`} {
			got = collect(got, &fb, chunk)
		}
		if strings.Join(got, "|") != "A|B" {
			t.Fatalf("junk %q: tokens=%v", junk, got)
		}
		if fb.dropped != 1 || len(fb.pending) != 0 {
			t.Fatalf("junk %q: dropped=%d pending=%q", junk, fb.dropped, fb.pending)
		}
	}
}

func TestFragmentBuffer_TruncatedJunkBeforeTerminatedLine(t *testing.T) {
	var fb fragmentBuffer
	got := collect(nil, &fb, `{"response":"junk`)
	got = collect(got, &fb, `{"response":"B"}`+"\n"+`{"response":"C"}`+"\n")
	if strings.Join(got, "|") != "B|C" || fb.dropped != 1 {
		t.Fatalf("tokens=%v dropped=%d", got, fb.dropped)
	}
}

func TestParseGenerateBody_WrongTypedFieldKeepsText(t *testing.T) {
	body := `{"response":"Hel","done":false}` + "\n" + `{"response":"lo","done":1}` + "\n" + `{"response":7,"done":true}`
	ans := ParseGenerateBody([]byte(body))
	if ans.Text != "Hello" || ans.Parsed != 3 || ans.Dropped != 0 {
		t.Fatalf("unexpected answer: %+v", ans)
	}
	if !ans.Done {
		t.Fatalf("done=true on the last fragment was lost")
	}
}
