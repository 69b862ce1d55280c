package chatlog

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAppend_AssignsIDAndTimestamp(t *testing.T) {
	l := New()
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	m := l.Append(Message{Role: RoleUser, Content: "hi"})
	if _, err := uuid.Parse(m.ID); err != nil {
		t.Fatalf("id %q is not a uuid: %v", m.ID, err)
	}
	if !m.Timestamp.Equal(fixed) {
		t.Fatalf("timestamp=%s", m.Timestamp)
	}

	keep := l.Append(Message{ID: "given", Role: RoleAssistant, Timestamp: fixed.Add(time.Hour)})
	if keep.ID != "given" || !keep.Timestamp.Equal(fixed.Add(time.Hour)) {
		t.Fatalf("caller-supplied fields overwritten: %+v", keep)
	}
	if l.Len() != 2 {
		t.Fatalf("len=%d", l.Len())
	}
}

func TestUpdate(t *testing.T) {
	l := New()
	l.Append(Message{Role: RoleUser, Content: "q"})
	a := l.Append(Message{Role: RoleAssistant})
	if !l.Update(a.ID, "partial answer") {
		t.Fatalf("update of existing message failed")
	}
	if l.Update("missing", "x") {
		t.Fatalf("update of unknown id reported success")
	}
	msgs := l.Messages()
	if msgs[1].Content != "partial answer" || msgs[0].Content != "q" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	l := New()
	l.Append(Message{Role: RoleUser, Content: "orig"})
	msgs := l.Messages()
	msgs[0].Content = "mutated"
	if l.Messages()[0].Content != "orig" {
		t.Fatalf("caller mutation leaked into the log")
	}
}

func TestClear(t *testing.T) {
	l := New()
	m := l.Append(Message{Role: RoleUser, Content: "x"})
	l.Clear()
	if l.Len() != 0 || len(l.Messages()) != 0 {
		t.Fatalf("log not cleared")
	}
	if l.Update(m.ID, "y") {
		t.Fatalf("cleared message still updatable")
	}
}

func TestZeroValueUsable(t *testing.T) {
	var l Log
	m := l.Append(Message{Role: RoleUser, Content: "x"})
	if m.ID == "" || m.Timestamp.IsZero() || !l.Update(m.ID, "y") {
		t.Fatalf("zero Log not usable: %+v", m)
	}
}

func TestConcurrentAccess(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m := l.Append(Message{Role: RoleAssistant})
				l.Update(m.ID, fmt.Sprintf("%d-%d", g, i))
				_ = l.Messages()
				_ = l.Len()
			}
		}(g)
	}
	wg.Wait()
	msgs := l.Messages()
	if len(msgs) != 400 {
		t.Fatalf("len=%d", len(msgs))
	}
	seen := map[string]bool{}
	for _, m := range msgs {
		if m.Content == "" || seen[m.ID] {
			t.Fatalf("lost update or duplicate id: %+v", m)
		}
		seen[m.ID] = true
	}
}
