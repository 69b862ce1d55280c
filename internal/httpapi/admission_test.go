package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBeginGeneration_Unlimited(t *testing.T) {
	SetMaxInflight(0, 0)
	release, err := beginGeneration(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	release()
}

func TestBeginGeneration_RejectsWhenFull(t *testing.T) {
	SetMaxInflight(1, 20*time.Millisecond)
	defer SetMaxInflight(0, 0)

	release, err := beginGeneration(context.Background())
	if err != nil {
		t.Fatalf("first slot: %v", err)
	}
	_, err = beginGeneration(context.Background())
	if statusFor(err) != http.StatusTooManyRequests {
		t.Fatalf("expected 429 error, got %v", err)
	}
	release()
	again, err := beginGeneration(context.Background())
	if err != nil {
		t.Fatalf("slot not released: %v", err)
	}
	again()
}

func TestBeginGeneration_CanceledWhileWaiting(t *testing.T) {
	SetMaxInflight(1, time.Second)
	defer SetMaxInflight(0, 0)
	release, _ := beginGeneration(context.Background())
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if _, err := beginGeneration(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSendMessage_AdmissionOverflowMaps429(t *testing.T) {
	SetMaxInflight(1, 0)
	defer SetMaxInflight(0, 0)

	block := make(chan struct{})
	svc := &mockService{available: true, answer: "ok", block: block}
	h := NewMux(svc, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		postForm(h, "/send-message", url.Values{"message": {"first"}})
	}()
	// wait until the first request holds the slot
	deadline := time.Now().Add(2 * time.Second)
	for svc.request().Prompt != "first" {
		if time.Now().After(deadline) {
			t.Fatal("first request never reached the service")
		}
		time.Sleep(5 * time.Millisecond)
	}

	before := testutil.ToFloat64(backpressureTotal.WithLabelValues("inflight"))
	w := postForm(h, "/send-message", url.Values{"message": {"second"}})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if after := testutil.ToFloat64(backpressureTotal.WithLabelValues("inflight")); after < before+1 {
		t.Fatalf("backpressure counter not incremented: %v -> %v", before, after)
	}
	close(block)
	wg.Wait()
}
