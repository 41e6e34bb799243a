package notify

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	n.Notify(context.Background(), "Scraped and updated 2 products")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Message != "Scraped and updated 2 products" {
		t.Fatalf("message = %q", entries[0].Message)
	}
	if entries[0].LoggerName != "notify" {
		t.Fatalf("logger name = %q", entries[0].LoggerName)
	}
}

func TestRecorderConcurrent(t *testing.T) {
	var r Recorder
	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify(context.Background(), "msg")
		}()
	}
	wg.Wait()

	if got := len(r.Messages()); got != 25 {
		t.Fatalf("messages = %d, want 25", got)
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b Recorder
	m := Multi{&a, &b}
	m.Notify(context.Background(), "hello")

	if len(a.Messages()) != 1 || len(b.Messages()) != 1 {
		t.Fatalf("expected both recorders to receive the message")
	}
}
