package recorder

import (
	"context"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

// Feature: event batching, Property 1: the concatenation of delivered
// batches equals the sequence of accepted records, with no empty batch.
func TestPropertyBatchesPreserveRecordOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxQueue := rapid.IntRange(1, 10).Draw(t, "max_queue_size")
		ops := rapid.SliceOfN(rapid.IntRange(0, 4), 0, 80).Draw(t, "ops")

		sender := &recordingSender{}
		r := New(newSession(), sender, WithMaxQueueSize(maxQueue))

		var want []string
		for i, op := range ops {
			if op == 0 {
				if err := r.Flush(context.Background()); err != nil {
					t.Fatalf("flush: %v", err)
				}
				continue
			}
			name := fmt.Sprint(i)
			if r.Record(event.NewAction(name, nil, nil)) {
				want = append(want, name)
			}
			if r.Len() > maxQueue {
				t.Fatalf("queue length %d exceeds limit %d after record", r.Len(), maxQueue)
			}
		}
		if err := r.Close(context.Background()); err != nil {
			t.Fatalf("close: %v", err)
		}

		batches := sender.Batches()
		for i, b := range batches {
			if len(b) == 0 {
				t.Fatalf("batch %d is empty", i)
			}
		}
		got := actions(batches)
		if len(got) != len(want) {
			t.Fatalf("delivered %d events, recorded %d", len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("event %d: got %s, want %s", i, got[i], want[i])
			}
		}
	})
}
