// Copyright (c) StudyFlow Authors. All rights reserved.

package agentkit_test

import (
	"context"
	"errors"
	"testing"

	"studyflow/agentkit"
)

func TestResponseStream_CollectAndClose(t *testing.T) {
	ctx := context.Background()
	stream := agentkit.NewResponseStream(ctx, func(ctx context.Context, ch chan<- int) error {
		for i := 1; i <= 3; i++ {
			select {
			case ch <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	vals, err := stream.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(vals) != 3 || vals[0] != 1 || vals[2] != 3 {
		t.Errorf("vals = %v", vals)
	}

	// Close after exhaustion is a no-op.
	if err := stream.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestResponseStream_PropagatesProducerError(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("producer failed")
	stream := agentkit.NewResponseStream(ctx, func(ctx context.Context, ch chan<- string) error {
		ch <- "partial"
		return wantErr
	})

	vals, err := stream.Collect(ctx)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	if len(vals) != 1 || vals[0] != "partial" {
		t.Errorf("vals = %v", vals)
	}
}

func TestResponseStream_CloseUnblocksProducer(t *testing.T) {
	ctx := context.Background()
	done := make(chan struct{})
	stream := agentkit.NewResponseStream(ctx, func(ctx context.Context, ch chan<- int) error {
		defer close(done)
		for i := 0; ; i++ {
			select {
			case ch <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	if _, ok, err := stream.Next(ctx); !ok || err != nil {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	stream.Close()

	select {
	case <-done:
	default:
		// Producer may need a scheduling round; Next after Close should
		// report exhaustion either way.
	}
	if _, ok, _ := stream.Next(ctx); ok {
		t.Error("stream still yields values after Close")
	}
}

func TestMapStream(t *testing.T) {
	ctx := context.Background()
	src := agentkit.NewResponseStream(ctx, func(ctx context.Context, ch chan<- int) error {
		ch <- 1
		ch <- 2
		return nil
	})
	dst := agentkit.MapStream(ctx, src, func(i int) string {
		if i == 1 {
			return "one"
		}
		return "two"
	})

	vals, err := dst.Collect(ctx)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(vals) != 2 || vals[0] != "one" || vals[1] != "two" {
		t.Errorf("vals = %v", vals)
	}
}
