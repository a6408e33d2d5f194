package supervisor

import (
	"context"
	"testing"
	"time"
)

func TestCountersTrackGoroutines(t *testing.T) {
	s := New(context.Background())
	gate := make(chan struct{})
	for i := 0; i < 2; i++ {
		s.Go0("blocked", func(ctx context.Context) {
			select {
			case <-gate:
			case <-ctx.Done():
			}
		})
	}

	c := s.Counters()
	if c.Started != 2 || c.Active != 2 {
		t.Fatalf("counters = %+v, want 2 started / 2 active", c)
	}

	close(gate)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	c = s.Counters()
	if c.Active != 0 {
		t.Fatalf("active = %d after stop, want 0", c.Active)
	}
	if c.Started != 2 {
		t.Fatalf("started = %d, want 2", c.Started)
	}
}
