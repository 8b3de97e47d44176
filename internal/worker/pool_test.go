package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ppiankov/evidra/internal/model"
)

// gateProcessor answers queries, optionally blocking until released
type gateProcessor struct {
	delay    time.Duration
	failOn   string
	inFlight int32
	peak     int32
	answered int32
	mu       sync.Mutex
}

func (g *gateProcessor) ProcessQuery(ctx context.Context, query string) (*model.QueryResult, error) {
	n := atomic.AddInt32(&g.inFlight, 1)
	g.mu.Lock()
	if n > g.peak {
		g.peak = n
	}
	g.mu.Unlock()
	defer atomic.AddInt32(&g.inFlight, -1)

	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	atomic.AddInt32(&g.answered, 1)
	if query == g.failOn {
		return nil, errors.New("provider unreachable")
	}
	return &model.QueryResult{Query: query}, nil
}

func submitQueries(p *Pool, proc QueryProcessor, n int) {
	for i := 0; i < n; i++ {
		p.Submit(&QueryJob{Index: i, Query: "q", Processor: proc})
	}
}

func TestNewPool_WorkerFloor(t *testing.T) {
	ctx := context.Background()
	for in, want := range map[int]int{5: 5, 0: 1, -3: 1} {
		if p := NewPool(ctx, in); p.workers != want {
			t.Errorf("NewPool(%d): expected %d workers, got %d", in, want, p.workers)
		}
	}
}

func TestPool_AnswersEveryJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	proc := &gateProcessor{}
	pool := NewPool(context.Background(), 3)
	pool.Start()
	submitQueries(pool, proc, 12)

	results := pool.Wait()
	if len(results) != 12 {
		t.Errorf("expected 12 results, got %d", len(results))
	}
	if atomic.LoadInt32(&proc.answered) != 12 {
		t.Errorf("expected 12 answered queries, got %d", proc.answered)
	}
}

func TestPool_BacklogLargerThanBuffers(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := NewPool(context.Background(), 1)
	pool.Start()

	done := make(chan []Result)
	go func() {
		submitQueries(pool, &gateProcessor{}, 250)
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != 250 {
			t.Errorf("expected 250 results, got %d", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool deadlocked with a backlog larger than its buffers")
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	proc := &gateProcessor{delay: 5 * time.Millisecond}
	pool := NewPool(context.Background(), 4)
	pool.Start()
	submitQueries(pool, proc, 40)
	pool.Wait()

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if proc.peak > 4 {
		t.Errorf("peak concurrency %d exceeded 4 workers", proc.peak)
	}
	if proc.peak < 2 {
		t.Errorf("expected queries to overlap, peak was %d", proc.peak)
	}
}

func TestPool_FailuresAreResults(t *testing.T) {
	defer goleak.VerifyNone(t)

	proc := &gateProcessor{failOn: "bad"}
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Submit(&QueryJob{Index: 0, Query: "bad", Processor: proc})
	pool.Submit(&QueryJob{Index: 1, Query: "good", Processor: proc})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	failed := 0
	for _, r := range results {
		if r.GetError() != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failure, got %d", failed)
	}
}

func TestPool_SubmitAfterShutdownDoesNotBlock(t *testing.T) {
	defer goleak.VerifyNone(t)

	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan struct{})
	go func() {
		submitQueries(pool, &gateProcessor{}, 10)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit after Shutdown blocked")
	}
}

func TestPool_ShutdownCancelsInFlight(t *testing.T) {
	defer goleak.VerifyNone(t)

	proc := &gateProcessor{delay: time.Minute}
	pool := NewPool(context.Background(), 1)
	pool.Start()
	pool.Submit(&QueryJob{Query: "slow", Processor: proc})

	for atomic.LoadInt32(&proc.inFlight) == 0 {
		time.Sleep(time.Millisecond)
	}

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not cancel the in-flight query")
	}
}
