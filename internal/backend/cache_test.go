package backend

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/me/schedlab/pkg/model"
)

type countingProvider struct {
	gets  atomic.Int32
	lists atomic.Int32
	gate  chan struct{}
}

func (p *countingProvider) ListAlgorithms(_ context.Context) ([]model.AlgorithmSummary, error) {
	p.lists.Add(1)
	return []model.AlgorithmSummary{{Name: "spt"}}, nil
}

func (p *countingProvider) GetAlgorithm(_ context.Context, name string) (*model.AlgorithmDefinition, error) {
	p.gets.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	return &model.AlgorithmDefinition{Name: name, Title: "v1"}, nil
}

func TestCachedProvider_TTL(t *testing.T) {
	up := &countingProvider{}
	c := NewCachedProvider(up, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := c.GetAlgorithm(ctx, "spt"); err != nil {
			t.Fatal(err)
		}
	}
	if up.gets.Load() != 1 {
		t.Errorf("upstream gets = %d, want 1", up.gets.Load())
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.GetAlgorithm(ctx, "spt"); err != nil {
		t.Fatal(err)
	}
	if up.gets.Load() != 2 {
		t.Errorf("upstream gets after expiry = %d, want 2", up.gets.Load())
	}

	c.ListAlgorithms(ctx)
	c.ListAlgorithms(ctx)
	c.Invalidate("spt")
	c.ListAlgorithms(ctx)
	if up.lists.Load() != 2 {
		t.Errorf("upstream lists = %d, want 2", up.lists.Load())
	}
}

func TestCachedProvider_ReturnsCopies(t *testing.T) {
	c := NewCachedProvider(&countingProvider{}, time.Minute)
	a, _ := c.GetAlgorithm(context.Background(), "spt")
	a.Title = "mutated"
	b, _ := c.GetAlgorithm(context.Background(), "spt")
	if b.Title != "v1" {
		t.Errorf("cache entry mutated through returned pointer: %q", b.Title)
	}
}

func TestCachedProvider_DedupesConcurrentMisses(t *testing.T) {
	up := &countingProvider{gate: make(chan struct{})}
	c := NewCachedProvider(up, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.GetAlgorithm(context.Background(), "spt"); err != nil {
				t.Error(err)
			}
		}()
	}
	// Let the goroutines pile up on the in-flight call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(up.gate)
	wg.Wait()

	if n := up.gets.Load(); n != 1 {
		t.Errorf("upstream gets = %d, want 1", n)
	}
}
