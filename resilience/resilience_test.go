package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := NewCircuitBreaker(cfg)
	cb.now = clock.now
	return cb, clock
}

var errUpstream = errors.New("upstream 503")

func TestCircuitBreakerLifecycle(t *testing.T) {
	var transitions []string
	cb, clock := newTestBreaker(CircuitBreakerConfig{
		Name:        "elevenlabs",
		MaxFailures: 2,
		Timeout:     10 * time.Second,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return errUpstream }); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: err = %v", i, err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}

	called := false
	if err := cb.Execute(func() error { called = true; return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Fatal("fn must not run while open")
	}

	clock.advance(10 * time.Second)
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %s, want half-open", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe failed: %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %s, want closed", cb.State())
	}

	want := []string{"closed->open", "open->half-open", "half-open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v", transitions)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second})
	_ = cb.Execute(func() error { return errUpstream })
	clock.advance(time.Second)

	_ = cb.Execute(func() error { return errUpstream })
	if cb.State() != StateOpen {
		t.Fatalf("state = %s, want open", cb.State())
	}
}

func TestCircuitBreakerHalfOpenLimitsProbes(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{MaxFailures: 1, Timeout: time.Second})
	_ = cb.Execute(func() error { return errUpstream })
	clock.advance(time.Second)

	if !cb.allow() {
		t.Fatal("first probe should be allowed")
	}
	if cb.allow() {
		t.Fatal("second probe should be rejected")
	}
}

func TestCircuitBreakerIsFailureFilter(t *testing.T) {
	errBadRequest := errors.New("400")
	cb, _ := newTestBreaker(CircuitBreakerConfig{
		MaxFailures: 1,
		IsFailure:   func(err error) bool { return !errors.Is(err, errBadRequest) },
	})
	_ = cb.Execute(func() error { return errBadRequest })
	if cb.State() != StateClosed {
		t.Fatal("client errors must not trip the breaker")
	}
	_ = cb.Execute(func() error { return errUpstream })
	if cb.State() != StateOpen {
		t.Fatal("server errors should trip the breaker")
	}
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{MaxFailures: 2})
	_ = cb.Execute(func() error { return errUpstream })
	_ = cb.Execute(func() error { return nil })
	_ = cb.Execute(func() error { return errUpstream })
	if cb.State() != StateClosed {
		t.Fatal("non-consecutive failures should not open the circuit")
	}
	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatal("Reset should close")
	}
}

func TestBulkheadRejectsWhenFull(t *testing.T) {
	var rejected string
	b := NewBulkhead(BulkheadConfig{Name: "upstream", MaxConcurrent: 1, OnReject: func(n string) { rejected = n }})

	hold := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- b.Execute(context.Background(), func() error {
			close(started)
			<-hold
			return nil
		})
	}()
	<-started

	if b.InUse() != 1 {
		t.Errorf("in use = %d", b.InUse())
	}
	if err := b.Execute(context.Background(), func() error { return nil }); !errors.Is(err, ErrBulkheadFull) {
		t.Fatalf("err = %v, want ErrBulkheadFull", err)
	}
	if rejected != "upstream" {
		t.Errorf("OnReject name = %q", rejected)
	}

	close(hold)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if b.InUse() != 0 {
		t.Errorf("slot not released")
	}
}

func TestBulkheadWaitTimeout(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	hold := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error { close(started); <-hold; return nil })
	}()
	<-started
	defer close(hold)

	if err := b.Execute(context.Background(), func() error { return nil }); !errors.Is(err, ErrBulkheadTimeout) {
		t.Fatalf("err = %v, want ErrBulkheadTimeout", err)
	}
}

func TestBulkheadWaitsForSlot(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: time.Second})
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error { close(started); <-release; return nil })
	}()
	<-started
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	if err := b.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("expected slot after release, got %v", err)
	}
}

func TestWindowLimiter(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	l := NewWindowLimiter(2, time.Minute)
	l.now = clock.now

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two events should pass")
	}
	if l.Allow("a") {
		t.Fatal("third event inside the window should be rejected")
	}
	if !l.Allow("b") {
		t.Fatal("keys are independent")
	}

	clock.advance(61 * time.Second)
	if !l.Allow("a") {
		t.Fatal("window should have slid")
	}

	clock.advance(2 * time.Minute)
	l.Sweep()
	if l.Keys() != 0 {
		t.Errorf("keys after sweep = %d", l.Keys())
	}
}
