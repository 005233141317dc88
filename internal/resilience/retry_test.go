package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func fastPolicy() Policy {
	return Policy{Attempts: 3, Backoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, Operation: "test"}
}

func TestDo_FirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_RecoversAfterTransient(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("unavailable"), 503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return NewTransientError(errors.New("still down"), 500)
	})
	if err == nil || err.Error() != "still down" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_PermanentErrorNotRetried(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastPolicy(), func(context.Context) error {
		calls++
		return errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_CustomRetryable(t *testing.T) {
	sentinel := errors.New("retry me")
	p := fastPolicy()
	p.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	var calls int
	_ = Do(context.Background(), p, func(context.Context) error {
		calls++
		return sentinel
	})
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{Attempts: 5, Backoff: time.Hour, MaxBackoff: time.Hour}

	var calls int
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, p, func(context.Context) error {
			calls++
			return NewTransientError(errors.New("down"), 503)
		})
	}()
	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error")
		}
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancel")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var calls int
	v, err := DoVal(context.Background(), fastPolicy(), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", NewTransientError(errors.New("blip"), 502)
		}
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("got %q, %v", v, err)
	}
}

func TestPolicyWait(t *testing.T) {
	p := Policy{Backoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond}.normalize()

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := p.wait(i); got != w {
			t.Errorf("wait(%d) = %v, want %v", i, got, w)
		}
	}

	p.Jitter = 0.5
	for i := range 20 {
		got := p.wait(1)
		if got < 100*time.Millisecond || got > 300*time.Millisecond {
			t.Fatalf("jittered wait %d out of range: %v", i, got)
		}
	}
}

func TestDo_HonoursRetryAfter(t *testing.T) {
	p := fastPolicy()
	p.MaxBackoff = 40 * time.Millisecond

	var calls int
	start := time.Now()
	err := Do(context.Background(), p, func(context.Context) error {
		calls++
		if calls == 1 {
			// Requested wait above MaxBackoff is capped.
			return NewTransientError(errors.New("throttled"), 429).WithRetryAfter(time.Minute)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond || elapsed > 5*time.Second {
		t.Errorf("expected a capped Retry-After wait, took %v", elapsed)
	}
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy("webhook")
	if p.Attempts != 3 || p.Operation != "webhook" {
		t.Errorf("unexpected default policy: %+v", p)
	}
}
