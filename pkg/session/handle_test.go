package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestHandleSerializesOperations(t *testing.T) {
	h := NewHandle(mustNew(t, Options{}))
	defer h.Close()

	// counter is only touched from the owning goroutine.
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Do(context.Background(), func(*Session) error {
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	var got int
	_ = h.Do(context.Background(), func(*Session) error {
		got = counter
		return nil
	})
	if got != 50 {
		t.Errorf("counter = %d, want 50", got)
	}
}

func TestHandleReturnsError(t *testing.T) {
	h := NewHandle(mustNew(t, Options{}))
	defer h.Close()

	want := errors.New("boom")
	if err := h.Do(context.Background(), func(*Session) error { return want }); err != want {
		t.Errorf("Do() = %v, want %v", err, want)
	}
}

func TestHandleCanceledWhileBusy(t *testing.T) {
	h := NewHandle(mustNew(t, Options{}))
	defer h.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = h.Do(context.Background(), func(*Session) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Do(ctx, func(*Session) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Do() = %v, want context.Canceled", err)
	}
	close(release)
}

func TestHandleClosed(t *testing.T) {
	h := NewHandle(mustNew(t, Options{}))
	h.Close()
	h.Close()

	if err := h.Do(context.Background(), func(*Session) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Do() after Close = %v, want ErrClosed", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	defer store.Close()

	h := NewHandle(mustNew(t, Options{}))
	if err := store.Put(ctx, h); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, h.ID())
	if err != nil || got != h {
		t.Fatalf("Get() = (%v, %v), want stored handle", got, err)
	}
	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := store.Delete(ctx, h.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0", store.Len())
	}
	if err := h.Do(ctx, func(*Session) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("Do() on deleted session = %v, want ErrClosed", err)
	}
	if err := store.Delete(ctx, h.ID()); err != nil {
		t.Errorf("Delete twice: %v", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Millisecond)
	defer store.Close()

	a := NewHandle(mustNew(t, Options{}))
	b := NewHandle(mustNew(t, Options{}))
	_ = store.Put(ctx, a)
	_ = store.Put(ctx, b)
	time.Sleep(5 * time.Millisecond)

	if _, err := store.Get(ctx, a.ID()); !errors.Is(err, ErrExpired) {
		t.Errorf("Get(expired) = %v, want ErrExpired", err)
	}
	if err := store.Cleanup(ctx); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len() after Cleanup = %d, want 0", store.Len())
	}
}
