package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/respkv/internal/core/domain"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ============================================================
// Get / Set
// ============================================================

func TestStore_SetAndGet(t *testing.T) {
	store := New()
	ctx := context.Background()

	if _, ok := store.Get(ctx, []byte("missing")); ok {
		t.Fatal("Get of a never-set key should be absent")
	}

	store.Set(ctx, []byte("foo"), []byte("bar"))

	for i := 0; i < 2; i++ {
		got, ok := store.Get(ctx, []byte("foo"))
		if !ok || string(got) != "bar" {
			t.Fatalf("Get #%d = %q, %v; want bar, true", i, got, ok)
		}
	}
}

func TestStore_LastWriterWins(t *testing.T) {
	store := New()
	ctx := context.Background()

	store.Set(ctx, []byte("k"), []byte("v1"))
	store.Set(ctx, []byte("k"), []byte("v2"))

	got, ok := store.Get(ctx, []byte("k"))
	if !ok || string(got) != "v2" {
		t.Fatalf("Get = %q, %v; want v2, true", got, ok)
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestStore_CopiesOnWrite(t *testing.T) {
	store := New()
	ctx := context.Background()

	key := []byte("k")
	val := []byte("value")
	store.Set(ctx, key, val)
	val[0] = 'X'
	key[0] = 'Z'

	got, ok := store.Get(ctx, []byte("k"))
	if !ok || string(got) != "value" {
		t.Fatalf("Get = %q, %v; caller mutation leaked into the store", got, ok)
	}
}

func TestStore_EmptyValue(t *testing.T) {
	store := New()
	ctx := context.Background()

	store.Set(ctx, []byte(""), nil)
	got, ok := store.Get(ctx, []byte(""))
	if !ok || got == nil || len(got) != 0 {
		t.Fatalf("Get = %#v, %v; want empty non-nil value", got, ok)
	}
}

// ============================================================
// Expiry
// ============================================================

func TestStore_ZeroTTLExpiresOnNextRead(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	store.SetWithExpiry(ctx, []byte("k"), []byte("v"), 0)

	if _, ok := store.Get(ctx, []byte("k")); ok {
		t.Fatal("zero TTL entry should be absent on the next read")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after lazy removal", store.Len())
	}
	if got := store.Stats().Expired; got != 1 {
		t.Errorf("Stats().Expired = %d, want 1", got)
	}
}

func TestStore_FutureExpiry(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	store.SetWithExpiry(ctx, []byte("k"), []byte("v"), 100*time.Second)

	got, ok := store.Get(ctx, []byte("k"))
	if !ok || string(got) != "v" {
		t.Fatalf("Get = %q, %v; want v, true", got, ok)
	}

	clock.Advance(100*time.Second - time.Millisecond)
	if _, ok := store.Get(ctx, []byte("k")); !ok {
		t.Fatal("entry should survive until its expiry")
	}

	clock.Advance(time.Millisecond)
	if _, ok := store.Get(ctx, []byte("k")); ok {
		t.Fatal("entry should be absent once its expiry is reached")
	}
}

func TestStore_SetClearsExpiry(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	store.SetWithExpiry(ctx, []byte("k"), []byte("v1"), 50*time.Millisecond)
	store.Set(ctx, []byte("k"), []byte("v2"))

	clock.Advance(time.Hour)

	got, ok := store.Get(ctx, []byte("k"))
	if !ok || string(got) != "v2" {
		t.Fatalf("Get = %q, %v; want v2, true", got, ok)
	}
}

func TestStore_SetWithExpiryReplacesPlainEntry(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	store.Set(ctx, []byte("k"), []byte("v1"))
	store.SetWithExpiry(ctx, []byte("k"), []byte("v2"), time.Second)

	got, _ := store.Get(ctx, []byte("k"))
	if string(got) != "v2" {
		t.Fatalf("Get = %q, want v2", got)
	}

	clock.Advance(2 * time.Second)
	if _, ok := store.Get(ctx, []byte("k")); ok {
		t.Fatal("entry should expire")
	}
}

func TestStore_ExpiredEntryNotRemovedWithoutRead(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	store.SetWithExpiry(ctx, []byte("a"), []byte("v"), time.Millisecond)
	store.Set(ctx, []byte("b"), []byte("v"))
	clock.Advance(time.Second)

	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 (no background sweep)", store.Len())
	}
	store.Get(ctx, []byte("b"))
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2 after reading an unrelated key", store.Len())
	}
}

// ============================================================
// ConfigGet
// ============================================================

func TestStore_ConfigGet(t *testing.T) {
	store := New(WithSnapshotConfig(SnapshotConfig{Dir: "/tmp/redis-files", DBFilename: "dump.rdb"}))
	ctx := context.Background()

	tests := []struct {
		name    string
		param   string
		want    string
		wantErr error
	}{
		{"dir", "dir", "/tmp/redis-files", nil},
		{"dbfilename", "dbfilename", "dump.rdb", nil},
		{"unknown", "maxmemory", "", domain.ErrConfigParamNotFound},
		{"case sensitive", "DIR", "", domain.ErrConfigParamNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ConfigGet(ctx, tt.param)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ConfigGet() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ConfigGet() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ConfigGet() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore_ConfigGetWithoutConfig(t *testing.T) {
	store := New()
	_, err := store.ConfigGet(context.Background(), "dir")
	if !errors.Is(err, domain.ErrConfigUnavailable) {
		t.Fatalf("ConfigGet() error = %v, want ErrConfigUnavailable", err)
	}
}

// ============================================================
// Concurrency
// ============================================================

func TestStore_ConcurrentDisjointKeys(t *testing.T) {
	store := New()
	ctx := context.Background()

	const workers = 16
	const perWorker = 200

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := []byte(fmt.Sprintf("w%d:k%d", w, i))
				val := []byte(fmt.Sprintf("v%d", i))
				if i%3 == 0 {
					store.SetWithExpiry(ctx, key, val, time.Hour)
				} else {
					store.Set(ctx, key, val)
				}
				got, ok := store.Get(ctx, key)
				if !ok || string(got) != string(val) {
					errs <- fmt.Errorf("worker %d: Get(%s) = %q, %v", w, key, got, ok)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
	if store.Len() != workers*perWorker {
		t.Errorf("Len() = %d, want %d", store.Len(), workers*perWorker)
	}
}

func TestStore_ConcurrentExpiryRace(t *testing.T) {
	clock := newFakeClock()
	store := New(WithClock(clock.Now))
	ctx := context.Background()

	store.SetWithExpiry(ctx, []byte("k"), []byte("old"), time.Millisecond)
	clock.Advance(time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Get(ctx, []byte("k"))
		}()
		go func() {
			defer wg.Done()
			store.Set(ctx, []byte("k"), []byte("new"))
		}()
	}
	wg.Wait()

	got, ok := store.Get(ctx, []byte("k"))
	if !ok || string(got) != "new" {
		t.Fatalf("Get = %q, %v; a plain SET must never be lost to lazy expiry", got, ok)
	}
}

// ============================================================
// Benchmarks
// ============================================================

func BenchmarkStore_GetParallel(b *testing.B) {
	store := New()
	ctx := context.Background()
	for i := 0; i < 1024; i++ {
		store.Set(ctx, []byte(fmt.Sprintf("key:%d", i)), []byte("value"))
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		key := []byte("key:0")
		for pb.Next() {
			store.Get(ctx, key)
		}
	})
}
