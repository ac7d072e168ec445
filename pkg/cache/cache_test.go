package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	gerrors "github.com/matzehuels/gradlayer/pkg/errors"
)

var (
	errNetwork  = errors.New("network error")
	errNotFound = errors.New("not found")
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	ik := k.InputKey("tree", []byte(`{"root": {}}`))
	if !strings.HasPrefix(ik, "input:tree:") || len(ik) != len("input:tree:")+64 {
		t.Errorf("InputKey unexpected: %s", ik)
	}
	if k.InputKey("acyclic", []byte(`{"root": {}}`)) == ik {
		t.Error("Different variants should produce different input keys")
	}

	// LayoutKey should include options in hash
	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Variant: "tree", Width: 14})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Variant: "tree", Width: 14, StrictOrder: true})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}
	if lk1 != k.LayoutKey("hash123", LayoutKeyOpts{Variant: "tree", Width: 14}) {
		t.Error("LayoutKey should be deterministic")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg", Engine: "dot"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "staging:")

	if key := scoped.InputKey("tree", []byte("x")); !strings.HasPrefix(key, "staging:input:tree:") {
		t.Errorf("ScopedKeyer InputKey should be prefixed: %s", key)
	}
	if key := scoped.LayoutKey("h", LayoutKeyOpts{}); !strings.HasPrefix(key, "staging:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", key)
	}
	if key := scoped.ArtifactKey("h", ArtifactKeyOpts{}); !strings.HasPrefix(key, "staging:artifact:") {
		t.Errorf("ScopedKeyer ArtifactKey should be prefixed: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	want := "prefix:" + NewDefaultKeyer().InputKey("tree", []byte("x"))
	if key := scoped.InputKey("tree", []byte("x")); key != want {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Set(ctx, "old", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry should be a miss")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete twice: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("deleted entry should be a miss")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		c.Set(ctx, k, []byte(k), 0)
	}

	fc := c.(*FileCache)
	if fc.Dir() != dir {
		t.Errorf("Dir() = %s, want %s", fc.Dir(), dir)
	}
	n, err := fc.Clear()
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("cleared entry should be a miss")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisOptions{URL: "http://not-redis"})
	if !gerrors.Is(err, gerrors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestRetryableError(t *testing.T) {
	// Retryable(nil) returns nil
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(errNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(errNotFound) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	// Success on first try
	calls := 0
	err := RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return errNotFound
	})
	if err != errNotFound {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return Retryable(errNetwork)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}

	// Attempts are bounded
	calls = 0
	err = RetryWithBackoff(ctx, 3, time.Millisecond, func() error {
		calls++
		return Retryable(errNetwork)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("err = %v after %d calls, want retryable after 3", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := RetryWithBackoff(ctx, 3, time.Second, func() error {
		return Retryable(errNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestNullCacheCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewNullCache()
	if _, _, err := c.Get(ctx, "key"); err != context.Canceled {
		t.Errorf("Get error = %v, want context.Canceled", err)
	}
	if err := c.Set(ctx, "key", nil, 0); err != context.Canceled {
		t.Errorf("Set error = %v, want context.Canceled", err)
	}
}

func TestBackoffMaxDelay(t *testing.T) {
	b := Backoff{Attempts: 4, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	var stamps []time.Time
	err := b.Do(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return Retryable(errNetwork)
	})
	if !IsRetryable(err) {
		t.Fatalf("err = %v, want the last retryable error", err)
	}
	if len(stamps) != 4 {
		t.Fatalf("calls = %d, want 4", len(stamps))
	}
	for i := 1; i < len(stamps); i++ {
		if gap := stamps[i].Sub(stamps[i-1]); gap < time.Millisecond {
			t.Errorf("gap %d = %v, want at least 1ms", i, gap)
		}
	}
}

func TestBackoffZeroAttempts(t *testing.T) {
	calls := 0
	_ = Backoff{}.Do(context.Background(), func() error {
		calls++
		return Retryable(errNetwork)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestLayoutKeyDependsOnOptions(t *testing.T) {
	k := NewDefaultKeyer()
	a := k.LayoutKey("abc", LayoutKeyOpts{Variant: "tree", Width: 10})
	b := k.LayoutKey("abc", LayoutKeyOpts{Variant: "tree", Width: 12})
	if a == b {
		t.Error("layout keys ignore Width")
	}
	if !strings.HasPrefix(a, "layout:") {
		t.Errorf("key %q lacks the layout prefix", a)
	}
	if a != k.LayoutKey("abc", LayoutKeyOpts{Variant: "tree", Width: 10}) {
		t.Error("layout keys are not deterministic")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fc := c.(*FileCache)

	if err := c.Set(ctx, "k", []byte("layout"), 0); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fc.path("k"), []byte{1, 2}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("truncated entry: hit %v, err %v; want a clean miss", hit, err)
	}
	if _, err := os.Stat(fc.path("k")); !os.IsNotExist(err) {
		t.Error("truncated entry was not removed")
	}
}

func TestFileCacheExpiryClock(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fc := c.(*FileCache)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	now = now.Add(59 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("entry expired early")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry outlived its ttl")
	}
}
