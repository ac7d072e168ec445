package observability

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"
)

// recorder logs every pipeline event it receives as "stage:detail".
type recorder struct {
	NoopPipelineHooks
	events []string
}

func (r *recorder) OnLoadStart(_ context.Context, variant string) {
	r.events = append(r.events, "load:"+variant)
}

func (r *recorder) OnRankComplete(_ context.Context, maxRank int, _ time.Duration, err error) {
	r.events = append(r.events, fmt.Sprintf("rank:%d:%v", maxRank, err))
}

func (r *recorder) OnRenderComplete(_ context.Context, format string, _ time.Duration, _ error) {
	r.events = append(r.events, "render:"+format)
}

type countingCache struct {
	NoopCacheHooks
	hits, misses map[string]int
}

func (c *countingCache) OnCacheHit(_ context.Context, keyType string)  { c.hits[keyType]++ }
func (c *countingCache) OnCacheMiss(_ context.Context, keyType string) { c.misses[keyType]++ }

type testHTTPHooks struct{ NoopHTTPHooks }

func TestRegistryDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	tests := []struct {
		name string
		ok   bool
	}{
		{"pipeline", isType[NoopPipelineHooks](Pipeline())},
		{"cache", isType[NoopCacheHooks](Cache())},
		{"http", isType[NoopHTTPHooks](HTTP())},
	}
	for _, tt := range tests {
		if !tt.ok {
			t.Errorf("%s hooks are not the no-op default", tt.name)
		}
	}
}

func isType[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

func TestPipelineHooksReceiveEvents(t *testing.T) {
	t.Cleanup(Reset)
	ctx := context.Background()

	rec := &recorder{}
	SetPipelineHooks(rec)

	h := Pipeline()
	h.OnLoadStart(ctx, "acyclic")
	h.OnLayoutStart(ctx, "acyclic", 3) // not recorded
	h.OnRankComplete(ctx, 2, time.Millisecond, nil)
	h.OnRenderComplete(ctx, "dot", time.Millisecond, nil)

	want := []string{"load:acyclic", "rank:2:<nil>", "render:dot"}
	if !slices.Equal(rec.events, want) {
		t.Errorf("events = %v, want %v", rec.events, want)
	}
}

func TestCacheHooksReceiveEvents(t *testing.T) {
	t.Cleanup(Reset)
	ctx := context.Background()

	c := &countingCache{hits: map[string]int{}, misses: map[string]int{}}
	SetCacheHooks(c)
	Cache().OnCacheMiss(ctx, "layout")
	Cache().OnCacheHit(ctx, "layout")
	Cache().OnCacheHit(ctx, "layout")
	Cache().OnCacheSet(ctx, "artifact", 512)

	if c.hits["layout"] != 2 || c.misses["layout"] != 1 {
		t.Errorf("hits = %v, misses = %v", c.hits, c.misses)
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	t.Cleanup(Reset)

	rec := &recorder{}
	SetPipelineHooks(rec)
	SetPipelineHooks(nil)
	if Pipeline() != rec {
		t.Error("SetPipelineHooks(nil) replaced the registered hooks")
	}

	h := &testHTTPHooks{}
	SetHTTPHooks(h)
	SetHTTPHooks(nil)
	if HTTP() != h {
		t.Error("SetHTTPHooks(nil) replaced the registered hooks")
	}
}

func TestResetRestoresNoop(t *testing.T) {
	SetPipelineHooks(&recorder{})
	SetCacheHooks(&countingCache{})
	Reset()

	if !isType[NoopPipelineHooks](Pipeline()) || !isType[NoopCacheHooks](Cache()) {
		t.Error("Reset() did not restore the no-op hooks")
	}
}
