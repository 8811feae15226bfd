package memory

import (
	"context"
	"testing"
	"time"

	"github.com/serviejs/popsicle-cache/pkg/store"
)

func startedEngine(t *testing.T) *Engine {
	t.Helper()
	e := New()
	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { e.Stop(context.Background()) })
	return e
}

func TestEngine_SetAndGet(t *testing.T) {
	e := startedEngine(t)
	ctx := context.Background()

	item := store.CacheItem{Body: "Ym9keQ==", URL: "http://example.com/", Status: 200, StatusText: "OK"}
	if err := e.Set(ctx, "seg", "id", item, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	result, err := e.Get(ctx, "seg", "id")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result == nil {
		t.Fatal("Get returned nil for a stored entry")
	}
	if result.Item.Body != item.Body || result.TTL != time.Minute {
		t.Errorf("result = %+v", result)
	}
	if result.Stored.IsZero() {
		t.Error("Stored timestamp not set")
	}
}

func TestEngine_MissIsNilNil(t *testing.T) {
	e := startedEngine(t)

	result, err := e.Get(context.Background(), "seg", "absent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if result != nil {
		t.Errorf("result = %+v, want nil", result)
	}
}

func TestEngine_SegmentsAreIsolated(t *testing.T) {
	e := startedEngine(t)
	ctx := context.Background()

	e.Set(ctx, "a", "id", store.CacheItem{Body: "x"}, time.Minute)

	if result, _ := e.Get(ctx, "b", "id"); result != nil {
		t.Error("entry leaked across segments")
	}
}

func TestEngine_ExpiresByTTL(t *testing.T) {
	e := startedEngine(t)
	ctx := context.Background()

	e.Set(ctx, "seg", "id", store.CacheItem{Body: "x"}, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if result, _ := e.Get(ctx, "seg", "id"); result != nil {
		t.Error("expired entry still returned")
	}
}

func TestEngine_ForeverTTLNeverExpires(t *testing.T) {
	e := startedEngine(t)
	ctx := context.Background()

	e.Set(ctx, "seg", "id", store.CacheItem{Body: "x"}, store.TTLForever)

	result, _ := e.Get(ctx, "seg", "id")
	if result == nil {
		t.Fatal("forever entry missing")
	}
	if result.TTL != store.TTLForever {
		t.Errorf("TTL = %v, want TTLForever", result.TTL)
	}
}

func TestEngine_NotReady(t *testing.T) {
	e := New()

	if _, err := e.Get(context.Background(), "seg", "id"); err != store.ErrNotReady {
		t.Errorf("Get err = %v, want ErrNotReady", err)
	}
	if err := e.Set(context.Background(), "seg", "id", store.CacheItem{}, 0); err != store.ErrNotReady {
		t.Errorf("Set err = %v, want ErrNotReady", err)
	}
	if e.IsReady() {
		t.Error("IsReady = true before Start")
	}
}

func TestEngine_UpsertSupersedes(t *testing.T) {
	e := startedEngine(t)
	ctx := context.Background()

	e.Set(ctx, "seg", "id", store.CacheItem{Body: "first"}, time.Minute)
	e.Set(ctx, "seg", "id", store.CacheItem{Body: "second"}, time.Minute)

	result, _ := e.Get(ctx, "seg", "id")
	if result == nil || result.Item.Body != "second" {
		t.Errorf("result = %+v, want superseding write", result)
	}
}
