package credentials

import (
	"context"
	"io"
	"testing"

	"github.com/rs/zerolog"

	"studio/internal/infra"
	"studio/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.KV) {
	t.Helper()
	kv, err := storage.OpenKV(":memory:")
	if err != nil {
		t.Fatalf("OpenKV returned error: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	logger := infra.Logger(zerolog.New(io.Discard))
	store, err := NewStore(context.Background(), kv, &logger)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	return store, kv
}

func TestSavePersistsAndClearsNotice(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	if err := store.Invalidate(ctx, "quota exceeded"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	if store.Notice() == nil {
		t.Fatal("expected notice after Invalidate")
	}

	if err := store.Save(ctx, " key-123 "); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if store.Notice() != nil {
		t.Fatal("notice should be cleared by Save")
	}
	secret, ok := store.Get()
	if !ok || secret != "key-123" {
		t.Fatalf("Get = %q, %v; want %q, true", secret, ok, "key-123")
	}

	// Durable copy must be written synchronously.
	value, present, err := kv.Get(ctx, "credential")
	if err != nil || !present {
		t.Fatalf("kv.Get = present %v, err %v", present, err)
	}
	if string(value) != "key-123" {
		t.Fatalf("persisted secret = %q, want %q", value, "key-123")
	}
}

func TestClearAndInvalidateAreDistinguishable(t *testing.T) {
	store, kv := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "key-abc"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	notice := store.Notice()
	if notice == nil || notice.Kind != NoticeCleared {
		t.Fatalf("Notice after Clear = %+v, want kind %q", notice, NoticeCleared)
	}
	if _, present, _ := kv.Get(ctx, "credential"); present {
		t.Fatal("durable copy still present after Clear")
	}

	if err := store.Save(ctx, "key-def"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if err := store.Invalidate(ctx, "permission denied"); err != nil {
		t.Fatalf("Invalidate returned error: %v", err)
	}
	notice = store.Notice()
	if notice == nil || notice.Kind != NoticeRevoked {
		t.Fatalf("Notice after Invalidate = %+v, want kind %q", notice, NoticeRevoked)
	}
	if _, ok := store.Get(); ok {
		t.Fatal("secret still present after Invalidate")
	}
}

func TestValidationIsOptimistic(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "key-abc"); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if status := store.Status(); !status.Present || status.Validated {
		t.Fatalf("Status after Save = %+v, want present, not validated", status)
	}

	store.MarkValidated()
	if status := store.Status(); !status.Validated {
		t.Fatalf("Status after MarkValidated = %+v, want validated", status)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if status := store.Status(); status.Present || status.Validated {
		t.Fatalf("Status after Clear = %+v, want absent, not validated", status)
	}
}

func TestLoadsPersistedCredential(t *testing.T) {
	kv, err := storage.OpenKV(":memory:")
	if err != nil {
		t.Fatalf("OpenKV returned error: %v", err)
	}
	defer kv.Close()
	ctx := context.Background()
	if err := kv.Put(ctx, "credential", []byte("stored-key")); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	logger := infra.Logger(zerolog.New(io.Discard))
	store, err := NewStore(ctx, kv, &logger)
	if err != nil {
		t.Fatalf("NewStore returned error: %v", err)
	}
	secret, ok := store.Get()
	if !ok || secret != "stored-key" {
		t.Fatalf("Get = %q, %v; want %q, true", secret, ok, "stored-key")
	}
}
