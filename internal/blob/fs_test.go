package blob

import (
	"context"
	"errors"
	"testing"
)

func newTestFS(t *testing.T) Store {
	t.Helper()
	s, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("new filesystem store: %v", err)
	}
	return s
}

func TestFSStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestFS(t)

	if err := s.Put(ctx, "qr/product-milk-1234.png", []byte("png-bytes"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, ct, err := s.Get(ctx, "qr/product-milk-1234.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("data = %q", data)
	}
	if ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
}

func TestFSStoreGetMissing(t *testing.T) {
	s := newTestFS(t)
	_, _, err := s.Get(context.Background(), "qr/missing.png")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFSStoreDeleteAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestFS(t)
	for _, k := range []string{"qr/a.png", "qr/b.png"} {
		if err := s.Put(ctx, k, []byte("x"), "image/png"); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	ok, err := s.Delete(ctx, "qr/a.png")
	if err != nil || !ok {
		t.Fatalf("delete = (%v, %v), want (true, nil)", ok, err)
	}
	keys, err := s.List(ctx, "qr/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 1 || keys[0] != "qr/b.png" {
		t.Errorf("keys = %v", keys)
	}
}

func TestFSStoreRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	s := newTestFS(t)
	if err := s.Put(ctx, "../escape.png", []byte("x"), ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	// The cleaned key stays under the root.
	if _, _, err := s.Get(ctx, "escape.png"); err != nil {
		t.Fatalf("get cleaned key: %v", err)
	}
}
