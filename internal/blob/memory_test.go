package blob

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	if err := s.Put(ctx, "qr/a.png", []byte{1, 2, 3}, "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, ct, err := s.Get(ctx, "qr/a.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ct != "image/png" {
		t.Errorf("content type = %q, want image/png", ct)
	}
	if len(data) != 3 || data[0] != 1 {
		t.Errorf("unexpected data %v", data)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemory()
	_, _, err := s.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	if err := s.Put(ctx, "k", []byte("x"), ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := s.Delete(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("delete = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = s.Delete(ctx, "k")
	if err != nil || ok {
		t.Fatalf("second delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestMemoryStoreList(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	for _, k := range []string{"qr/b.png", "qr/a.png", "other/c.png"} {
		if err := s.Put(ctx, k, []byte("x"), "image/png"); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	keys, err := s.List(ctx, "qr/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(keys) != 2 || keys[0] != "qr/a.png" || keys[1] != "qr/b.png" {
		t.Errorf("keys = %v", keys)
	}
}

func TestMemoryStorePutCopiesData(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	buf := []byte("abc")
	if err := s.Put(ctx, "k", buf, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	buf[0] = 'z'
	data, _, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "abc" {
		t.Errorf("data = %q, want abc", data)
	}
}
