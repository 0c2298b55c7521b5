package store_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/FAU-CDI/callgraphdb/internal/store"
	"github.com/google/go-cmp/cmp"
)

func openStore(t *testing.T, options store.Options) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "db"), options)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		index int64
		want  []byte
	}{
		{0, []byte{0, 0, 0, 0, 0, 0, 0, 0}},
		{42, []byte{0, 0, 0, 0, 0, 0, 0, 42}},
		{1 << 40, []byte{0, 0, 1, 0, 0, 0, 0, 0}},
		{-1, []byte{255, 255, 255, 255, 255, 255, 255, 255}},
	}
	for _, tt := range tests {
		got := store.Key(tt.index)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Key(%d) mismatch (-want +got):\n%s", tt.index, diff)
		}
		if index, ok := store.Index(got); !ok || index != tt.index {
			t.Errorf("Index(Key(%d)) = %d, %v", tt.index, index, ok)
		}
	}

	if _, ok := store.Index([]byte{1, 2, 3}); ok {
		t.Error("Index() accepted a short key")
	}
}

func TestStore(t *testing.T) {
	t.Parallel()

	for _, snappy := range []bool{false, true} {
		name := "plain"
		if snappy {
			name = "snappy"
		}
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			s := openStore(t, store.Options{Snappy: snappy})

			if _, err := s.Get(42); !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("Get() on empty store error = %v, want ErrNotFound", err)
			}

			if err := s.Put(42, []byte("hello")); err != nil {
				t.Fatalf("Put() error = %v", err)
			}
			if err := s.Put(42, []byte("world")); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, err := s.Get(42)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if string(got) != "world" {
				t.Errorf("Get() = %q, want %q", got, "world")
			}

			if ok, err := s.Has(42); err != nil || !ok {
				t.Errorf("Has(42) = %v, %v", ok, err)
			}
			if ok, err := s.Has(43); err != nil || ok {
				t.Errorf("Has(43) = %v, %v", ok, err)
			}

			if err := s.Delete(42); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}
			if _, err := s.Get(42); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
			}
			if err := s.Delete(42); err != nil {
				t.Errorf("Delete() of missing index error = %v", err)
			}
		})
	}
}

func TestStore_Empty(t *testing.T) {
	t.Parallel()

	s := openStore(t, store.Options{})
	if err := s.Put(7, nil); err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(7)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Get() = %#v, want empty non-nil slice", got)
	}
}

func TestStore_Iterate(t *testing.T) {
	t.Parallel()

	s := openStore(t, store.Options{})
	for _, index := range []int64{300, -5, 1, 42, 0} {
		if err := s.Put(index, []byte{byte(index)}); err != nil {
			t.Fatal(err)
		}
	}

	var got []int64
	if err := s.Iterate(func(index int64) error {
		got = append(got, index)
		return nil
	}); err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	if diff := cmp.Diff([]int64{0, 1, 42, 300, -5}, got); diff != "" {
		t.Errorf("Iterate() mismatch (-want +got):\n%s", diff)
	}

	errStop := errors.New("stop")
	if err := s.Iterate(func(int64) error { return errStop }); !errors.Is(err, errStop) {
		t.Errorf("Iterate() error = %v, want %v", err, errStop)
	}
}

func TestStore_Reopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "db")

	s, err := store.Open(path, store.Options{Snappy: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(1, []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := s.Compact(); err != nil {
		t.Fatalf("Compact() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = store.Open(path, store.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Get(1)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if string(got) != "persisted" {
		t.Errorf("Get() after reopen = %q", got)
	}
}

func TestStore_Close(t *testing.T) {
	t.Parallel()

	s, err := store.Open(filepath.Join(t.TempDir(), "db"), store.Options{})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Close(); err != nil {
			t.Errorf("Close() #%d error = %v", i, err)
		}
	}

	if err := s.Put(1, nil); !errors.Is(err, store.ErrClosed) {
		t.Errorf("Put() after Close() error = %v, want ErrClosed", err)
	}
	if _, err := s.Get(1); !errors.Is(err, store.ErrClosed) {
		t.Errorf("Get() after Close() error = %v, want ErrClosed", err)
	}
	if err := s.Compact(); !errors.Is(err, store.ErrClosed) {
		t.Errorf("Compact() after Close() error = %v, want ErrClosed", err)
	}
}
