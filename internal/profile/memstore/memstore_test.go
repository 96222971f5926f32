package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/linnemanlabs/wildwatch/internal/profile"
)

func ptr(v float64) *float64 { return &v }

func TestStore_PutAndGet(t *testing.T) {
	t.Parallel()

	s := New()
	p := &profile.Profile{UserID: "u-1", Lat: ptr(10), Lon: ptr(20), RadiusKm: ptr(5)}
	if err := s.Put(context.Background(), p); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected profile to be found")
	}
	if got.UserID != "u-1" {
		t.Errorf("UserID = %q, want %q", got.UserID, "u-1")
	}
	if !got.Locatable() {
		t.Error("expected profile to be locatable")
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := New()
	_, ok, err := s.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing user")
	}
}

func TestStore_AllPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	s := New()
	for i := range 5 {
		id := fmt.Sprintf("u-%d", i)
		if err := s.Put(context.Background(), &profile.Profile{UserID: id}); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	all, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("len = %d, want 5", len(all))
	}
	for i, p := range all {
		want := fmt.Sprintf("u-%d", i)
		if p.UserID != want {
			t.Errorf("all[%d].UserID = %q, want %q", i, p.UserID, want)
		}
	}
}

func TestStore_PutOverwritesWithoutReordering(t *testing.T) {
	t.Parallel()

	s := New()
	s.Put(context.Background(), &profile.Profile{UserID: "a"})
	s.Put(context.Background(), &profile.Profile{UserID: "b"})
	s.Put(context.Background(), &profile.Profile{UserID: "a", Occupation: "ranger"})

	all, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].UserID != "a" || all[0].Occupation != "ranger" {
		t.Errorf("all[0] = %+v, want updated profile a first", all[0])
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := New()
	const n = 100

	var wg sync.WaitGroup
	wg.Add(n * 2)

	for i := range n {
		id := fmt.Sprintf("u-%d", i)

		go func() {
			defer wg.Done()
			_ = s.Put(context.Background(), &profile.Profile{UserID: id})
		}()

		go func() {
			defer wg.Done()
			_, _, _ = s.Get(context.Background(), id)
			_, _ = s.All(context.Background())
		}()
	}

	wg.Wait()
}
