package credential

import (
	"fmt"
	"slices"
	"sync"
	"testing"
)

func TestStore_SaveGet(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Save("u1", "access-1", "refresh-1")

	rec, ok := s.Get("u1")
	if !ok {
		t.Fatal("expected record for u1")
	}
	want := Record{UserID: "u1", AccessToken: "access-1", RefreshToken: "refresh-1"}
	if rec != want {
		t.Errorf("Get = %+v, want %+v", rec, want)
	}

	if _, ok := s.Get("u2"); ok {
		t.Error("unexpected record for u2")
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Save("u1", "old", "old-refresh")
	s.Save("u1", "new", "")

	rec, _ := s.Get("u1")
	if rec.AccessToken != "new" || rec.RefreshToken != "" {
		t.Errorf("record not overwritten: %+v", rec)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestStore_RemoveIdempotent(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Save("u1", "a", "")
	s.Remove("u1")
	s.Remove("u1")
	s.Remove("never-existed")

	if _, ok := s.Get("u1"); ok {
		t.Error("record should be gone")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestStore_Secrets(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Save("u1", "b-access", "a-refresh")
	s.Save("u2", "c-access", "")

	want := []string{"a-refresh", "b-access", "c-access"}
	if got := s.Secrets(); !slices.Equal(got, want) {
		t.Errorf("Secrets = %v, want %v", got, want)
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	s := NewStore()
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("u%d", i%5)
			s.Save(id, "tok", "")
			_, _ = s.Get(id)
			if i%3 == 0 {
				s.Remove(id)
			}
		}()
	}
	wg.Wait()

	if s.Len() > 5 {
		t.Errorf("Len = %d, want at most 5", s.Len())
	}
}
