package worker

import (
	"context"
	"errors"
	"io"
	"testing"

	"casedeck-backend/internal/services"
)

type fakeStore struct {
	owned   string
	removed []string
	failOn  string
}

func (s *fakeStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	return "", errors.New("not used")
}

func (s *fakeStore) Remove(ctx context.Context, ref string) error {
	if ref == s.failOn {
		return errors.New("disk error")
	}
	s.removed = append(s.removed, ref)
	return nil
}

func (s *fakeStore) Owns(ref string) bool {
	return len(ref) >= len(s.owned) && ref[:len(s.owned)] == s.owned
}

func TestProcess_RemovesOwnedRefsOnly(t *testing.T) {
	store := &fakeStore{owned: "http://host/media/images/"}
	p := NewPool(nil, store, 1)

	p.process(0, services.CleanupJob{Refs: []string{
		"http://host/media/images/flashcard-a.png",
		"https://elsewhere.example/pasted.jpg",
		"http://host/media/images/flashcard-b.png",
	}})

	want := []string{
		"http://host/media/images/flashcard-a.png",
		"http://host/media/images/flashcard-b.png",
	}
	if len(store.removed) != len(want) {
		t.Fatalf("Expected %d removals, got %v", len(want), store.removed)
	}
	for i, ref := range want {
		if store.removed[i] != ref {
			t.Errorf("Removal %d: expected %q, got %q", i, ref, store.removed[i])
		}
	}
}

func TestProcess_ContinuesPastFailures(t *testing.T) {
	store := &fakeStore{
		owned:  "http://host/media/images/",
		failOn: "http://host/media/images/flashcard-bad.png",
	}
	p := NewPool(nil, store, 1)

	p.process(0, services.CleanupJob{Refs: []string{
		"http://host/media/images/flashcard-bad.png",
		"http://host/media/images/flashcard-good.png",
	}})

	if len(store.removed) != 1 || store.removed[0] != "http://host/media/images/flashcard-good.png" {
		t.Errorf("Expected the remaining ref removed after a failure, got %v", store.removed)
	}
}
