package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"time"

	"casedeck-backend/internal/models"
)

type fakeCaseRepo struct {
	mu      sync.Mutex
	cases   map[uuid.UUID]models.Case
	order   []uuid.UUID
	listErr error
	calls   []string
}

func newFakeCaseRepo() *fakeCaseRepo {
	return &fakeCaseRepo{cases: map[uuid.UUID]models.Case{}}
}

func (r *fakeCaseRepo) Create(ctx context.Context, c *models.Case) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "create")
	c.ID = uuid.New()
	c.CreatedAt = time.Now().UTC()
	r.cases[c.ID] = *c
	r.order = append(r.order, c.ID)
	return nil
}

func (r *fakeCaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "get")
	c, ok := r.cases[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := c
	return &out, nil
}

func (r *fakeCaseRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Case, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "list")
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []models.Case
	for _, id := range r.order {
		if c := r.cases[id]; c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCaseRepo) Update(ctx context.Context, c *models.Case) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "update")
	existing, ok := r.cases[c.ID]
	if !ok || existing.UserID != c.UserID {
		return false, nil
	}
	r.cases[c.ID] = *c
	return true, nil
}

func (r *fakeCaseRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "delete")
	if c, ok := r.cases[id]; ok && c.UserID == userID {
		delete(r.cases, id)
	}
	return nil
}

type fakeImageStore struct {
	saves    int
	failFor  map[string]bool // filenames whose upload fails
	removed  []string
	lastSave string
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{failFor: map[string]bool{}}
}

func (s *fakeImageStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if s.failFor[filename] {
		return "", errors.New("upload failed")
	}
	s.saves++
	s.lastSave = fmt.Sprintf("http://media.test/images/%s-%d", filename, s.saves)
	return s.lastSave, nil
}

func (s *fakeImageStore) Remove(ctx context.Context, ref string) error {
	s.removed = append(s.removed, ref)
	return nil
}

func (s *fakeImageStore) Owns(ref string) bool { return true }

type fakeNotifier struct {
	events   []string
	cleanups [][]string
}

func (n *fakeNotifier) PublishCaseEvent(ctx context.Context, userID uuid.UUID, eventType string, caseID uuid.UUID) {
	n.events = append(n.events, eventType)
}

func (n *fakeNotifier) EnqueueImageCleanup(ctx context.Context, refs []string) {
	if len(refs) > 0 {
		n.cleanups = append(n.cleanups, refs)
	}
}

type fakeSessionStore struct {
	sessions map[uuid.UUID]models.StudySession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: map[uuid.UUID]models.StudySession{}}
}

func (s *fakeSessionStore) Save(ctx context.Context, session *models.StudySession) error {
	s.sessions[session.ID] = *session
	return nil
}

func (s *fakeSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	out := session
	return &out, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.sessions, id)
	return nil
}
