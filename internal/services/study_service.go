package services

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"casedeck-backend/internal/models"
	"casedeck-backend/internal/study"
)

type StudyService struct {
	cases    CaseRepository
	sessions SessionStore
	newRand  func() *rand.Rand
}

func NewStudyService(cases CaseRepository, sessions SessionStore) *StudyService {
	return &StudyService{
		cases:    cases,
		sessions: sessions,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// WithRand overrides the randomness source. Tests use a seeded one.
func (s *StudyService) WithRand(newRand func() *rand.Rand) *StudyService {
	s.newRand = newRand
	return s
}

// Start assembles a fresh deck and opens a session at the first card.
// caseID nil means study everything: all of the user's cases, shuffled at
// case level. A non-nil caseID studies that one case in original order.
func (s *StudyService) Start(ctx context.Context, userID uuid.UUID, caseID *uuid.UUID) (*models.StudyCardView, error) {
	rng := s.newRand()

	var deck []models.StudyCard
	if caseID == nil {
		cases, err := s.cases.ListByUser(ctx, userID)
		if err != nil {
			// Fail-soft list: an empty deck and the "no flashcards" path.
			cases = nil
		}
		deck = study.BuildDeckForAll(cases, rng)
		if len(deck) == 0 {
			return nil, &NotFoundError{Message: "No flashcards found"}
		}
	} else {
		c, err := s.cases.GetByID(ctx, *caseID)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Case not found"}
		}
		if err != nil {
			return nil, err
		}
		if c.UserID != userID {
			return nil, &NotFoundError{Message: "Case not found"}
		}

		deck, err = study.BuildDeckForCase(*c, rng)
		if errors.Is(err, study.ErrNoFlashcards) {
			return nil, &NotFoundError{Message: "No flashcards for this case"}
		}
		if err != nil {
			return nil, err
		}
	}

	session := &models.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		Deck:      deck,
		Pos:       0,
		Flipped:   false,
		StartedAt: time.Now().UTC(),
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return viewOf(session), nil
}

// Current returns the card under the cursor without moving it.
func (s *StudyService) Current(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudyCardView, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return viewOf(session), nil
}

// Next advances the cursor; at the last card it stays put. Either way the
// flip state resets to front when the position changes.
func (s *StudyService) Next(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudyCardView, error) {
	return s.move(ctx, userID, sessionID, func(c *study.Cursor) { c.Next() })
}

// Prev moves the cursor back; at the first card it stays put.
func (s *StudyService) Prev(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudyCardView, error) {
	return s.move(ctx, userID, sessionID, func(c *study.Cursor) { c.Prev() })
}

// Flip toggles which side of the current card is shown.
func (s *StudyService) Flip(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudyCardView, error) {
	return s.move(ctx, userID, sessionID, func(c *study.Cursor) { c.Flip() })
}

// Close discards the session. Closing an already-gone session is fine.
func (s *StudyService) Close(ctx context.Context, userID, sessionID uuid.UUID) error {
	_, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

func (s *StudyService) move(ctx context.Context, userID, sessionID uuid.UUID, op func(*study.Cursor)) (*models.StudyCardView, error) {
	session, err := s.getOwnedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}

	cursor := study.Cursor{Length: len(session.Deck), Pos: session.Pos, Flipped: session.Flipped}
	op(&cursor)
	session.Pos = cursor.Pos
	session.Flipped = cursor.Flipped

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return viewOf(session), nil
}

func (s *StudyService) getOwnedSession(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudySession, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return nil, &NotFoundError{Message: "Study session not found"}
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != userID {
		return nil, &NotFoundError{Message: "Study session not found"}
	}
	return session, nil
}

func viewOf(session *models.StudySession) *models.StudyCardView {
	return &models.StudyCardView{
		SessionID: session.ID,
		Card:      session.Deck[session.Pos],
		Position:  session.Pos + 1,
		Total:     len(session.Deck),
		Flipped:   session.Flipped,
	}
}
