package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedeck-backend/internal/models"
)

func seededRand() func() *rand.Rand {
	return func() *rand.Rand { return rand.New(rand.NewSource(42)) }
}

func newStudyServiceForTest() (*StudyService, *fakeCaseRepo, *fakeSessionStore) {
	repo := newFakeCaseRepo()
	sessions := newFakeSessionStore()
	svc := NewStudyService(repo, sessions).WithRand(seededRand())
	return svc, repo, sessions
}

func seedCase(t *testing.T, repo *fakeCaseRepo, userID uuid.UUID, title string, stems []string, cardCount int) uuid.UUID {
	t.Helper()
	c := &models.Case{UserID: userID, Title: title, Stems: stems}
	for i := 0; i < cardCount; i++ {
		c.Flashcards = append(c.Flashcards, models.Flashcard{
			Front: title + "-front", Back: title + "-back",
		})
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return c.ID
}

func TestStartAllBuildsDeckOverEveryNonEmptyCase(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	userID := uuid.New()
	seedCase(t, repo, userID, "A", []string{"s"}, 2)
	seedCase(t, repo, userID, "B", nil, 3)
	seedCase(t, repo, userID, "empty", []string{"s"}, 0)

	view, err := svc.Start(context.Background(), userID, nil)
	require.NoError(t, err)

	assert.Equal(t, 5, view.Total, "deck length equals sum of card counts over non-empty cases")
	assert.Equal(t, 1, view.Position)
	assert.False(t, view.Flipped)
	assert.NotEqual(t, uuid.Nil, view.SessionID)
}

func TestStartAllNoFlashcardsAnywhere(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	userID := uuid.New()
	seedCase(t, repo, userID, "empty", []string{"s"}, 0)

	_, err := svc.Start(context.Background(), userID, nil)
	var nErr *NotFoundError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "No flashcards found", nErr.Message)
}

func TestStartSingleCase(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	userID := uuid.New()
	caseID := seedCase(t, repo, userID, "A", []string{"only"}, 3)

	view, err := svc.Start(context.Background(), userID, &caseID)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, "only", view.Card.Stem)
	assert.Equal(t, "A-front", view.Card.FrontHTML)
}

func TestStartSingleCaseWithoutFlashcards(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	userID := uuid.New()
	caseID := seedCase(t, repo, userID, "A", []string{"s"}, 0)

	_, err := svc.Start(context.Background(), userID, &caseID)
	var nErr *NotFoundError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "No flashcards for this case", nErr.Message)
}

func TestStartUnknownOrForeignCase(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	foreign := seedCase(t, repo, uuid.New(), "theirs", nil, 2)
	unknown := uuid.New()

	for _, id := range []uuid.UUID{foreign, unknown} {
		target := id
		_, err := svc.Start(context.Background(), uuid.New(), &target)
		var nErr *NotFoundError
		assert.ErrorAs(t, err, &nErr)
	}
}

func TestCursorNavigationThroughSession(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	userID := uuid.New()
	caseID := seedCase(t, repo, userID, "A", nil, 3)

	view, err := svc.Start(context.Background(), userID, &caseID)
	require.NoError(t, err)
	sid := view.SessionID

	// Prev at the first card is a no-op.
	view, err = svc.Prev(context.Background(), userID, sid)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Position)

	view, err = svc.Next(context.Background(), userID, sid)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Position)

	view, err = svc.Next(context.Background(), userID, sid)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Position)

	// Next at the last card clamps.
	view, err = svc.Next(context.Background(), userID, sid)
	require.NoError(t, err)
	assert.Equal(t, 3, view.Position)
}

func TestFlipTogglesAndResetsOnMove(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	userID := uuid.New()
	caseID := seedCase(t, repo, userID, "A", nil, 2)

	view, err := svc.Start(context.Background(), userID, &caseID)
	require.NoError(t, err)
	sid := view.SessionID

	view, err = svc.Flip(context.Background(), userID, sid)
	require.NoError(t, err)
	assert.True(t, view.Flipped)

	view, err = svc.Next(context.Background(), userID, sid)
	require.NoError(t, err)
	assert.False(t, view.Flipped, "moving must reset to the front side")

	view, err = svc.Flip(context.Background(), userID, sid)
	require.NoError(t, err)
	assert.True(t, view.Flipped)

	view, err = svc.Prev(context.Background(), userID, sid)
	require.NoError(t, err)
	assert.False(t, view.Flipped)
}

func TestCurrentDoesNotMoveCursor(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	userID := uuid.New()
	caseID := seedCase(t, repo, userID, "A", nil, 2)

	view, err := svc.Start(context.Background(), userID, &caseID)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := svc.Current(context.Background(), userID, view.SessionID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Position)
	}
}

func TestSessionOwnership(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	owner := uuid.New()
	caseID := seedCase(t, repo, owner, "A", nil, 1)

	view, err := svc.Start(context.Background(), owner, &caseID)
	require.NoError(t, err)

	_, err = svc.Current(context.Background(), uuid.New(), view.SessionID)
	var nErr *NotFoundError
	assert.ErrorAs(t, err, &nErr)
}

func TestCloseDiscardsSession(t *testing.T) {
	svc, repo, sessions := newStudyServiceForTest()
	userID := uuid.New()
	caseID := seedCase(t, repo, userID, "A", nil, 1)

	view, err := svc.Start(context.Background(), userID, &caseID)
	require.NoError(t, err)

	require.NoError(t, svc.Close(context.Background(), userID, view.SessionID))
	assert.Empty(t, sessions.sessions)

	// Closing again is fine.
	assert.NoError(t, svc.Close(context.Background(), userID, view.SessionID))

	_, err = svc.Current(context.Background(), userID, view.SessionID)
	var nErr *NotFoundError
	assert.ErrorAs(t, err, &nErr)
}

func TestStartFailsSoftOnListError(t *testing.T) {
	svc, repo, _ := newStudyServiceForTest()
	repo.listErr = errors.New("connection refused")

	_, err := svc.Start(context.Background(), uuid.New(), nil)
	var nErr *NotFoundError
	require.ErrorAs(t, err, &nErr)
	assert.Equal(t, "No flashcards found", nErr.Message)
}
