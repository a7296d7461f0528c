package study

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedeck-backend/internal/models"
)

func makeCase(title string, stems []string, fronts ...string) models.Case {
	c := models.Case{Title: title, Stems: stems}
	for _, f := range fronts {
		c.Flashcards = append(c.Flashcards, models.Flashcard{Front: f, Back: "back of " + f})
	}
	return c
}

func TestBuildDeckForAllSkipsEmptyCases(t *testing.T) {
	cases := []models.Case{
		makeCase("A", nil, "a1", "a2"),
		makeCase("empty", []string{"stem"}),
		makeCase("B", nil, "b1", "b2", "b3"),
	}

	deck := BuildDeckForAll(cases, rand.New(rand.NewSource(1)))

	// 2 + 0 + 3 cards regardless of shuffle order.
	assert.Len(t, deck, 5)
	for _, card := range deck {
		assert.NotContains(t, card.FrontHTML, "empty")
	}
}

func TestBuildDeckForAllEmptyInput(t *testing.T) {
	assert.Empty(t, BuildDeckForAll(nil, rand.New(rand.NewSource(1))))
	assert.Empty(t, BuildDeckForAll([]models.Case{makeCase("e", nil)}, rand.New(rand.NewSource(1))))
}

func TestBuildDeckForAllDoesNotMutateInput(t *testing.T) {
	cases := []models.Case{
		makeCase("A", nil, "a1"),
		makeCase("B", nil, "b1"),
		makeCase("C", nil, "c1"),
	}

	BuildDeckForAll(cases, rand.New(rand.NewSource(7)))

	assert.Equal(t, "A", cases[0].Title)
	assert.Equal(t, "B", cases[1].Title)
	assert.Equal(t, "C", cases[2].Title)
}

func TestBuildDeckForAllSharedStemAndOrderWithinCase(t *testing.T) {
	// Many stems so a per-card re-pick would be caught with near certainty.
	stems := []string{"s1", "s2", "s3", "s4", "s5", "s6", "s7", "s8"}
	cases := []models.Case{
		makeCase("A", stems, "a1", "a2", "a3", "a4"),
		makeCase("B", stems, "b1", "b2", "b3", "b4"),
	}

	for seed := int64(0); seed < 20; seed++ {
		deck := BuildDeckForAll(cases, rand.New(rand.NewSource(seed)))
		require.Len(t, deck, 8)

		// Each case contributes a contiguous group in original card order
		// with one shared stem.
		for i := 0; i < 8; i += 4 {
			group := deck[i : i+4]
			prefix := group[0].FrontHTML[:1] // "a" or "b"
			for j, card := range group {
				assert.Equal(t, group[0].Stem, card.Stem)
				assert.Equal(t, prefix+string(rune('1'+j)), card.FrontHTML)
			}
		}
	}
}

func TestBuildDeckForAllShufflesCaseOrder(t *testing.T) {
	cases := []models.Case{
		makeCase("A", nil, "a1"),
		makeCase("B", nil, "b1"),
		makeCase("C", nil, "c1"),
		makeCase("D", nil, "d1"),
	}

	seen := map[string]bool{}
	for seed := int64(0); seed < 50; seed++ {
		deck := BuildDeckForAll(cases, rand.New(rand.NewSource(seed)))
		order := ""
		for _, card := range deck {
			order += card.FrontHTML[:1]
		}
		seen[order] = true
	}

	// 50 seeds over 24 permutations must produce more than one ordering.
	assert.Greater(t, len(seen), 1)
}

func TestBuildDeckForCase(t *testing.T) {
	c := makeCase("A", []string{"only stem"}, "q1", "q2")

	deck, err := BuildDeckForCase(c, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Len(t, deck, 2)
	assert.Equal(t, "only stem", deck[0].Stem)
	assert.Equal(t, "only stem", deck[1].Stem)
	assert.Equal(t, "q1", deck[0].FrontHTML)
	assert.Equal(t, "q2", deck[1].FrontHTML)
	assert.Equal(t, "back of q1", deck[0].BackHTML)
}

func TestBuildDeckForCaseNoStems(t *testing.T) {
	deck, err := BuildDeckForCase(makeCase("A", nil, "q1"), rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, "", deck[0].Stem)
}

func TestBuildDeckForCaseNoFlashcards(t *testing.T) {
	_, err := BuildDeckForCase(makeCase("A", []string{"s"}), rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrNoFlashcards)
}

func TestBuildDeckCopiesImages(t *testing.T) {
	front := "http://x/f.png"
	back := "http://x/b.png"
	c := models.Case{
		Title:      "A",
		Flashcards: models.FlashcardList{{Front: "q", Back: "a", FrontImage: &front, BackImage: &back}},
	}

	deck, err := BuildDeckForCase(c, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.NotNil(t, deck[0].FrontImage)
	require.NotNil(t, deck[0].BackImage)
	assert.Equal(t, front, *deck[0].FrontImage)
	assert.Equal(t, back, *deck[0].BackImage)
}

func TestCursorClamping(t *testing.T) {
	c := NewCursor(3)

	assert.False(t, c.Prev(), "Prev at index 0 must be a no-op")
	assert.Equal(t, 0, c.Pos)

	assert.True(t, c.Next())
	assert.True(t, c.Next())
	assert.Equal(t, 2, c.Pos)

	assert.False(t, c.Next(), "Next at the last index must be a no-op")
	assert.Equal(t, 2, c.Pos)
}

func TestCursorNextThenPrevReturns(t *testing.T) {
	c := NewCursor(5)
	c.Next()
	c.Next() // interior index 2

	start := c.Pos
	require.True(t, c.Next())
	require.True(t, c.Prev())
	assert.Equal(t, start, c.Pos)
}

func TestCursorFlipResetsOnMove(t *testing.T) {
	c := NewCursor(2)

	c.Flip()
	assert.True(t, c.Flipped)
	c.Flip()
	assert.False(t, c.Flipped)

	c.Flip()
	c.Next()
	assert.False(t, c.Flipped, "moving forward must reset to front")

	c.Flip()
	c.Prev()
	assert.False(t, c.Flipped, "moving back must reset to front")
}

func TestCursorEmptyDeck(t *testing.T) {
	c := NewCursor(0)
	assert.True(t, c.Empty())
	assert.False(t, c.Next())
	assert.False(t, c.Prev())
	c.Flip()
	assert.False(t, c.Flipped)
}
