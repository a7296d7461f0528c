// Package study assembles ephemeral flashcard decks and tracks the cursor
// of a study run. Everything here is pure: randomness is injected so deck
// assembly is deterministic under test.
package study

import (
	"errors"
	"math/rand"

	"casedeck-backend/internal/models"
)

// ErrNoFlashcards is returned when a single case is opened for study but has
// nothing to show. Callers surface it as a user-facing condition rather than
// silently producing an empty deck.
var ErrNoFlashcards = errors.New("case has no flashcards")

// BuildDeckForAll shuffles the case order (Fisher–Yates), skips cases with
// no flashcards, and concatenates each remaining case's cards. One stem is
// picked per case and shared by all of that case's cards; within a case the
// original flashcard order survives, only case-level order is randomized.
func BuildDeckForAll(cases []models.Case, rng *rand.Rand) []models.StudyCard {
	shuffled := make([]models.Case, len(cases))
	copy(shuffled, cases)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	var deck []models.StudyCard
	for _, c := range shuffled {
		if len(c.Flashcards) == 0 {
			continue
		}
		deck = append(deck, deckForCase(c, rng)...)
	}
	return deck
}

// BuildDeckForCase builds a deck from a single case without shuffling.
// Returns ErrNoFlashcards when the case has no flashcards.
func BuildDeckForCase(c models.Case, rng *rand.Rand) ([]models.StudyCard, error) {
	if len(c.Flashcards) == 0 {
		return nil, ErrNoFlashcards
	}
	return deckForCase(c, rng), nil
}

// deckForCase pairs one uniformly chosen stem ("" when the case has none)
// with every flashcard of the case, in order.
func deckForCase(c models.Case, rng *rand.Rand) []models.StudyCard {
	stem := ""
	if len(c.Stems) > 0 {
		stem = c.Stems[rng.Intn(len(c.Stems))]
	}

	cards := make([]models.StudyCard, 0, len(c.Flashcards))
	for _, fc := range c.Flashcards {
		cards = append(cards, models.StudyCard{
			Stem:       stem,
			FrontHTML:  fc.Front,
			BackHTML:   fc.Back,
			FrontImage: fc.FrontImage,
			BackImage:  fc.BackImage,
		})
	}
	return cards
}
