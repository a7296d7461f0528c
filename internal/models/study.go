package models

import (
	"time"

	"github.com/google/uuid"
)

// StudyCard is one entry of a study deck: a flashcard paired with the stem
// chosen for its case. Derived at session start and never persisted.
type StudyCard struct {
	Stem       string  `json:"stem"`
	FrontHTML  string  `json:"frontHtml"`
	BackHTML   string  `json:"backHtml"`
	FrontImage *string `json:"frontImage"`
	BackImage  *string `json:"backImage"`
}

// StudySession is the ephemeral state of one study run: the assembled deck
// plus the cursor. Lives in Redis with a TTL; discarded on close.
type StudySession struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Deck      []StudyCard `json:"deck"`
	Pos       int         `json:"pos"`
	Flipped   bool        `json:"flipped"`
	StartedAt time.Time   `json:"started_at"`
}

// StudyCardView is what the client renders: the current card plus progress.
type StudyCardView struct {
	SessionID uuid.UUID `json:"session_id"`
	Card      StudyCard `json:"card"`
	Position  int       `json:"position"` // 1-based
	Total     int       `json:"total"`
	Flipped   bool      `json:"flipped"`
}
