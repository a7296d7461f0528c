package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Case is a titled collection of stems and flashcards. Stems and flashcards
// are ordered; position in the sequence is the only identity a flashcard has.
type Case struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	Title      string        `json:"title"`
	Stems      StemList      `json:"stems"`
	Flashcards FlashcardList `json:"flashcards"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Flashcard is one front/back rich-HTML pair. Either side may carry a
// reference to an uploaded image, independent of the HTML content.
type Flashcard struct {
	Front      string  `json:"front"`
	Back       string  `json:"back"`
	FrontImage *string `json:"frontImage"`
	BackImage  *string `json:"backImage"`
}

// StemList tolerates the stems column arriving either as a native JSON array
// or as a JSON-encoded string, depending on how the row was written.
type StemList []string

func (s *StemList) UnmarshalJSON(data []byte) error {
	data, err := unwrapJSONString(data)
	if err != nil {
		return err
	}
	if data == nil {
		*s = nil
		return nil
	}

	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*s = out
	return nil
}

// MarshalJSON emits [] rather than null so clients never see a missing list.
func (s StemList) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}

// FlashcardList applies the same string-or-array tolerance to flashcards.
type FlashcardList []Flashcard

func (l *FlashcardList) UnmarshalJSON(data []byte) error {
	data, err := unwrapJSONString(data)
	if err != nil {
		return err
	}
	if data == nil {
		*l = nil
		return nil
	}

	var out []Flashcard
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l FlashcardList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Flashcard(l))
}

// unwrapJSONString peels one layer of string encoding off a JSON value.
// Returns nil for JSON null and for blank strings.
func unwrapJSONString(data []byte) ([]byte, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	if data[0] != '"' {
		return data, nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	return []byte(raw), nil
}

// SaveCaseRequest is the JSON body for creating or fully replacing a case.
// Image references carried in flashcards are kept as-is; new binary uploads
// arrive as separate multipart file parts.
type SaveCaseRequest struct {
	Title      string        `json:"title"`
	Stems      StemList      `json:"stems"`
	Flashcards FlashcardList `json:"flashcards"`
}
