package services

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"casedeck-backend/internal/models"
	"casedeck-backend/internal/storage"
)

// CaseRepository is the persistence boundary the service needs. Satisfied by
// repository.CaseRepo; faked in tests.
type CaseRepository interface {
	Create(ctx context.Context, c *models.Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Case, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Case, error)
	Update(ctx context.Context, c *models.Case) (bool, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// ImageUpload is a newly selected binary image for one flashcard side.
type ImageUpload struct {
	Filename string
	Data     io.Reader
}

// FlashcardDraft is one flashcard as collected from the editor. An image
// side resolves with priority: new upload, then the carried-over existing
// reference, then nothing.
type FlashcardDraft struct {
	Front              string
	Back               string
	ExistingFrontImage *string
	ExistingBackImage  *string
	NewFrontImage      *ImageUpload
	NewBackImage       *ImageUpload
}

// CaseDraft is the raw form input for creating or replacing a case.
type CaseDraft struct {
	Title      string
	Stems      []string
	Flashcards []FlashcardDraft
}

type CaseService struct {
	cases  CaseRepository
	images storage.ImageStore
	notify Notifier
}

func NewCaseService(cases CaseRepository, images storage.ImageStore, notify Notifier) *CaseService {
	return &CaseService{cases: cases, images: images, notify: notify}
}

// Create validates and persists a new case. Validation failures happen
// before any repository or storage call; a failed image upload degrades
// that single side to nil instead of failing the save.
func (s *CaseService) Create(ctx context.Context, userID uuid.UUID, draft CaseDraft) (*models.Case, error) {
	c, err := s.buildCase(ctx, userID, draft)
	if err != nil {
		return nil, err
	}

	if err := s.cases.Create(ctx, c); err != nil {
		return nil, err
	}

	s.notify.PublishCaseEvent(ctx, userID, "case.created", c.ID)
	return c, nil
}

// Update fully replaces title, stems and flashcards of an existing case.
// There is no partial merge; the draft is the new truth. Images referenced
// by the old version but not the new one are queued for cleanup.
func (s *CaseService) Update(ctx context.Context, userID, id uuid.UUID, draft CaseDraft) (*models.Case, error) {
	existing, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	c, err := s.buildCase(ctx, userID, draft)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.CreatedAt = existing.CreatedAt

	matched, err := s.cases.Update(ctx, c)
	if err != nil {
		return nil, err
	}
	if !matched {
		// Deleted between the read and the write.
		return nil, &NotFoundError{Message: "Case not found"}
	}

	s.notify.EnqueueImageCleanup(ctx, orphanedRefs(existing.Flashcards, c.Flashcards))
	s.notify.PublishCaseEvent(ctx, userID, "case.updated", c.ID)
	return c, nil
}

// Delete removes a case by id. Deleting an id that no longer exists is not
// an error. The case's stored images are queued for cleanup.
func (s *CaseService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	existing, err := s.cases.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		// Someone else's case; behave as if it never existed.
		return nil
	}

	if err := s.cases.Delete(ctx, id, userID); err != nil {
		return err
	}

	s.notify.EnqueueImageCleanup(ctx, orphanedRefs(existing.Flashcards, nil))
	s.notify.PublishCaseEvent(ctx, userID, "case.deleted", id)
	return nil
}

// List returns the user's cases ascending by creation time. Fails soft: a
// repository error is logged and an empty list returned, so an empty result
// is ambiguous between "no cases" and "fetch failed". Destructive flows
// must not treat it as confirmed absence.
func (s *CaseService) List(ctx context.Context, userID uuid.UUID) []models.Case {
	cases, err := s.cases.ListByUser(ctx, userID)
	if err != nil {
		log.Printf("Failed to list cases for user %s: %v", userID, err)
		return []models.Case{}
	}
	if cases == nil {
		cases = []models.Case{}
	}
	return cases
}

func (s *CaseService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Case, error) {
	return s.getOwned(ctx, userID, id)
}

func (s *CaseService) getOwned(ctx context.Context, userID, id uuid.UUID) (*models.Case, error) {
	c, err := s.cases.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "Case not found"}
	}
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, &NotFoundError{Message: "Case not found"}
	}
	return c, nil
}

// buildCase applies the construction rules: trimmed non-empty title, blank
// stems filtered out in order, images resolved per flashcard front before
// back. No id or timestamp yet; the repository assigns those.
func (s *CaseService) buildCase(ctx context.Context, userID uuid.UUID, draft CaseDraft) (*models.Case, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, &ValidationError{Fields: map[string]string{"title": "Title is required"}}
	}

	stems := make(models.StemList, 0, len(draft.Stems))
	for _, stem := range draft.Stems {
		if trimmed := strings.TrimSpace(stem); trimmed != "" {
			stems = append(stems, trimmed)
		}
	}

	cards := make(models.FlashcardList, 0, len(draft.Flashcards))
	for i, fd := range draft.Flashcards {
		// Front resolves before back, sequentially; each side fails alone.
		front := s.resolveImage(ctx, i, "front", fd.NewFrontImage, fd.ExistingFrontImage)
		back := s.resolveImage(ctx, i, "back", fd.NewBackImage, fd.ExistingBackImage)

		cards = append(cards, models.Flashcard{
			Front:      fd.Front,
			Back:       fd.Back,
			FrontImage: front,
			BackImage:  back,
		})
	}

	return &models.Case{
		UserID:     userID,
		Title:      title,
		Stems:      stems,
		Flashcards: cards,
	}, nil
}

func (s *CaseService) resolveImage(ctx context.Context, index int, side string, upload *ImageUpload, existing *string) *string {
	if upload == nil {
		return existing
	}

	ref, err := s.images.Save(ctx, upload.Filename, upload.Data)
	if err != nil {
		log.Printf("Image upload failed for flashcard %d (%s): %v", index, side, err)
		return nil
	}
	return &ref
}

// orphanedRefs returns image references present in old but absent from new.
func orphanedRefs(old, new models.FlashcardList) []string {
	kept := map[string]bool{}
	for _, fc := range new {
		if fc.FrontImage != nil {
			kept[*fc.FrontImage] = true
		}
		if fc.BackImage != nil {
			kept[*fc.BackImage] = true
		}
	}

	var orphans []string
	seen := map[string]bool{}
	for _, fc := range old {
		for _, ref := range []*string{fc.FrontImage, fc.BackImage} {
			if ref != nil && !kept[*ref] && !seen[*ref] {
				orphans = append(orphans, *ref)
				seen[*ref] = true
			}
		}
	}
	return orphans
}
