package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const imagesSubdir = "images"

// LocalStore writes images under <basePath>/images and exposes them as
// <publicBaseURL>/media/images/<name>. Stored names are nanoid-based, not
// time-based, so two uploads in the same instant cannot collide.
type LocalStore struct {
	basePath      string
	publicBaseURL string
}

func NewLocalStore(basePath, publicBaseURL string) (*LocalStore, error) {
	dir := filepath.Join(basePath, imagesSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{
		basePath:      basePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// ImagesDir is the directory the router serves at /media/images.
func (s *LocalStore) ImagesDir() string {
	return filepath.Join(s.basePath, imagesSubdir)
}

func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("failed to generate image id: %w", err)
	}
	name := "flashcard-" + id + sanitizeExt(filename)

	path := filepath.Join(s.ImagesDir(), name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	return s.publicBaseURL + "/media/" + imagesSubdir + "/" + name, nil
}

func (s *LocalStore) Remove(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !s.Owns(ref) {
		return nil
	}

	name := filepath.Base(ref)
	// Base of a URL should already be a bare name; reject anything else.
	if name == "." || name == "/" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid image reference: %q", ref)
	}

	err := os.Remove(filepath.Join(s.ImagesDir(), name))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalStore) Owns(ref string) bool {
	return strings.HasPrefix(ref, s.publicBaseURL+"/media/"+imagesSubdir+"/")
}

// sanitizeExt keeps a plausible file extension and drops everything else.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
