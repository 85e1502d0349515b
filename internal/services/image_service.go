package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"market/internal/models"
	"market/internal/repositories"
	"market/internal/uow"
)

// MediaStore keeps uploaded files. Save returns the stored name.
type MediaStore interface {
	Save(filename string, content io.Reader) (string, error)
	Open(name string) (afero.File, error)
	Remove(name string) error
}

// ImageService handles image uploads.
type ImageService struct {
	media MediaStore
}

// NewImageService creates a new ImageService.
func NewImageService(media MediaStore) *ImageService {
	return &ImageService{media: media}
}

// UploadImage stores the file and records it as a new image.
func (s *ImageService) UploadImage(ctx context.Context, unit uow.UnitOfWork, filename string, content io.Reader) (*models.Image, error) {
	stored, err := s.media.Save(filename, content)
	if err != nil {
		return nil, err
	}

	image := &models.Image{ID: uuid.New().String(), Image: stored}
	_, err = unit.Images().Add(ctx, image)
	if err == nil {
		err = unit.Commit(ctx)
	}
	if err != nil {
		if removeErr := s.media.Remove(stored); removeErr != nil {
			log.Printf("Error removing orphaned media file %s: %v", stored, removeErr)
		}
		return nil, err
	}
	return image, nil
}

// GetImage retrieves a single image by its ID.
func (s *ImageService) GetImage(ctx context.Context, unit uow.UnitOfWork, id string) (*models.Image, error) {
	return unit.Images().Get(ctx, id)
}

// OpenMedia opens a stored file for reading. The caller closes it.
func (s *ImageService) OpenMedia(name string) (afero.File, error) {
	file, err := s.media.Open(name)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("unable to find media file %s: %w", name, repositories.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open media file %s: %w", name, err)
	}
	return file, nil
}
