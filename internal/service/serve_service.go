package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"dogify/api/internal/ids"
	"dogify/api/internal/media/imageref"
	"dogify/api/internal/media/sniffer"
	"dogify/api/internal/repository"
)

// ServedImage is either a redirect to the object store (the current
// path) or decoded inline bytes (legacy rows). RedirectURL non-empty
// means the caller should redirect instead of streaming.
type ServedImage struct {
	RedirectURL  string
	Data         []byte
	MIME         string
	ETag         string
	LastModified time.Time
}

type ServeService struct {
	images ImageStore
	log    zerolog.Logger
}

func NewServeService(images ImageStore, log zerolog.Logger) *ServeService {
	return &ServeService{
		images: images,
		log:    log,
	}
}

func (s *ServeService) Serve(ctx context.Context, id string) (ServedImage, error) {
	// Syntax check first: malformed ids never reach the database.
	if !ids.IsImageID(id) {
		return ServedImage{}, ErrInvalidImageID
	}

	image, err := s.images.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) || errors.Is(err, ErrImageNotFound) {
			return ServedImage{}, ErrImageNotFound
		}
		return ServedImage{}, fmt.Errorf("lookup image %s: %w", id, err)
	}

	served := ServedImage{
		ETag:         fmt.Sprintf("%q", image.ID),
		LastModified: image.CreatedAt,
	}

	if image.Stored() {
		served.RedirectURL = *image.ImageURL
		served.MIME = sniffer.MIMEFor(image.Format)
		s.bumpShareCount(image.ID)
		return served, nil
	}

	if image.InlineData == nil || *image.InlineData == "" {
		return ServedImage{}, ErrCorruptData
	}

	data, _, err := imageref.DecodeStored(*image.InlineData)
	if err != nil {
		return ServedImage{}, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}

	detected, err := sniffer.Detect(data)
	if err != nil {
		return ServedImage{}, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}

	served.Data = data
	served.MIME = detected.MIME
	s.bumpShareCount(image.ID)
	return served, nil
}

// bumpShareCount is fire-and-forget: a serve never fails because the
// counter could not be written.
func (s *ServeService) bumpShareCount(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.images.IncrementShareCount(ctx, id); err != nil {
			s.log.Warn().Err(err).Str("image_id", id).Msg("share count update failed")
		}
	}()
}
