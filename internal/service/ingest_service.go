package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dogify/api/internal/config"
	"dogify/api/internal/ids"
	"dogify/api/internal/jobs"
	"dogify/api/internal/media/imageref"
	"dogify/api/internal/media/normalize"
	"dogify/api/internal/media/sniffer"
	"dogify/api/internal/models"
	"dogify/api/internal/storage"
)

// ImageStore is the metadata persistence seam; the pgx repository is the
// production implementation.
type ImageStore interface {
	Create(ctx context.Context, image models.Image) error
	GetByID(ctx context.Context, id string) (models.Image, error)
	GetShareMeta(ctx context.Context, id string) (models.ShareMeta, error)
	IncrementShareCount(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit, offset int) ([]models.Image, error)
}

type IngestInput struct {
	ImageData             string
	SceneAnalysis         *string
	GenerationPrompt      *string
	ModelUsed             *string
	GenerationTimeSeconds *float64
	UserSession           *string
	UserAgent             *string
	IPAddress             *string
}

type IngestResult struct {
	ID   string
	URL  string
	Size int64
}

// IngestService runs decode -> validate -> normalize -> upload -> insert
// as one best-effort-atomic operation. A nil object store switches to
// inline persistence, which exists for deployments without a bucket.
type IngestService struct {
	decoder *imageref.Decoder
	store   storage.ObjectStore
	images  ImageStore
	orphans *jobs.OrphanQueue
	cfg     *config.AppConfig
	log     zerolog.Logger
}

func NewIngestService(decoder *imageref.Decoder, store storage.ObjectStore, images ImageStore, orphans *jobs.OrphanQueue, cfg *config.AppConfig, log zerolog.Logger) *IngestService {
	return &IngestService{
		decoder: decoder,
		store:   store,
		images:  images,
		orphans: orphans,
		cfg:     cfg,
		log:     log,
	}
}

func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (IngestResult, error) {
	data, _, _, err := s.decoder.Decode(ctx, input.ImageData)
	if err != nil {
		var tooLarge *sniffer.TooLargeError
		if errors.As(err, &tooLarge) {
			return IngestResult{}, ingestErr(StageValidation, err)
		}
		return IngestResult{}, ingestErr(StageDecode, err)
	}

	detected, err := sniffer.Validate(data, s.cfg.Image.MaxBytes)
	if err != nil {
		return IngestResult{}, ingestErr(StageValidation, err)
	}

	if s.cfg.Image.NormalizeJPEG {
		data, detected, err = normalize.ToJPEG(data, detected)
		if err != nil {
			return IngestResult{}, ingestErr(StageValidation, err)
		}
	}
	width, height := normalize.Dimensions(data)

	// The id is minted exactly once, before any persistence step, and is
	// the only external handle for the image from here on.
	imageID := ids.NewImageID()

	image := models.Image{
		ID:                    imageID,
		Format:                string(detected.Type),
		SizeBytes:             int64(len(data)),
		Width:                 width,
		Height:                height,
		SceneAnalysis:         input.SceneAnalysis,
		GenerationPrompt:      input.GenerationPrompt,
		ModelUsed:             input.ModelUsed,
		GenerationTimeSeconds: input.GenerationTimeSeconds,
		UserSession:           input.UserSession,
		UserAgent:             input.UserAgent,
		IPAddress:             input.IPAddress,
	}

	if s.store == nil {
		return s.ingestInline(ctx, image, data)
	}

	key := storage.ObjectKey(imageID, image.Format)
	publicURL, err := s.store.Upload(ctx, key, data, detected.MIME)
	if err != nil {
		return IngestResult{}, ingestErr(StageStorage, fmt.Errorf("upload %s: %w", key, err))
	}

	image.ImageURL = &publicURL
	image.StoragePath = &key

	if err := s.images.Create(ctx, image); err != nil {
		s.compensate(key)
		return IngestResult{}, ingestErr(StageMetadata, fmt.Errorf("save metadata: %w", err))
	}

	s.log.Info().
		Str("image_id", imageID).
		Str("url", publicURL).
		Int64("size_bytes", image.SizeBytes).
		Msg("image ingested")

	return IngestResult{ID: imageID, URL: publicURL, Size: image.SizeBytes}, nil
}

func (s *IngestService) ingestInline(ctx context.Context, image models.Image, data []byte) (IngestResult, error) {
	encoded := base64.StdEncoding.EncodeToString(data)
	image.InlineData = &encoded

	if err := s.images.Create(ctx, image); err != nil {
		return IngestResult{}, ingestErr(StageMetadata, fmt.Errorf("save inline metadata: %w", err))
	}

	url := fmt.Sprintf("%s/api/v1/images/%s", strings.TrimSuffix(s.cfg.Share.SiteBaseURL, "/"), image.ID)

	s.log.Info().
		Str("image_id", image.ID).
		Int64("size_bytes", image.SizeBytes).
		Msg("image ingested inline")

	return IngestResult{ID: image.ID, URL: url, Size: image.SizeBytes}, nil
}

// compensate tries to delete the uploaded object after a failed metadata
// insert. Failure here leaves an orphan blob, which is queued for the
// sweeper when possible and otherwise just logged.
func (s *IngestService) compensate(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.store.Remove(ctx, key)
	if err == nil {
		return
	}
	s.log.Error().Err(err).Str("key", key).Msg("compensating remove failed")

	if err := s.orphans.Enqueue(ctx, key); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("orphan enqueue failed, blob leaked")
	}
}
