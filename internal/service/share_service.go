package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"dogify/api/internal/ids"
	"dogify/api/internal/models"
	"dogify/api/internal/repository"
)

const shareMetaTTL = time.Hour

// ShareService resolves the minimal metadata the share landing page
// renders. Lookups are cached in redis when available; the cache is
// best-effort on both read and write.
type ShareService struct {
	images ImageStore
	cache  *redis.Client
	log    zerolog.Logger
}

func NewShareService(images ImageStore, cache *redis.Client, log zerolog.Logger) *ShareService {
	return &ShareService{
		images: images,
		cache:  cache,
		log:    log,
	}
}

func (s *ShareService) Meta(ctx context.Context, id string) (models.ShareMeta, error) {
	if !ids.IsImageID(id) {
		return models.ShareMeta{}, ErrInvalidImageID
	}

	cacheKey := "share:meta:" + id
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey).Bytes(); err == nil {
			var meta models.ShareMeta
			if err := json.Unmarshal(raw, &meta); err == nil {
				return meta, nil
			}
		}
	}

	meta, err := s.images.GetShareMeta(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrImageNotFound) || errors.Is(err, ErrImageNotFound) {
			return models.ShareMeta{}, ErrImageNotFound
		}
		return models.ShareMeta{}, fmt.Errorf("share meta %s: %w", id, err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(meta); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, shareMetaTTL).Err(); err != nil {
				s.log.Debug().Err(err).Str("image_id", id).Msg("share meta cache write failed")
			}
		}
	}

	return meta, nil
}
