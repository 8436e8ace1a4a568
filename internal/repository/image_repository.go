package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dogify/api/internal/models"
)

var ErrImageNotFound = errors.New("image not found")

type ImageRepository struct {
	pool         *pgxpool.Pool
	writeTimeout time.Duration
}

func NewImageRepository(pool *pgxpool.Pool, writeTimeout time.Duration) *ImageRepository {
	return &ImageRepository{
		pool:         pool,
		writeTimeout: writeTimeout,
	}
}

func (r *ImageRepository) Create(ctx context.Context, image models.Image) error {
	if r.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.writeTimeout)
		defer cancel()
	}

	const query = `
		INSERT INTO dogify_images (
			id, image_url, storage_path, image_data, image_format, image_size,
			width, height, scene_analysis, generation_prompt, model_used,
			generation_time_seconds, user_session, user_agent, ip_address,
			share_count, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15,
			0, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		image.ID,
		image.ImageURL,
		image.StoragePath,
		image.InlineData,
		image.Format,
		image.SizeBytes,
		image.Width,
		image.Height,
		image.SceneAnalysis,
		image.GenerationPrompt,
		image.ModelUsed,
		image.GenerationTimeSeconds,
		image.UserSession,
		image.UserAgent,
		image.IPAddress,
	)
	return err
}

const imageColumns = `
	id, image_url, storage_path, image_data, image_format, image_size,
	width, height, scene_analysis, generation_prompt, model_used,
	generation_time_seconds, user_session, user_agent, ip_address,
	share_count, last_shared_at, created_at
`

func scanImage(row pgx.Row) (models.Image, error) {
	var image models.Image
	err := row.Scan(
		&image.ID,
		&image.ImageURL,
		&image.StoragePath,
		&image.InlineData,
		&image.Format,
		&image.SizeBytes,
		&image.Width,
		&image.Height,
		&image.SceneAnalysis,
		&image.GenerationPrompt,
		&image.ModelUsed,
		&image.GenerationTimeSeconds,
		&image.UserSession,
		&image.UserAgent,
		&image.IPAddress,
		&image.ShareCount,
		&image.LastSharedAt,
		&image.CreatedAt,
	)
	return image, err
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (models.Image, error) {
	const query = `SELECT ` + imageColumns + ` FROM dogify_images WHERE id = $1`

	image, err := scanImage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, ErrImageNotFound
		}
		return models.Image{}, err
	}
	return image, nil
}

func (r *ImageRepository) GetShareMeta(ctx context.Context, id string) (models.ShareMeta, error) {
	const query = `
		SELECT id, created_at, scene_analysis, generation_prompt, model_used
		FROM dogify_images WHERE id = $1
	`

	var meta models.ShareMeta
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&meta.ID,
		&meta.CreatedAt,
		&meta.SceneAnalysis,
		&meta.GenerationPrompt,
		&meta.ModelUsed,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ShareMeta{}, ErrImageNotFound
		}
		return models.ShareMeta{}, err
	}
	return meta, nil
}

// IncrementShareCount is best-effort bookkeeping; lost updates under
// concurrent serves are acceptable, so no row lock is taken.
func (r *ImageRepository) IncrementShareCount(ctx context.Context, id string) error {
	if r.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.writeTimeout)
		defer cancel()
	}

	const query = `
		UPDATE dogify_images
		SET share_count = share_count + 1,
		    last_shared_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *ImageRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.Image, error) {
	const query = `
		SELECT ` + imageColumns + `
		FROM dogify_images
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}
