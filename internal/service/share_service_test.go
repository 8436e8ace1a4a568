package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogify/api/internal/ids"
	"dogify/api/internal/models"
)

func TestShareMeta(t *testing.T) {
	images := newFakeImageStore()
	svc := NewShareService(images, nil, zerolog.Nop())

	model := "venice-sd35"
	analysis := "a sunny park"
	id := ids.NewImageID()
	images.rows[id] = models.Image{
		ID:            id,
		Format:        "jpeg",
		ModelUsed:     &model,
		SceneAnalysis: &analysis,
		CreatedAt:     time.Now().UTC(),
	}

	meta, err := svc.Meta(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, meta.ID)
	assert.Equal(t, &model, meta.ModelUsed)
	assert.Equal(t, &analysis, meta.SceneAnalysis)
}

func TestShareMetaInvalidID(t *testing.T) {
	svc := NewShareService(newFakeImageStore(), nil, zerolog.Nop())

	_, err := svc.Meta(context.Background(), "../../etc/passwd")
	assert.ErrorIs(t, err, ErrInvalidImageID)
}

func TestShareMetaNotFound(t *testing.T) {
	svc := NewShareService(newFakeImageStore(), nil, zerolog.Nop())

	_, err := svc.Meta(context.Background(), ids.NewImageID())
	assert.ErrorIs(t, err, ErrImageNotFound)
}
