package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"dogify/api/internal/config"
	"dogify/api/internal/models"
	"dogify/api/internal/repository"
)

type fakeObjectStore struct {
	mu          sync.Mutex
	objects     map[string][]byte
	uploadCalls []string
	removeCalls []string
	failUpload  bool
	failRemove  bool
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls = append(f.uploadCalls, key)
	if f.failUpload {
		return "", errors.New("upload refused")
	}
	f.objects[key] = append([]byte(nil), data...)
	return f.PublicURL(key), nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	return "https://cdn.example/dogify-bucket/" + key
}

func (f *fakeObjectStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls = append(f.removeCalls, key)
	if f.failRemove {
		return errors.New("remove refused")
	}
	delete(f.objects, key)
	return nil
}

type fakeImageStore struct {
	mu         sync.Mutex
	rows       map[string]models.Image
	getCalls   int
	failCreate bool
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{rows: make(map[string]models.Image)}
}

func (f *fakeImageStore) Create(_ context.Context, image models.Image) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("insert refused")
	}
	image.CreatedAt = time.Now().UTC()
	f.rows[image.ID] = image
	return nil
}

func (f *fakeImageStore) GetByID(_ context.Context, id string) (models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	image, ok := f.rows[id]
	if !ok {
		return models.Image{}, repository.ErrImageNotFound
	}
	return image, nil
}

func (f *fakeImageStore) GetShareMeta(_ context.Context, id string) (models.ShareMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	image, ok := f.rows[id]
	if !ok {
		return models.ShareMeta{}, repository.ErrImageNotFound
	}
	return models.ShareMeta{
		ID:               image.ID,
		CreatedAt:        image.CreatedAt,
		SceneAnalysis:    image.SceneAnalysis,
		GenerationPrompt: image.GenerationPrompt,
		ModelUsed:        image.ModelUsed,
	}, nil
}

func (f *fakeImageStore) IncrementShareCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	image, ok := f.rows[id]
	if !ok {
		return repository.ErrImageNotFound
	}
	image.ShareCount++
	f.rows[id] = image
	return nil
}

func (f *fakeImageStore) ListRecent(_ context.Context, limit, offset int) ([]models.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	images := make([]models.Image, 0, len(f.rows))
	for _, image := range f.rows {
		images = append(images, image)
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].CreatedAt.After(images[j].CreatedAt)
	})
	if offset >= len(images) {
		return nil, nil
	}
	images = images[offset:]
	if limit < len(images) {
		images = images[:limit]
	}
	return images, nil
}

func (f *fakeImageStore) shareCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].ShareCount
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Environment: "test",
		Image: config.ImageConfig{
			MaxBytes:      1536 * 1024,
			FetchTimeout:  time.Second,
			NormalizeJPEG: false,
		},
		Share: config.ShareConfig{
			SiteBaseURL: "https://dogify.example",
		},
	}
}
