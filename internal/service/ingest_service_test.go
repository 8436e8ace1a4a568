package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dogify/api/internal/ids"
	"dogify/api/internal/media/imageref"
	"dogify/api/internal/media/sniffer"
)

var jpegPayload = append([]byte{0xff, 0xd8, 0xff, 0xe0}, []byte("jpeg body bytes")...)

func dataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func newTestIngest(store *fakeObjectStore, images *fakeImageStore, tweak func(*IngestService)) *IngestService {
	cfg := testConfig()
	decoder := imageref.NewDecoder(nil, cfg.Image.FetchTimeout, cfg.Image.MaxBytes)

	var svc *IngestService
	if store != nil {
		svc = NewIngestService(decoder, store, images, nil, cfg, zerolog.Nop())
	} else {
		svc = NewIngestService(decoder, nil, images, nil, cfg, zerolog.Nop())
	}
	if tweak != nil {
		tweak(svc)
	}
	return svc
}

func TestIngestStoredRoundTrip(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc := newTestIngest(store, images, nil)

	result, err := svc.Ingest(context.Background(), IngestInput{ImageData: dataURL("image/jpeg", jpegPayload)})
	require.NoError(t, err)

	assert.True(t, ids.IsImageID(result.ID))
	assert.Equal(t, int64(len(jpegPayload)), result.Size)
	assert.Equal(t, "https://cdn.example/dogify-bucket/"+result.ID+".jpg", result.URL)

	// uploaded bytes are byte-identical to the decoded input
	assert.Equal(t, jpegPayload, store.objects[result.ID+".jpg"])

	// serving resolves to a redirect at the stored URL
	serve := NewServeService(images, zerolog.Nop())
	served, err := serve.Serve(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, result.URL, served.RedirectURL)
	assert.Equal(t, "image/jpeg", served.MIME)
}

func TestIngestInlineRoundTrip(t *testing.T) {
	images := newFakeImageStore()
	svc := newTestIngest(nil, images, nil)

	result, err := svc.Ingest(context.Background(), IngestInput{ImageData: dataURL("image/jpeg", jpegPayload)})
	require.NoError(t, err)
	assert.Equal(t, "https://dogify.example/api/v1/images/"+result.ID, result.URL)

	serve := NewServeService(images, zerolog.Nop())
	served, err := serve.Serve(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Empty(t, served.RedirectURL)
	assert.Equal(t, jpegPayload, served.Data)
	assert.Equal(t, "image/jpeg", served.MIME)
	assert.Equal(t, `"`+result.ID+`"`, served.ETag)
}

func TestIngestTooLargeSkipsStorage(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc := newTestIngest(store, images, nil)

	big := append([]byte{0xff, 0xd8, 0xff, 0xe0}, make([]byte, 2*1024*1024)...)
	_, err := svc.Ingest(context.Background(), IngestInput{ImageData: dataURL("image/jpeg", big)})

	var tooLarge *sniffer.TooLargeError
	require.True(t, errors.As(err, &tooLarge))

	var stage *IngestError
	require.True(t, errors.As(err, &stage))
	assert.Equal(t, StageValidation, stage.Stage)

	assert.Empty(t, store.uploadCalls)
	assert.Empty(t, images.rows)
}

func TestIngestRejectsNonImagePayload(t *testing.T) {
	store := newFakeObjectStore()
	svc := newTestIngest(store, newFakeImageStore(), nil)

	_, err := svc.Ingest(context.Background(), IngestInput{ImageData: dataURL("text/plain", []byte("hello"))})

	var stage *IngestError
	require.True(t, errors.As(err, &stage))
	assert.Equal(t, StageValidation, stage.Stage)
	assert.ErrorIs(t, err, sniffer.ErrInvalidImageHeader)
	assert.Empty(t, store.uploadCalls)
}

func TestIngestRejectsUndecodableReference(t *testing.T) {
	svc := newTestIngest(newFakeObjectStore(), newFakeImageStore(), nil)

	_, err := svc.Ingest(context.Background(), IngestInput{ImageData: "!!! nonsense !!!"})

	var stage *IngestError
	require.True(t, errors.As(err, &stage))
	assert.Equal(t, StageDecode, stage.Stage)
}

func TestIngestCompensatesOnMetadataFailure(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	images.failCreate = true
	svc := newTestIngest(store, images, nil)

	_, err := svc.Ingest(context.Background(), IngestInput{ImageData: dataURL("image/jpeg", jpegPayload)})

	var stage *IngestError
	require.True(t, errors.As(err, &stage))
	assert.Equal(t, StageMetadata, stage.Stage)

	require.Len(t, store.uploadCalls, 1)
	require.Len(t, store.removeCalls, 1)
	assert.Equal(t, store.uploadCalls[0], store.removeCalls[0])
	assert.Empty(t, store.objects, "uploaded blob should be compensated away")
}

func TestIngestStorageFailureWritesNoMetadata(t *testing.T) {
	store := newFakeObjectStore()
	store.failUpload = true
	images := newFakeImageStore()
	svc := newTestIngest(store, images, nil)

	_, err := svc.Ingest(context.Background(), IngestInput{ImageData: dataURL("image/jpeg", jpegPayload)})

	var stage *IngestError
	require.True(t, errors.As(err, &stage))
	assert.Equal(t, StageStorage, stage.Stage)
	assert.Empty(t, images.rows)
}

func TestIngestNormalizesPNG(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc := newTestIngest(store, images, func(s *IngestService) {
		s.cfg.Image.NormalizeJPEG = true
	})

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	result, err := svc.Ingest(context.Background(), IngestInput{ImageData: dataURL("image/png", buf.Bytes())})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(result.URL, ".jpg"))
	stored := store.objects[result.ID+".jpg"]
	require.NotEmpty(t, stored)
	detected, err := sniffer.Detect(stored)
	require.NoError(t, err)
	assert.Equal(t, sniffer.TypeJPEG, detected.Type)

	row := images.rows[result.ID]
	assert.Equal(t, "jpeg", row.Format)
	assert.Equal(t, 4, row.Width)
	assert.Equal(t, 4, row.Height)
}

func TestConcurrentIngestDistinctIDs(t *testing.T) {
	store := newFakeObjectStore()
	images := newFakeImageStore()
	svc := newTestIngest(store, images, nil)

	const n = 1000
	idsCh := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := svc.Ingest(context.Background(), IngestInput{ImageData: dataURL("image/jpeg", jpegPayload)})
			if err == nil {
				idsCh <- result.ID
			}
		}()
	}
	wg.Wait()
	close(idsCh)

	seen := make(map[string]struct{}, n)
	for id := range idsCh {
		seen[id] = struct{}{}
	}
	require.Len(t, seen, n, "every ingest must mint a distinct id")

	serve := NewServeService(images, zerolog.Nop())
	for id := range seen {
		_, err := serve.Serve(context.Background(), id)
		require.NoError(t, err)
	}
}

func TestIngestRemoteFetchTimeoutIsDecodeError(t *testing.T) {
	svc := newTestIngest(newFakeObjectStore(), newFakeImageStore(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	// Unroutable address: the bounded context fails the fetch.
	_, err := svc.Ingest(ctx, IngestInput{ImageData: "http://10.255.255.1:9/image.jpg"})

	var stage *IngestError
	require.True(t, errors.As(err, &stage))
	assert.Equal(t, StageDecode, stage.Stage)
}
