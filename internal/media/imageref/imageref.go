package imageref

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dogify/api/internal/media/sniffer"
)

// Kind identifies how an image reference was encoded. The set is closed:
// the three legacy kinds exist only in rows written before object storage
// and must never grow.
type Kind string

const (
	KindDataURL      Kind = "data_url"
	KindRemoteURL    Kind = "remote_url"
	KindLegacyHex    Kind = "legacy_hex"
	KindLegacyJSON   Kind = "legacy_json_buffer"
	KindLegacyBase64 Kind = "legacy_base64"
)

var (
	ErrMalformedDataURL  = errors.New("malformed data URL")
	ErrFetchTimeout      = errors.New("remote image fetch timed out")
	ErrUnsupportedFormat = errors.New("image reference matches no supported encoding")
)

// FetchFailedError reports a non-2xx response from a remote image URL.
type FetchFailedError struct {
	Status int
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("remote image fetch failed: HTTP %d", e.Status)
}

// Decoder turns an inbound image reference into raw bytes plus an
// untrusted MIME hint. Recognizers run in a fixed order, most specific
// first, because legacy rows carry no format tag.
type Decoder struct {
	client       *http.Client
	fetchTimeout time.Duration
	maxBytes     int64
}

func NewDecoder(client *http.Client, fetchTimeout time.Duration, maxBytes int64) *Decoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Decoder{
		client:       client,
		fetchTimeout: fetchTimeout,
		maxBytes:     maxBytes,
	}
}

func (d *Decoder) Decode(ctx context.Context, ref string) ([]byte, Kind, string, error) {
	switch {
	case strings.HasPrefix(ref, "data:"):
		data, mime, err := decodeDataURL(ref)
		return data, KindDataURL, mime, err

	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		data, mime, err := d.fetch(ctx, ref)
		return data, KindRemoteURL, mime, err
	}

	data, kind, err := DecodeStored(ref)
	return data, kind, "", err
}

// DecodeStored recognizes the historical inline storage dialects:
// hex-prefixed byte strings, JSON-serialized buffer objects (plain or
// themselves hex-encoded), and bare base64 as the last resort.
func DecodeStored(stored string) ([]byte, Kind, error) {
	if strings.HasPrefix(stored, `\x`) {
		raw, err := hex.DecodeString(stored[2:])
		if err == nil {
			if looksLikeBufferJSON(raw) {
				if data, jerr := decodeBufferJSON(raw); jerr == nil {
					return data, KindLegacyJSON, nil
				}
			}
			return raw, KindLegacyHex, nil
		}
	}

	if looksLikeBufferJSON([]byte(stored)) {
		if data, err := decodeBufferJSON([]byte(stored)); err == nil {
			return data, KindLegacyJSON, nil
		}
	}

	if data, err := base64.StdEncoding.DecodeString(stored); err == nil && len(data) > 0 {
		return data, KindLegacyBase64, nil
	}

	return nil, "", ErrUnsupportedFormat
}

func decodeDataURL(ref string) ([]byte, string, error) {
	comma := strings.IndexByte(ref, ',')
	if comma < 0 {
		return nil, "", ErrMalformedDataURL
	}

	header := ref[len("data:"):comma]
	mime := header
	if semi := strings.IndexByte(header, ';'); semi >= 0 {
		mime = header[:semi]
	}

	data, err := base64.StdEncoding.DecodeString(ref[comma+1:])
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrMalformedDataURL, err)
	}
	return data, mime, nil
}

func (d *Decoder) fetch(ctx context.Context, url string) ([]byte, string, error) {
	if d.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.fetchTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, "", ErrFetchTimeout
		}
		return nil, "", fmt.Errorf("remote image fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", &FetchFailedError{Status: resp.StatusCode}
	}

	reader := io.Reader(resp.Body)
	if d.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, d.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, "", ErrFetchTimeout
		}
		return nil, "", fmt.Errorf("read remote image body: %w", err)
	}
	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return nil, "", &sniffer.TooLargeError{Size: int64(len(data)), Max: d.maxBytes}
	}

	return data, resp.Header.Get("Content-Type"), nil
}

type bufferJSON struct {
	Type string `json:"type"`
	Data []int  `json:"data"`
}

func looksLikeBufferJSON(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && bytes.Contains(trimmed, []byte(`"type":"Buffer"`))
}

func decodeBufferJSON(raw []byte) ([]byte, error) {
	var buf bufferJSON
	if err := json.Unmarshal(raw, &buf); err != nil {
		return nil, fmt.Errorf("parse buffer json: %w", err)
	}
	if buf.Type != "Buffer" || buf.Data == nil {
		return nil, errors.New("not a serialized buffer object")
	}

	data := make([]byte, len(buf.Data))
	for i, v := range buf.Data {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("buffer json byte %d out of range: %d", i, v)
		}
		data[i] = byte(v)
	}
	return data, nil
}
