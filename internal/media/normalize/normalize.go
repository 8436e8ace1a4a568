package normalize

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"dogify/api/internal/media/sniffer"
)

const jpegQuality = 90

// ToJPEG re-encodes PNG payloads as JPEG so every stored object carries
// the same format, matching the `<id>.jpg` key scheme. JPEG payloads
// pass through untouched.
func ToJPEG(data []byte, detected sniffer.Result) ([]byte, sniffer.Result, error) {
	if detected.Type != sniffer.TypePNG {
		return data, detected, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, sniffer.Result{}, fmt.Errorf("decode png for re-encode: %w", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, sniffer.Result{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), sniffer.Result{Type: sniffer.TypeJPEG, MIME: "image/jpeg"}, nil
}

// Dimensions probes width and height without a full pixel decode.
// Zeroes mean the probe failed; callers store them as unknown.
func Dimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
