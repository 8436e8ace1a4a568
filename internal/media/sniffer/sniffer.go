package sniffer

import (
	"errors"
	"fmt"
)

// The pipeline accepts exactly two formats. Claimed content types are
// never trusted; only the leading magic bytes decide.
type MediaType string

const (
	TypeJPEG MediaType = "jpeg"
	TypePNG  MediaType = "png"
)

var (
	ErrEmptyPayload       = errors.New("empty image payload")
	ErrInvalidImageHeader = errors.New("payload is not a JPEG or PNG image")
)

// TooLargeError reports a payload over the configured ceiling.
type TooLargeError struct {
	Size int64
	Max  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("image size %dKB exceeds %dKB limit", e.Size/1024, e.Max/1024)
}

type Result struct {
	Type MediaType
	MIME string
}

func Detect(data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyPayload
	}
	if isJPEG(data) {
		return Result{Type: TypeJPEG, MIME: "image/jpeg"}, nil
	}
	if isPNG(data) {
		return Result{Type: TypePNG, MIME: "image/png"}, nil
	}
	return Result{}, ErrInvalidImageHeader
}

// Validate enforces the size ceiling and magic-byte check in one pass.
func Validate(data []byte, maxBytes int64) (Result, error) {
	if len(data) == 0 {
		return Result{}, ErrEmptyPayload
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Result{}, &TooLargeError{Size: int64(len(data)), Max: maxBytes}
	}
	return Detect(data)
}

func isJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xff && data[1] == 0xd8
}

func isPNG(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G'
}

// MIMEFor maps a stored format name to its content type, defaulting to
// JPEG the way legacy rows did.
func MIMEFor(format string) string {
	if format == string(TypePNG) {
		return "image/png"
	}
	return "image/jpeg"
}
