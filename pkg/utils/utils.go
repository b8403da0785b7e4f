package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrEmptyImage     = errors.New("no image provided")
	ErrInvalidDataURL = errors.New("image is not a base64 data URL")
	ErrImageTooLarge  = errors.New("image size exceeds limit")
	ErrNotAnImage     = errors.New("data is not a supported image")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	DecodeImageDataURL(dataURL string) (*DecodedImage, error)
}

type DecodedImage struct {
	Data        []byte
	ContentType string
	Format      string
	Width       int
	Height      int
}

type utils struct {
	maxFileSize int64
}

func New() IUtils {
	return &utils{
		maxFileSize: 5 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// DecodeImageDataURL decodes a "data:image/...;base64," URL as produced by
// canvas.toDataURL and checks that the payload is a JPEG or PNG image.
func (u *utils) DecodeImageDataURL(dataURL string) (*DecodedImage, error) {
	if strings.TrimSpace(dataURL) == "" {
		return nil, ErrEmptyImage
	}

	header, payload, found := strings.Cut(dataURL, ",")
	if !found || !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
		return nil, ErrInvalidDataURL
	}

	if int64(base64.StdEncoding.DecodedLen(len(payload))) > u.maxFileSize {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidDataURL
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, ErrNotAnImage
	}

	return &DecodedImage{
		Data:        data,
		ContentType: strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"),
		Format:      format,
		Width:       cfg.Width,
		Height:      cfg.Height,
	}, nil
}
