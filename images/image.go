package images

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// MaxSize is the largest decoded image accepted
const MaxSize = 5 << 20

var ErrInvalidImage = errors.New("invalid image")

// Image is a decoded upload
type Image struct {
	ContentType string
	Data        []byte
}

// Store persists an account image and returns the reference saved on the account
type Store interface {
	Put(ctx context.Context, accountID string, img *Image) (string, error)
}

// Decode parses a "data:image/...;base64," URI or a bare base64 image
func Decode(photo string) (*Image, error) {
	photo = strings.TrimSpace(photo)
	if photo == "" {
		return nil, ErrInvalidImage
	}

	declared := ""
	payload := photo
	if strings.HasPrefix(photo, "data:") {
		meta, data, ok := strings.Cut(strings.TrimPrefix(photo, "data:"), ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return nil, ErrInvalidImage
		}
		declared = strings.TrimSuffix(meta, ";base64")
		payload = data
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxSize+3 {
		return nil, ErrInvalidImage
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 || len(data) > MaxSize {
		return nil, ErrInvalidImage
	}

	detected := http.DetectContentType(data)
	if !strings.HasPrefix(detected, "image/") {
		return nil, ErrInvalidImage
	}
	if declared != "" && declared != detected {
		return nil, ErrInvalidImage
	}

	return &Image{ContentType: detected, Data: data}, nil
}

// DataURI renders img as a base64 data URI
func (img *Image) DataURI() string {
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// Extension returns a file extension for the image content type
func (img *Image) Extension() string {
	switch img.ContentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return ""
}

// Inline keeps images on the account record as data URIs
type Inline struct{}

func (Inline) Put(_ context.Context, _ string, img *Image) (string, error) {
	return img.DataURI(), nil
}
