package images

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func TestDecode(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes)

	tests := []struct {
		name    string
		photo   string
		wantErr bool
	}{
		{"data uri", "data:image/png;base64," + encoded, false},
		{"bare base64", encoded, false},
		{"padded with spaces", "  " + encoded + "\n", false},
		{"empty", "", true},
		{"not base64", "data:image/png;base64,@@@", true},
		{"missing base64 marker", "data:image/png," + encoded, true},
		{"declared type mismatch", "data:image/jpeg;base64," + encoded, true},
		{"not an image", base64.StdEncoding.EncodeToString([]byte("hello world")), true},
		{"too large", base64.StdEncoding.EncodeToString(append(pngBytes, make([]byte, MaxSize)...)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.photo)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidImage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "image/png", img.ContentType)
			assert.Equal(t, pngBytes, img.Data)
			assert.Equal(t, ".png", img.Extension())
		})
	}
}

func TestInline_Put(t *testing.T) {
	img := &Image{ContentType: "image/png", Data: pngBytes}

	ref, err := Inline{}.Put(context.Background(), "acc-1", img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "data:image/png;base64,"))

	back, err := Decode(ref)
	require.NoError(t, err)
	assert.Equal(t, img.Data, back.Data)
}
