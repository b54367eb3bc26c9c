package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestConvertThumbnail(t *testing.T) {
	src := testPNG(t, 64, 48)

	t.Run("png passes through", func(t *testing.T) {
		for _, format := range []string{"", ThumbnailPNG} {
			out, contentType, err := ConvertThumbnail(src, format)
			require.NoError(t, err)
			assert.Equal(t, "image/png", contentType)
			assert.Equal(t, src, out)
		}
	})

	t.Run("webp", func(t *testing.T) {
		out, contentType, err := ConvertThumbnail(src, ThumbnailWebP)
		require.NoError(t, err)
		assert.Equal(t, "image/webp", contentType)

		img, err := webp.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
		assert.Equal(t, 48, img.Bounds().Dy())
	})

	t.Run("unknown format", func(t *testing.T) {
		_, _, err := ConvertThumbnail(src, "gif")
		assert.ErrorIs(t, err, ErrUnknownThumbnailFormat)
	})

	t.Run("corrupt input", func(t *testing.T) {
		_, _, err := ConvertThumbnail([]byte("not a png"), ThumbnailWebP)
		assert.Error(t, err)
	})
}
