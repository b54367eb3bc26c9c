package media

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"github.com/chai2010/webp"
)

// Thumbnail formats.
const (
	ThumbnailPNG  = "png"
	ThumbnailWebP = "webp"
)

// DefaultWebPQuality is the lossy quality used for WebP thumbnails.
const DefaultWebPQuality = 80

// ErrUnknownThumbnailFormat is returned for a format other than png or webp.
var ErrUnknownThumbnailFormat = errors.New("media: unknown thumbnail format")

// ConvertThumbnail re-encodes a PNG thumbnail into format and returns the
// bytes with their content type. PNG input is passed through.
func ConvertThumbnail(pngData []byte, format string) ([]byte, string, error) {
	switch format {
	case "", ThumbnailPNG:
		return pngData, "image/png", nil
	case ThumbnailWebP:
		img, err := png.Decode(bytes.NewReader(pngData))
		if err != nil {
			return nil, "", fmt.Errorf("decode thumbnail: %w", err)
		}
		var buf bytes.Buffer
		if err := webp.Encode(&buf, img, &webp.Options{Quality: DefaultWebPQuality}); err != nil {
			return nil, "", fmt.Errorf("encode webp: %w", err)
		}
		return buf.Bytes(), "image/webp", nil
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownThumbnailFormat, format)
	}
}
