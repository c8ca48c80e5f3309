// Package codec implements the pixel-format conversion contract: bytes
// in, WebP bytes out, or an error the caller turns into a fallback.
package codec

import (
	"bytes"
	"fmt"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

type WebpConverter struct{}

func NewWebpConverter() *WebpConverter {
	return &WebpConverter{}
}

// Convert decodes data (jpeg, png, gif, bmp, tiff) and re-encodes it as
// lossy WebP at the given quality in [0,1].
func (c *WebpConverter) Convert(data []byte, quality float32) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: quality * 100}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
