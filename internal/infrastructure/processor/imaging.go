package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	_defaultJPEGQuality = 90
)

type ImageProcessor struct {
	jpegQuality int
}

func New(opts ...Option) *ImageProcessor {
	p := &ImageProcessor{
		jpegQuality: _defaultJPEGQuality,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Convert decodes data (any format imaging understands) and encodes it as extension.
// Pixels are left untouched.
func (p *ImageProcessor) Convert(ctx context.Context, data []byte, extension string) ([]byte, error) {
	format, err := imaging.FormatFromExtension(strings.ToLower(extension))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Convert - imaging.FormatFromExtension: %w", err)
	}

	img, err := decodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Convert - decodeImage: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("ImageProcessor - Convert: %w", err)
	}

	res, err := p.encodeImage(img, format)
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - Convert - encodeImage: %w", err)
	}

	return res, nil
}

func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - decodeImage - imaging.Decode: %w", err)
	}

	return img, nil
}

func (p *ImageProcessor) encodeImage(img image.Image, format imaging.Format) ([]byte, error) {
	var buf bytes.Buffer

	err := imaging.Encode(&buf, img, format, imaging.JPEGQuality(p.jpegQuality))
	if err != nil {
		return nil, fmt.Errorf("ImageProcessor - encodeImage - imaging.Encode: %w", err)
	}

	return buf.Bytes(), nil
}
