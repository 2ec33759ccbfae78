package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T) []byte {
	t.Helper()

	img := imaging.New(8, 6, color.NRGBA{R: 200, G: 30, B: 30, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}

func TestImageProcessor_Convert(t *testing.T) {
	p := New()
	ctx := context.Background()

	t.Run("png to jpg", func(t *testing.T) {
		out, err := p.Convert(ctx, samplePNG(t), "jpg")
		require.NoError(t, err)

		img, err := jpeg.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 8, 6), img.Bounds())
	})

	t.Run("jpeg upper case extension", func(t *testing.T) {
		out, err := p.Convert(ctx, samplePNG(t), "JPEG")
		require.NoError(t, err)

		_, format, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "jpeg", format)
	})

	t.Run("jpg back to png", func(t *testing.T) {
		jpg, err := p.Convert(ctx, samplePNG(t), "jpg")
		require.NoError(t, err)

		out, err := p.Convert(ctx, jpg, "png")
		require.NoError(t, err)

		_, format, err := image.Decode(bytes.NewReader(out))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := p.Convert(ctx, samplePNG(t), "svg")
		assert.Error(t, err)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := p.Convert(ctx, []byte("not an image"), "png")
		assert.Error(t, err)
	})
}
