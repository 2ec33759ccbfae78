package entity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanonicalKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a52-5d0e-4c57-9a5e-3f1f6c0a9b11")

	assert.Equal(t,
		"images/6f1c2a52-5d0e-4c57-9a5e-3f1f6c0a9b11/image-6f1c2a52-5d0e-4c57-9a5e-3f1f6c0a9b11.jpg",
		CanonicalKey(id, "jpg"),
	)
}

func TestImage_KeysShareScheme(t *testing.T) {
	img := NewImage("car.jpg", "image/jpg")

	assert.Equal(t, CanonicalKey(img.ID, "jpg"), img.Key())
	assert.Equal(t, CanonicalKey(img.ID, "png"), img.VariantKey("png"))
	assert.Equal(t, img.Key(), img.VariantKey(img.Extension()))
}

func TestExtensionOf(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"car.jpg", "jpg"},
		{"CAR.JPEG", "jpeg"},
		{"my.holiday.photo.png", "png"},
		{"noext", ""},
		{"trailing.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionOf(tt.name))
		})
	}
}

func TestReplaceExtension(t *testing.T) {
	assert.Equal(t, "car.png", ReplaceExtension("car.jpg", "png"))
	assert.Equal(t, "my.holiday.jpeg", ReplaceExtension("my.holiday.png", "jpeg"))
	assert.Equal(t, "noext.png", ReplaceExtension("noext", "png"))
}

func TestMimetypeOf(t *testing.T) {
	assert.Equal(t, "image/jpg", MimetypeOf("jpg"))
	assert.Equal(t, "image/jpeg", MimetypeOf("jpeg"))
	assert.Equal(t, "image/png", MimetypeOf("PNG"))
	assert.Empty(t, MimetypeOf("gif"))
}

func TestImage_AddExtension(t *testing.T) {
	img := NewImage("car.jpg", "image/jpg")

	assert.True(t, img.AddExtension("jpg"))
	assert.False(t, img.AddExtension("jpg"))
	assert.True(t, img.AddExtension("png"))
	assert.Equal(t, []string{"jpg", "png"}, img.AvailableExtensions)
}

func TestImage_MarkTransitions(t *testing.T) {
	img := NewImage("car.jpg", "image/jpg")
	assert.Equal(t, Uploading, img.Status)

	img.MarkError("Not Uploaded")
	assert.Equal(t, Error, img.Status)
	if assert.NotNil(t, img.Message) {
		assert.Equal(t, "Not Uploaded", *img.Message)
	}

	img.MarkUploaded()
	assert.Equal(t, Uploaded, img.Status)
	assert.Nil(t, img.Message)
}
