package entity

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Image struct {
	ID uuid.UUID `json:"id"`

	Name     string       `json:"name"`     // original file name, source of the original extension
	Mimetype string       `json:"mimetype"` // client declared
	Status   UploadStatus `json:"status"`

	AvailableExtensions []string `json:"available_extensions"`
	Message             *string  `json:"message"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewImage(name, mimetype string) *Image {
	now := time.Now().UTC()

	return &Image{
		ID:                  uuid.New(),
		Name:                name,
		Mimetype:            mimetype,
		Status:              Uploading,
		AvailableExtensions: []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Extension is the original extension, taken from Name.
func (i *Image) Extension() string {
	return ExtensionOf(i.Name)
}

// Key is the canonical storage key of the original object.
func (i *Image) Key() string {
	return CanonicalKey(i.ID, i.Extension())
}

// VariantKey is the storage key of the object converted to extension.
func (i *Image) VariantKey(extension string) string {
	return CanonicalKey(i.ID, extension)
}

func (i *Image) HasExtension(extension string) bool {
	return slices.Contains(i.AvailableExtensions, extension)
}

// AddExtension appends extension once. It reports whether the set changed.
func (i *Image) AddExtension(extension string) bool {
	if i.HasExtension(extension) {
		return false
	}

	i.AvailableExtensions = append(i.AvailableExtensions, extension)

	return true
}

func (i *Image) MarkUploaded() {
	i.Status = Uploaded
	i.Message = nil
}

func (i *Image) MarkError(message string) {
	i.Status = Error
	i.Message = &message
}

// UploadGrant is what a client needs to put the original object in storage
// without going through this service.
type UploadGrant struct {
	PresignedPost PresignedPost
	PresignedURL  string
}

type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// RenderedImage describes one variant of an image as served to clients.
type RenderedImage struct {
	ID                  uuid.UUID
	Name                string
	Mimetype            string
	Status              UploadStatus
	AvailableExtensions []string
	PresignedURL        string
	Message             *string
	Key                 string
}
