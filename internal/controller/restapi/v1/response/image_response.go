package response

import (
	"github.com/vkmrishad/image-jinn/internal/entity"
)

type Image struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Mimetype            string   `json:"mimetype"`
	Status              string   `json:"status" example:"Uploading"`
	AvailableExtensions []string `json:"available_extensions"`
	PresignedURL        string   `json:"presigned_url"`
	Message             *string  `json:"message"`
}

type PresignedPost struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

type UploadImage struct {
	Image
	PresignedPost PresignedPost `json:"presigned_post_url"`
}

func NewImage(r *entity.RenderedImage) Image {
	return Image{
		ID:                  r.ID.String(),
		Name:                r.Name,
		Mimetype:            r.Mimetype,
		Status:              r.Status.String(),
		AvailableExtensions: extensions(r.AvailableExtensions),
		PresignedURL:        r.PresignedURL,
		Message:             r.Message,
	}
}

// NewCanonicalImage describes the original object of img.
func NewCanonicalImage(img *entity.Image, presignedURL string) Image {
	return Image{
		ID:                  img.ID.String(),
		Name:                img.Name,
		Mimetype:            img.Mimetype,
		Status:              img.Status.String(),
		AvailableExtensions: extensions(img.AvailableExtensions),
		PresignedURL:        presignedURL,
		Message:             img.Message,
	}
}

func NewUploadImage(img *entity.Image, grant *entity.UploadGrant) UploadImage {
	return UploadImage{
		Image: NewCanonicalImage(img, grant.PresignedURL),
		PresignedPost: PresignedPost{
			URL:    grant.PresignedPost.URL,
			Fields: grant.PresignedPost.Fields,
		},
	}
}

func extensions(e []string) []string {
	if e == nil {
		return []string{}
	}

	return e
}
