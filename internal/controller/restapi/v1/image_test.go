package v1_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	v1 "github.com/vkmrishad/image-jinn/internal/controller/restapi/v1"
	"github.com/vkmrishad/image-jinn/internal/controller/restapi/v1/response"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/pkg/logger"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

type fakeImages struct {
	images     map[uuid.UUID]*entity.Image
	grantErr   error
	notifyErr  error
	listLimit  int
	listOffset int
}

func (f *fakeImages) IssueUploadGrant(_ context.Context, name, mimetype string) (*entity.Image, *entity.UploadGrant, error) {
	if f.grantErr != nil {
		return nil, nil, f.grantErr
	}

	img := entity.NewImage(name, mimetype)
	img.AddExtension(img.Extension())
	f.images[img.ID] = img

	return img, &entity.UploadGrant{
		PresignedPost: entity.PresignedPost{URL: "https://bucket/", Fields: map[string]string{"key": img.Key()}},
		PresignedURL:  "https://bucket/" + img.Key(),
	}, nil
}

func (f *fakeImages) VerifyUpload(context.Context, uuid.UUID) error { return nil }

func (f *fakeImages) NotifyUploadFinished(_ context.Context, id uuid.UUID) (*entity.Image, error) {
	if f.notifyErr != nil {
		return nil, f.notifyErr
	}

	img, ok := f.images[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", errs.ErrRecordNotFound)
	}
	img.MarkUploaded()

	return img, nil
}

func (f *fakeImages) GetImage(_ context.Context, id uuid.UUID) (*entity.Image, error) {
	img, ok := f.images[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", errs.ErrRecordNotFound)
	}

	return img, nil
}

func (f *fakeImages) ListImages(_ context.Context, limit, offset int) ([]*entity.Image, error) {
	f.listLimit, f.listOffset = limit, offset

	images := make([]*entity.Image, 0, len(f.images))
	for _, img := range f.images {
		images = append(images, img)
	}

	return images, nil
}

func (f *fakeImages) PresignedURL(_ context.Context, image *entity.Image) (string, error) {
	return "https://bucket/" + image.Key(), nil
}

type fakeVariants struct {
	err error
}

func (f *fakeVariants) Resolve(_ context.Context, image *entity.Image, extension string) (*entity.RenderedImage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if extension == "" {
		extension = image.Extension()
	}

	key := image.VariantKey(extension)

	return &entity.RenderedImage{
		ID:                  image.ID,
		Name:                entity.ReplaceExtension(image.Name, extension),
		Mimetype:            entity.MimetypeOf(extension),
		Status:              image.Status,
		AvailableExtensions: image.AvailableExtensions,
		PresignedURL:        "https://bucket/" + key,
		Key:                 key,
	}, nil
}

func newApp() (*fiber.App, *fakeImages, *fakeVariants) {
	images := &fakeImages{images: make(map[uuid.UUID]*entity.Image)}
	variants := &fakeVariants{}

	app := fiber.New()
	v1.NewImageRoutes(app.Group("/v1"), images, variants, logger.New("error"))

	return app, images, variants
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func TestUploadImage(t *testing.T) {
	t.Parallel()

	app, _, _ := newApp()

	code, body := do(t, app, http.MethodPost, "/v1/images/upload", `{"name":"car.jpg","mimetype":"image/jpeg"}`)
	require.Equal(t, http.StatusCreated, code)

	var got response.UploadImage
	require.NoError(t, json.Unmarshal(body, &got))

	assert.Equal(t, "car.jpg", got.Name)
	assert.Equal(t, "image/jpeg", got.Mimetype)
	assert.Equal(t, "Uploading", got.Status)
	assert.Equal(t, []string{"jpg"}, got.AvailableExtensions)
	assert.Equal(t, "https://bucket/", got.PresignedPost.URL)
	assert.Equal(t, fmt.Sprintf("images/%s/image-%s.jpg", got.ID, got.ID), got.PresignedPost.Fields["key"])
	assert.NotEmpty(t, got.PresignedURL)
	assert.Nil(t, got.Message)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(body, &raw))
	assert.Contains(t, raw, "presigned_post_url")
	assert.Contains(t, raw, "message")
}

func TestUploadImageRejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		grantErr error
		want     int
		wantMsg  string
	}{
		{name: "malformed json", body: `{"name":`, want: http.StatusBadRequest, wantMsg: "invalid request body"},
		{name: "missing name", body: `{"mimetype":"image/png"}`, want: http.StatusBadRequest, wantMsg: "name is required"},
		{
			name:     "invalid name",
			body:     `{"name":"car.gif","mimetype":"image/png"}`,
			grantErr: fmt.Errorf("uc: %w", errs.ErrInvalidName),
			want:     http.StatusBadRequest,
			wantMsg:  errs.ErrInvalidName.Error(),
		},
		{
			name:     "storage failure",
			body:     `{"name":"car.png","mimetype":"image/png"}`,
			grantErr: fmt.Errorf("uc: presign: %w", context.DeadlineExceeded),
			want:     http.StatusInternalServerError,
			wantMsg:  "storage problems",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, images, _ := newApp()
			images.grantErr = tt.grantErr

			code, body := do(t, app, http.MethodPost, "/v1/images/upload", tt.body)
			assert.Equal(t, tt.want, code)

			var got response.Error
			require.NoError(t, json.Unmarshal(body, &got))
			assert.Equal(t, tt.wantMsg, got.Error)
		})
	}
}

func TestGetImage(t *testing.T) {
	t.Parallel()

	app, images, variants := newApp()

	img := entity.NewImage("car.jpg", "image/jpeg")
	img.AddExtension("jpg")
	images.images[img.ID] = img

	code, body := do(t, app, http.MethodGet, "/v1/images/"+img.ID.String()+"?extension=png", "")
	require.Equal(t, http.StatusOK, code)

	var got response.Image
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "car.png", got.Name)
	assert.Equal(t, "image/png", got.Mimetype)
	assert.Contains(t, got.PresignedURL, img.VariantKey("png"))

	code, _ = do(t, app, http.MethodGet, "/v1/images/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, app, http.MethodGet, "/v1/images/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, code)

	variants.err = fmt.Errorf("resolve: %w", errs.ErrInvalidExtension)
	code, body = do(t, app, http.MethodGet, "/v1/images/"+img.ID.String()+"?extension=gif", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), errs.ErrInvalidExtension.Error())

	variants.err = fmt.Errorf("resolve: %w: %w", errs.ErrConversion, io.ErrUnexpectedEOF)
	code, _ = do(t, app, http.MethodGet, "/v1/images/"+img.ID.String()+"?extension=png", "")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestUploadFinished(t *testing.T) {
	t.Parallel()

	app, images, _ := newApp()

	img := entity.NewImage("car.png", "image/png")
	images.images[img.ID] = img

	code, body := do(t, app, http.MethodPatch, "/v1/images/"+img.ID.String()+"/upload-finished", "")
	require.Equal(t, http.StatusOK, code)

	var got response.Image
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Uploaded", got.Status)
	assert.Equal(t, img.ID.String(), got.ID)

	code, _ = do(t, app, http.MethodPatch, "/v1/images/"+uuid.NewString()+"/upload-finished", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListImages(t *testing.T) {
	t.Parallel()

	app, images, _ := newApp()

	img := entity.NewImage("car.png", "image/png")
	images.images[img.ID] = img

	code, body := do(t, app, http.MethodGet, "/v1/images", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 20, images.listLimit)
	assert.Equal(t, 0, images.listOffset)

	var got []response.Image
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, []string{}, got[0].AvailableExtensions)

	code, _ = do(t, app, http.MethodGet, "/v1/images?limit=500&offset=3", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 100, images.listLimit)
	assert.Equal(t, 3, images.listOffset)

	code, _ = do(t, app, http.MethodGet, "/v1/images?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, code)
}
