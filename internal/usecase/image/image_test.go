package image_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkmrishad/image-jinn/internal/dto"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/internal/usecase/image"
	"github.com/vkmrishad/image-jinn/pkg/logger"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

type suite struct {
	uc        *image.ImageUseCase
	objects   *fakeImageRepo
	records   *fakeMetadataRepo
	scheduler *fakeScheduler
}

func newSuite(t *testing.T) *suite {
	t.Helper()

	s := &suite{
		objects:   newFakeImageRepo(),
		records:   newFakeMetadataRepo(),
		scheduler: &fakeScheduler{},
	}
	s.uc = image.New(s.objects, s.records, s.scheduler, nil, logger.New("error"), 0)

	return s
}

func (s *suite) issue(t *testing.T, name, mimetype string) *entity.Image {
	t.Helper()

	img, _, err := s.uc.IssueUploadGrant(context.Background(), name, mimetype)
	require.NoError(t, err)

	return img
}

func TestIssueUploadGrant(t *testing.T) {
	t.Parallel()

	s := newSuite(t)

	img, grant, err := s.uc.IssueUploadGrant(context.Background(), "car.jpg", "image/jpeg")
	require.NoError(t, err)

	key := entity.CanonicalKey(img.ID, "jpg")

	assert.Equal(t, entity.Uploading, img.Status)
	assert.Equal(t, []string{"jpg"}, img.AvailableExtensions)
	assert.Nil(t, img.Message)
	assert.Equal(t, key, grant.PresignedPost.Fields["key"])
	assert.Contains(t, grant.PresignedURL, key)

	stored := s.records.get(img.ID)
	assert.Equal(t, entity.Uploading, stored.Status)
	assert.Equal(t, []string{"jpg"}, stored.AvailableExtensions)

	require.Len(t, s.scheduler.calls, 1)
	call := s.scheduler.calls[0]
	assert.Equal(t, entity.TaskVerifyUpload, call.name)
	assert.Equal(t, img.ID, call.aggregateID)
	assert.Equal(t, dto.VerifyUploadArgs{ImageID: img.ID}, call.args)
	assert.Equal(t, image.DefaultVerifyDelay, call.delay)
}

func TestIssueUploadGrantUpperCaseName(t *testing.T) {
	t.Parallel()

	s := newSuite(t)

	img, grant, err := s.uc.IssueUploadGrant(context.Background(), "HOLIDAY.PNG", "image/png")
	require.NoError(t, err)

	assert.Equal(t, []string{"png"}, img.AvailableExtensions)
	assert.Equal(t, entity.CanonicalKey(img.ID, "png"), grant.PresignedPost.Fields["key"])
}

func TestIssueUploadGrantValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fileName string
		mimetype string
		want     error
	}{
		{name: "gif name", fileName: "car.gif", mimetype: "image/jpeg", want: errs.ErrInvalidName},
		{name: "no extension", fileName: "car", mimetype: "image/jpeg", want: errs.ErrInvalidName},
		{name: "empty name", fileName: "", mimetype: "image/png", want: errs.ErrInvalidName},
		{name: "gif mimetype", fileName: "car.jpg", mimetype: "image/gif", want: errs.ErrInvalidMimetype},
		{name: "dotted mimetype", fileName: "car.jpg", mimetype: ".image/jpeg", want: errs.ErrInvalidMimetype},
		{name: "empty mimetype", fileName: "car.png", mimetype: "", want: errs.ErrInvalidMimetype},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newSuite(t)

			img, grant, err := s.uc.IssueUploadGrant(context.Background(), tt.fileName, tt.mimetype)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, errs.ErrValidation)
			assert.Nil(t, img)
			assert.Nil(t, grant)
			assert.Zero(t, s.records.creates)
			assert.Empty(t, s.scheduler.calls)
		})
	}
}

func TestIssueUploadGrantPresignFailureLeavesRecord(t *testing.T) {
	t.Parallel()

	s := newSuite(t)
	s.objects.presignErr = errors.New("signing failed")

	_, _, err := s.uc.IssueUploadGrant(context.Background(), "car.jpg", "image/jpg")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrValidation)

	assert.Equal(t, 1, s.records.creates)
	assert.Empty(t, s.scheduler.calls)
	for _, img := range s.records.images {
		assert.Equal(t, entity.Uploading, img.Status)
		assert.Empty(t, img.AvailableExtensions)
	}
}

func TestVerifyUpload(t *testing.T) {
	t.Parallel()

	t.Run("uploaded", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)
		img := s.issue(t, "car.jpg", "image/jpeg")
		s.objects.put(img.Key(), []byte("jpeg"))

		for range 2 {
			require.NoError(t, s.uc.VerifyUpload(context.Background(), img.ID))

			stored := s.records.get(img.ID)
			assert.Equal(t, entity.Uploaded, stored.Status)
			assert.Nil(t, stored.Message)
		}
	})

	t.Run("not uploaded", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)
		img := s.issue(t, "car.jpg", "image/jpeg")

		for range 2 {
			require.NoError(t, s.uc.VerifyUpload(context.Background(), img.ID))

			stored := s.records.get(img.ID)
			assert.Equal(t, entity.Error, stored.Status)
			require.NotNil(t, stored.Message)
			assert.Equal(t, image.MessageNotUploaded, *stored.Message)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)
		img := s.issue(t, "car.jpg", "image/jpeg")
		s.objects.existsErr = errors.New("connection reset")

		require.NoError(t, s.uc.VerifyUpload(context.Background(), img.ID))

		stored := s.records.get(img.ID)
		assert.Equal(t, entity.Error, stored.Status)
		require.NotNil(t, stored.Message)
		assert.Equal(t, "connection reset", *stored.Message)
	})

	t.Run("unknown image", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)

		err := s.uc.VerifyUpload(context.Background(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrRecordNotFound)
	})

	t.Run("record store failure", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)
		img := s.issue(t, "car.jpg", "image/jpeg")
		s.records.updateErr = errors.New("connection refused")

		assert.Error(t, s.uc.VerifyUpload(context.Background(), img.ID))
	})
}

func TestNotifyUploadFinished(t *testing.T) {
	t.Parallel()

	t.Run("object present", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)
		img := s.issue(t, "car.jpeg", "image/jpeg")
		s.objects.put(img.Key(), []byte("jpeg"))

		got, err := s.uc.NotifyUploadFinished(context.Background(), img.ID)
		require.NoError(t, err)

		assert.Equal(t, entity.Uploaded, got.Status)
		assert.Equal(t, entity.Uploaded, s.records.get(img.ID).Status)
		assert.Len(t, s.scheduler.calls, 1)
	})

	t.Run("object not visible yet", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)
		img := s.issue(t, "car.jpeg", "image/jpeg")

		got, err := s.uc.NotifyUploadFinished(context.Background(), img.ID)
		require.NoError(t, err)

		assert.Equal(t, entity.Uploading, got.Status)
		assert.Equal(t, entity.Uploading, s.records.get(img.ID).Status)
		require.Len(t, s.scheduler.calls, 2)
		assert.Equal(t, entity.TaskVerifyUpload, s.scheduler.calls[1].name)
		assert.Equal(t, img.ID, s.scheduler.calls[1].aggregateID)
		assert.Equal(t, image.DefaultVerifyDelay, s.scheduler.calls[1].delay)
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)
		img := s.issue(t, "car.png", "image/png")
		s.objects.existsErr = errors.New("timeout")

		got, err := s.uc.NotifyUploadFinished(context.Background(), img.ID)
		require.NoError(t, err)

		assert.Equal(t, entity.Uploading, got.Status)
		assert.Len(t, s.scheduler.calls, 2)
	})

	t.Run("unknown image", func(t *testing.T) {
		t.Parallel()

		s := newSuite(t)

		_, err := s.uc.NotifyUploadFinished(context.Background(), uuid.New())
		assert.ErrorIs(t, err, errs.ErrRecordNotFound)
	})
}

func TestVerifyDelayOverride(t *testing.T) {
	t.Parallel()

	scheduler := &fakeScheduler{}
	uc := image.New(newFakeImageRepo(), newFakeMetadataRepo(), scheduler, nil, logger.New("error"), time.Minute)

	_, _, err := uc.IssueUploadGrant(context.Background(), "car.jpg", "image/jpeg")
	require.NoError(t, err)

	require.Len(t, scheduler.calls, 1)
	assert.Equal(t, time.Minute, scheduler.calls[0].delay)
}

func TestListImages(t *testing.T) {
	t.Parallel()

	s := newSuite(t)
	first := s.issue(t, "a.jpg", "image/jpeg")
	time.Sleep(time.Millisecond)
	second := s.issue(t, "b.png", "image/png")

	images, err := s.uc.ListImages(context.Background(), 10, 0)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, second.ID, images[0].ID)
	assert.Equal(t, first.ID, images[1].ID)

	images, err = s.uc.ListImages(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, first.ID, images[0].ID)
}

func TestPresignedURL(t *testing.T) {
	t.Parallel()

	s := newSuite(t)
	img := s.issue(t, "car.jpg", "image/jpeg")

	url, err := s.uc.PresignedURL(context.Background(), img)
	require.NoError(t, err)
	assert.Contains(t, url, img.Key())

	got, err := s.uc.GetImage(context.Background(), img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.ID, got.ID)

	_, err = s.uc.GetImage(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errs.ErrRecordNotFound)
}
