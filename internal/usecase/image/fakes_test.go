package image_test

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vkmrishad/image-jinn/internal/entity"
	"github.com/vkmrishad/image-jinn/pkg/types/errs"
)

type fakeImageRepo struct {
	mu sync.Mutex

	objects    map[string][]byte
	existsErr  error
	presignErr error
}

func newFakeImageRepo() *fakeImageRepo {
	return &fakeImageRepo{objects: make(map[string][]byte)}
}

func (r *fakeImageRepo) put(key string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[key] = data
}

func (r *fakeImageRepo) PresignPost(_ context.Context, key string) (*entity.PresignedPost, error) {
	if r.presignErr != nil {
		return nil, r.presignErr
	}

	return &entity.PresignedPost{
		URL:    "https://bucket.example.com/",
		Fields: map[string]string{"key": key, "policy": "p", "x-amz-signature": "s"},
	}, nil
}

func (r *fakeImageRepo) PresignGet(_ context.Context, key string) (string, error) {
	if r.presignErr != nil {
		return "", r.presignErr
	}

	return "https://bucket.example.com/" + key + "?X-Amz-Signature=s", nil
}

func (r *fakeImageRepo) Exists(_ context.Context, key string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[key]

	return ok, nil
}

func (r *fakeImageRepo) UploadBytes(_ context.Context, key string, data []byte, _ string) error {
	r.put(key, data)
	return nil
}

func (r *fakeImageRepo) DownloadBytes(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, ok := r.objects[key]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	return data, nil
}

type fakeMetadataRepo struct {
	mu sync.Mutex

	images    map[uuid.UUID]*entity.Image
	createErr error
	updateErr error
	creates   int
	updates   int
}

func newFakeMetadataRepo() *fakeMetadataRepo {
	return &fakeMetadataRepo{images: make(map[uuid.UUID]*entity.Image)}
}

func clone(i *entity.Image) *entity.Image {
	c := *i
	c.AvailableExtensions = slices.Clone(i.AvailableExtensions)
	if i.Message != nil {
		m := *i.Message
		c.Message = &m
	}

	return &c
}

func (r *fakeMetadataRepo) Create(_ context.Context, image *entity.Image) error {
	if r.createErr != nil {
		return r.createErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	r.images[image.ID] = clone(image)

	return nil
}

func (r *fakeMetadataRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	image, ok := r.images[id]
	if !ok {
		return nil, errs.ErrRecordNotFound
	}

	return clone(image), nil
}

func (r *fakeMetadataRepo) List(_ context.Context, limit, offset int) ([]*entity.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	images := make([]*entity.Image, 0, len(r.images))
	for _, i := range r.images {
		images = append(images, clone(i))
	}
	sort.Slice(images, func(a, b int) bool { return images[a].CreatedAt.After(images[b].CreatedAt) })

	if offset >= len(images) {
		return []*entity.Image{}, nil
	}
	images = images[offset:]
	if limit < len(images) {
		images = images[:limit]
	}

	return images, nil
}

func (r *fakeMetadataRepo) Update(_ context.Context, image *entity.Image) error {
	if r.updateErr != nil {
		return r.updateErr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.images[image.ID]; !ok {
		return errs.ErrRecordNotFound
	}
	r.updates++
	r.images[image.ID] = clone(image)

	return nil
}

func (r *fakeMetadataRepo) get(id uuid.UUID) *entity.Image {
	r.mu.Lock()
	defer r.mu.Unlock()

	return clone(r.images[id])
}

type scheduled struct {
	name        string
	aggregateID uuid.UUID
	args        any
	delay       time.Duration
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduled
	err   error
}

func (s *fakeScheduler) Schedule(_ context.Context, name string, aggregateID uuid.UUID, args any, delay time.Duration) error {
	if s.err != nil {
		return s.err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduled{name: name, aggregateID: aggregateID, args: args, delay: delay})

	return nil
}
