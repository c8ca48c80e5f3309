package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"imageserver/internal/apperr"
	"imageserver/internal/catalog"
	"imageserver/internal/config"
	"imageserver/internal/convert"
	"imageserver/internal/models"
	"imageserver/internal/repository/repositorytest"
	"imageserver/internal/service"
)

type noopConverter struct{}

func (noopConverter) Convert(data []byte, _ float32) ([]byte, error) { return data, nil }

type noopBlobStore struct{}

func (noopBlobStore) Store(_ context.Context, _ []byte, relativePath string) (string, error) {
	return relativePath, nil
}

func newUploadFixture(t *testing.T) (*repositorytest.FakeStore, *service.UploadService) {
	t.Helper()
	st := repositorytest.NewFakeStore()
	st.Types = []models.ReferenceType{monoType, multiType}
	st.Exts = []models.Extension{{Code: "JPG", Name: "JPEG"}, {Code: "PNG", Name: "PNG"}}

	txm := repositorytest.NewFakeTxManager(st)
	reg := catalog.NewRegistry(st, zerolog.Nop())
	require.NoError(t, reg.Refresh(context.Background()))

	// Generous backlog and no workers: submitted tasks stay parked so
	// tests observe the pre-conversion state.
	queue := convert.NewQueue(
		config.ConvertConfig{Quality: 0.8, Workers: 0, MaxWorkers: 0, QueueSize: 16},
		noopConverter{}, noopBlobStore{}, txm, zerolog.Nop(),
	)

	svc := service.NewUploadService(txm, reg, queue, config.StorageConfig{
		PublicBaseURL: "http://cdn.local/images/",
	}, zerolog.Nop())
	return st, svc
}

func TestUploadCreatesPendingImage(t *testing.T) {
	st, svc := newUploadFixture(t)

	img, err := svc.Upload(context.Background(), service.UploadInput{
		Filename:   "photo.jpg",
		Data:       []byte("jpeg-bytes"),
		UploaderID: "uploader-1",
		Category:   "product",
	})
	require.NoError(t, err)
	require.Equal(t, models.ImageStatusTemp, img.Status)
	require.Equal(t, multiType.ID, img.ReferenceTypeID)
	require.Equal(t, "uploader-1", img.UploaderID)

	datePath := time.Now().Format("2006/01/02")
	require.Equal(t, fmt.Sprintf("http://cdn.local/images/PRODUCT/%s/%s.webp", datePath, img.ID), img.URL)

	stored, ok := st.Images[img.ID]
	require.True(t, ok)
	require.Equal(t, models.ImageStatusTemp, stored.Status)
}

func TestUploadUnknownCategory(t *testing.T) {
	_, svc := newUploadFixture(t)

	_, err := svc.Upload(context.Background(), service.UploadInput{
		Filename: "photo.jpg",
		Data:     []byte("x"),
		Category: "UNKNOWN",
	})
	require.ErrorIs(t, err, apperr.ErrReferenceTypeNotFound)
}

func TestUploadUnsupportedExtension(t *testing.T) {
	_, svc := newUploadFixture(t)

	_, err := svc.Upload(context.Background(), service.UploadInput{
		Filename: "document.pdf",
		Data:     []byte("x"),
		Category: "PRODUCT",
	})
	require.ErrorIs(t, err, apperr.ErrInvalidExtension)
}

func TestUploadEmptyFile(t *testing.T) {
	_, svc := newUploadFixture(t)

	_, err := svc.Upload(context.Background(), service.UploadInput{
		Filename: "photo.jpg",
		Category: "PRODUCT",
	})
	require.ErrorIs(t, err, apperr.ErrImageSaveFailed)
}
