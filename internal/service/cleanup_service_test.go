package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"imageserver/internal/config"
	"imageserver/internal/models"
	"imageserver/internal/repository/repositorytest"
	"imageserver/internal/service"
)

type recordingDeleter struct {
	deleted []string
	err     error
}

func (d *recordingDeleter) Delete(_ context.Context, relativePath string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	d.deleted = append(d.deleted, relativePath)
	return true, nil
}

func newCleanupFixture(blobs *recordingDeleter) (*repositorytest.FakeStore, *service.CleanupService) {
	st := repositorytest.NewFakeStore()
	st.Types = []models.ReferenceType{multiType}
	cfg := config.CleanupConfig{
		FailedRetention: 24 * time.Hour,
		UnusedRetention: 48 * time.Hour,
	}
	svc := service.NewCleanupService(repositorytest.NewFakeTxManager(st), blobs, cfg, zerolog.Nop())
	return st, svc
}

func imageWithBlob(st *repositorytest.FakeStore, id string, status models.ImageStatus, age time.Duration) {
	img := &models.Image{
		ID:              id,
		Status:          status,
		ReferenceTypeID: multiType.ID,
		CreatedAt:       time.Now().Add(-age),
		StorageObject: &models.StorageObject{
			ImageID:         id,
			StorageLocation: "PRODUCT/2026/08/30/" + id + ".webp",
		},
	}
	st.Put(img)
}

func TestSweepFailedRemovesOnlyExpired(t *testing.T) {
	blobs := &recordingDeleter{}
	st, svc := newCleanupFixture(blobs)

	imageWithBlob(st, "old-failed", models.ImageStatusFailed, 25*time.Hour)
	imageWithBlob(st, "fresh-failed", models.ImageStatusFailed, time.Hour)
	imageWithBlob(st, "old-confirmed", models.ImageStatusConfirmed, 72*time.Hour)

	require.NoError(t, svc.SweepFailed(context.Background()))

	require.NotContains(t, st.Images, "old-failed")
	require.Contains(t, st.Images, "fresh-failed")
	require.Contains(t, st.Images, "old-confirmed")
	require.Equal(t, []string{"PRODUCT/2026/08/30/old-failed.webp"}, blobs.deleted)
}

func TestSweepUnusedKeepsConfirmed(t *testing.T) {
	blobs := &recordingDeleter{}
	st, svc := newCleanupFixture(blobs)

	imageWithBlob(st, "abandoned-temp", models.ImageStatusTemp, 49*time.Hour)
	imageWithBlob(st, "abandoned-ready", models.ImageStatusReady, 50*time.Hour)
	imageWithBlob(st, "recent-ready", models.ImageStatusReady, time.Hour)
	imageWithBlob(st, "old-confirmed", models.ImageStatusConfirmed, 90*24*time.Hour)

	require.NoError(t, svc.SweepUnused(context.Background()))

	require.NotContains(t, st.Images, "abandoned-temp")
	require.NotContains(t, st.Images, "abandoned-ready")
	require.Contains(t, st.Images, "recent-ready")
	require.Contains(t, st.Images, "old-confirmed")
}

func TestSweepRemovesRecordWhenBlobDeleteFails(t *testing.T) {
	blobs := &recordingDeleter{err: errors.New("bucket unavailable")}
	st, svc := newCleanupFixture(blobs)

	imageWithBlob(st, "old-failed", models.ImageStatusFailed, 25*time.Hour)

	require.NoError(t, svc.SweepFailed(context.Background()))
	require.NotContains(t, st.Images, "old-failed")
}
