package lifecycle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"imageserver/internal/apperr"
	"imageserver/internal/lifecycle"
	"imageserver/internal/models"
	"imageserver/internal/repository/repositorytest"
)

func TestTransitionAppendsHistoryWithOldStatus(t *testing.T) {
	st := repositorytest.NewFakeStore()
	img := &models.Image{ID: "img-1", Status: models.ImageStatusTemp}

	err := lifecycle.Transition(context.Background(), st, img, models.ImageStatusReady, lifecycle.ActorSystem, "conversion completed")
	require.NoError(t, err)
	require.Equal(t, models.ImageStatusReady, img.Status)

	history, err := st.ListHistory(context.Background(), "img-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, models.ImageStatusTemp, history[0].OldStatus)
	require.Equal(t, models.ImageStatusReady, history[0].NewStatus)
	require.Equal(t, lifecycle.ActorSystem, history[0].ChangedBy)
	require.Equal(t, "conversion completed", history[0].Reason)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	st := repositorytest.NewFakeStore()
	img := &models.Image{ID: "img-1", Status: models.ImageStatusTemp}

	err := lifecycle.Transition(context.Background(), st, img, models.ImageStatusConfirmed, lifecycle.ActorSystem, "")
	require.ErrorIs(t, err, apperr.ErrInvalidStatus)

	// Nothing recorded, nothing mutated.
	require.Equal(t, models.ImageStatusTemp, img.Status)
	history, err := st.ListHistory(context.Background(), "img-1")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestTransitionToDeletedClearsReference(t *testing.T) {
	st := repositorytest.NewFakeStore()
	ref := "ref-1"
	img := &models.Image{ID: "img-1", Status: models.ImageStatusConfirmed, ReferenceID: &ref}

	err := lifecycle.Transition(context.Background(), st, img, models.ImageStatusDeleted, lifecycle.ActorSystem, "detached")
	require.NoError(t, err)
	require.True(t, img.Deleted)
	require.Nil(t, img.ReferenceID)
}
