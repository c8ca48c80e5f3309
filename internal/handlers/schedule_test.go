package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"imageserver/internal/models"
)

func TestTriggerCleanupSweepsUnusedImages(t *testing.T) {
	st, engine := newRouter(t)
	st.Put(&models.Image{
		ID:              "img-stale",
		Status:          models.ImageStatusTemp,
		ReferenceTypeID: 1,
		URL:             "http://cdn.local/PROFILE/img-stale.webp",
		CreatedAt:       time.Now().Add(-72 * time.Hour),
	})
	st.Put(&models.Image{
		ID:              "img-fresh",
		Status:          models.ImageStatusTemp,
		ReferenceTypeID: 1,
		URL:             "http://cdn.local/PROFILE/img-fresh.webp",
		CreatedAt:       time.Now(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/schedule/cleanup", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, st.Images, "img-stale")
	require.Contains(t, st.Images, "img-fresh")
}
