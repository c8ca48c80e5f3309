package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"imageserver/internal/models"
)

func TestGetImageIncludesVariants(t *testing.T) {
	st, engine := newRouter(t)
	st.Put(&models.Image{
		ID:              "img-1",
		Status:          models.ImageStatusReady,
		ReferenceTypeID: 1,
		URL:             "http://cdn.local/PROFILE/img-1.webp",
		UploaderID:      "uploader-1",
		CreatedAt:       time.Now(),
	})

	width, height := 128, 128
	require.NoError(t, st.SaveVariant(context.Background(), &models.ImageVariant{
		ImageID:     "img-1",
		VariantCode: "THUMB_128",
		Thumbnail:   true,
		UploaderID:  "uploader-1",
		UploadedAt:  time.Now(),
		Width:       &width,
		Height:      &height,
		URL:         "http://cdn.local/PROFILE/img-1_thumb128.webp",
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/images/img-1", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"THUMB_128"`)
	require.Contains(t, rec.Body.String(), `"url":"http://cdn.local/PROFILE/img-1_thumb128.webp"`)
	require.Contains(t, rec.Body.String(), `"thumbnail":true`)
	require.Contains(t, rec.Body.String(), `"width":128`)
}

func TestGetImageWithoutVariantsOmitsField(t *testing.T) {
	st, engine := newRouter(t)
	st.Put(&models.Image{
		ID:              "img-2",
		Status:          models.ImageStatusReady,
		ReferenceTypeID: 1,
		URL:             "http://cdn.local/PROFILE/img-2.webp",
		CreatedAt:       time.Now(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/images/img-2", nil)
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), `"variants"`)
}
