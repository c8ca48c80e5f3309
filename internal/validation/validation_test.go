package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"imageserver/internal/validation"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		filename   string
		size       int64
		violations int
	}{
		{name: "valid", category: "PRODUCT", filename: "photo.jpg", size: 1024, violations: 0},
		{name: "blank category", category: " ", filename: "photo.jpg", size: 1024, violations: 1},
		{name: "blank filename", category: "PRODUCT", filename: "", size: 1024, violations: 1},
		{name: "no extension", category: "PRODUCT", filename: "photo", size: 1024, violations: 1},
		{name: "empty file", category: "PRODUCT", filename: "photo.jpg", size: 0, violations: 1},
		{name: "everything wrong", category: "", filename: "", size: 0, violations: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validation.ValidateUpload(tt.category, tt.filename, tt.size)
			require.Len(t, result.Violations, tt.violations)
			require.Equal(t, tt.violations == 0, result.OK())
		})
	}
}

func TestValidateConfirm(t *testing.T) {
	require.True(t, validation.ValidateConfirm("ref-1", []string{"a", "b"}).OK())
	require.True(t, validation.ValidateConfirm("ref-1", nil).OK())

	result := validation.ValidateConfirm("", []string{"a"})
	require.False(t, result.OK())
	require.Equal(t, "referenceId", result.Violations[0].Field)

	result = validation.ValidateConfirm("ref-1", []string{"a", " "})
	require.False(t, result.OK())
	require.Equal(t, "imageIds[1]", result.Violations[0].Field)
}
