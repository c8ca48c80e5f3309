package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"imageserver/internal/models"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    models.ImageStatus
		to      models.ImageStatus
		allowed bool
	}{
		{models.ImageStatusTemp, models.ImageStatusReady, true},
		{models.ImageStatusTemp, models.ImageStatusFailed, true},
		{models.ImageStatusTemp, models.ImageStatusConfirmed, false},
		{models.ImageStatusTemp, models.ImageStatusDeleted, false},
		{models.ImageStatusReady, models.ImageStatusConfirmed, true},
		{models.ImageStatusReady, models.ImageStatusDeleted, true},
		{models.ImageStatusReady, models.ImageStatusTemp, false},
		{models.ImageStatusReady, models.ImageStatusFailed, false},
		{models.ImageStatusConfirmed, models.ImageStatusDeleted, true},
		{models.ImageStatusConfirmed, models.ImageStatusReady, false},
		{models.ImageStatusFailed, models.ImageStatusReady, false},
		{models.ImageStatusFailed, models.ImageStatusDeleted, false},
		{models.ImageStatusDeleted, models.ImageStatusReady, false},
		{models.ImageStatusDeleted, models.ImageStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			require.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestReferenceTypeMono(t *testing.T) {
	one := 1
	five := 5

	require.True(t, models.ReferenceType{AllowsMultiple: false}.Mono())
	require.True(t, models.ReferenceType{AllowsMultiple: true, MaxImages: &one}.Mono())
	require.False(t, models.ReferenceType{AllowsMultiple: true, MaxImages: &five}.Mono())
	require.False(t, models.ReferenceType{AllowsMultiple: true}.Mono())
}

func TestReferenceTypeAllowsCount(t *testing.T) {
	three := 3

	multi := models.ReferenceType{AllowsMultiple: true, MaxImages: &three}
	require.True(t, multi.AllowsCount(1))
	require.True(t, multi.AllowsCount(3))
	require.False(t, multi.AllowsCount(4))
	require.False(t, multi.AllowsCount(0))

	mono := models.ReferenceType{AllowsMultiple: false}
	require.True(t, mono.AllowsCount(1))
	require.False(t, mono.AllowsCount(2))

	unlimited := models.ReferenceType{AllowsMultiple: true}
	require.True(t, unlimited.AllowsCount(100))
}
