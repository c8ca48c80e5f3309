package events_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"imageserver/internal/events"
)

func TestTopic(t *testing.T) {
	require.Equal(t, "product-image-changed", events.Topic("PRODUCT"))
	require.Equal(t, "profile-image-changed", events.Topic("Profile"))
	require.Equal(t, "post-image-changed", events.Topic("post"))
}

func TestImageChangedPayloadShape(t *testing.T) {
	payload, err := json.Marshal(events.ImageChanged{
		ReferenceID: "user-7",
		ImageID:     "img-1",
		ImageURL:    "http://cdn.local/PROFILE/2026/09/01/img-1.webp",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"referenceId": "user-7",
		"imageId": "img-1",
		"imageUrl": "http://cdn.local/PROFILE/2026/09/01/img-1.webp"
	}`, string(payload))
}

func TestImagesChangedPayloadShape(t *testing.T) {
	payload, err := json.Marshal(events.ImagesChanged{
		ReferenceID: "prod-1",
		Items: []events.SequencedItem{
			{ImageID: "img-z", ImageURL: "u1", ReferenceID: "prod-1", SequenceNumber: 0},
			{ImageID: "img-x", ImageURL: "u2", ReferenceID: "prod-1", SequenceNumber: 1},
		},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"referenceId": "prod-1",
		"items": [
			{"imageId": "img-z", "imageUrl": "u1", "referenceId": "prod-1", "sequenceNumber": 0},
			{"imageId": "img-x", "imageUrl": "u2", "referenceId": "prod-1", "sequenceNumber": 1}
		]
	}`, string(payload))
}

func TestImagesChangedEmptyItems(t *testing.T) {
	payload, err := json.Marshal(events.ImagesChanged{ReferenceID: "prod-1", Items: []events.SequencedItem{}})
	require.NoError(t, err)
	require.JSONEq(t, `{"referenceId": "prod-1", "items": []}`, string(payload))
}
