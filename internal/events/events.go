// Package events defines the wire-level notification payloads and the
// broker publisher.
package events

import "strings"

// Topic derives the per-category notification channel from a reference
// type code, e.g. PRODUCT -> product-image-changed.
func Topic(typeCode string) string {
	return strings.ToLower(typeCode) + "-image-changed"
}

// ImageChanged notifies a single-image attachment change.
type ImageChanged struct {
	ReferenceID string `json:"referenceId"`
	ImageID     string `json:"imageId"`
	ImageURL    string `json:"imageUrl"`
}

// SequencedItem is one entry of an ordered batch change.
type SequencedItem struct {
	ImageID        string `json:"imageId"`
	ImageURL       string `json:"imageUrl"`
	ReferenceID    string `json:"referenceId"`
	SequenceNumber int    `json:"sequenceNumber"`
}

// ImagesChanged wraps an ordered batch change. Items is empty when every
// image was detached, so subscribers still learn which reference lost
// its images.
type ImagesChanged struct {
	ReferenceID string          `json:"referenceId"`
	Items       []SequencedItem `json:"items"`
}
