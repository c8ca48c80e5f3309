package models

import "time"

// ImageVariant is a derived rendition of an image (thumbnail, resized
// copy). Variants hang off their parent image and disappear with it.
type ImageVariant struct {
	ID          int64
	ImageID     string
	VariantCode string
	Thumbnail   bool
	UploaderID  string
	UploadedAt  time.Time
	// Width and Height are nil when the producer did not record
	// dimensions.
	Width  *int
	Height *int
	URL    string
}
