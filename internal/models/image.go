package models

import "time"

type ImageStatus string

const (
	ImageStatusTemp      ImageStatus = "TEMP"
	ImageStatusReady     ImageStatus = "READY"
	ImageStatusFailed    ImageStatus = "FAILED"
	ImageStatusConfirmed ImageStatus = "CONFIRMED"
	ImageStatusDeleted   ImageStatus = "DELETED"
)

// allowedTransitions is the full lifecycle: TEMP -> READY|FAILED,
// READY -> CONFIRMED|DELETED, CONFIRMED -> DELETED. FAILED and DELETED
// are terminal; FAILED rows are reclaimed by the cleanup sweeps, not
// transitioned further.
var allowedTransitions = map[ImageStatus][]ImageStatus{
	ImageStatusTemp:      {ImageStatusReady, ImageStatusFailed},
	ImageStatusReady:     {ImageStatusConfirmed, ImageStatusDeleted},
	ImageStatusConfirmed: {ImageStatusDeleted},
}

func (s ImageStatus) CanTransitionTo(next ImageStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Image struct {
	ID              string
	Status          ImageStatus
	ReferenceID     *string
	ReferenceTypeID int
	URL             string
	UploaderID      string
	Deleted         bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Populated when the query joins them; nil otherwise.
	StorageObject *StorageObject
	ReferenceType *ReferenceType
}

type StorageObject struct {
	ImageID         string
	StorageLocation string
	OriginSize      int64
	ConvertedSize   *int64
	OriginFormat    string
	ConvertedFormat *string
}

type StatusHistory struct {
	ID        int64
	ImageID   string
	OldStatus ImageStatus
	NewStatus ImageStatus
	ChangedBy string
	Reason    string
	ChangedAt time.Time
}

type ImageSequence struct {
	ReferenceID string
	ImageID     string
	SeqNumber   int
}

// SequencedImage is a sequence row joined with its image, as returned by
// the ordered reference listing.
type SequencedImage struct {
	Image     Image
	SeqNumber int
}
