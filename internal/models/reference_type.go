package models

// ReferenceType defines what an image can be attached to (product, profile,
// post, ...) and how many images that target accepts.
type ReferenceType struct {
	ID             int
	Code           string
	Name           string
	AllowsMultiple bool
	// MaxImages is nil for unlimited.
	MaxImages   *int
	Description string
}

// Mono reports whether the type accepts at most one attached image.
func (rt ReferenceType) Mono() bool {
	return !rt.AllowsMultiple || (rt.MaxImages != nil && *rt.MaxImages == 1)
}

// AllowsCount reports whether count attached images are within the type's
// cardinality rules.
func (rt ReferenceType) AllowsCount(count int) bool {
	if count <= 0 {
		return false
	}
	if rt.Mono() && count > 1 {
		return false
	}
	if rt.MaxImages != nil && count > *rt.MaxImages {
		return false
	}
	return true
}

// Extension is a catalog entry for a file format the server accepts.
type Extension struct {
	Code string
	Name string
}
