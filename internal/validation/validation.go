// Package validation checks request input before it reaches the
// services. Violations carry field names so handlers can return them
// verbatim.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type Result struct {
	Violations []Violation
}

func (r *Result) add(field, message string) {
	r.Violations = append(r.Violations, Violation{Field: field, Message: message})
}

func (r Result) OK() bool {
	return len(r.Violations) == 0
}

func ValidateUpload(category, filename string, size int64) Result {
	var r Result
	if strings.TrimSpace(category) == "" {
		r.add("category", "must not be blank")
	}
	if strings.TrimSpace(filename) == "" {
		r.add("file", "filename must not be blank")
	} else if strings.TrimPrefix(filepath.Ext(filename), ".") == "" {
		r.add("file", "filename must carry an extension")
	}
	if size <= 0 {
		r.add("file", "must not be empty")
	}
	return r
}

// ValidateConfirm accepts an empty id list: confirming an empty set
// detaches everything from the reference.
func ValidateConfirm(referenceID string, imageIDs []string) Result {
	var r Result
	if strings.TrimSpace(referenceID) == "" {
		r.add("referenceId", "must not be blank")
	}
	for i, id := range imageIDs {
		if strings.TrimSpace(id) == "" {
			r.add(fmt.Sprintf("imageIds[%d]", i), "must not be blank")
		}
	}
	return r
}
