// Package photo validates catch photo paths against the external photo
// storage contract. Storage itself (upload, resizing, URL signing) lives
// outside this backend; the only rule enforced here is that a path must lie
// inside the requesting owner's partition before it is trusted.
package photo

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/mhalme/fishlog/backend/internal/domain"
)

// ValidatePath checks that p is a clean relative path inside the owner's
// partition ("<owner-id>/..."). Absolute paths, traversal segments, and
// paths pointing into another owner's partition are validation errors.
func ValidatePath(ownerID uuid.UUID, p string) error {
	if p == "" {
		return fmt.Errorf("%w: photo path must not be empty", domain.ErrValidation)
	}
	if strings.HasPrefix(p, "/") {
		return fmt.Errorf("%w: photo path must be relative", domain.ErrValidation)
	}

	// Clean collapses "." and ".." segments; a path that escapes upward
	// cleans to something starting with "..".
	cleaned := path.Clean(p)
	if cleaned != p || strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("%w: photo path must not contain traversal segments", domain.ErrValidation)
	}

	prefix := ownerID.String() + "/"
	if !strings.HasPrefix(cleaned, prefix) || len(cleaned) == len(prefix) {
		return fmt.Errorf("%w: photo path outside owner partition", domain.ErrValidation)
	}
	return nil
}
