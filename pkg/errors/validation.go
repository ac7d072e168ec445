package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID validates an id used as a key in a node or tensor map.
// Ids end up in file names (nodes/<id>.json) and cache keys, so the rules
// are the same conservative set for both:
//   - No empty ids
//   - No control characters or whitespace
//   - No path separators
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeMalformedRecord, "id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeMalformedRecord, "id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeMalformedRecord, "id %q contains invalid characters", id)
		}
	}

	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeMalformedRecord, "id %q cannot contain path separators", id)
	}

	return nil
}

// maxPathLength bounds input paths; it matches PATH_MAX on Linux.
const maxPathLength = 4096

// ValidatePath checks a local input path before it is opened. Absolute and
// relative paths are both allowed; the path must be non-empty, at most
// maxPathLength bytes, and free of NUL and other control characters, which
// only appear in mangled or hostile input.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d bytes)", maxPathLength)
	}
	if i := strings.IndexFunc(path, unicode.IsControl); i >= 0 {
		return New(ErrCodeInvalidPath, "path contains a control character at byte %d", i)
	}
	return nil
}
