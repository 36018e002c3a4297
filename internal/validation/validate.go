// Package validation provides centralized input validation logic.
// This includes file name and destination folder validation.
//
// All user inputs are validated before any network call so that malformed
// requests fail fast on the client side.
package validation

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/perimeter-studio/uploader/errors"
)

// ValidateFileName validates that a file name can be used as an object key
// segment. This prevents path traversal and control characters.
func ValidateFileName(name string) error {
	if name == "" {
		return errors.NewError("validateFileName", errors.ErrInvalidInput).
			WithMessage("file name cannot be empty")
	}

	if strings.ContainsAny(name, "/\\") {
		return errors.NewError("validateFileName", errors.ErrInvalidInput).
			WithKey(name).
			WithMessage("file name cannot contain path separators")
	}

	if name == "." || name == ".." {
		return errors.NewError("validateFileName", errors.ErrInvalidInput).
			WithKey(name).
			WithMessage("file name cannot be a relative path element")
	}

	if len(name) > 255 {
		return errors.NewError("validateFileName", errors.ErrInvalidInput).
			WithKey(name).
			WithMessage("file name cannot exceed 255 characters")
	}

	if hasControlCharacters(name) {
		return errors.NewError("validateFileName", errors.ErrInvalidInput).
			WithKey(name).
			WithMessage("file name cannot contain control characters")
	}

	return nil
}

// ValidateFolder validates an optional destination folder. An empty folder
// is allowed and means the store's root.
func ValidateFolder(folder string) error {
	if folder == "" {
		return nil
	}

	if hasPathTraversal(folder) {
		return errors.NewError("validateFolder", errors.ErrInvalidInput).
			WithKey(folder).
			WithMessage("folder cannot contain path traversal sequences")
	}

	if len(folder) > 1024 {
		return errors.NewError("validateFolder", errors.ErrInvalidInput).
			WithKey(folder).
			WithMessage("folder cannot exceed 1024 characters")
	}

	if hasControlCharacters(folder) {
		return errors.NewError("validateFolder", errors.ErrInvalidInput).
			WithKey(folder).
			WithMessage("folder cannot contain control characters")
	}

	return nil
}

// hasPathTraversal checks for path traversal attempts in folder keys
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}

	cleaned := filepath.Clean(key)

	if strings.HasPrefix(cleaned, "..") {
		return true
	}

	// Absolute path attempts
	if strings.HasPrefix(cleaned, "/") {
		return true
	}

	// Windows-style absolute paths
	if len(cleaned) >= 3 && cleaned[1] == ':' && (cleaned[2] == '\\' || cleaned[2] == '/') {
		return true
	}

	return false
}

// hasControlCharacters checks for control characters in the value
func hasControlCharacters(s string) bool {
	for _, char := range s {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
