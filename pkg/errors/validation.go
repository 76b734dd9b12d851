package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateBoardName validates a board name for safety and correctness.
// It rejects names that could be used for path traversal or injection attacks.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - No null bytes
//   - Maximum length of 256 characters
func ValidateBoardName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidBoard, "board name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidBoard, "board name too long (max 256 characters)")
	}

	// Check for control characters and null bytes
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidBoard, "board name contains invalid control characters")
		}
	}

	// Check for path traversal patterns
	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidBoard, "board name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidatePath validates a file path for safety.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// layerIDRegex matches layer identifiers as they appear in board files.
// Examples: "F.Cu", "In1.Cu", "B.Cu", "copper-top".
var layerIDRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateLayerID validates a layer identifier.
func ValidateLayerID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidLayer, "layer id cannot be empty")
	}

	if len(id) > 128 {
		return New(ErrCodeInvalidLayer, "layer id too long (max 128 characters)")
	}

	if !layerIDRegex.MatchString(id) {
		return New(ErrCodeInvalidLayer, "invalid layer id: %q", id)
	}

	return nil
}

// netNameRegex matches net names. Netlist exporters commonly emit names
// with slashes and parentheses, so those are allowed.
var netNameRegex = regexp.MustCompile(`^[A-Za-z0-9_+\-./() ]+$`)

// ValidateNetName validates a net name. Empty names are allowed; an
// empty net means the object is unconnected.
func ValidateNetName(name string) error {
	if name == "" {
		return nil
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "net name too long (max 256 characters)")
	}

	if !netNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid net name: %q", name)
	}

	return nil
}
