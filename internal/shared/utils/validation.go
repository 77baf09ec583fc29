package utils

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Payload size limits (in bytes)
const (
	MaxDocumentSize = 8 * 1024 * 1024 // 8MB - maximum notebook payload size
	MaxContentSize  = 512 * 1024      // 512KB - single window content limit
	MaxMessageSize  = 16 * 1024       // 16KB - single stream message limit
)

// String length limits
const (
	MaxNameLength = 256
	MaxTagLength  = 32
	MaxTagCount   = 20
)

// Regular expressions for validation
var (
	// NotebookNamePattern allows simple file stems: alphanumeric, hyphens,
	// underscores, dots (no separators, no traversal)
	NotebookNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._ -]*$`)
	// ProfileNamePattern allows alphanumeric, hyphens, underscores
	ProfileNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// DefaultJSONValidator returns a validator with the default document limit
func DefaultJSONValidator() *JSONSizeValidator {
	return NewJSONSizeValidator(MaxDocumentSize)
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	if len(data) > v.maxSize {
		return fmt.Errorf("JSON size %d bytes exceeds maximum %d bytes", len(data), v.maxSize)
	}
	return nil
}

// ValidateJSON validates both size and JSON structure
func (v *JSONSizeValidator) ValidateJSON(data []byte) error {
	// Check size first (faster than parsing)
	if err := v.ValidateSize(data); err != nil {
		return err
	}

	var js interface{}
	if err := json.Unmarshal(data, &js); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateNotebookName validates a stored notebook name: a bare file stem,
// never a path. Traversal and separators are rejected outright.
func ValidateNotebookName(name string) error {
	if err := ValidateString(name, "notebook name", 1, MaxNameLength, true); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("notebook name must not contain path separators")
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return fmt.Errorf("notebook name must not contain path components")
	}
	if !NotebookNamePattern.MatchString(name) {
		return fmt.Errorf("notebook name contains invalid characters")
	}
	return nil
}

// ValidateNotebookPath validates a root-relative notebook path: one or
// more slash-separated segments, each a valid name. Listings advertise
// nested documents this way, so loads must accept the same shape.
func ValidateNotebookPath(path string) error {
	if strings.Contains(path, `\`) {
		return fmt.Errorf("notebook path must use forward slashes")
	}
	for _, segment := range strings.Split(path, "/") {
		if err := ValidateNotebookName(segment); err != nil {
			return err
		}
	}
	return nil
}

// ValidateProfileName validates a remote server profile name
func ValidateProfileName(name string) error {
	if err := ValidateString(name, "profile name", 1, MaxNameLength, true); err != nil {
		return err
	}
	if !ProfileNamePattern.MatchString(name) {
		return fmt.Errorf("profile name contains invalid characters (only alphanumeric, hyphens, and underscores allowed)")
	}
	return nil
}

// ValidateTags validates an array of window tags
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagCount {
		return fmt.Errorf("too many tags (maximum %d)", MaxTagCount)
	}

	for i, tag := range tags {
		if err := ValidateString(tag, fmt.Sprintf("tag[%d]", i), 1, MaxTagLength, false); err != nil {
			return err
		}
	}

	return nil
}

// ValidateContent validates window content size
func ValidateContent(content string) error {
	if len(content) > MaxContentSize {
		return fmt.Errorf("content size %d bytes exceeds maximum %d bytes", len(content), MaxContentSize)
	}
	if strings.Contains(content, "\x00") {
		return fmt.Errorf("content contains invalid characters")
	}
	return nil
}
