package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// HashAlgorithm represents the hashing algorithm to use
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
)

// Hasher provides extensible hashing functionality
type Hasher struct {
	algorithm HashAlgorithm
}

// NewHasher creates a new hasher with the specified algorithm
func NewHasher(algorithm HashAlgorithm) *Hasher {
	return &Hasher{
		algorithm: algorithm,
	}
}

// DefaultHasher returns a hasher with the default algorithm
func DefaultHasher() *Hasher {
	return NewHasher(SHA256)
}

// Hash computes a hash of the input data
func (h *Hasher) Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashString computes a hash of a string
func (h *Hasher) HashString(s string) string {
	return h.Hash([]byte(s))
}

// HashJSON computes a hash of a JSON-serializable object.
// The hash is deterministic (same object = same hash).
func (h *Hasher) HashJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return h.Hash(data), nil
}

// HashFields computes a hash from multiple fields.
// Fields are sorted and concatenated with a delimiter for consistent hashing.
func (h *Hasher) HashFields(fields ...string) string {
	sorted := make([]string, len(fields))
	copy(sorted, fields)
	sort.Strings(sorted)

	combined := strings.Join(sorted, "|")
	return h.HashString(combined)
}

// WindowIdentifier derives a deterministic identity for a window from the
// properties that survive export/import unchanged. Position is deliberately
// excluded: moving a window must not change its identity.
type WindowIdentifier struct {
	hasher *Hasher
}

// NewWindowIdentifier creates a new window identifier
func NewWindowIdentifier(hasher *Hasher) *WindowIdentifier {
	if hasher == nil {
		hasher = DefaultHasher()
	}
	return &WindowIdentifier{hasher: hasher}
}

// GenerateHash generates a deterministic identity hash for a window
func (wi *WindowIdentifier) GenerateHash(kind types.Kind, createdAt time.Time, content string) string {
	fields := []string{
		fmt.Sprintf("kind:%s", kind),
		fmt.Sprintf("created:%s", createdAt.UTC().Format(time.RFC3339)),
		fmt.Sprintf("content:%s", content),
	}
	return wi.hasher.HashFields(fields...)
}

// GenerateShortHash generates a short (8-character) hash for display
func (wi *WindowIdentifier) GenerateShortHash(fullHash string) string {
	if len(fullHash) < 8 {
		return fullHash
	}
	return fullHash[:8]
}

// SameWindow reports whether a decoded candidate and a stored record carry
// the same identity, meaning the candidate originated from that record's
// own prior export.
func (wi *WindowIdentifier) SameWindow(a, b types.WindowRecord) bool {
	ha := wi.GenerateHash(a.Kind, a.CreatedAt, a.State.Content)
	hb := wi.GenerateHash(b.Kind, b.CreatedAt, b.State.Content)
	return ha == hb
}
