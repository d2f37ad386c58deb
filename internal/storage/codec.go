package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/cory-johannsen/mapseed/internal/tactical"
)

// Fingerprint identifies the content of an artifact document.
type Fingerprint [blake2b.Size256]byte

// EncodeArtifact returns the JSON document for a and its content fingerprint.
// The generation timestamp is excluded from the fingerprint so regenerating
// identical content is recognized as unchanged.
//
// Postcondition: Artifacts differing only in GeneratedAt share a fingerprint.
func EncodeArtifact(a tactical.MapArtifact) ([]byte, Fingerprint, error) {
	doc, err := json.Marshal(a)
	if err != nil {
		return nil, Fingerprint{}, fmt.Errorf("encoding artifact %s: %w", a.ID(), err)
	}
	content := a
	content.GeneratedAt = time.Time{}
	body, err := json.Marshal(content)
	if err != nil {
		return nil, Fingerprint{}, fmt.Errorf("encoding artifact %s: %w", a.ID(), err)
	}
	return doc, blake2b.Sum256(body), nil
}

// DecodeArtifact parses a stored artifact document.
func DecodeArtifact(doc []byte) (tactical.MapArtifact, error) {
	var a tactical.MapArtifact
	if err := json.Unmarshal(doc, &a); err != nil {
		return tactical.MapArtifact{}, fmt.Errorf("decoding artifact: %w", err)
	}
	return a, nil
}

// ParseFingerprint converts stored fingerprint bytes back to a Fingerprint.
func ParseFingerprint(b []byte) (Fingerprint, bool) {
	var fp Fingerprint
	if len(b) != len(fp) {
		return Fingerprint{}, false
	}
	copy(fp[:], b)
	return fp, true
}
