// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Name validation errors
	ErrNameRequired     = errors.New("name is required")
	ErrNameTooShort     = errors.New("name must be at least 3 characters")
	ErrNameTooLong      = errors.New("name must be at most 100 characters")
	ErrNameInvalidChars = errors.New("name can only contain alphanumeric characters, spaces, and hyphens")

	// Version validation errors
	ErrVersionRequired      = errors.New("version is required")
	ErrVersionInvalidFormat = errors.New("version must be in semver format (X.Y.Z)")

	// Manifest validation errors
	ErrManifestRequired = errors.New("manifest is required")

	// State transition errors
	ErrPublishRequiresImage = errors.New("cannot publish workload without a built image")
	ErrAlreadyPublished     = errors.New("workload is already published")
)

// =============================================================================
// Workload
// =============================================================================

// Workload is a registered, launchable service definition: a manifest plus
// the image built from it. A workload must be built and published before it
// can be launched.
type Workload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Version     string    `json:"version"`
	Manifest    string    `json:"manifest"`
	ImageTag    string    `json:"image_tag,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewWorkload creates a workload from a name, version and raw manifest.
// The manifest is stored verbatim; parsing and validation of its contents
// belong to the manifest package.
func NewWorkload(name, version, manifest string) (*Workload, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateVersion(version); err != nil {
		return nil, err
	}
	if strings.TrimSpace(manifest) == "" {
		return nil, ErrManifestRequired
	}

	now := time.Now().UTC()
	return &Workload{
		ID:        "wl_" + uuid.New().String()[:8],
		Name:      name,
		Slug:      Slugify(name),
		Version:   version,
		Manifest:  manifest,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Publish marks the workload as launchable. The image must be built first.
func (w *Workload) Publish() error {
	if w.Published {
		return ErrAlreadyPublished
	}
	if w.ImageTag == "" {
		return ErrPublishRequiresImage
	}
	w.Published = true
	w.UpdatedAt = time.Now().UTC()
	return nil
}

// SetImage records the tag of a successfully built image.
func (w *Workload) SetImage(tag string) {
	w.ImageTag = tag
	w.UpdatedAt = time.Now().UTC()
}

// =============================================================================
// Validation
// =============================================================================

// ValidateName checks workload name constraints.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if len(name) < 3 {
		return ErrNameTooShort
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	for _, r := range name {
		if !isNameRune(r) {
			return ErrNameInvalidChars
		}
	}
	return nil
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '-':
		return true
	}
	return false
}

// ValidateVersion checks the version is semver-shaped (X.Y.Z).
func ValidateVersion(version string) error {
	if version == "" {
		return ErrVersionRequired
	}
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return ErrVersionInvalidFormat
	}
	for _, p := range parts {
		if p == "" {
			return ErrVersionInvalidFormat
		}
		if _, err := strconv.Atoi(p); err != nil {
			return ErrVersionInvalidFormat
		}
	}
	return nil
}
