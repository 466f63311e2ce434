// Package state is the installed-state store. A package is installed exactly
// when packages/<name>/leaf-package.json holds a valid record; the presence
// of the directory alone means nothing. Records are written last on install
// and deleted first on removal, so an interrupted operation always leaves
// the package classified as not installed.
package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/leaf/internal/manifest"
	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

// RecordFileName is the record kept inside each package directory.
const RecordFileName = "leaf-package.json"

var (
	// ErrNoRecord is returned when a package has no valid record.
	ErrNoRecord = errors.New("no installed record")
	// ErrInvalidName is returned for names that cannot be a directory name.
	ErrInvalidName = errors.New("invalid package name")
)

// Record is the persisted proof that a package completed installation.
type Record struct {
	Name        string                    `json:"name"`
	Version     string                    `json:"version"`
	Description string                    `json:"description,omitempty"`
	Tags        []string                  `json:"tags,omitempty"`
	Platform    platform.Key              `json:"platform"`
	Kind        manifest.Kind             `json:"type"`
	URL         string                    `json:"url"`
	Executables []manifest.ExecutableSpec `json:"executables"`
	// Aliases are the bin-directory names that were actually linked.
	Aliases        []string  `json:"aliases,omitempty"`
	InstalledFiles []string  `json:"installed_files,omitempty"`
	Artifact       string    `json:"artifact,omitempty"`
	ArtifactBLAKE3 string    `json:"artifact_blake3,omitempty"`
	InstalledAt    time.Time `json:"installed_at"`
}

// NewRecord snapshots pkg and its variant for name, stamped with installedAt.
func NewRecord(name string, pkg manifest.Package, key platform.Key, variant *manifest.Variant, installedAt time.Time) *Record {
	return &Record{
		Name:        name,
		Version:     pkg.Version,
		Description: pkg.Description,
		Tags:        pkg.Tags,
		Platform:    key,
		Kind:        variant.Kind,
		URL:         variant.URL,
		Executables: variant.Executables,
		InstalledAt: installedAt.UTC(),
	}
}

func (r *Record) validate() error {
	if r.Name == "" {
		return fmt.Errorf("record has no name")
	}
	if r.Version == "" {
		return fmt.Errorf("record for %s has no version", r.Name)
	}
	return nil
}

// ValidateName rejects names that would escape the packages directory or
// collide with its hidden staging areas.
func ValidateName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
