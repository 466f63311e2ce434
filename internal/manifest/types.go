// Package manifest defines the package manifest model and its loaders.
//
// A manifest maps package names to packages; each package carries a map from
// platform key to a platform-specific variant. The polymorphic "executables"
// field is normalized once at decode time into []ExecutableSpec, so nothing
// downstream ever looks at the raw JSON shape again.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

var (
	// ErrManifestNotFound is returned when no local manifest copy exists.
	ErrManifestNotFound = errors.New("manifest not found")
	// ErrPackageNotFound is matched by *PackageNotFoundError.
	ErrPackageNotFound = errors.New("package not found")
	// ErrVariantUnavailable is returned when a package has no variant for the platform key.
	ErrVariantUnavailable = errors.New("variant unavailable")
	// ErrInvalidManifest is returned when manifest content cannot be used.
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Kind selects how a variant's artifact is materialized.
type Kind string

const (
	KindArchive Kind = "archive"
	KindBinary  Kind = "binary"
	KindBuild   Kind = "build"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindArchive, KindBinary, KindBuild:
		return true
	default:
		return false
	}
}

// ExecutableSpec is a path relative to the package install directory plus an
// optional alias for the bin directory.
type ExecutableSpec struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// Alias returns the bin-directory name: Name, or the final segment of Path.
func (e ExecutableSpec) Alias() string {
	if e.Name != "" {
		return e.Name
	}
	return path.Base(filepath.ToSlash(e.Path))
}

// Variant is the platform-specific part of a package.
type Variant struct {
	URL           string           `json:"url"`
	Kind          Kind             `json:"type"`
	Executables   []ExecutableSpec `json:"executables,omitempty"`
	BuildCommands []string         `json:"build_commands,omitempty"`

	// SHA256 is an optional hex digest of the artifact.
	SHA256 string `json:"sha256,omitempty"`
	// Signature is an optional URL of a detached OpenPGP signature.
	Signature string `json:"signature,omitempty"`
}

// rawVariant mirrors the wire format before normalization.
type rawVariant struct {
	URL           string          `json:"url"`
	Kind          Kind            `json:"type"`
	Executables   json.RawMessage `json:"executables"`
	BuildCommands []string        `json:"build_commands"`
	SHA256        string          `json:"sha256"`
	Signature     string          `json:"signature"`
}

// UnmarshalJSON decodes a variant, defaulting the kind to archive and
// normalizing the executables field.
func (v *Variant) UnmarshalJSON(data []byte) error {
	var raw rawVariant
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	executables, err := normalizeExecutables(raw.Executables)
	if err != nil {
		return err
	}

	*v = Variant{
		URL:           raw.URL,
		Kind:          raw.Kind,
		Executables:   executables,
		BuildCommands: raw.BuildCommands,
		SHA256:        strings.ToLower(strings.TrimSpace(raw.SHA256)),
		Signature:     raw.Signature,
	}
	if v.Kind == "" {
		v.Kind = KindArchive
	}

	return v.Validate()
}

// Validate checks the variant for structural problems.
func (v *Variant) Validate() error {
	if strings.TrimSpace(v.URL) == "" {
		return fmt.Errorf("url is required")
	}
	if !v.Kind.IsValid() {
		return fmt.Errorf("unknown package type %q (want archive, binary or build)", v.Kind)
	}
	if len(v.BuildCommands) > 0 && v.Kind != KindBuild {
		return fmt.Errorf("build_commands are only valid for type %q", KindBuild)
	}
	for _, exe := range v.Executables {
		cleaned := path.Clean(filepath.ToSlash(exe.Path))
		if filepath.IsAbs(exe.Path) || path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
			return fmt.Errorf("executable path %q must stay inside the package directory", exe.Path)
		}
		if alias := exe.Alias(); alias == "." || alias == "/" || strings.ContainsAny(alias, `/\`) {
			return fmt.Errorf("invalid executable alias %q", alias)
		}
	}
	return nil
}

// Package is a manifest entry.
type Package struct {
	Description string                   `json:"description"`
	Version     string                   `json:"version"`
	Tags        []string                 `json:"tags,omitempty"`
	Platforms   map[platform.Key]Variant `json:"platforms"`
}

// Variant returns the variant for key, or ErrVariantUnavailable.
func (p *Package) Variant(key platform.Key) (*Variant, error) {
	v, ok := p.Platforms[key]
	if !ok {
		return nil, fmt.Errorf("%w: no variant for %s", ErrVariantUnavailable, key)
	}
	return &v, nil
}

// Supports reports whether the package has a variant for key.
func (p *Package) Supports(key platform.Key) bool {
	_, ok := p.Platforms[key]
	return ok
}

// Manifest maps package names to packages.
type Manifest map[string]Package

// Get returns the named package. Unknown names fail with a
// *PackageNotFoundError carrying close matches.
func (m Manifest) Get(name string) (Package, error) {
	pkg, ok := m[name]
	if !ok {
		return Package{}, &PackageNotFoundError{Name: name, Suggestions: m.Suggest(name, 3)}
	}
	return pkg, nil
}

// Names returns all package names in sorted order.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge copies every entry of other into m, replacing same-named entries.
func (m Manifest) Merge(other Manifest) {
	for name, pkg := range other {
		m[name] = pkg
	}
}

// PackageNotFoundError reports an unknown package name.
type PackageNotFoundError struct {
	Name        string
	Suggestions []string
}

func (e *PackageNotFoundError) Error() string {
	msg := fmt.Sprintf("package %q not found", e.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

func (e *PackageNotFoundError) Is(target error) bool {
	return target == ErrPackageNotFound
}

// EntryError describes a manifest entry that was skipped during decoding.
type EntryError struct {
	Name string
	Err  error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("package %q: %v", e.Name, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
