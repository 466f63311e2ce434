package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// KeyFor maps a GOOS/GOARCH pair to a platform key.
// Both Go names and their common aliases ("x86_64", "aarch64", "macos") are accepted.
func KeyFor(goos, goarch string) (Key, error) {
	osName, err := normalizeOS(goos)
	if err != nil {
		return "", err
	}

	archName, err := normalizeArch(goarch)
	if err != nil {
		return "", err
	}

	return Key(osName + "-" + archName), nil
}

// normalizeOS converts GOOS values to the OS half of a platform key.
func normalizeOS(goos string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(goos)) {
	case "linux":
		return "linux", nil
	case "darwin", "macos":
		return "macos", nil
	case "windows":
		return "windows", nil
	default:
		return "", fmt.Errorf("%w: operating system %q", ErrUnsupported, goos)
	}
}

// normalizeArch converts GOARCH values to the architecture half of a platform key.
func normalizeArch(goarch string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(goarch)) {
	case "amd64", "x86_64":
		return "x86_64", nil
	case "arm64", "aarch64":
		return "aarch64", nil
	default:
		return "", fmt.Errorf("%w: architecture %q", ErrUnsupported, goarch)
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
