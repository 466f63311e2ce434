// Package platform resolves the running OS and CPU architecture to the
// platform key used to select a package variant from a manifest.
//
// Detection uses runtime.GOOS and runtime.GOARCH for the key, and gopsutil
// for Linux distribution details that are reported to the user and exposed
// to local Lua manifests. Distro detection failures never prevent key
// resolution.
package platform

import (
	"context"
	"errors"
)

// ErrUnsupported is returned when the running OS/architecture pair does not
// map to any known platform key.
var ErrUnsupported = errors.New("platform unsupported")

// Key is a normalized OS+architecture identifier, e.g. "linux-x86_64".
type Key string

// Recognized platform keys. Manifests index their platform maps by these.
const (
	LinuxX8664     Key = "linux-x86_64"
	LinuxAarch64   Key = "linux-aarch64"
	MacOSX8664     Key = "macos-x86_64"
	MacOSAarch64   Key = "macos-aarch64"
	WindowsX8664   Key = "windows-x86_64"
	WindowsAarch64 Key = "windows-aarch64"
)

// String returns the string representation of the key.
func (k Key) String() string {
	return string(k)
}

// IsWindows reports whether the key targets Windows.
func (k Key) IsWindows() bool {
	return k == WindowsX8664 || k == WindowsAarch64
}

// Keys returns every recognized platform key.
func Keys() []Key {
	return []Key{LinuxX8664, LinuxAarch64, MacOSX8664, MacOSAarch64, WindowsX8664, WindowsAarch64}
}

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	Key      Key    // resolved platform key
	OS       string // GOOS: "linux", "darwin", "windows"
	Arch     string // GOARCH: "amd64", "arm64"
	Platform string // distro ID (Linux only, e.g., "ubuntu", "arch")
	Family   string // canonical family (e.g., "debian", "rhel", "arch")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.OS != "linux" || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// IsARM64 returns true if the architecture is arm64.
func (i *Info) IsARM64() bool {
	return i.Arch == "arm64"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
