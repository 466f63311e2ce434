package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct {
	goos   string
	goarch string
}

// NewDetector creates a detector for the running process.
func NewDetector() Detector {
	return &RealDetector{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// newDetectorFor creates a detector that reports the given OS and
// architecture instead of the running ones.
func newDetectorFor(goos, goarch string) *RealDetector {
	return &RealDetector{goos: goos, goarch: goarch}
}

// Detect resolves the platform key and, on Linux, distribution details.
//
// An unrecognized OS/architecture pair fails with ErrUnsupported. Distro
// detection failures fall back to empty distro fields; only context
// cancellation is treated as a hard failure there.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	key, err := KeyFor(d.goos, d.goarch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	info := &Info{
		Key:  key,
		OS:   d.goos,
		Arch: d.goarch,
	}

	// Distro details only make sense for the host we are running on.
	if d.goos != "linux" || runtime.GOOS != "linux" {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform != "" {
		info.Platform = platform
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
	}

	return info, nil
}

// StaticDetector returns a fixed Info. It is used when the platform key is
// forced through configuration and in tests.
type StaticDetector struct {
	Info Info
}

// Detect returns a copy of the configured Info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info := s.Info
	return &info, nil
}
