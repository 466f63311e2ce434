package platform

import (
	"context"
	"errors"
	"runtime"
	"testing"
)

func TestRealDetector_Detect(t *testing.T) {
	want, keyErr := KeyFor(runtime.GOOS, runtime.GOARCH)

	info, err := NewDetector().Detect(context.Background())
	if keyErr != nil {
		if !errors.Is(err, ErrUnsupported) {
			t.Fatalf("Detect() error = %v, want ErrUnsupported on %s/%s", err, runtime.GOOS, runtime.GOARCH)
		}
		return
	}
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.Key != want {
		t.Errorf("Key = %v, want %v", info.Key, want)
	}
	if info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}

	// Distro detection may fail gracefully, but a platform implies a family.
	if info.Platform != "" && info.Family == "" {
		t.Error("Family should be set when Platform is set")
	}
}

func TestRealDetector_ForcedPlatforms(t *testing.T) {
	tests := []struct {
		goos    string
		goarch  string
		want    Key
		wantErr bool
	}{
		{"darwin", "arm64", MacOSAarch64, false},
		{"windows", "amd64", WindowsX8664, false},
		{"plan9", "amd64", "", true},
		{"linux", "riscv64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			info, err := newDetectorFor(tt.goos, tt.goarch).Detect(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupported) {
					t.Fatalf("Detect() error = %v, want ErrUnsupported", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if info.Key != tt.want {
				t.Errorf("Key = %v, want %v", info.Key, tt.want)
			}
			if info.GetDistro() != nil {
				t.Error("non-Linux platform should not report a distro")
			}
		})
	}
}

func TestStaticDetector(t *testing.T) {
	detector := StaticDetector{Info: Info{Key: LinuxX8664, OS: "linux", Arch: "amd64"}}

	info, err := detector.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if info.Key != LinuxX8664 {
		t.Errorf("Key = %v, want %v", info.Key, LinuxX8664)
	}

	// Mutating the result must not leak back into the detector.
	info.Key = MacOSX8664
	again, _ := detector.Detect(context.Background())
	if again.Key != LinuxX8664 {
		t.Errorf("StaticDetector returned shared state: %v", again.Key)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := detector.Detect(ctx); err == nil {
		t.Error("expected error for cancelled context")
	}
}
