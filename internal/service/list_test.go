package service

import (
	"testing"
)

func TestList(t *testing.T) {
	f := newFixture(t)
	f.scenarioA()

	svc, err := NewListService(f.deps())
	if err != nil {
		t.Fatal(err)
	}

	entries, err := svc.Execute(t.Context())
	if err != nil || len(entries) != 0 {
		t.Fatalf("empty list = %v, %v", entries, err)
	}

	f.install("foo")

	entries, err = svc.Execute(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Record.Name != "foo" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].UpdateAvailable {
		t.Error("same version reported as update")
	}

	// The manifest moves ahead.
	f.writeManifest(`{"foo":{"description":"d","version":"1.2","platforms":{"linux-x86_64":{"url":"{{server}}/foo.tar.gz"}}}}`)
	hits := f.hits.Load()

	entries, err = svc.Execute(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if !entries[0].UpdateAvailable || entries[0].Available != "1.2" {
		t.Errorf("entry = %+v, want update to 1.2", entries[0])
	}
	if f.hits.Load() != hits {
		t.Error("list touched the network")
	}
}

func TestList_ManifestPlatformFilter(t *testing.T) {
	f := newFixture(t)
	f.scenarioA()
	f.install("foo")

	// A newer version that exists only for another platform is not offered.
	f.writeManifest(`{"foo":{"description":"d","version":"9.0","platforms":{"macos-aarch64":{"url":"{{server}}/foo.tar.gz"}}}}`)

	svc, _ := NewListService(f.deps())
	entries, err := svc.Execute(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if entries[0].UpdateAvailable || entries[0].Available != "" {
		t.Errorf("entry = %+v, want no update", entries[0])
	}
}

func TestNewer(t *testing.T) {
	tests := []struct {
		candidate, current string
		want               bool
	}{
		{"1.2", "1.0", true},
		{"v2.0.0", "1.9.9", true},
		{"1.0", "1.0.0", false},
		{"0.9", "1.0", false},
		{"1.0.0", "1.0.0-rc1", true},
		{"latest", "1.0", false},
		{"2.0", "nightly", false},
	}
	for _, tt := range tests {
		if got := newer(tt.candidate, tt.current); got != tt.want {
			t.Errorf("newer(%q, %q) = %v, want %v", tt.candidate, tt.current, got, tt.want)
		}
	}
}
