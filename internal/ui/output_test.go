package ui

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestPrinter(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)

	p.Success("installed %s", "ripgrep")
	p.Info("downloading")
	p.Step("linking %d executables", 2)
	p.Warning("package %q is already installed", "fd")
	p.Error("boom")
	p.Line("%s - %s", "jq", "JSON processor")

	// Buffers are not terminals, so output carries no escape codes.
	wantOut := "[SUCCESS] installed ripgrep\n[INFO] downloading\n[STEP] linking 2 executables\njq - JSON processor\n"
	if out.String() != wantOut {
		t.Errorf("stdout = %q, want %q", out.String(), wantOut)
	}
	wantErr := "[WARNING] package \"fd\" is already installed\n[ERROR] boom\n"
	if errOut.String() != wantErr {
		t.Errorf("stderr = %q, want %q", errOut.String(), wantErr)
	}
	if strings.Contains(out.String(), "\x1b[") {
		t.Error("plain writer received ANSI codes")
	}
}

func TestIsInteractive(t *testing.T) {
	if IsInteractive(&bytes.Buffer{}) {
		t.Error("buffer should not be interactive")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsInteractive(f) {
		t.Error("regular file should not be interactive")
	}
}
