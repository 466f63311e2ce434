// Package verify checks downloaded artifacts against the optional integrity
// fields of a manifest variant: a SHA-256 digest and a detached OpenPGP
// signature verified against the user's keyrings.
package verify

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// Method names a verification method.
type Method string

const (
	MethodSHA256  Method = "sha256"
	MethodOpenPGP Method = "openpgp"
)

// ErrNoKeyring is returned when a signature must be checked but no public
// keys are installed.
var ErrNoKeyring = errors.New("no OpenPGP public keys found")

// Error reports a failed verification.
type Error struct {
	Method Method
	Path   string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s verification failed for %s: %v", e.Method, filepath.Base(e.Path), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Verifier checks artifacts. Public keys are read from keyringDir (*.asc
// armored, *.gpg binary).
type Verifier struct {
	keyringDir string
}

// NewVerifier creates a new verifier
func NewVerifier(keyringDir string) *Verifier {
	return &Verifier{keyringDir: keyringDir}
}

// SHA256 compares the file's digest with expected (hex, case-insensitive).
func (v *Verifier) SHA256(path, expected string) error {
	actual, err := SHA256File(path)
	if err != nil {
		return &Error{Method: MethodSHA256, Path: path, Err: err}
	}

	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return &Error{
			Method: MethodSHA256,
			Path:   path,
			Err:    fmt.Errorf("checksum mismatch: actual %s, expected %s", actual, expected),
		}
	}
	return nil
}

// Signature checks a detached signature (armored or binary) over the file.
func (v *Verifier) Signature(path, signaturePath string) error {
	keyring, err := v.LoadKeyring()
	if err != nil {
		return &Error{Method: MethodOpenPGP, Path: path, Err: err}
	}

	signed, err := os.ReadFile(path)
	if err != nil {
		return &Error{Method: MethodOpenPGP, Path: path, Err: fmt.Errorf("read artifact: %w", err)}
	}
	sig, err := os.ReadFile(signaturePath)
	if err != nil {
		return &Error{Method: MethodOpenPGP, Path: path, Err: fmt.Errorf("read signature: %w", err)}
	}

	// Try armored first, then binary.
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(signed), bytes.NewReader(sig), nil)
	if err != nil {
		_, err = openpgp.CheckDetachedSignature(keyring, bytes.NewReader(signed), bytes.NewReader(sig), nil)
	}
	if err != nil {
		return &Error{Method: MethodOpenPGP, Path: path, Err: fmt.Errorf("verify signature: %w", err)}
	}
	return nil
}

// LoadKeyring reads every key file in the keyring directory.
func (v *Verifier) LoadKeyring() (openpgp.EntityList, error) {
	entries, err := os.ReadDir(v.keyringDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoKeyring, v.keyringDir)
		}
		return nil, fmt.Errorf("read keyring directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".asc", ".gpg":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var keyring openpgp.EntityList
	for _, name := range names {
		keys, err := readKeyFile(filepath.Join(v.keyringDir, name))
		if err != nil {
			return nil, fmt.Errorf("keyring %s: %w", name, err)
		}
		keyring = append(keyring, keys...)
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoKeyring, v.keyringDir)
	}
	return keyring, nil
}

func readKeyFile(path string) (openpgp.EntityList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	defer f.Close()

	keyring, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Try reading as non-armored keyring
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return nil, seekErr
		}
		keyring, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return nil, fmt.Errorf("read keyring: %w", err)
		}
	}
	return keyring, nil
}

// SHA256File calculates the SHA256 checksum of a file
func SHA256File(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
