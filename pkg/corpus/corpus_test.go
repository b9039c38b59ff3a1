package corpus

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/r3d91ll/glyph/pkg/cipherkey"
	werrors "github.com/r3d91ll/glyph/pkg/errors"
)

func TestAlign(t *testing.T) {
	tests := []struct {
		name       string
		plain      []string
		cipher     []string
		wantPlain  []string
		wantCipher []string
		truncated  bool
	}{
		{
			name:       "plaintext longer",
			plain:      []string{"h", "e", "l", "l", "o"},
			cipher:     []string{"1", "2", "3"},
			wantPlain:  []string{"h", "e", "l"},
			wantCipher: []string{"1", "2", "3"},
			truncated:  true,
		},
		{
			name:       "ciphertext longer",
			plain:      []string{"h", "i"},
			cipher:     []string{"1", "2", "3", "4"},
			wantPlain:  []string{"h", "i"},
			wantCipher: []string{"1", "2"},
			truncated:  true,
		},
		{
			name:       "equal lengths untouched",
			plain:      []string{"c", "a", "t"},
			cipher:     []string{"5", "12", "5"},
			wantPlain:  []string{"c", "a", "t"},
			wantCipher: []string{"5", "12", "5"},
		},
		{
			name:       "one side empty",
			plain:      nil,
			cipher:     []string{"1"},
			wantPlain:  []string{},
			wantCipher: []string{},
			truncated:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Align(tt.plain, tt.cipher)
			if diff := cmp.Diff(tt.wantPlain, a.Plaintext, cmpEmpty); diff != "" {
				t.Errorf("plaintext mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantCipher, a.Ciphertext, cmpEmpty); diff != "" {
				t.Errorf("ciphertext mismatch (-want +got):\n%s", diff)
			}
			if a.Truncated() != tt.truncated {
				t.Errorf("Truncated() = %v, want %v", a.Truncated(), tt.truncated)
			}
			if len(a.Plaintext) != len(a.Ciphertext) {
				t.Errorf("aligned lengths differ: %d vs %d", len(a.Plaintext), len(a.Ciphertext))
			}
			if a.PlaintextLen != len(tt.plain) || a.CiphertextLen != len(tt.cipher) {
				t.Errorf("original lengths not recorded: %d/%d", a.PlaintextLen, a.CiphertextLen)
			}
		})
	}
}

// cmpEmpty treats nil and empty slices as equal.
var cmpEmpty = cmp.Comparer(func(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
})

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestBuild_Truncates(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer

	key, err := cipherkey.ParseJSON([]byte(`{"plaintext":"hello","ciphertext":"7 3 9","key":{}}`))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Build(key, Options{Dir: dir, Logger: log.New(&logs, "", 0)})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if got := readFile(t, res.PlaintextPath); got != "h e l" {
		t.Errorf("plaintext.txt = %q", got)
	}
	if got := readFile(t, res.CiphertextPath); got != "7 3 9" {
		t.Errorf("ciphertext.txt = %q", got)
	}
	if got := readFile(t, res.CombinedPath); got != "7 3 9\nh e l\n" {
		t.Errorf("combined.txt = %q", got)
	}

	if !strings.Contains(logs.String(), "plaintext (5) and ciphertext (3) lengths differ") {
		t.Errorf("expected length warning naming both lengths, got:\n%s", logs.String())
	}
	if filepath.Base(res.CombinedPath) != DefaultCombinedFile {
		t.Errorf("unexpected combined file name %q", res.CombinedPath)
	}
}

func TestBuild_EqualLengthsUnchanged(t *testing.T) {
	dir := t.TempDir()
	var logs bytes.Buffer

	key, err := cipherkey.ParseJSON([]byte(`{"plaintext":"cat","ciphertext":"5 12 5"}`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := Build(key, Options{Dir: dir, Logger: log.New(&logs, "", 0)})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if res.Alignment.Truncated() {
		t.Error("equal-length input should not be truncated")
	}
	if got := readFile(t, res.PlaintextPath); got != "c a t" {
		t.Errorf("plaintext.txt = %q", got)
	}
	if strings.Contains(logs.String(), "warning") {
		t.Errorf("no warning expected for matching lengths, got:\n%s", logs.String())
	}

	lines := strings.Split(strings.TrimSuffix(readFile(t, res.CombinedPath), "\n"), "\n")
	if len(lines) != 2 || lines[0] != "5 12 5" || lines[1] != "c a t" {
		t.Errorf("combined.txt should be ciphertext then plaintext, got %q", lines)
	}
}

func TestBuild_CustomNamesAndNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "corpus")
	key, err := cipherkey.ParseJSON([]byte(`{"plaintext":"ab","ciphertext":"1 2"}`))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Build(key, Options{
		Dir:            dir,
		PlaintextFile:  "p.txt",
		CiphertextFile: "c.txt",
		CombinedFile:   "both.txt",
		Logger:         log.New(&bytes.Buffer{}, "", 0),
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	for _, p := range []string{res.PlaintextPath, res.CiphertextPath, res.CombinedPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if filepath.Base(res.CombinedPath) != "both.txt" {
		t.Errorf("custom combined name not used: %s", res.CombinedPath)
	}
}

func TestBuild_MissingField(t *testing.T) {
	key, err := cipherkey.ParseJSON([]byte(`{"plaintext":"abc"}`))
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	_, err = Build(key, Options{Dir: dir, Logger: log.New(&bytes.Buffer{}, "", 0)})
	if !werrors.IsCode(err, werrors.ErrKeyFieldMissing) {
		t.Fatalf("expected KEY_FIELD_MISSING, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("no files should be written on a missing field, found %d", len(entries))
	}
}
